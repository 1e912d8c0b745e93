package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/John-Robertt/vidfilter/internal/config"
	"github.com/John-Robertt/vidfilter/internal/domain"
	"github.com/John-Robertt/vidfilter/internal/infra/cache"
	"github.com/John-Robertt/vidfilter/internal/infra/logx"
)

func main() {
	a := &app{
		stdout: os.Stdout,
		stderr: os.Stderr,
		stdin:  os.Stdin,
		getwd:  os.Getwd,
	}
	os.Exit(a.execute(os.Args[1:]))
}

// app 持有一次 CLI 调用的 IO；测试用 buffer 替换。
type app struct {
	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader
	getwd  func() (string, error)

	path     string
	logLevel string
}

// exitError 携带进程退出码：1 运行期失败，2 参数/配置/条件不合法。
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func usageErr(err error) error { return &exitError{code: 2, err: err} }

func runtimeErr(err error) error { return &exitError{code: 1, err: err} }

func (a *app) execute(args []string) int {
	root := a.newRootCmd()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.Execute()
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(a.stderr, "错误：%v\n", ee.err)
		}
		return ee.code
	}
	// cobra 自身的错误（未知命令、参数个数、flag 解析）都属于用法错误。
	fmt.Fprintf(a.stderr, "参数错误：%v\n", err)
	fmt.Fprintln(a.stderr, `使用 "vidfilter --help" 查看用法。`)
	return 2
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vidfilter",
		Short: "按编码、分辨率、时长等元数据筛选目录中的视频",
		Long: `vidfilter 用 ffprobe 读取目录中每个视频的元数据，按条件筛选，
把匹配的文件路径写入纯文本结果文件，并支持对结果排序、导出、打开、复制与删除。`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageErr(err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.path, "path", "", "要扫描的根目录（未指定时读取 cwd 下 vidfilter.* 中的 path）")
	pf.StringVar(&a.logLevel, "log-level", "", "日志级别：debug|info|warn|error")

	root.AddCommand(
		a.newScanCmd(),
		a.newListCmd(),
		a.newExportCmd(),
		a.newOpenCmd(),
		a.newRevealCmd(),
		a.newCopyCmd(),
		a.newDeleteCmd(),
		a.newCheckCmd(),
	)
	return root
}

// cliArgs 收集所有子命令共用的 CLI 入口，并保留“是否显式指定”。
func (a *app) cliArgs(fs *pflag.FlagSet) config.CLIArgs {
	return config.CLIArgs{
		Path:        a.path,
		LogLevel:    a.logLevel,
		LogLevelSet: fs.Changed("log-level"),
	}
}

// loadConfig 读取生效配置；配置阶段的错误统一按用法错误（exit 2）返回。
func (a *app) loadConfig(cli config.CLIArgs) (config.EffectiveConfig, error) {
	cwd, err := a.getwd()
	if err != nil {
		return config.EffectiveConfig{}, runtimeErr(errors.Wrap(err, "读取当前目录失败"))
	}
	eff, err := config.LoadEffective(cwd, cli)
	if err != nil {
		return config.EffectiveConfig{}, usageErr(err)
	}
	return eff, nil
}

func (a *app) newLogger(eff config.EffectiveConfig) (*zap.Logger, error) {
	logger, err := logx.New(eff.Log, a.stderr)
	if err != nil {
		return nil, usageErr(errors.Wrap(err, "初始化日志失败"))
	}
	return logger, nil
}

// loadReport 读取上次扫描写下的 report.json（list / export / open 等共用）。
func (a *app) loadReport(eff config.EffectiveConfig, readOnly bool) (cache.Store, domain.ScanReport, error) {
	store := cache.New(eff.StateDir, readOnly)
	r, err := store.ReadReport()
	if errors.Is(err, cache.ErrNoReport) {
		return store, r, runtimeErr(errors.Wrapf(err, "%s（请先运行 vidfilter scan）", store.ReportPath()))
	}
	if err != nil {
		return store, r, runtimeErr(err)
	}
	return store, r, nil
}

func summaryLine(r domain.ScanReport) string {
	return fmt.Sprintf("完成：examined=%d matched=%d filtered=%d failed=%d",
		r.Summary.Examined, r.Summary.Matched, r.Summary.Filtered, r.Summary.Failed,
	)
}

func (a *app) emitReport(r domain.ScanReport) {
	if isTTY(a.stdout) {
		fmt.Fprintln(a.stdout, summaryLine(r))
		for _, f := range r.Failures {
			fmt.Fprintf(a.stderr, "%s %s: %s\n", f.Path, f.ErrorCode, f.ErrorMsg)
		}
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 ScanReport JSON（日志/摘要走 stderr）。
	enc := json.NewEncoder(a.stdout)
	_ = enc.Encode(r)
	fmt.Fprintln(a.stderr, summaryLine(r))
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (a *app) pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(a.stderr) {
		return a.stderr, true
	}
	// 某些环境（例如仅重定向 stderr）下，stdout 仍是 TTY：退化输出到 stdout。
	if isTTY(a.stdout) {
		return a.stdout, true
	}
	return nil, false
}

func emitLocations(w io.Writer, eff config.EffectiveConfig) {
	if w == nil {
		return
	}
	fmt.Fprintf(w, "output: %s\n", eff.Output)
	fmt.Fprintf(w, "report: %s\n", filepath.Join(eff.StateDir, cache.ReportFile))
}

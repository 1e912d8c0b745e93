package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/John-Robertt/vidfilter/internal/config"
	"github.com/John-Robertt/vidfilter/internal/domain"
	"github.com/John-Robertt/vidfilter/internal/export"
	"github.com/John-Robertt/vidfilter/internal/infra/cache"
	"github.com/John-Robertt/vidfilter/internal/infra/fsx"
	"github.com/John-Robertt/vidfilter/internal/probe"
	"github.com/John-Robertt/vidfilter/internal/results"
)

// viewOptions 决定结果的展示顺序；list 与 open/copy/delete 用同一套排序，
// 序号才能对得上。
type viewOptions struct {
	sort string
	desc bool
}

func addViewFlags(cmd *cobra.Command, vo *viewOptions) {
	cmd.Flags().StringVar(&vo.sort, "sort", "", "排序键："+strings.Join(results.SortKeys, "|")+"（默认扫描顺序）")
	cmd.Flags().BoolVar(&vo.desc, "desc", false, "降序")
	_ = cmd.RegisterFlagCompletionFunc("sort", fixedCompletion(results.SortKeys...))
}

type resultView struct {
	eff    config.EffectiveConfig
	store  cache.Store
	report domain.ScanReport
	rows   []domain.Match
}

func (a *app) openView(cmd *cobra.Command, vo viewOptions, readOnly bool) (resultView, error) {
	eff, err := a.loadConfig(a.cliArgs(cmd.Flags()))
	if err != nil {
		return resultView{}, err
	}
	store, r, err := a.loadReport(eff, readOnly)
	if err != nil {
		return resultView{}, err
	}
	rows, err := results.Sorted(r.Matches, vo.sort, vo.desc)
	if err != nil {
		return resultView{}, usageErr(err)
	}
	return resultView{eff: eff, store: store, report: r, rows: rows}, nil
}

func (v resultView) resolve(ref string) (domain.Match, error) {
	m, err := results.Resolve(v.rows, ref)
	if err != nil {
		return domain.Match{}, usageErr(err)
	}
	return m, nil
}

func (a *app) newListCmd() *cobra.Command {
	var vo viewOptions
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "列出上次扫描的匹配结果",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := a.openView(cmd, vo, true)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(v.rows)
			}
			return writeTable(a, v.rows)
		},
	}
	addViewFlags(cmd, &vo)
	cmd.Flags().BoolVar(&asJSON, "json", false, "以 JSON 数组输出")
	return cmd
}

func writeTable(a *app, rows []domain.Match) error {
	tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tCODEC\tRESOLUTION\tDURATION\tSIZE(MB)\tBITRATE(kbps)\tMODE\tFPS\tASPECT\tCOLOR\tDEPTH\tPATH")
	for i, m := range rows {
		meta := m.Meta
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.1fs\t%.2f\t%.2f\t%s\t%.2f\t%s\t%s\t%d\t%s\n",
			i+1, meta.Codec, meta.Resolution(), meta.DurationSeconds,
			float64(meta.FileSizeBytes)/1048576, float64(meta.BitrateBps)/1000, meta.BitrateMode,
			meta.FramerateFps, meta.DisplayAspectRatio, meta.ColorSpace, meta.BitDepth, m.Path,
		)
	}
	if err := tw.Flush(); err != nil {
		return runtimeErr(err)
	}
	fmt.Fprintf(a.stderr, "共 %d 条\n", len(rows))
	return nil
}

func (a *app) newExportCmd() *cobra.Command {
	var vo viewOptions
	var csvPath, htmlPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "把上次扫描的匹配结果导出为 CSV 或 HTML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(csvPath) == "" && strings.TrimSpace(htmlPath) == "" {
				return usageErr(errors.New("至少需要 --csv 或 --html 之一"))
			}
			v, err := a.openView(cmd, vo, true)
			if err != nil {
				return err
			}
			if csvPath != "" {
				if err := export.SaveCSV(csvPath, v.rows); err != nil {
					return runtimeErr(errors.Wrap(err, "导出 CSV 失败"))
				}
				fmt.Fprintf(a.stdout, "csv: %s (%d 条)\n", csvPath, len(v.rows))
			}
			if htmlPath != "" {
				if err := export.SaveHTML(htmlPath, v.report, v.rows); err != nil {
					return runtimeErr(errors.Wrap(err, "导出 HTML 失败"))
				}
				fmt.Fprintf(a.stdout, "html: %s (%d 条)\n", htmlPath, len(v.rows))
			}
			return nil
		},
	}
	addViewFlags(cmd, &vo)
	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV 输出文件")
	cmd.Flags().StringVar(&htmlPath, "html", "", "HTML 输出文件")
	return cmd
}

func (a *app) newOpenCmd() *cobra.Command {
	return a.newActionCmd("open <index|path>", "用系统默认程序打开结果中的文件", fsx.Open)
}

func (a *app) newRevealCmd() *cobra.Command {
	return a.newActionCmd("reveal <index|path>", "在文件管理器中定位结果中的文件", fsx.Reveal)
}

func (a *app) newActionCmd(use, short string, action func(string) error) *cobra.Command {
	var vo viewOptions
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.openView(cmd, vo, true)
			if err != nil {
				return err
			}
			m, err := v.resolve(args[0])
			if err != nil {
				return err
			}
			if err := action(m.Path); err != nil {
				return runtimeErr(err)
			}
			return nil
		},
	}
	addViewFlags(cmd, &vo)
	return cmd
}

func (a *app) newCopyCmd() *cobra.Command {
	var vo viewOptions
	cmd := &cobra.Command{
		Use:   "copy <index|path> <dir>",
		Short: "把结果中的文件复制到目录（同名不覆盖）",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.openView(cmd, vo, true)
			if err != nil {
				return err
			}
			m, err := v.resolve(args[0])
			if err != nil {
				return err
			}
			dst, err := fsx.CopyInto(m.Path, args[1])
			if err != nil {
				return runtimeErr(errors.Wrap(err, "复制失败"))
			}
			fmt.Fprintln(a.stdout, dst)
			return nil
		},
	}
	addViewFlags(cmd, &vo)
	return cmd
}

func (a *app) newDeleteCmd() *cobra.Command {
	var vo viewOptions
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <index|path>",
		Short: "删除结果中的文件，并从 report.json 中移除",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.openView(cmd, vo, false)
			if err != nil {
				return err
			}
			m, err := v.resolve(args[0])
			if err != nil {
				return err
			}
			if !yes {
				ok, err := a.confirm(fmt.Sprintf("确认删除 %s？[y/N] ", m.Path))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(a.stderr, "已取消")
					return nil
				}
			}

			logger, err := a.newLogger(v.eff)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if err := fsx.Remove(m.Path); err != nil {
				return runtimeErr(errors.Wrap(err, "删除失败"))
			}
			if err := results.Remove(&v.report, m.Path); err != nil {
				return runtimeErr(err)
			}
			if err := v.store.WriteReport(v.report); err != nil {
				return runtimeErr(errors.Wrap(err, "更新 report.json 失败"))
			}
			logger.Info("deleted", zap.String("path", m.Path), zap.Int("remaining", v.report.Summary.Matched))
			fmt.Fprintf(a.stdout, "deleted: %s\n", m.Path)
			return nil
		},
	}
	addViewFlags(cmd, &vo)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "不询问，直接删除")
	return cmd
}

// confirm 在交互终端询问一次；非交互环境必须显式 --yes。
func (a *app) confirm(prompt string) (bool, error) {
	if !isTTY(a.stderr) {
		return false, usageErr(errors.New("非交互环境删除文件需要 --yes"))
	}
	fmt.Fprint(a.stderr, prompt)
	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && line == "" {
		return false, nil
	}
	ans := strings.ToLower(strings.TrimSpace(line))
	return ans == "y" || ans == "yes", nil
}

func (a *app) newCheckCmd() *cobra.Command {
	var ffprobe string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "检查 ffprobe 是否可用",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bin, err := a.ffprobeBin(cmd, ffprobe)
			if err != nil {
				return err
			}
			version, err := probe.NewRunner(bin).Check(cmdContext(cmd))
			if err != nil {
				return runtimeErr(err)
			}
			fmt.Fprintf(a.stdout, "ffprobe: %s\n%s\n", bin, version)
			return nil
		},
	}
	cmd.Flags().StringVar(&ffprobe, "ffprobe", "", "ffprobe 可执行文件（默认从 PATH 查找）")
	return cmd
}

// ffprobeBin 解析 check 使用的 ffprobe：--ffprobe > 环境变量/配置 > 默认值。
// 没有 --path 且 cwd 下没有配置时，按 cwd 作为根目录读取（配置可选）。
func (a *app) ffprobeBin(cmd *cobra.Command, flagVal string) (string, error) {
	fs := cmd.Flags()
	cli := a.cliArgs(fs)
	cli.FFprobe, cli.FFprobeSet = flagVal, fs.Changed("ffprobe")

	cwd, err := a.getwd()
	if err != nil {
		return "", runtimeErr(errors.Wrap(err, "读取当前目录失败"))
	}
	eff, err := config.LoadEffective(cwd, cli)
	if config.Code(err) == config.ErrCodeNotFound {
		cli.Path = cwd
		eff, err = config.LoadEffective(cwd, cli)
	}
	if err != nil {
		return "", usageErr(err)
	}
	return eff.FFprobe, nil
}

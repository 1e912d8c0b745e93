package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/John-Robertt/vidfilter/internal/app/run"
	"github.com/John-Robertt/vidfilter/internal/domain"
	"github.com/John-Robertt/vidfilter/internal/filter"
	"github.com/John-Robertt/vidfilter/internal/media"
	"github.com/John-Robertt/vidfilter/internal/probe"
)

type scanOptions struct {
	ffprobe string
	output  string

	codec       string
	resolution  string
	duration    string
	size        string
	bitrate     string
	bitrateMode string
	framerate   string
	aspectRatio string
	colorSpace  string
	bitDepth    string
}

func (a *app) newScanCmd() *cobra.Command {
	var o scanOptions
	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "扫描目录并按条件筛选视频",
		Long: `扫描目录（递归）中的 mp4/mkv/avi/mov/wmv/flv 文件，用 ffprobe 读取元数据并按条件筛选。

区间条件写作 MIN:MAX，任一端可省略（例如 --duration 60:、--size :700）。
分辨率写作 WxH，例如 --resolution 1280x720:3840x2160。
命令行条件整体覆盖配置文件 filters 中的同名条件。`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				a.path = args[0]
			}
			return a.runScan(cmd, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.ffprobe, "ffprobe", "", "ffprobe 可执行文件（默认从 PATH 查找）")
	f.StringVarP(&o.output, "output", "o", "", "纯文本结果文件（默认 ./output.txt）")
	f.StringVar(&o.codec, "codec", "", "编码名，例如 h264、hevc")
	f.StringVar(&o.resolution, "resolution", "", "分辨率区间 WxH:WxH")
	f.StringVar(&o.duration, "duration", "", "时长区间（秒）")
	f.StringVar(&o.size, "size", "", "文件大小区间（MB）")
	f.StringVar(&o.bitrate, "bitrate", "", "码率区间（kbps）")
	f.StringVar(&o.bitrateMode, "bitrate-mode", "", "码率模式：Constant|Variable|Any")
	f.StringVar(&o.framerate, "framerate", "", "帧率区间（fps）")
	f.StringVar(&o.aspectRatio, "aspect-ratio", "", "显示宽高比，例如 16:9")
	f.StringVar(&o.colorSpace, "color-space", "", "色彩空间：YUV|RGB|Any")
	f.StringVar(&o.bitDepth, "bit-depth", "", "位深区间，例如 10:")

	_ = cmd.RegisterFlagCompletionFunc("codec", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return filter.CommonCodecs, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("bitrate-mode", fixedCompletion(domain.BitrateConstant, domain.BitrateVariable, domain.BitrateAny))
	_ = cmd.RegisterFlagCompletionFunc("color-space", fixedCompletion("YUV", "RGB", "Any"))
	return cmd
}

func fixedCompletion(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

// filters 把显式给出的条件 flag 转成 filter.Input；未给出的条件保持未启用。
func (o scanOptions) filters(fs *pflag.FlagSet) (filter.Input, error) {
	var in filter.Input

	ranges := []struct {
		flag string
		val  string
		dst  *filter.RangeInput
	}{
		{"resolution", o.resolution, &in.Resolution},
		{"duration", o.duration, &in.Duration},
		{"size", o.size, &in.SizeMB},
		{"bitrate", o.bitrate, &in.BitrateKbps},
		{"framerate", o.framerate, &in.Framerate},
		{"bit-depth", o.bitDepth, &in.BitDepth},
	}
	for _, r := range ranges {
		if !fs.Changed(r.flag) {
			continue
		}
		ri, err := filter.ParseRange(r.val)
		if err != nil {
			return filter.Input{}, errors.Wrapf(err, "--%s", r.flag)
		}
		*r.dst = ri
	}

	texts := []struct {
		flag string
		val  string
		dst  *filter.TextInput
	}{
		{"codec", o.codec, &in.Codec},
		{"bitrate-mode", o.bitrateMode, &in.BitrateMode},
		{"aspect-ratio", o.aspectRatio, &in.AspectRatio},
		{"color-space", o.colorSpace, &in.ColorSpace},
	}
	for _, t := range texts {
		if !fs.Changed(t.flag) {
			continue
		}
		if strings.TrimSpace(t.val) == "" {
			return filter.Input{}, errors.Errorf("--%s 不能为空", t.flag)
		}
		*t.dst = filter.Text(t.val)
	}
	return in, nil
}

func (a *app) runScan(cmd *cobra.Command, o scanOptions) error {
	fs := cmd.Flags()
	filters, err := o.filters(fs)
	if err != nil {
		return usageErr(err)
	}

	cli := a.cliArgs(fs)
	cli.FFprobe, cli.FFprobeSet = o.ffprobe, fs.Changed("ffprobe")
	cli.Output, cli.OutputSet = o.output, fs.Changed("output")
	cli.Filters = filters

	eff, err := a.loadConfig(cli)
	if err != nil {
		return err
	}
	crit, err := filter.Build(eff.Filters)
	if err != nil {
		return usageErr(errors.Wrap(err, "过滤条件不合法"))
	}

	logger, err := a.newLogger(eff)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := probe.NewRunner(eff.FFprobe)
	version, err := runner.Check(ctx)
	if err != nil {
		return runtimeErr(errors.Wrap(err, "ffprobe 不可用（可用 --ffprobe 或配置 ffprobe 指定路径）"))
	}
	logger.Debug("ffprobe found", zap.String("bin", eff.FFprobe), zap.String("version", version))

	progressW, interactive := a.pickProgressWriter()
	var obs run.Observer
	if interactive {
		ui := newProgressUI(progressW)
		defer ui.Close()
		obs = ui
	}

	r, err := run.Execute(ctx, eff, media.NewExtractor(runner, logger), crit, obs)
	switch {
	case errors.Is(err, run.ErrNoVideos):
		// 空目录不是失败：没有结果可写，也不覆盖上次的输出。
		fmt.Fprintf(a.stderr, "%v：%s\n", err, eff.Path)
		return nil
	case errors.Is(err, context.Canceled):
		return runtimeErr(errors.New("扫描已取消，未写出任何结果"))
	case err != nil:
		return runtimeErr(err)
	}

	if err := run.Save(eff, r); err != nil {
		a.emitReport(r)
		return runtimeErr(err)
	}
	logger.Debug("scan saved",
		zap.String("run_id", r.RunID),
		zap.String("output", eff.Output),
		zap.Int("matched", r.Summary.Matched),
	)

	a.emitReport(r)
	if interactive {
		emitLocations(progressW, eff)
	}
	return nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

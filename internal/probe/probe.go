package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// DefaultBin 是未配置时使用的 ffprobe 可执行文件名（走 PATH 查找）。
const DefaultBin = "ffprobe"

var (
	ErrUnparseable   = errors.New("ffprobe 输出无法解析")
	ErrNoVideoStream = errors.New("没有视频流")
	ErrNotAvailable  = errors.New("ffprobe 不可用")
)

// streamEntries 是本工具关心的视频流字段；format=duration 用作时长兜底。
const streamEntries = "stream=codec_name,width,height,duration,bit_rate,r_frame_rate," +
	"display_aspect_ratio,sample_aspect_ratio,color_space,bits_per_raw_sample,pix_fmt" +
	":format=duration"

// ExitError 表示 ffprobe 以非零状态退出。
type ExitError struct {
	Path     string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("ffprobe 退出码 %d：%s", e.ExitCode, e.Path)
	}
	return fmt.Sprintf("ffprobe 退出码 %d：%s：%s", e.ExitCode, e.Path, msg)
}

// Stream 是第一条视频流的原始字段（全部可选）。
type Stream struct {
	CodecName          Value `json:"codec_name"`
	Width              Value `json:"width"`
	Height             Value `json:"height"`
	Duration           Value `json:"duration"`
	BitRate            Value `json:"bit_rate"`
	RFrameRate         Value `json:"r_frame_rate"`
	DisplayAspectRatio Value `json:"display_aspect_ratio"`
	SampleAspectRatio  Value `json:"sample_aspect_ratio"`
	ColorSpace         Value `json:"color_space"`
	BitsPerRawSample   Value `json:"bits_per_raw_sample"`
	PixFmt             Value `json:"pix_fmt"`
}

type Format struct {
	Duration Value `json:"duration"`
}

// Result 是一次 probe 的输出：第一条视频流 + 容器级信息。
type Result struct {
	Stream Stream
	Format Format
}

type output struct {
	Streams []Stream `json:"streams"`
	Format  *Format  `json:"format"`
}

// Runner 调用外部 ffprobe。
//
// Bin 由配置注入（不使用进程级全局变量）；为空时使用 DefaultBin。
type Runner struct {
	Bin string

	newCmd func(ctx context.Context, name string, args ...string) *exec.Cmd
}

func NewRunner(bin string) *Runner {
	return &Runner{Bin: bin}
}

func (r *Runner) bin() string {
	if r == nil || strings.TrimSpace(r.Bin) == "" {
		return DefaultBin
	}
	return r.Bin
}

func (r *Runner) command(ctx context.Context, args ...string) *exec.Cmd {
	if r != nil && r.newCmd != nil {
		return r.newCmd(ctx, r.bin(), args...)
	}
	return exec.CommandContext(ctx, r.bin(), args...)
}

// Args 返回对 path 执行 probe 的完整参数（不含可执行文件名）。
func Args(path string) []string {
	return []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", streamEntries,
		"-of", "json",
		path,
	}
}

// Probe 对单个文件执行 ffprobe 并解析第一条视频流。
func (r *Runner) Probe(ctx context.Context, path string) (Result, error) {
	var stdout, stderr bytes.Buffer
	cmd := r.command(ctx, Args(path)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return Result{}, &ExitError{Path: path, ExitCode: ee.ExitCode(), Stderr: stderr.String()}
		}
		return Result{}, errors.Wrapf(ErrNotAvailable, "%s: %v", r.bin(), err)
	}
	return Parse(stdout.Bytes())
}

// Parse 解析 `-of json` 输出。
func Parse(b []byte) (Result, error) {
	var out output
	if err := json.Unmarshal(b, &out); err != nil {
		return Result{}, errors.Wrap(ErrUnparseable, err.Error())
	}
	if len(out.Streams) == 0 {
		return Result{}, ErrNoVideoStream
	}
	res := Result{Stream: out.Streams[0]}
	if out.Format != nil {
		res.Format = *out.Format
	}
	return res, nil
}

// Check 运行 `ffprobe -version`，返回版本行。
func (r *Runner) Check(ctx context.Context) (string, error) {
	var stdout bytes.Buffer
	cmd := r.command(ctx, "-version")
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", errors.Wrapf(ErrNotAvailable, "%s: %v", r.bin(), err)
	}
	line, _, _ := strings.Cut(stdout.String(), "\n")
	return strings.TrimSpace(line), nil
}

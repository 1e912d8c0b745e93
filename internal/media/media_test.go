package media

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/John-Robertt/vidfilter/internal/domain"
	"github.com/John-Robertt/vidfilter/internal/probe"
)

type fakeProber struct {
	res probe.Result
	err error
}

func (f fakeProber) Probe(context.Context, string) (probe.Result, error) {
	return f.res, f.err
}

func stream1080p() probe.Stream {
	return probe.Stream{
		CodecName:          probe.V("h264"),
		Width:              probe.V("1920"),
		Height:             probe.V("1080"),
		Duration:           probe.V("120"),
		BitRate:            probe.V("5000000"),
		RFrameRate:         probe.V("30/1"),
		DisplayAspectRatio: probe.V("16:9"),
		ColorSpace:         probe.V("bt709"),
		PixFmt:             probe.V("yuv420p"),
	}
}

func TestNormalize_FullStream(t *testing.T) {
	m := Normalize(probe.Result{Stream: stream1080p()}, 200*1048576)

	assert.Equal(t, "h264", m.Codec)
	assert.Equal(t, 1920, m.Width)
	assert.Equal(t, 1080, m.Height)
	assert.InDelta(t, 120.0, m.DurationSeconds, 1e-9)
	assert.EqualValues(t, 5000000, m.BitrateBps)
	assert.Equal(t, domain.BitrateConstant, m.BitrateMode)
	assert.InDelta(t, 30.0, m.FramerateFps, 1e-9)
	assert.Equal(t, "16:9", m.DisplayAspectRatio)
	assert.Equal(t, 8, m.BitDepth)
	assert.EqualValues(t, 200*1048576, m.FileSizeBytes)
}

func TestNormalize_AllAbsentUsesDefaults(t *testing.T) {
	m := Normalize(probe.Result{}, 10)

	assert.Equal(t, domain.UnknownValue, m.Codec)
	assert.Zero(t, m.Width)
	assert.Zero(t, m.Height)
	assert.Zero(t, m.DurationSeconds)
	assert.Zero(t, m.BitrateBps)
	assert.Equal(t, domain.BitrateVariable, m.BitrateMode)
	assert.Zero(t, m.FramerateFps)
	assert.Equal(t, "0:0", m.DisplayAspectRatio)
	assert.Equal(t, domain.UnknownValue, m.ColorSpace)
	assert.Zero(t, m.BitDepth)
}

func TestNormalize_BitrateModeIffBitrate(t *testing.T) {
	s := stream1080p()
	s.BitRate = probe.V("N/A")
	m := Normalize(probe.Result{Stream: s}, 0)
	assert.Zero(t, m.BitrateBps)
	assert.Equal(t, domain.BitrateVariable, m.BitrateMode)

	s.BitRate = probe.V("1")
	m = Normalize(probe.Result{Stream: s}, 0)
	assert.Equal(t, domain.BitrateConstant, m.BitrateMode)
}

func TestNormalize_FramerateZeroDenominator(t *testing.T) {
	s := stream1080p()
	s.RFrameRate = probe.V("0/0")
	m := Normalize(probe.Result{Stream: s}, 0)
	assert.Zero(t, m.FramerateFps)

	s.RFrameRate = probe.V("30000/1001")
	m = Normalize(probe.Result{Stream: s}, 0)
	assert.InDelta(t, 29.97, m.FramerateFps, 0.001)
}

func TestNormalize_AspectFallback(t *testing.T) {
	for _, dar := range []string{"", "N/A", "0:1"} {
		s := stream1080p()
		s.DisplayAspectRatio = probe.V(dar)
		m := Normalize(probe.Result{Stream: s}, 0)
		assert.Equal(t, "16:9", m.DisplayAspectRatio, "dar=%q", dar)
	}

	s := stream1080p()
	s.Width = probe.V("720")
	s.Height = probe.V("576")
	s.DisplayAspectRatio = probe.V("4:3")
	m := Normalize(probe.Result{Stream: s}, 0)
	assert.Equal(t, "4:3", m.DisplayAspectRatio, "有意义的 DAR 必须直接采用")
}

func TestNormalize_BitDepthPrefersProbe(t *testing.T) {
	s := stream1080p()
	s.PixFmt = probe.V("yuv420p10le")
	m := Normalize(probe.Result{Stream: s}, 0)
	assert.Equal(t, 10, m.BitDepth, "无 bits_per_raw_sample 时查表")

	s.BitsPerRawSample = probe.V("12")
	m = Normalize(probe.Result{Stream: s}, 0)
	assert.Equal(t, 12, m.BitDepth)

	s.BitsPerRawSample = probe.V("0")
	m = Normalize(probe.Result{Stream: s}, 0)
	assert.Equal(t, 10, m.BitDepth, "非正数的 bits_per_raw_sample 退回查表")
}

func TestNormalize_ColorSpaceAlwaysFromPixFmt(t *testing.T) {
	s := stream1080p()
	s.ColorSpace = probe.V("bt709")
	s.PixFmt = probe.V("gbrp")
	m := Normalize(probe.Result{Stream: s}, 0)
	assert.Equal(t, ColorSpaceRGB, m.ColorSpace)

	s.PixFmt = probe.V("weird_fmt")
	m = Normalize(probe.Result{Stream: s}, 0)
	assert.Equal(t, domain.UnknownValue, m.ColorSpace)
}

func TestNormalize_DurationFallsBackToFormat(t *testing.T) {
	s := stream1080p()
	s.Duration = probe.Value{}
	m := Normalize(probe.Result{Stream: s, Format: probe.Format{Duration: probe.V("95.5")}}, 0)
	assert.InDelta(t, 95.5, m.DurationSeconds, 1e-9)
}

func TestReduceAspect(t *testing.T) {
	assert.Equal(t, "16:9", ReduceAspect(1920, 1080))
	assert.Equal(t, "4:3", ReduceAspect(640, 480))
	assert.Equal(t, "0:0", ReduceAspect(0, 0))
	assert.Equal(t, "1:0", ReduceAspect(1280, 0))
}

func TestLookups_Pure(t *testing.T) {
	for fmt := range pixFmtBitDepth {
		assert.Equal(t, BitDepthOf(fmt), BitDepthOf(fmt))
		assert.Equal(t, ColorSpaceOf(fmt), ColorSpaceOf(fmt))
	}
	assert.Zero(t, BitDepthOf("no_such_fmt"))
	assert.Equal(t, domain.UnknownValue, ColorSpaceOf("no_such_fmt"))
}

func TestExtractor_Extract(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.mp4")
	require.NoError(t, os.WriteFile(path, make([]byte, 2048), 0o644))

	e := NewExtractor(fakeProber{res: probe.Result{Stream: stream1080p()}}, zap.NewNop())
	m, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.EqualValues(t, 2048, m.FileSizeBytes, "文件大小来自文件系统")
	assert.Equal(t, "h264", m.Codec)
}

func TestExtractor_ProbeFailureIsLogged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.mkv")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	core, logs := observer.New(zapcore.WarnLevel)
	e := NewExtractor(fakeProber{err: &probe.ExitError{Path: path, ExitCode: 1}}, zap.New(core))

	_, err := e.Extract(context.Background(), path)
	require.Error(t, err)
	var ee *probe.ExitError
	assert.True(t, errors.As(err, &ee))

	entries := logs.FilterMessage("probe failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, path, entries[0].ContextMap()["path"])
}

func TestExtractor_StatFailure(t *testing.T) {
	e := NewExtractor(fakeProber{res: probe.Result{Stream: stream1080p()}}, nil)
	_, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"))
	assert.True(t, errors.Is(err, ErrStat), "实际错误：%v", err)
}

package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `{
  "programs": [],
  "streams": [
    {
      "codec_name": "h264",
      "width": 1920,
      "height": 1080,
      "r_frame_rate": "30000/1001",
      "display_aspect_ratio": "16:9",
      "pix_fmt": "yuv420p",
      "bits_per_raw_sample": "8",
      "duration": "120.500000",
      "bit_rate": "4000000"
    }
  ],
  "format": {"duration": "121.000000"}
}`

// helperRunner 让 Runner 执行当前测试二进制的 TestHelperProcess，模拟 ffprobe。
func helperRunner(mode string) *Runner {
	return &Runner{
		Bin: "ffprobe",
		newCmd: func(ctx context.Context, name string, args ...string) *exec.Cmd {
			cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
			cmd := exec.CommandContext(ctx, os.Args[0], cs...)
			cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "HELPER_MODE="+mode)
			return cmd
		},
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("HELPER_MODE") {
	case "ok":
		fmt.Fprint(os.Stdout, sampleJSON)
	case "version":
		fmt.Fprint(os.Stdout, "ffprobe version 6.1.1 Copyright (c) 2007-2023\nbuilt with gcc\n")
	case "garbage":
		fmt.Fprint(os.Stdout, "not json")
	case "nostream":
		fmt.Fprint(os.Stdout, `{"streams": []}`)
	case "fail":
		fmt.Fprint(os.Stderr, "Invalid data found when processing input")
		os.Exit(1)
	}
	os.Exit(0)
}

func TestRunner_Probe_ParsesFirstVideoStream(t *testing.T) {
	res, err := helperRunner("ok").Probe(context.Background(), "/v/a.mp4")
	require.NoError(t, err)

	codec, ok := res.Stream.CodecName.String()
	assert.True(t, ok)
	assert.Equal(t, "h264", codec)

	w, ok := res.Stream.Width.Int()
	assert.True(t, ok)
	assert.EqualValues(t, 1920, w)

	num, den, ok := res.Stream.RFrameRate.Ratio()
	assert.True(t, ok)
	assert.EqualValues(t, 30000, num)
	assert.EqualValues(t, 1001, den)

	d, ok := res.Format.Duration.Float()
	assert.True(t, ok)
	assert.InDelta(t, 121.0, d, 1e-9)
}

func TestRunner_Probe_NonZeroExit(t *testing.T) {
	_, err := helperRunner("fail").Probe(context.Background(), "/v/broken.mp4")
	require.Error(t, err)

	var ee *ExitError
	require.True(t, errors.As(err, &ee), "期望 *ExitError，实际 %T", err)
	assert.Equal(t, 1, ee.ExitCode)
	assert.Contains(t, ee.Stderr, "Invalid data")
	assert.Equal(t, "/v/broken.mp4", ee.Path)
}

func TestRunner_Probe_Unparseable(t *testing.T) {
	_, err := helperRunner("garbage").Probe(context.Background(), "/v/a.mp4")
	assert.True(t, errors.Is(err, ErrUnparseable), "实际错误：%v", err)
}

func TestRunner_Probe_NoVideoStream(t *testing.T) {
	_, err := helperRunner("nostream").Probe(context.Background(), "/v/a.mp3")
	assert.True(t, errors.Is(err, ErrNoVideoStream), "实际错误：%v", err)
}

func TestRunner_Probe_MissingBinary(t *testing.T) {
	r := NewRunner("/nonexistent/ffprobe-vidfilter-test")
	_, err := r.Probe(context.Background(), "/v/a.mp4")
	assert.True(t, errors.Is(err, ErrNotAvailable), "实际错误：%v", err)
}

func TestRunner_Check(t *testing.T) {
	line, err := helperRunner("version").Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ffprobe version 6.1.1 Copyright (c) 2007-2023", line)

	_, err = NewRunner("/nonexistent/ffprobe-vidfilter-test").Check(context.Background())
	assert.True(t, errors.Is(err, ErrNotAvailable))
}

func TestArgs(t *testing.T) {
	args := Args("/v/a.mp4")
	assert.Equal(t, []string{"-v", "error", "-select_streams", "v:0"}, args[:4])
	assert.Equal(t, "json", args[len(args)-2])
	assert.Equal(t, "/v/a.mp4", args[len(args)-1])
}

func TestValue_AbsentMarkers(t *testing.T) {
	var s Stream
	raw := `{"codec_name":"N/A","width":"unknown","height":"","duration":null,"bit_rate":1500}`
	require.NoError(t, json.Unmarshal([]byte(raw), &s))

	assert.False(t, s.CodecName.Present())
	assert.False(t, s.Width.Present())
	assert.False(t, s.Height.Present())
	assert.False(t, s.Duration.Present())
	assert.False(t, s.PixFmt.Present())

	br, ok := s.BitRate.Int()
	assert.True(t, ok)
	assert.EqualValues(t, 1500, br)
}

func TestValue_Ratio(t *testing.T) {
	cases := []struct {
		in       string
		num, den int64
		ok       bool
	}{
		{"25/1", 25, 1, true},
		{"16:9", 16, 9, true},
		{"0/0", 0, 0, true},
		{"25", 0, 0, false},
		{"/1", 0, 0, false},
		{"N/A", 0, 0, false},
	}
	for _, tc := range cases {
		num, den, ok := V(tc.in).Ratio()
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.num, num, tc.in)
		assert.Equal(t, tc.den, den, tc.in)
	}
}

package filter

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"

	"github.com/John-Robertt/vidfilter/internal/domain"
)

// Range 是闭区间 [Min, Max]；未启用时不构成约束。
type Range[T cmp.Ordered] struct {
	Enabled bool
	Min     T
	Max     T
}

func (r Range[T]) Contains(v T) bool {
	if !r.Enabled {
		return true
	}
	return v >= r.Min && v <= r.Max
}

type Equal struct {
	Enabled bool
	Value   string
}

type Resolution struct {
	Enabled bool
	Width   Range[int]
	Height  Range[int]
}

// Criteria 是解析后的过滤条件，扫描期间只读。
type Criteria struct {
	Codec       Equal
	Resolution  Resolution
	Duration    Range[float64]
	Size        Range[int64] // bytes
	Bitrate     Range[int64] // bps
	BitrateMode Equal
	Framerate   Range[float64]
	AspectRatio Equal
	ColorSpace  Equal
	BitDepth    Range[int]
}

// Match 对所有启用的条件做 AND。
func (c Criteria) Match(m domain.VideoMetadata) bool {
	if c.Codec.Enabled && m.Codec != c.Codec.Value {
		return false
	}
	if c.Resolution.Enabled {
		if !c.Resolution.Width.Contains(m.Width) || !c.Resolution.Height.Contains(m.Height) {
			return false
		}
	}
	if !c.Duration.Contains(m.DurationSeconds) {
		return false
	}
	if !c.Size.Contains(m.FileSizeBytes) {
		return false
	}
	if !c.Bitrate.Contains(m.BitrateBps) {
		return false
	}
	if c.BitrateMode.Enabled && !isAny(c.BitrateMode.Value) && m.BitrateMode != c.BitrateMode.Value {
		return false
	}
	if !c.Framerate.Contains(m.FramerateFps) {
		return false
	}
	if c.AspectRatio.Enabled && m.DisplayAspectRatio != c.AspectRatio.Value {
		return false
	}
	if c.ColorSpace.Enabled && !isAny(c.ColorSpace.Value) && !strings.EqualFold(m.ColorSpace, c.ColorSpace.Value) {
		return false
	}
	if !c.BitDepth.Contains(m.BitDepth) {
		return false
	}
	return true
}

func isAny(v string) bool {
	return v == "" || strings.EqualFold(v, domain.BitrateAny)
}

// Describe 返回启用条件的可读描述（用于 report 与进度头部）。
func (c Criteria) Describe() []string {
	out := make([]string, 0, 10)
	if c.Codec.Enabled {
		out = append(out, "codec="+c.Codec.Value)
	}
	if c.Resolution.Enabled {
		out = append(out, fmt.Sprintf("resolution=%sx%s..%sx%s",
			itoaBound(c.Resolution.Width.Min), itoaBound(c.Resolution.Height.Min),
			itoaBound(c.Resolution.Width.Max), itoaBound(c.Resolution.Height.Max)))
	}
	if c.Duration.Enabled {
		out = append(out, "duration="+floatBounds(c.Duration.Min, c.Duration.Max)+"s")
	}
	if c.Size.Enabled {
		out = append(out, "size="+floatBounds(float64(c.Size.Min)/bytesPerMB, maxAsInf(c.Size.Max, bytesPerMB))+"MB")
	}
	if c.Bitrate.Enabled {
		out = append(out, "bitrate="+floatBounds(float64(c.Bitrate.Min)/bpsPerKbps, maxAsInf(c.Bitrate.Max, bpsPerKbps))+"kbps")
	}
	if c.BitrateMode.Enabled {
		out = append(out, "bitrate_mode="+c.BitrateMode.Value)
	}
	if c.Framerate.Enabled {
		out = append(out, "framerate="+floatBounds(c.Framerate.Min, c.Framerate.Max))
	}
	if c.AspectRatio.Enabled {
		out = append(out, "aspect_ratio="+c.AspectRatio.Value)
	}
	if c.ColorSpace.Enabled {
		out = append(out, "color_space="+c.ColorSpace.Value)
	}
	if c.BitDepth.Enabled {
		out = append(out, "bit_depth="+itoaBound(c.BitDepth.Min)+".."+itoaBound(c.BitDepth.Max))
	}
	return out
}

func itoaBound(n int) string {
	if n == maxInt {
		return "∞"
	}
	return strconv.Itoa(n)
}

func floatBounds(lo, hi float64) string {
	return strconv.FormatFloat(lo, 'f', -1, 64) + ".." + formatMax(hi)
}

func formatMax(v float64) string {
	if v >= inf {
		return "∞"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func maxAsInf(v int64, unit float64) float64 {
	if v == maxInt64 {
		return inf
	}
	return float64(v) / unit
}

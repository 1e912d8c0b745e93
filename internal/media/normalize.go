package media

import (
	"strings"

	"github.com/John-Robertt/vidfilter/internal/domain"
	"github.com/John-Robertt/vidfilter/internal/probe"
)

// Normalize 把 probe 原始字段填充为完整的 VideoMetadata（纯函数）。
//
// 默认值规则：
// - 缺失的数值字段为 0，缺失的 codec 为 "Unknown"
// - framerate = num/den，den 为 0 或缺失时为 0
// - bitDepth：bits_per_raw_sample 为正整数时直接使用，否则查像素格式表
// - colorSpace：总是由像素格式重新判定，probe 自带的 color_space 不采用
// - aspect：probe 的 DAR 缺失或为 "0:1" 时，用 width:height 约分
// - duration：视频流未报告时退回容器时长
// - bitrateMode：有码率即 Constant，否则 Variable
func Normalize(res probe.Result, sizeBytes int64) domain.VideoMetadata {
	s := res.Stream

	m := domain.VideoMetadata{
		Codec:         domain.UnknownValue,
		FileSizeBytes: sizeBytes,
	}
	if codec, ok := s.CodecName.String(); ok {
		m.Codec = codec
	}
	if w, ok := s.Width.Int(); ok && w > 0 {
		m.Width = int(w)
	}
	if h, ok := s.Height.Int(); ok && h > 0 {
		m.Height = int(h)
	}

	if d, ok := s.Duration.Float(); ok && d > 0 {
		m.DurationSeconds = d
	} else if d, ok := res.Format.Duration.Float(); ok && d > 0 {
		m.DurationSeconds = d
	}

	if br, ok := s.BitRate.Int(); ok && br > 0 {
		m.BitrateBps = br
	}
	m.BitrateMode = BitrateModeOf(m.BitrateBps)

	if num, den, ok := s.RFrameRate.Ratio(); ok && den != 0 {
		m.FramerateFps = float64(num) / float64(den)
	}

	pixFmt, _ := s.PixFmt.String()
	m.PixelFormat = pixFmt

	if bd, ok := s.BitsPerRawSample.Int(); ok && bd > 0 {
		m.BitDepth = int(bd)
	} else {
		m.BitDepth = BitDepthOf(pixFmt)
	}
	m.ColorSpace = ColorSpaceOf(pixFmt)

	m.DisplayAspectRatio = aspectOf(s.DisplayAspectRatio, m.Width, m.Height)
	return m
}

// BitrateModeOf 是码率模式的启发式判定：码率非 0 即 Constant。
func BitrateModeOf(bps int64) string {
	if bps != 0 {
		return domain.BitrateConstant
	}
	return domain.BitrateVariable
}

func aspectOf(dar probe.Value, w, h int) string {
	if s, ok := dar.String(); ok && s != "0:1" && strings.Contains(s, ":") {
		return s
	}
	return ReduceAspect(w, h)
}

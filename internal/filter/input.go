package filter

import (
	"strings"

	"github.com/pkg/errors"
)

// RangeInput 是一个区间条件的原始输入（来自配置文件或 CLI，尚未解析）。
// Min/Max 为空表示无下界 / 无上界。
type RangeInput struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
	Min     string `mapstructure:"min" json:"min"`
	Max     string `mapstructure:"max" json:"max"`
}

// TextInput 是一个等值条件的原始输入。
type TextInput struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
	Value   string `mapstructure:"value" json:"value"`
}

// Input 是全部过滤条件的原始输入。每个条件独立开关，未启用的条件不参与匹配。
//
// 单位：SizeMB 为 MB（1 MB = 1048576 字节），BitrateKbps 为 kbps（1 kbps = 1000 bps），
// Resolution 的端点为 "WIDTHxHEIGHT"。
type Input struct {
	Codec       TextInput  `mapstructure:"codec"`
	Resolution  RangeInput `mapstructure:"resolution"`
	Duration    RangeInput `mapstructure:"duration"`
	SizeMB      RangeInput `mapstructure:"size"`
	BitrateKbps RangeInput `mapstructure:"bitrate"`
	BitrateMode TextInput  `mapstructure:"bitrate_mode"`
	Framerate   RangeInput `mapstructure:"framerate"`
	AspectRatio TextInput  `mapstructure:"aspect_ratio"`
	ColorSpace  TextInput  `mapstructure:"color_space"`
	BitDepth    RangeInput `mapstructure:"bit_depth"`
}

// Overlay 返回 base 被 over 覆盖后的结果：over 中启用的条件整体替换 base 中的同名条件。
func (base Input) Overlay(over Input) Input {
	out := base
	overlayText(&out.Codec, over.Codec)
	overlayRange(&out.Resolution, over.Resolution)
	overlayRange(&out.Duration, over.Duration)
	overlayRange(&out.SizeMB, over.SizeMB)
	overlayRange(&out.BitrateKbps, over.BitrateKbps)
	overlayText(&out.BitrateMode, over.BitrateMode)
	overlayRange(&out.Framerate, over.Framerate)
	overlayText(&out.AspectRatio, over.AspectRatio)
	overlayText(&out.ColorSpace, over.ColorSpace)
	overlayRange(&out.BitDepth, over.BitDepth)
	return out
}

func overlayText(dst *TextInput, src TextInput) {
	if src.Enabled {
		*dst = src
	}
}

func overlayRange(dst *RangeInput, src RangeInput) {
	if src.Enabled {
		*dst = src
	}
}

// ParseRange 解析 CLI 的区间写法："MIN:MAX"、"MIN"、"MIN:"、":MAX"。
// 返回的 RangeInput 已启用。
func ParseRange(s string) (RangeInput, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == ":" {
		return RangeInput{}, errors.Errorf("区间为空：%q", s)
	}
	lo, hi, _ := strings.Cut(s, ":")
	return RangeInput{
		Enabled: true,
		Min:     strings.TrimSpace(lo),
		Max:     strings.TrimSpace(hi),
	}, nil
}

// Text 构造一个已启用的等值条件。
func Text(v string) TextInput {
	return TextInput{Enabled: true, Value: strings.TrimSpace(v)}
}

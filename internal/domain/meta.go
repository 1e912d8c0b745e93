package domain

import "strconv"

const (
	BitrateConstant = "Constant"
	BitrateVariable = "Variable"
	BitrateAny      = "Any"
)

// UnknownValue 是字符串字段无法确定时的统一占位值。
const UnknownValue = "Unknown"

// VideoMetadata 是一个视频文件经 probe + 归一化后的技术元数据。
//
// 约束：
// - 只有 probe 成功的文件才有 VideoMetadata；失败的文件不会出现零值记录
// - 创建后只读
// - BitrateMode 为启发式：BitrateBps != 0 即 Constant，否则 Variable
type VideoMetadata struct {
	Codec              string  `json:"codec"`
	Width              int     `json:"width"`
	Height             int     `json:"height"`
	DurationSeconds    float64 `json:"duration_seconds"`
	BitrateBps         int64   `json:"bitrate_bps"`
	BitrateMode        string  `json:"bitrate_mode"`
	FileSizeBytes      int64   `json:"file_size_bytes"`
	FramerateFps       float64 `json:"framerate_fps"`
	DisplayAspectRatio string  `json:"display_aspect_ratio"`
	ColorSpace         string  `json:"color_space"`
	BitDepth           int     `json:"bit_depth"`
	PixelFormat        string  `json:"pixel_format,omitempty"`
}

// Resolution 返回 "WxH" 形式，用于展示与排序。
func (m VideoMetadata) Resolution() string {
	return strconv.Itoa(m.Width) + "x" + strconv.Itoa(m.Height)
}

// Pixels 用于按分辨率排序。
func (m VideoMetadata) Pixels() int64 {
	return int64(m.Width) * int64(m.Height)
}

package media

import (
	"strconv"

	"github.com/John-Robertt/vidfilter/internal/domain"
)

const (
	ColorSpaceYUV = "YUV"
	ColorSpaceRGB = "RGB"
)

var pixFmtBitDepth = map[string]int{
	"yuv420p":     8,
	"yuvj420p":    8,
	"yuv422p":     8,
	"yuvj422p":    8,
	"yuv444p":     8,
	"yuvj444p":    8,
	"nv12":        8,
	"nv21":        8,
	"yuv420p10le": 10,
	"yuv420p10be": 10,
	"yuv422p10le": 10,
	"yuv444p10le": 10,
	"p010le":      10,
	"yuv420p12le": 12,
	"yuv422p12le": 12,
	"yuv444p12le": 12,
	"rgb24":       8,
	"bgr24":       8,
	"rgba":        8,
	"bgra":        8,
	"argb":        8,
	"abgr":        8,
	"gbrp":        8,
	"gbrp10le":    10,
	"gbrp12le":    12,
	"rgb48le":     16,
	"rgba64le":    16,
	"gray":        8,
	"gray10le":    10,
}

var pixFmtColorSpace = map[string]string{
	"yuv420p":     ColorSpaceYUV,
	"yuvj420p":    ColorSpaceYUV,
	"yuv422p":     ColorSpaceYUV,
	"yuvj422p":    ColorSpaceYUV,
	"yuv444p":     ColorSpaceYUV,
	"yuvj444p":    ColorSpaceYUV,
	"nv12":        ColorSpaceYUV,
	"nv21":        ColorSpaceYUV,
	"yuv420p10le": ColorSpaceYUV,
	"yuv420p10be": ColorSpaceYUV,
	"yuv422p10le": ColorSpaceYUV,
	"yuv444p10le": ColorSpaceYUV,
	"p010le":      ColorSpaceYUV,
	"yuv420p12le": ColorSpaceYUV,
	"yuv422p12le": ColorSpaceYUV,
	"yuv444p12le": ColorSpaceYUV,
	"rgb24":       ColorSpaceRGB,
	"bgr24":       ColorSpaceRGB,
	"rgba":        ColorSpaceRGB,
	"bgra":        ColorSpaceRGB,
	"argb":        ColorSpaceRGB,
	"abgr":        ColorSpaceRGB,
	"gbrp":        ColorSpaceRGB,
	"gbrp10le":    ColorSpaceRGB,
	"gbrp12le":    ColorSpaceRGB,
	"rgb48le":     ColorSpaceRGB,
	"rgba64le":    ColorSpaceRGB,
}

// BitDepthOf 查表返回像素格式的位深；未知格式返回 0。
func BitDepthOf(pixFmt string) int {
	return pixFmtBitDepth[pixFmt]
}

// ColorSpaceOf 查表返回像素格式的色彩空间族；未知格式返回 "Unknown"。
func ColorSpaceOf(pixFmt string) string {
	if cs, ok := pixFmtColorSpace[pixFmt]; ok {
		return cs
	}
	return domain.UnknownValue
}

// ReduceAspect 用最大公约数约分，返回 "W:H"；w、h 同为 0 时返回 "0:0"。
func ReduceAspect(w, h int) string {
	g := gcd(w, h)
	if g == 0 {
		return "0:0"
	}
	return strconv.Itoa(w/g) + ":" + strconv.Itoa(h/g)
}

func gcd(a, b int) int {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

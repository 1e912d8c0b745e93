// Package export 把扫描结果写成纯文本列表、CSV 与静态 HTML 表格。
package export

import (
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/John-Robertt/vidfilter/internal/domain"
	"github.com/John-Robertt/vidfilter/internal/infra/fsx"
)

// Columns 是 CSV / HTML 的固定列顺序。
var Columns = []string{
	"File Path",
	"File Name",
	"Size (MB)",
	"Format",
	"Codec",
	"Bitrate (kbps)",
	"Bitrate Mode",
	"Framerate",
	"Aspect Ratio",
	"Color Space",
	"Bit Depth",
}

// Row 把一条结果格式化为与 Columns 对应的单元格。
func Row(m domain.Match) []string {
	meta := m.Meta
	return []string{
		m.Path,
		filepath.Base(m.Path),
		fixed2(float64(meta.FileSizeBytes) / 1048576),
		Format(m.Path),
		meta.Codec,
		fixed2(float64(meta.BitrateBps) / 1000),
		meta.BitrateMode,
		fixed2(meta.FramerateFps),
		meta.DisplayAspectRatio,
		meta.ColorSpace,
		strconv.Itoa(meta.BitDepth),
	}
}

// Format 返回容器格式（扩展名大写，不含点），例如 "MP4"。
func Format(path string) string {
	return strings.ToUpper(strings.TrimPrefix(filepath.Ext(path), "."))
}

func fixed2(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// WritePlain 把结果路径逐行写入 w（UTF-8，每行以换行结尾）。
func WritePlain(w io.Writer, matches []domain.Match) error {
	for _, m := range matches {
		if _, err := io.WriteString(w, m.Path+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// SavePlain 原子覆盖写入纯文本结果文件。
func SavePlain(path string, matches []domain.Match) error {
	return fsx.WriteAtomic(path, func(w io.Writer) error {
		return WritePlain(w, matches)
	})
}

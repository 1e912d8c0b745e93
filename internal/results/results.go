// Package results 提供对已完成扫描结果的只读视图操作（排序、定位、删除条目）。
//
// 所有排序都作用在副本上，报告中的 Matches 始终保持遍历顺序。
package results

import (
	"cmp"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/John-Robertt/vidfilter/internal/domain"
	"github.com/John-Robertt/vidfilter/internal/export"
)

// SortKeys 是 list / export 支持的排序键。
var SortKeys = []string{
	"path", "name", "size", "format", "codec", "resolution", "duration",
	"bitrate", "mode", "framerate", "aspect", "colorspace", "bitdepth",
}

var ErrNotFound = errors.New("结果中没有该条目")

func compareBy(key string) (func(a, b domain.Match) int, bool) {
	switch key {
	case "path":
		return func(a, b domain.Match) int { return cmp.Compare(a.Path, b.Path) }, true
	case "name":
		return func(a, b domain.Match) int { return cmp.Compare(filepath.Base(a.Path), filepath.Base(b.Path)) }, true
	case "size":
		return func(a, b domain.Match) int { return cmp.Compare(a.Meta.FileSizeBytes, b.Meta.FileSizeBytes) }, true
	case "format":
		return func(a, b domain.Match) int { return cmp.Compare(export.Format(a.Path), export.Format(b.Path)) }, true
	case "codec":
		return func(a, b domain.Match) int { return cmp.Compare(a.Meta.Codec, b.Meta.Codec) }, true
	case "resolution":
		return func(a, b domain.Match) int { return cmp.Compare(a.Meta.Pixels(), b.Meta.Pixels()) }, true
	case "duration":
		return func(a, b domain.Match) int { return cmp.Compare(a.Meta.DurationSeconds, b.Meta.DurationSeconds) }, true
	case "bitrate":
		return func(a, b domain.Match) int { return cmp.Compare(a.Meta.BitrateBps, b.Meta.BitrateBps) }, true
	case "mode":
		return func(a, b domain.Match) int { return cmp.Compare(a.Meta.BitrateMode, b.Meta.BitrateMode) }, true
	case "framerate":
		return func(a, b domain.Match) int { return cmp.Compare(a.Meta.FramerateFps, b.Meta.FramerateFps) }, true
	case "aspect":
		return func(a, b domain.Match) int { return cmp.Compare(a.Meta.DisplayAspectRatio, b.Meta.DisplayAspectRatio) }, true
	case "colorspace":
		return func(a, b domain.Match) int { return cmp.Compare(a.Meta.ColorSpace, b.Meta.ColorSpace) }, true
	case "bitdepth":
		return func(a, b domain.Match) int { return cmp.Compare(a.Meta.BitDepth, b.Meta.BitDepth) }, true
	default:
		return nil, false
	}
}

// Sorted 返回按 key 稳定排序后的副本；key 为空时保持原顺序。
func Sorted(matches []domain.Match, key string, desc bool) ([]domain.Match, error) {
	out := slices.Clone(matches)
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		if desc {
			slices.Reverse(out)
		}
		return out, nil
	}
	cmpFn, ok := compareBy(key)
	if !ok {
		return nil, errors.Errorf("未知排序键 %q（可选：%s）", key, strings.Join(SortKeys, ", "))
	}
	slices.SortStableFunc(out, func(a, b domain.Match) int {
		if desc {
			return cmpFn(b, a)
		}
		return cmpFn(a, b)
	})
	return out, nil
}

// Resolve 按路径或 1 起始的序号（相对 view）定位一条结果。
// 路径优先：名为 "3" 的结果文件可以用相对路径 3 指到，不会被当成序号。
func Resolve(view []domain.Match, ref string) (domain.Match, error) {
	ref = strings.TrimSpace(ref)
	abs, err := filepath.Abs(ref)
	if err != nil {
		return domain.Match{}, err
	}
	for _, m := range view {
		if m.Path == abs || m.Path == ref {
			return m, nil
		}
	}

	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(view) {
			return domain.Match{}, errors.Wrapf(ErrNotFound, "序号 %d 超出范围 1..%d", n, len(view))
		}
		return view[n-1], nil
	}
	return domain.Match{}, errors.Wrap(ErrNotFound, ref)
}

// Remove 从报告中移除 path 对应的结果（用于删除文件成功之后），并重新计算 summary。
// 被移除的条目不会计入 filtered / failures。
func Remove(r *domain.ScanReport, path string) error {
	i := slices.IndexFunc(r.Matches, func(m domain.Match) bool { return m.Path == path })
	if i < 0 {
		return errors.Wrap(ErrNotFound, path)
	}
	r.Matches = slices.Delete(r.Matches, i, i+1)
	r.Finalize()
	return nil
}

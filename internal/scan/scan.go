package scan

import (
	"io/fs"
	"iter"
	"path/filepath"
	"sort"
	"strings"

	"github.com/John-Robertt/vidfilter/internal/domain"
)

// StateDirName 是工具自身的状态目录（report.json 等），扫描时永久排除。
const StateDirName = ".vidfilter"

// SkipFunc 接收遍历中被跳过的路径（通常是没有读权限的子目录）。
type SkipFunc func(path string, err error)

var videoExts = map[string]struct{}{
	".mp4": {},
	".mkv": {},
	".avi": {},
	".mov": {},
	".wmv": {},
	".flv": {},
}

// Candidates 返回 root 下视频候选文件的惰性序列，可重复迭代（每次重新遍历目录树）。
//
// 规则（硬约束）：
// - 永久排除：<root>/.vidfilter/
// - excludeDirs：来自配置文件，均视为相对 root 的路径（若是绝对路径，则按绝对路径处理）
// - 扩展名不区分大小写
// - 顺序即目录遍历顺序，不做重排
//
// root 本身无法访问时产出 (零值, err) 并结束；root 之下无法读取的目录或条目跳过，
// 并交给 onSkip（可为 nil）。只读目录项，不 stat、不读文件内容。
func Candidates(root string, excludeDirs []string, onSkip SkipFunc) iter.Seq2[domain.VideoFile, error] {
	root = filepath.Clean(root)
	excluded := buildExcluded(root, excludeDirs)

	return func(yield func(domain.VideoFile, error) bool) {
		stopped := false
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				if path == root {
					return walkErr
				}
				if onSkip != nil {
					onSkip(path, walkErr)
				}
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// 统一的排除判断：目录用 SkipDir，文件则直接跳过。
			if isExcluded(path, excluded) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				return nil
			}

			name := d.Name()
			ext := strings.ToLower(filepath.Ext(name))
			if !IsVideoExt(ext) {
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}

			vf := domain.VideoFile{
				AbsPath: path,
				RelPath: rel,
				Ext:     ext,
			}
			if !yield(vf, nil) {
				stopped = true
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil && !stopped {
			yield(domain.VideoFile{}, err)
		}
	}
}

// ScanVideos 物化 Candidates，用于先得到总数再逐个处理。
func ScanVideos(root string, excludeDirs []string, onSkip SkipFunc) ([]domain.VideoFile, error) {
	files := make([]domain.VideoFile, 0, 128)
	for vf, err := range Candidates(root, excludeDirs, onSkip) {
		if err != nil {
			return nil, err
		}
		files = append(files, vf)
	}
	return files, nil
}

// IsVideoExt 判断扩展名（含点）是否属于已知视频格式。
func IsVideoExt(ext string) bool {
	_, ok := videoExts[strings.ToLower(ext)]
	return ok
}

func buildExcluded(root string, excludeDirs []string) []string {
	excluded := make([]string, 0, 1+len(excludeDirs))
	excluded = append(excluded, filepath.Join(root, StateDirName))

	for _, x := range excludeDirs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if filepath.IsAbs(x) {
			excluded = append(excluded, filepath.Clean(x))
			continue
		}
		// x 是相对路径：相对 root。
		excluded = append(excluded, filepath.Clean(filepath.Join(root, x)))
	}

	// 排除列表排序后，isExcluded 的行为更可预测（且便于测试）。
	sort.Strings(excluded)
	return excluded
}

func isExcluded(path string, excluded []string) bool {
	path = filepath.Clean(path)
	for _, base := range excluded {
		if isUnder(path, base) {
			return true
		}
	}
	return false
}

func isUnder(path, base string) bool {
	if path == base {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(path, base+sep)
}

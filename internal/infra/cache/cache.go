package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/John-Robertt/vidfilter/internal/domain"
	"github.com/John-Robertt/vidfilter/internal/infra/fsx"
)

// ReportFile 是最近一次扫描报告的文件名（位于 <path>/.vidfilter/ 下）。
const ReportFile = "report.json"

// Store 提供 <path>/.vidfilter/ 下的状态读写。
//
// 约束：
// - list / export / open / reveal：只读（ReadOnly=true）
// - scan / delete：允许写（ReadOnly=false）
type Store struct {
	Dir      string // <path>/.vidfilter
	ReadOnly bool
}

var (
	ErrReadOnly = errors.New("cache: read-only")
	// ErrNoReport 表示还没有扫描过（或报告已被删除）。
	ErrNoReport = errors.New("尚未扫描：没有找到 report.json")
)

func New(dir string, readOnly bool) Store {
	return Store{
		Dir:      filepath.Clean(strings.TrimSpace(dir)),
		ReadOnly: readOnly,
	}
}

func (s Store) ReportPath() string {
	return filepath.Join(s.Dir, ReportFile)
}

// ReadReport 读取上次扫描的报告；不存在时返回 ErrNoReport。
func (s Store) ReadReport() (domain.ScanReport, error) {
	b, err := os.ReadFile(s.ReportPath())
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ScanReport{}, ErrNoReport
		}
		return domain.ScanReport{}, err
	}
	var r domain.ScanReport
	if err := json.Unmarshal(b, &r); err != nil {
		return domain.ScanReport{}, errors.Wrapf(err, "解析 %s 失败", s.ReportPath())
	}
	return r, nil
}

// WriteReport 原子覆盖写入报告。
func (s Store) WriteReport(r domain.ScanReport) error {
	if s.ReadOnly {
		return ErrReadOnly
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomic(s.ReportPath(), append(b, '\n'))
}

package domain

import (
	"encoding/json"
	"time"
)

const (
	OutcomeMatched     = "matched"
	OutcomeFiltered    = "filtered"
	OutcomeProbeFailed = "probe_failed"
)

const (
	ErrCodeProbeFailed       = "probe_failed"
	ErrCodeStatFailed        = "stat_failed"
	ErrCodeConfigNotFound    = "config_not_found"
	ErrCodeConfigInvalid     = "config_invalid"
	ErrCodeConfigMissingPath = "config_missing_path"
)

// ScanReport 是对外稳定输出（report.json / stdout JSON）的结构。
//
// Matches 保持遍历顺序，Finalize 不会重排（排序只作用于展示副本）。
type ScanReport struct {
	RunID string `json:"run_id"`
	Root  string `json:"root"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Criteria 是本次启用的过滤条件（人类可读，便于回看）。
	Criteria []string `json:"criteria"`

	Summary  ScanSummary   `json:"summary"`
	Matches  []Match       `json:"matches"`
	Filtered []string      `json:"filtered"`
	Failures []FileFailure `json:"failures"`
}

type ScanSummary struct {
	Examined int `json:"examined"`
	Matched  int `json:"matched"`
	Filtered int `json:"filtered"`
	Failed   int `json:"failed"`
}

// Match 是一条通过全部过滤条件的结果。
type Match struct {
	Path    string        `json:"path"`
	RelPath string        `json:"rel_path"`
	Meta    VideoMetadata `json:"meta"`
}

type FileFailure struct {
	Path      string `json:"path"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

// FileOutcome 是单个文件处理完成后的结论（供 observer 使用）。
type FileOutcome struct {
	Path   string
	Status string // OutcomeMatched / OutcomeFiltered / OutcomeProbeFailed
	Meta   *VideoMetadata
	Err    string
}

// Finalize 做两件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) summary 由 matches/filtered/failures 计算得出
//
// nil 切片统一成空切片，JSON 中输出 [] 而不是 null。
func (r *ScanReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	if r.Criteria == nil {
		r.Criteria = []string{}
	}
	if r.Matches == nil {
		r.Matches = []Match{}
	}
	if r.Filtered == nil {
		r.Filtered = []string{}
	}
	if r.Failures == nil {
		r.Failures = []FileFailure{}
	}

	r.Summary = ScanSummary{
		Matched:  len(r.Matches),
		Filtered: len(r.Filtered),
		Failed:   len(r.Failures),
	}
	r.Summary.Examined = r.Summary.Matched + r.Summary.Filtered + r.Summary.Failed
}

// MatchPaths 返回按结果顺序排列的路径列表（纯文本输出的内容）。
func (r ScanReport) MatchPaths() []string {
	out := make([]string, 0, len(r.Matches))
	for _, m := range r.Matches {
		out = append(out, m.Path)
	}
	return out
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
// 当前只是透传 encoding/json 的默认行为。
func (r ScanReport) MarshalJSON() ([]byte, error) {
	type Alias ScanReport
	return json.Marshal(Alias(r))
}

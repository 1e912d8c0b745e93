package run

import (
	"time"

	"github.com/John-Robertt/vidfilter/internal/config"
	"github.com/John-Robertt/vidfilter/internal/domain"
)

// Observer 用于把“扫描进度/阶段/单文件结果”从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
// - 扫描是严格串行的，事件只来自调用 Execute 的 goroutine；
//   但实现方若自带 keepalive ticker，仍需自行加锁。
type Observer interface {
	// OnStart 在 Execute 开始时调用（应尽量早，保证用户 1 秒内看到输出）。
	OnStart(eff config.EffectiveConfig, criteria []string)
	// OnPhaseDone 在阶段结束时调用（enumerate / probe），用于打印阶段统计与耗时。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnFileStart 在开始 probe 某个文件时调用（用于 keepalive 显示当前文件）。
	OnFileStart(idx, total int, path string)
	// OnFileDone 在某个文件处理完成时调用（idx 从 1 开始）。
	OnFileDone(idx, total int, out domain.FileOutcome, dur time.Duration)
}

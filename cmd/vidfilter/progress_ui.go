package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/John-Robertt/vidfilter/internal/app/run"
	"github.com/John-Robertt/vidfilter/internal/config"
	"github.com/John-Robertt/vidfilter/internal/domain"
	"github.com/John-Robertt/vidfilter/internal/infra/cache"
	"github.com/John-Robertt/vidfilter/internal/scan"
)

var _ run.Observer = (*progressUI)(nil)

var (
	matchTag = color.New(color.FgGreen, color.Bold).SprintFunc()
	skipTag  = color.New(color.FgYellow).SprintFunc()
	failTag  = color.New(color.FgRed, color.Bold).SprintFunc()
	dimText  = color.New(color.Faint).SprintFunc()
)

// progressUI 是交互终端下的扫描进度输出。
//
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 事件驱动：run 层只发事件，CLI 决定如何展示
// - keepalive：单个文件 probe 太久时定期输出一行当前文件
type progressUI struct {
	w io.Writer

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time

	total   int
	done    int
	match   int
	skip    int
	fail    int
	current string

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{
		w:                  w,
		keepaliveThreshold: 6 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig, criteria []string) {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.startedAt.IsZero() {
		p.startedAt = now
	}

	fmt.Fprintf(p.w, "[%s] vidfilter scan\n", now.Format("15:04:05"))
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  path: %s\n", eff.Path)
	fmt.Fprintf(p.w, "  ffprobe: %s\n", eff.FFprobe)
	fmt.Fprintf(p.w, "  exclude_dirs: %s + 固定排除 %s/\n", formatStringListJSON(eff.ExcludeDirs), scan.StateDirName)
	if eff.ConfigFile != "" {
		fmt.Fprintf(p.w, "  config: %s\n", eff.ConfigFile)
	} else {
		fmt.Fprintln(p.w, "  config: (无)")
	}

	fmt.Fprintln(p.w, "过滤条件:")
	if len(criteria) == 0 {
		fmt.Fprintln(p.w, "  (无，全部匹配)")
	}
	for _, c := range criteria {
		fmt.Fprintf(p.w, "  %s\n", c)
	}

	fmt.Fprintln(p.w, "输出:")
	fmt.Fprintf(p.w, "  output: %s\n", eff.Output)
	fmt.Fprintf(p.w, "  report: %s\n", filepath.Join(eff.StateDir, cache.ReportFile))
	fmt.Fprintln(p.w)

	p.lastPrinted = time.Now()
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch name {
	case "enumerate":
		p.total = intField(fields, "files")
		if n := intField(fields, "skipped"); n > 0 {
			fmt.Fprintf(p.w, "枚举: files=%d skipped=%d (%s)\n", p.total, n, formatShortDuration(dur))
			paths, _ := fields["paths"].([]string)
			for _, sp := range paths {
				fmt.Fprintf(p.w, "  %s %s\n", skipTag("无法读取，已跳过"), sp)
			}
			fmt.Fprintln(p.w)
		} else {
			fmt.Fprintf(p.w, "枚举: files=%d (%s)\n\n", p.total, formatShortDuration(dur))
		}
		if p.total > 0 && !p.tickerStarted {
			p.startTickerLocked()
		}
	case "probe":
		fmt.Fprintf(p.w, "\n探测: matched=%d filtered=%d failed=%d (%s)\n",
			intField(fields, "matched"), intField(fields, "filtered"), intField(fields, "failed"),
			formatShortDuration(dur),
		)
		p.stopTickerLocked()
	default:
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}

	p.lastPrinted = time.Now()
}

func (p *progressUI) OnFileStart(idx, total int, path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
	p.current = path
}

func (p *progressUI) OnFileDone(idx, total int, out domain.FileOutcome, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = idx
	p.total = total
	p.current = ""

	switch out.Status {
	case domain.OutcomeMatched:
		p.match++
		fmt.Fprintf(p.w, "[%d/%d] %s %s %s %s\n",
			idx, total, matchTag("MATCH"), out.Path, describeMeta(out.Meta), dimText("("+formatShortDuration(dur)+")"),
		)
	case domain.OutcomeFiltered:
		p.skip++
		fmt.Fprintf(p.w, "[%d/%d] %s %s %s\n",
			idx, total, skipTag("SKIP"), out.Path, dimText("("+formatShortDuration(dur)+")"),
		)
	default:
		p.fail++
		fmt.Fprintf(p.w, "[%d/%d] %s %s: %s %s\n",
			idx, total, failTag("FAIL"), out.Path, truncate(out.Err, 160), dimText("("+formatShortDuration(dur)+")"),
		)
	}

	p.lastPrinted = time.Now()

	// 最后一条完成：停止 ticker，避免在结束打印后又冒出 keepalive。
	if p.done >= p.total {
		p.stopTickerLocked()
	}
}

// Close 停止 keepalive（扫描被取消等提前结束的场景）。
func (p *progressUI) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopTickerLocked()
}

func (p *progressUI) stopTickerLocked() {
	if p.tickerStarted {
		close(p.stopCh)
		p.tickerStarted = false
	}
}

func (p *progressUI) startTickerLocked() {
	p.stopCh = make(chan struct{})
	p.tickerStarted = true
	stop := p.stopCh

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 6 * time.Second
	}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				if p.total > 0 && p.done >= p.total {
					p.mu.Unlock()
					return
				}
				if time.Since(p.lastPrinted) > threshold {
					cur := p.current
					if cur == "" {
						cur = "-"
					}
					fmt.Fprintf(p.w, "进度: done=%d/%d match=%d skip=%d fail=%d current=%s elapsed=%s\n",
						p.done, p.total, p.match, p.skip, p.fail, truncate(cur, 120), formatElapsed(time.Since(p.startedAt)),
					)
					p.lastPrinted = time.Now()
				}
				p.mu.Unlock()
			case <-stop:
				return
			}
		}
	}()
}

func describeMeta(m *domain.VideoMetadata) string {
	if m == nil {
		return ""
	}
	return fmt.Sprintf("codec=%s %s %.1fs", m.Codec, m.Resolution(), m.DurationSeconds)
}

func formatStringListJSON(xs []string) string {
	// json.Marshal(nil slice) => "null"；对用户更友好的是 "[]"
	if xs == nil {
		xs = []string{}
	}
	b, err := json.Marshal(xs)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, (sec%3600)/60, sec%60)
}

func intField(fields map[string]any, key string) int {
	switch x := fields[key].(type) {
	case int:
		return x
	case int64:
		return int(x)
	case float64:
		return int(x)
	default:
		return 0
	}
}

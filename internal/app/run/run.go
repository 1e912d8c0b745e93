package run

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/John-Robertt/vidfilter/internal/config"
	"github.com/John-Robertt/vidfilter/internal/domain"
	"github.com/John-Robertt/vidfilter/internal/export"
	"github.com/John-Robertt/vidfilter/internal/filter"
	"github.com/John-Robertt/vidfilter/internal/infra/cache"
	"github.com/John-Robertt/vidfilter/internal/media"
	"github.com/John-Robertt/vidfilter/internal/scan"
)

// ErrNoVideos 表示目录下没有任何候选视频文件；此时不写任何输出。
var ErrNoVideos = errors.New("目录中没有找到视频文件")

// Extractor 抽象元数据提取（生产实现为 *media.Extractor）。
// 返回 error 即表示“没有元数据”，该文件被排除。
type Extractor interface {
	Extract(ctx context.Context, path string) (domain.VideoMetadata, error)
}

// Execute 执行一次扫描并返回对外稳定的 ScanReport。
//
// 状态：Idle → Enumerating → Probing/Filtering（严格串行，一次一个 probe）→ Done。
// 单文件失败只降级为 failures 中的一条，不影响其他文件。
// ctx 在每个文件处理完后检查；取消时返回 ctx 错误，调用方不应写出任何结果。
func Execute(ctx context.Context, eff config.EffectiveConfig, ex Extractor, crit filter.Criteria, obs Observer) (domain.ScanReport, error) {
	started := time.Now().UTC()

	criteria := crit.Describe()
	if obs != nil {
		obs.OnStart(eff, criteria)
	}

	r := domain.ScanReport{
		RunID:     uuid.NewString(),
		Root:      eff.Path,
		StartedAt: started,
		Criteria:  criteria,
	}

	enumStarted := time.Now()
	// 无法读取的子目录只跳过；根目录本身不可读仍是致命错误。
	var skipped []string
	files, err := scan.ScanVideos(eff.Path, eff.ExcludeDirs, func(path string, _ error) {
		skipped = append(skipped, path)
	})
	if err != nil {
		return domain.ScanReport{}, errors.Wrap(err, "扫描目录失败")
	}
	if obs != nil {
		obs.OnPhaseDone("enumerate", map[string]any{
			"files":   len(files),
			"skipped": len(skipped),
			"paths":   skipped,
		}, time.Since(enumStarted))
	}
	if len(files) == 0 {
		return domain.ScanReport{}, ErrNoVideos
	}

	probeStarted := time.Now()
	r.Matches = make([]domain.Match, 0, len(files))
	total := len(files)
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return domain.ScanReport{}, err
		}
		idx := i + 1
		if obs != nil {
			obs.OnFileStart(idx, total, f.AbsPath)
		}

		fileStarted := time.Now()
		out := processFile(ctx, ex, crit, f, &r)

		// 进程被取消导致的 probe 失败不计入结果：整次扫描作废。
		if err := ctx.Err(); err != nil {
			return domain.ScanReport{}, err
		}
		if obs != nil {
			obs.OnFileDone(idx, total, out, time.Since(fileStarted))
		}
	}

	r.FinishedAt = time.Now().UTC()
	r.Finalize()
	if obs != nil {
		obs.OnPhaseDone("probe", map[string]any{
			"matched":  r.Summary.Matched,
			"filtered": r.Summary.Filtered,
			"failed":   r.Summary.Failed,
		}, time.Since(probeStarted))
	}
	return r, nil
}

func processFile(ctx context.Context, ex Extractor, crit filter.Criteria, f domain.VideoFile, r *domain.ScanReport) domain.FileOutcome {
	meta, err := ex.Extract(ctx, f.AbsPath)
	if err != nil {
		code := domain.ErrCodeProbeFailed
		if errors.Is(err, media.ErrStat) {
			code = domain.ErrCodeStatFailed
		}
		r.Failures = append(r.Failures, domain.FileFailure{Path: f.AbsPath, ErrorCode: code, ErrorMsg: err.Error()})
		return domain.FileOutcome{Path: f.AbsPath, Status: domain.OutcomeProbeFailed, Err: err.Error()}
	}

	if !crit.Match(meta) {
		r.Filtered = append(r.Filtered, f.AbsPath)
		return domain.FileOutcome{Path: f.AbsPath, Status: domain.OutcomeFiltered, Meta: &meta}
	}

	r.Matches = append(r.Matches, domain.Match{Path: f.AbsPath, RelPath: f.RelPath, Meta: meta})
	return domain.FileOutcome{Path: f.AbsPath, Status: domain.OutcomeMatched, Meta: &meta}
}

// Save 写出一次完成的扫描：纯文本结果文件（eff.Output）与 <path>/.vidfilter/report.json。
//
// 纯文本文件先写：它是对外的主要产物；report.json 供 list/export/open 等后续命令使用。
func Save(eff config.EffectiveConfig, r domain.ScanReport) error {
	if err := export.SavePlain(eff.Output, r.Matches); err != nil {
		return errors.Wrap(err, "写入结果列表失败")
	}
	if err := cache.New(eff.StateDir, false).WriteReport(r); err != nil {
		return errors.Wrap(err, "写入 report.json 失败")
	}
	return nil
}

package media

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/John-Robertt/vidfilter/internal/domain"
	"github.com/John-Robertt/vidfilter/internal/probe"
)

// Prober 抽象外部探测工具（生产实现为 *probe.Runner，测试可替换）。
type Prober interface {
	Probe(ctx context.Context, path string) (probe.Result, error)
}

// ErrStat 表示无法读取文件大小（文件在扫描后消失等）。
var ErrStat = errors.New("读取文件信息失败")

// Extractor 组合 probe + 文件大小 + 归一化。
type Extractor struct {
	prober Prober
	logger *zap.Logger

	stat func(path string) (os.FileInfo, error)
}

func NewExtractor(p Prober, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{prober: p, logger: logger, stat: os.Stat}
}

// Extract 返回 path 的元数据。
//
// 返回 error 即表示“没有元数据”：调用方应把该文件排除在结果之外，而不是中止扫描。
// 失败会以 warn 级别记录，便于排查。
func (e *Extractor) Extract(ctx context.Context, path string) (domain.VideoMetadata, error) {
	info, err := e.stat(path)
	if err != nil {
		e.logger.Warn("stat failed", zap.String("path", path), zap.Error(err))
		return domain.VideoMetadata{}, errors.Wrap(ErrStat, err.Error())
	}

	res, err := e.prober.Probe(ctx, path)
	if err != nil {
		if ctx.Err() == nil {
			e.logger.Warn("probe failed", zap.String("path", path), zap.Error(err))
		}
		return domain.VideoMetadata{}, err
	}

	meta := Normalize(res, info.Size())
	e.logger.Debug("probed",
		zap.String("path", path),
		zap.String("codec", meta.Codec),
		zap.String("resolution", meta.Resolution()),
		zap.Float64("fps", meta.FramerateFps),
	)
	return meta, nil
}

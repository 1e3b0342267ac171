package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/licitafeed/internal/archive"
	"github.com/hitoshi/licitafeed/internal/atom"
	"github.com/hitoshi/licitafeed/internal/batch"
	"github.com/hitoshi/licitafeed/internal/config"
	"github.com/hitoshi/licitafeed/internal/extractor"
	"github.com/hitoshi/licitafeed/internal/fetch"
	"github.com/hitoshi/licitafeed/internal/metrics"
	"github.com/hitoshi/licitafeed/internal/model"
)

// Service は書庫発見から抽出・出力までの1回分の取り込み実行を編成する。
type Service struct {
	cfg        *config.Config
	fetchFunc  fetch.Func
	discoverer *archive.Discoverer
	zipHandler *archive.Handler
	parser     *atom.Parser
	follower   *atom.ChainFollower
	extractor  *extractor.Extractor
	sink       RecordSink
	recorder   metrics.Recorder
	logger     *slog.Logger
}

// New はServiceを生成する。
func New(
	cfg *config.Config,
	fetchFunc fetch.Func,
	headFunc fetch.HeadFunc,
	sink RecordSink,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *Service {
	parser := atom.NewParser(logger)
	return &Service{
		cfg:        cfg,
		fetchFunc:  fetchFunc,
		discoverer: archive.NewDiscoverer(fetchFunc, headFunc, logger),
		zipHandler: archive.NewHandler(logger),
		parser:     parser,
		follower:   atom.NewChainFollower(parser, fetchFunc, cfg.MaxChainHops, logger),
		extractor:  extractor.New(logger),
		sink:       sink,
		recorder:   recorder,
		logger:     logger,
	}
}

// Run は取り込みを1回実行する。
// 書庫一覧を発見して時系列順に整列し、各書庫を並行処理した後、
// レコードを書庫の時系列順・フィード内の出現順で出力する。
// 個々の書庫の失敗は実行を止めないが、1件も成功しなかった場合は
// 系統的な障害としてエラーを返す。
func (s *Service) Run(ctx context.Context) (*batch.Stats, error) {
	archives, err := s.discoverer.Discover(ctx, s.cfg.IndexURL)
	if err != nil {
		return nil, err
	}

	archives = archive.FilterSince(archives, s.cfg.SincePeriod)
	archives = archive.Order(archives)

	if len(archives) == 0 {
		s.logger.Warn("処理対象の書庫がありません",
			slog.String("index", s.cfg.IndexURL))
		return batch.NewStats("", 0), nil
	}

	results, stats, err := batch.Process(ctx, archives,
		func(a model.ArchiveDescriptor) string { return a.Filename },
		s.processArchive,
		batch.Options{
			MaxWorkers:      s.cfg.Workers,
			RateLimitPerSec: s.cfg.RateLimitPerSec,
			RetryAttempts:   s.cfg.RetryAttempts,
		},
		s.logger)
	if err != nil {
		return nil, err
	}

	// 出力は並行処理の完了後に書庫の時系列順で直列に行う
	for _, result := range results {
		if result.Err != nil {
			continue
		}
		for _, record := range result.Value {
			if err := s.sink.Put(ctx, record); err != nil {
				return stats, err
			}
			s.recorder.RecordRecordEmitted()
		}
	}

	if stats.Total() > 0 && stats.Successful() == 0 {
		return stats, model.NewBatchExhaustedError(stats.Total())
	}
	return stats, nil
}

// processArchive は書庫1件を処理してレコード列を返す。
// ZIPのベースフィードを起点にチェーンを追跡し、収集したフィードを
// 時系列順（古い順）に反転してからエントリを抽出する。
func (s *Service) processArchive(ctx context.Context, desc model.ArchiveDescriptor) ([]*model.TenderRecord, error) {
	start := time.Now()

	zipBuf, err := s.fetchFunc(ctx, desc.URL)
	if err != nil {
		s.recorder.RecordArchiveFailure()
		return nil, err
	}

	feedBuf, memberName, err := s.zipHandler.ExtractBaseFeed(zipBuf, desc.Filename)
	if err != nil {
		s.recorder.RecordArchiveFailure()
		return nil, err
	}

	baseFeed, err := s.parser.Parse(feedBuf, desc.Filename+"!"+memberName)
	if err != nil {
		s.recorder.RecordArchiveFailure()
		return nil, err
	}

	// チェーンは新しい順で返るため時系列順に反転する
	feeds := s.follower.FollowFrom(ctx, baseFeed, desc.URL)
	for i, j := 0, len(feeds)-1; i < j; i, j = i+1, j-1 {
		feeds[i], feeds[j] = feeds[j], feeds[i]
	}

	var records []*model.TenderRecord
	for _, feed := range feeds {
		for _, entry := range feed.Entries {
			record, tier, err := s.extractor.Extract(entry)
			if err != nil {
				s.logger.Warn("エントリの抽出に失敗しました",
					slog.String("archive", desc.Filename),
					slog.String("entry_id", entry.ID),
					slog.String("error", err.Error()))
				continue
			}
			s.recorder.RecordEntryTier(tier.String())
			if record == nil {
				continue
			}
			records = append(records, record)
		}
	}

	s.recorder.RecordArchiveSuccess()
	s.recorder.RecordArchiveDuration(time.Since(start))

	s.logger.Info("書庫を処理しました",
		slog.String("archive", desc.Filename),
		slog.String("period", desc.Period.String()),
		slog.Int("feeds", len(feeds)),
		slog.Int("records", len(records)))

	return records, nil
}

package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/hitoshi/licitafeed/internal/model"
)

// WorkerFunc は1項目を処理する関数型。失敗を返すと再試行の対象になる。
type WorkerFunc[T, R any] func(ctx context.Context, item T) (R, error)

// IDFunc は項目からログ・集計用の識別子を取り出す関数型。
type IDFunc[T any] func(item T) string

// Options はバッチ実行のパラメータ。
type Options struct {
	// MaxWorkers は同時に処理する項目数の上限。
	MaxWorkers int
	// RateLimitPerSec は秒間の項目開始数の上限。
	RateLimitPerSec float64
	// RetryAttempts は失敗項目の最大再試行回数。0は再試行なし。
	RetryAttempts int
	// InitialBackoff は再試行間隔の初期値。ゼロなら1秒。
	InitialBackoff time.Duration
	// RunID は実行識別子。空ならUUIDが生成される。
	RunID string
}

func (o Options) validate() error {
	if o.MaxWorkers <= 0 {
		return model.NewInvalidConfigError(fmt.Sprintf("MaxWorkersは1以上が必要です: %d", o.MaxWorkers))
	}
	if o.RateLimitPerSec <= 0 {
		return model.NewInvalidConfigError(fmt.Sprintf("RateLimitPerSecは正の値が必要です: %g", o.RateLimitPerSec))
	}
	if o.RetryAttempts < 0 {
		return model.NewInvalidConfigError(fmt.Sprintf("RetryAttemptsは0以上が必要です: %d", o.RetryAttempts))
	}
	return nil
}

// Result はバッチ内の1項目の処理結果。
// Indexは入力スライス内の位置で、呼び出し側が順序を復元するために使う。
type Result[R any] struct {
	Index  int
	ItemID string
	Value  R
	Err    error
}

// Process は項目列を並行処理し、全項目の結果と集計を返す。
// 個々の項目の失敗はバッチを止めず、結果とStatsに記録される。
// 並行数はMaxWorkersのセマフォで、開始頻度はレートリミッタで制限される。
// オプションが不正な場合は処理開始前にエラーを返す。
// コンテキストのキャンセルで未開始の項目は失敗として記録される。
func Process[T, R any](
	ctx context.Context,
	items []T,
	id IDFunc[T],
	worker WorkerFunc[T, R],
	opts Options,
	logger *slog.Logger,
) ([]Result[R], *Stats, error) {
	if err := opts.validate(); err != nil {
		return nil, nil, err
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	stats := NewStats(runID, len(items))
	results := make([]Result[R], len(items))

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimitPerSec), 1)
	sem := make(chan struct{}, opts.MaxWorkers)
	var wg sync.WaitGroup

	logger.Info("バッチ処理を開始します",
		slog.String("run_id", runID),
		slog.Int("total", len(items)),
		slog.Int("max_workers", opts.MaxWorkers),
		slog.Float64("rate_limit", opts.RateLimitPerSec))

	for i, item := range items {
		itemID := id(item)

		if err := limiter.Wait(ctx); err != nil {
			results[i] = Result[R]{Index: i, ItemID: itemID, Err: err}
			stats.RecordFailure(itemID, err, 0, 0)
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(index int, item T, itemID string) {
			defer wg.Done()
			defer func() { <-sem }()

			start := time.Now()
			value, attempt, err := runWithRetry(ctx, item, itemID, worker, opts, logger)
			duration := time.Since(start)

			results[index] = Result[R]{Index: index, ItemID: itemID, Value: value, Err: err}
			if err != nil {
				stats.RecordFailure(itemID, err, attempt, duration)
				logger.Warn("項目の処理に失敗しました",
					slog.String("run_id", runID),
					slog.String("item_id", itemID),
					slog.Int("attempts", attempt+1),
					slog.String("error", err.Error()))
				return
			}
			stats.RecordSuccess(duration)
			logger.Debug("項目を処理しました",
				slog.String("run_id", runID),
				slog.String("item_id", itemID),
				slog.Duration("duration", duration))
		}(i, item, itemID)
	}

	wg.Wait()
	stats.Finish()

	logger.Info("バッチ処理が完了しました",
		slog.String("run_id", runID),
		slog.Int("successful", stats.Successful()),
		slog.Int("failed", stats.Failed()),
		slog.Float64("success_rate", stats.SuccessRate()),
		slog.Duration("elapsed", stats.Elapsed()))

	return results, stats, nil
}

// runWithRetry は指数バックオフ付きで項目を処理する。
// 戻り値のattemptは最後に実行した試行番号（0始まり）。
func runWithRetry[T, R any](
	ctx context.Context,
	item T,
	itemID string,
	worker WorkerFunc[T, R],
	opts Options,
	logger *slog.Logger,
) (R, int, error) {
	var zero R
	var lastErr error

	for attempt := 0; attempt <= opts.RetryAttempts; attempt++ {
		if attempt > 0 {
			backoff := CalculateBackoff(attempt-1, opts.InitialBackoff)
			logger.Debug("再試行まで待機します",
				slog.String("item_id", itemID),
				slog.Int("attempt", attempt),
				slog.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return zero, attempt, ctx.Err()
			case <-time.After(backoff):
			}
		}

		value, err := worker(ctx, item)
		if err == nil {
			return value, attempt, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, attempt, lastErr
		}
	}
	return zero, opts.RetryAttempts, lastErr
}

// Package batch は並行バッチ処理の実行基盤を提供する。
package batch

import (
	"sync"
	"time"
)

// ItemError はバッチ内の1項目の失敗を記録する。
type ItemError struct {
	ItemID  string `json:"item_id"`
	Message string `json:"message"`
	Attempt int    `json:"attempt"`
}

// Stats はバッチ実行の集計を保持する。全メソッドは並行呼び出しに安全。
type Stats struct {
	mu sync.Mutex

	// RunID はこのバッチ実行を識別するID。ログとの突き合わせに使う。
	RunID string

	total      int
	successful int
	failed     int
	errors     []ItemError
	durations  []time.Duration
	startedAt  time.Time
	finishedAt time.Time
}

// NewStats はStatsを生成する。
func NewStats(runID string, total int) *Stats {
	return &Stats{
		RunID:     runID,
		total:     total,
		startedAt: time.Now(),
	}
}

// RecordSuccess は成功項目を記録する。
func (s *Stats) RecordSuccess(duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.successful++
	s.durations = append(s.durations, duration)
}

// RecordFailure は失敗項目を記録する。
// 失敗の原因は集計に残り、バッチ全体は継続する。
func (s *Stats) RecordFailure(itemID string, err error, attempt int, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed++
	s.durations = append(s.durations, duration)
	s.errors = append(s.errors, ItemError{
		ItemID:  itemID,
		Message: err.Error(),
		Attempt: attempt,
	})
}

// Finish は終了時刻を記録する。
func (s *Stats) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishedAt = time.Now()
}

// Total は項目総数を返す。
func (s *Stats) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Successful は成功数を返す。
func (s *Stats) Successful() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.successful
}

// Failed は失敗数を返す。
func (s *Stats) Failed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed
}

// Errors は失敗項目の記録を返す。
func (s *Stats) Errors() []ItemError {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ItemError, len(s.errors))
	copy(out, s.errors)
	return out
}

// SuccessRate は成功率（0.0〜1.0）を返す。項目ゼロの場合は0を返す。
func (s *Stats) SuccessRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.total == 0 {
		return 0
	}
	return float64(s.successful) / float64(s.total)
}

// AverageDuration は項目あたりの平均処理時間を返す。記録がなければ0。
func (s *Stats) AverageDuration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.durations) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range s.durations {
		sum += d
	}
	return sum / time.Duration(len(s.durations))
}

// Elapsed はバッチ全体の経過時間を返す。未終了の場合は現在までの経過。
func (s *Stats) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finishedAt.IsZero() {
		return time.Since(s.startedAt)
	}
	return s.finishedAt.Sub(s.startedAt)
}

package batch

import "time"

// maxBackoff は再試行間隔の上限。
const maxBackoff = 30 * time.Second

// CalculateBackoff は再試行回数に応じた指数バックオフ間隔を計算する。
// attempt=0で1秒、以降2倍ずつ増加し、maxBackoffで頭打ちになる。
func CalculateBackoff(attempt int, initial time.Duration) time.Duration {
	if initial <= 0 {
		initial = time.Second
	}
	backoff := initial
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}

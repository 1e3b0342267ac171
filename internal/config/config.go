// Package config は環境変数からのクローラー設定読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/licitafeed/internal/model"
)

// Config はクローラーの全設定を保持する。
type Config struct {
	// IndexURL は書庫一覧ページまたはフィードインデックスのURL。必須。
	IndexURL string
	// ProbePattern は月次プローブ用のURLテンプレート。
	// "%s"の位置にYYYYMMが埋め込まれる。空の場合プローブ発見は無効。
	ProbePattern string
	// OutputPath はレコード出力先のファイルパス。空の場合は標準出力。
	OutputPath string
	// SincePeriod は処理開始期間（YYYYMM）。0の場合は全期間を処理する。
	SincePeriod int

	// Workers はバッチ処理の最大並行数。
	Workers int
	// RateLimitPerSec は秒間リクエスト数の上限。
	RateLimitPerSec float64
	// RetryAttempts は項目ごとの最大再試行回数。
	RetryAttempts int
	// MaxChainHops はシンジケーションチェーンの最大追跡数。
	MaxChainHops int

	// FetchTimeout はHTTP取得1回あたりのタイムアウト。
	FetchTimeout time.Duration
	// FetchMaxSize はHTTPレスポンスの最大サイズ（バイト）。
	FetchMaxSize int64

	// ServerPort は運用HTTPサーバー（ヘルスチェック・メトリクス）のポート。
	ServerPort string
}

// Load は環境変数から設定を読み込む。
// 必須項目が欠けている場合はエラーを返す。
func Load() (*Config, error) {
	var missing []string

	indexURL := getEnvString("CRAWL_INDEX_URL", "")
	if indexURL == "" {
		missing = append(missing, "CRAWL_INDEX_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("必須の環境変数が設定されていません: %s", strings.Join(missing, ", "))
	}

	cfg := &Config{
		IndexURL:        indexURL,
		ProbePattern:    getEnvString("CRAWL_PROBE_PATTERN", ""),
		OutputPath:      getEnvString("CRAWL_OUTPUT_PATH", ""),
		SincePeriod:     getEnvInt("CRAWL_SINCE_PERIOD", 0),
		Workers:         getEnvInt("CRAWL_WORKERS", 6),
		RateLimitPerSec: getEnvFloat("CRAWL_RATE_LIMIT", 3.0),
		RetryAttempts:   getEnvInt("CRAWL_RETRY_ATTEMPTS", 3),
		MaxChainHops:    getEnvInt("CRAWL_MAX_CHAIN_HOPS", 10),
		FetchTimeout:    getEnvDuration("CRAWL_FETCH_TIMEOUT", 60*time.Second),
		FetchMaxSize:    getEnvInt64("CRAWL_FETCH_MAX_SIZE", 128<<20),
		ServerPort:      getEnvString("PORT", "8080"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate は設定値の妥当性を検証する。
// 不正な値はバッチ開始前に即座にエラーとして返される。
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return model.NewInvalidConfigError(fmt.Sprintf("Workersは1以上が必要です: %d", c.Workers))
	}
	if c.RateLimitPerSec <= 0 {
		return model.NewInvalidConfigError(fmt.Sprintf("RateLimitPerSecは正の値が必要です: %g", c.RateLimitPerSec))
	}
	if c.RetryAttempts < 0 {
		return model.NewInvalidConfigError(fmt.Sprintf("RetryAttemptsは0以上が必要です: %d", c.RetryAttempts))
	}
	if c.MaxChainHops <= 0 {
		return model.NewInvalidConfigError(fmt.Sprintf("MaxChainHopsは1以上が必要です: %d", c.MaxChainHops))
	}
	if c.FetchTimeout <= 0 {
		return model.NewInvalidConfigError(fmt.Sprintf("FetchTimeoutは正の値が必要です: %v", c.FetchTimeout))
	}
	if c.FetchMaxSize <= 0 {
		return model.NewInvalidConfigError(fmt.Sprintf("FetchMaxSizeは正の値が必要です: %d", c.FetchMaxSize))
	}
	if c.SincePeriod != 0 {
		month := c.SincePeriod % 100
		if c.SincePeriod < 190001 || month < 1 || month > 12 {
			return model.NewInvalidConfigError(fmt.Sprintf("SincePeriodはYYYYMM形式が必要です: %d", c.SincePeriod))
		}
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Package metrics は取り込みパイプラインのPrometheusメトリクスを提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder はパイプラインが記録するメトリクスのインターフェース。
type Recorder interface {
	// RecordArchiveSuccess は書庫1件の処理成功を記録する。
	RecordArchiveSuccess()
	// RecordArchiveFailure は書庫1件の処理失敗を記録する。
	RecordArchiveFailure()
	// RecordArchiveDuration は書庫1件の処理時間を記録する。
	RecordArchiveDuration(d time.Duration)
	// RecordEntryTier はエントリ抽出に使われた情報源段階を記録する。
	RecordEntryTier(tier string)
	// RecordRecordEmitted は出力されたレコード1件を記録する。
	RecordRecordEmitted()
}

// Collector はRecorderのPrometheus実装。
type Collector struct {
	archivesProcessed *prometheus.CounterVec
	archiveDuration   prometheus.Histogram
	entriesExtracted  *prometheus.CounterVec
	recordsEmitted    prometheus.Counter
}

// NewCollector はメトリクスを登録したCollectorを生成する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		archivesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "licitafeed_archives_processed_total",
			Help: "処理した書庫数（結果別）",
		}, []string{"result"}),
		archiveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "licitafeed_archive_duration_seconds",
			Help:    "書庫1件の処理時間",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		entriesExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "licitafeed_entries_extracted_total",
			Help: "抽出したエントリ数（情報源段階別）",
		}, []string{"tier"}),
		recordsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "licitafeed_records_emitted_total",
			Help: "出力したレコード数",
		}),
	}
	reg.MustRegister(
		c.archivesProcessed,
		c.archiveDuration,
		c.entriesExtracted,
		c.recordsEmitted,
	)
	return c
}

// RecordArchiveSuccess は書庫1件の処理成功を記録する。
func (c *Collector) RecordArchiveSuccess() {
	c.archivesProcessed.WithLabelValues("success").Inc()
}

// RecordArchiveFailure は書庫1件の処理失敗を記録する。
func (c *Collector) RecordArchiveFailure() {
	c.archivesProcessed.WithLabelValues("failure").Inc()
}

// RecordArchiveDuration は書庫1件の処理時間を記録する。
func (c *Collector) RecordArchiveDuration(d time.Duration) {
	c.archiveDuration.Observe(d.Seconds())
}

// RecordEntryTier はエントリ抽出に使われた情報源段階を記録する。
func (c *Collector) RecordEntryTier(tier string) {
	c.entriesExtracted.WithLabelValues(tier).Inc()
}

// RecordRecordEmitted は出力されたレコード1件を記録する。
func (c *Collector) RecordRecordEmitted() {
	c.recordsEmitted.Inc()
}

// Handler はメトリクス公開用のHTTPハンドラを返す。
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Noop は何も記録しないRecorder。メトリクス不要のテストで使用する。
type Noop struct{}

func (Noop) RecordArchiveSuccess() {}
func (Noop) RecordArchiveFailure() {}
func (Noop) RecordArchiveDuration(time.Duration) {}
func (Noop) RecordEntryTier(string) {}
func (Noop) RecordRecordEmitted() {}

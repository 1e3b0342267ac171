// Package pipeline は発見から出力までの取り込み処理全体を編成する。
package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"github.com/hitoshi/licitafeed/internal/model"
)

// RecordSink は抽出済みレコードの出力先インターフェース。
type RecordSink interface {
	// Put はレコード1件を出力する。
	Put(ctx context.Context, record *model.TenderRecord) error
}

// JSONLinesSink はレコードを1行1JSONで書き出すRecordSink。
type JSONLinesSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLinesSink はJSONLinesSinkを生成する。
func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	return &JSONLinesSink{enc: json.NewEncoder(w)}
}

// Put はレコードをJSON1行として書き出す。
func (s *JSONLinesSink) Put(_ context.Context, record *model.TenderRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(record)
}

// LogSink はレコードの要約をログに出力するRecordSink。動作確認用。
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink はLogSinkを生成する。
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Put はレコードの要約をログ出力する。
func (s *LogSink) Put(_ context.Context, record *model.TenderRecord) error {
	s.logger.Info("レコードを出力しました",
		slog.String("identifier", record.Identifier),
		slog.String("status", record.StatusCode),
		slog.Bool("partial", record.Partial))
	return nil
}

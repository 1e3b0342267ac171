package model

import (
	"errors"
	"fmt"
)

// IngestError は取り込みパイプラインの統一エラーフォーマットを表す。
// エラーコードとカテゴリにより、呼び出し側が再試行可否や集計分類を判断する。
type IngestError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: parse, archive, fetch, config
}

// Error はerrorインターフェースを実装する。
func (e *IngestError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeParseFailed    = "PARSE_FAILED"
	ErrCodeArchiveInvalid = "ARCHIVE_INVALID"
	ErrCodeNoBaseFeed     = "NO_BASE_FEED"
	ErrCodeFetchFailed    = "FETCH_FAILED"
	ErrCodeInvalidConfig  = "INVALID_CONFIG"
	ErrCodeBatchExhausted = "BATCH_EXHAUSTED"
)

// NewParseError はXMLパース失敗エラーを生成する。
// フィードまたはエントリが整形式でない場合にのみ使用する。
// 構造化データの不在はエラーではなくnilレコードで表現する。
func NewParseError(reason string) *IngestError {
	return &IngestError{
		Code:     ErrCodeParseFailed,
		Message:  fmt.Sprintf("フィードの解析に失敗しました: %s", reason),
		Category: "parse",
	}
}

// NewArchiveError は書庫の破損・不正エラーを生成する。
func NewArchiveError(reason string) *IngestError {
	return &IngestError{
		Code:     ErrCodeArchiveInvalid,
		Message:  fmt.Sprintf("書庫を読み込めません: %s", reason),
		Category: "archive",
	}
}

// NewNoBaseFeedError は書庫内にベースフィードが見つからないエラーを生成する。
func NewNoBaseFeedError(filename string) *IngestError {
	return &IngestError{
		Code:     ErrCodeNoBaseFeed,
		Message:  fmt.Sprintf("書庫内にフィードファイルが見つかりません: %s", filename),
		Category: "archive",
	}
}

// NewFetchFailedError はHTTP取得失敗エラーを生成する。
func NewFetchFailedError(url string, reason string) *IngestError {
	return &IngestError{
		Code:     ErrCodeFetchFailed,
		Message:  fmt.Sprintf("URLの取得に失敗しました (%s): %s", url, reason),
		Category: "fetch",
	}
}

// NewInvalidConfigError は設定不正エラーを生成する。
// バッチ開始前に即座に失敗させる唯一のエラークラス。
func NewInvalidConfigError(reason string) *IngestError {
	return &IngestError{
		Code:     ErrCodeInvalidConfig,
		Message:  fmt.Sprintf("無効な設定です: %s", reason),
		Category: "config",
	}
}

// NewBatchExhaustedError は全項目が失敗した場合のバッチレベルエラーを生成する。
// 散発的な項目失敗と系統的な障害を区別するために使用する。
func NewBatchExhaustedError(total int) *IngestError {
	return &IngestError{
		Code:     ErrCodeBatchExhausted,
		Message:  fmt.Sprintf("バッチ内の全%d件の処理に失敗しました", total),
		Category: "fetch",
	}
}

// HasCode はエラーが指定コードのIngestErrorかどうかを判定する。
func HasCode(err error, code string) bool {
	var ie *IngestError
	if errors.As(err, &ie) {
		return ie.Code == code
	}
	return false
}

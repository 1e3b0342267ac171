package model

import "fmt"

// Period は書庫ファイル名から導出した期間キーを表す。
// 月単位（Year+Month）または年単位（Monthが0）の粒度を持つ。
// ゼロ値は「期間不明」を意味し、処理順序では常に最後に回される。
type Period struct {
	Year  int
	Month int
}

// IsZero は期間が不明かどうかを返す。
func (p Period) IsZero() bool {
	return p.Year == 0
}

// Key は時系列比較用の整数キーを返す。
// 月単位はYYYYMM、年単位はYYYY00となり、同一年では年単位が各月より前に並ぶ。
func (p Period) Key() int {
	return p.Year*100 + p.Month
}

// Before はpがotherより時系列的に前かどうかを返す。
// 不明な期間同士の比較は常にfalseを返す。
func (p Period) Before(other Period) bool {
	if p.IsZero() || other.IsZero() {
		return false
	}
	return p.Key() < other.Key()
}

// String は期間の文字列表現を返す。月単位は"202101"、年単位は"2021"形式。
func (p Period) String() string {
	if p.IsZero() {
		return "unknown"
	}
	if p.Month == 0 {
		return fmt.Sprintf("%04d", p.Year)
	}
	return fmt.Sprintf("%04d%02d", p.Year, p.Month)
}

// ArchiveDescriptor は発見された日付付き書庫1件を表す。
// Archive Orchestratorの発見処理で生成され、以降は変更されない。
type ArchiveDescriptor struct {
	// Filename は書庫のファイル名（パスを含まない）。
	Filename string
	// URL は書庫の絶対URL。
	URL string
	// Period はファイル名から導出した期間キー。導出できない場合はゼロ値。
	Period Period
	// SizeBytes は書庫サイズ。不明な場合は0。
	SizeBytes int64
	// SyndicationID はファイル名から導出したシンジケーション系列ID。
	// 例: "licitacionesPerfilesContratanteCompleto3_202101.zip" の "3"。
	SyndicationID string
}

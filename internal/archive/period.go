// Package archive は日付付き書庫の発見・期間導出・ZIP展開を提供する。
package archive

import (
	"regexp"
	"strconv"

	"github.com/hitoshi/licitafeed/internal/model"
)

var (
	// 月単位: ファイル名中の6桁YYYYMM。月が1〜12の場合のみ有効とする。
	monthlyPattern = regexp.MustCompile(`(\d{4})(\d{2})`)
	// 年単位: 拡張子直前のアンダースコア区切り4桁年。
	yearlyPattern = regexp.MustCompile(`_(\d{4})\.(?:zip|ZIP)$`)
	// シンジケーション系列ID: "Completo3"等の数値部分。
	syndicationPattern = regexp.MustCompile(`Completo(\d+)`)
)

// ExtractPeriod は書庫ファイル名から期間キーを導出する。
// 6桁のYYYYMM（月が01〜12）を優先し、見つからなければ
// "_YYYY.zip"形式の年単位にフォールバックする。
// どちらにも一致しない場合はゼロ値とfalseを返す。
func ExtractPeriod(filename string) (model.Period, bool) {
	for _, m := range monthlyPattern.FindAllStringSubmatch(filename, -1) {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month >= 1 && month <= 12 && year >= 1900 {
			return model.Period{Year: year, Month: month}, true
		}
	}

	if m := yearlyPattern.FindStringSubmatch(filename); m != nil {
		year, _ := strconv.Atoi(m[1])
		if year >= 1900 {
			return model.Period{Year: year}, true
		}
	}

	return model.Period{}, false
}

// ExtractSyndicationID はファイル名からシンジケーション系列IDを抽出する。
// 例: "licitacionesPerfilesContratanteCompleto3_202101.zip" → "3"。
// 見つからない場合は空文字列を返す。
func ExtractSyndicationID(filename string) string {
	if m := syndicationPattern.FindStringSubmatch(filename); m != nil {
		return m[1]
	}
	return ""
}

// Package extractor はCODICE文書からのフィールド抽出と正規化を提供する。
package extractor

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// currencyTokens は金額文字列から除去する通貨記号・通貨コード。
var currencyTokens = []string{"€", "EUR", "Euros", "euros", "$"}

// ParseDecimal は金額文字列を正規化して厳密な10進値として返す。
// スペイン式（1.234,56）と英米式（1,234.56）の両方の区切りを受け付ける。
// 空文字列、解析不能な文字列、負の値はnil（値なし）を返す。
// 解析に失敗した金額をゼロとして返すことは決してない。
func ParseDecimal(s string) *decimal.Decimal {
	cleaned := strings.TrimSpace(s)
	for _, token := range currencyTokens {
		cleaned = strings.ReplaceAll(cleaned, token, "")
	}
	// 通常スペースとノーブレークスペースの両方を除去
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if cleaned == "" {
		return nil
	}

	normalized := normalizeSeparators(cleaned)

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return nil
	}
	if d.IsNegative() {
		return nil
	}
	return &d
}

// normalizeSeparators は桁区切りと小数点を英米式に揃える。
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		// 両方ある場合は後に出現する方が小数点
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		// カンマのみ: 1個かつ後続が3桁以外なら小数点、それ以外は桁区切り
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 != 3 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastDot >= 0:
		// ピリオドのみ: 複数または後続が3桁なら桁区切りとみなす
		if strings.Count(s, ".") > 1 || len(s)-lastDot-1 == 3 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}
	return s
}

// ParseBool は三値真偽フィールドを解析する。
// 空文字列はnil（不明）、肯定表現はtrue、それ以外はfalseを返す。
func ParseBool(s string) *bool {
	cleaned := strings.ToLower(strings.TrimSpace(s))
	if cleaned == "" {
		return nil
	}
	v := cleaned == "true" || cleaned == "1" || cleaned == "sí" || cleaned == "si" || cleaned == "yes"
	return &v
}

// ParseInt は整数フィールドを解析する。空または解析不能ならnilを返す。
func ParseInt(s string) *int {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return nil
	}
	v, err := strconv.Atoi(cleaned)
	if err != nil {
		return nil
	}
	return &v
}

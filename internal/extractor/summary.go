package extractor

import (
	"html"
	"strings"

	"github.com/hitoshi/licitafeed/internal/atom"
	"github.com/hitoshi/licitafeed/internal/model"
)

// extractFromSummary はサマリーテキストからの低信頼抽出を行う。
// サマリーは "Id licitación: X; Órgano de Contratación: Y; Importe: Z; Estado: W"
// 形式のラベル付きテキストで、HTMLタグや実体参照を含むことがある。
// 既知のラベルが1つも見つからない場合はnilを返す。
// 自由文だけのサマリーから識別子のみのレコードを作ることはしない。
func (e *Extractor) extractFromSummary(entry *atom.Entry) *model.TenderRecord {
	text := strings.TrimSpace(entry.Summary)
	if text == "" {
		return nil
	}

	text = html.UnescapeString(e.sanitizer.Sanitize(text))

	record := &model.TenderRecord{
		Link:       entry.Link,
		UpdateDate: entry.Updated,
		Partial:    true,
	}

	matched := false
	for _, segment := range strings.Split(text, ";") {
		label, value, ok := strings.Cut(segment, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(label)) {
		case "id licitación", "id licitacion", "expediente":
			record.Identifier = value
			matched = true
		case "órgano de contratación", "organo de contratacion":
			record.AuthorityName = value
			matched = true
		case "importe", "importe estimado":
			// "6.840.000 EUR" のような末尾通貨表記から金額トークンのみ解析する
			record.BudgetWithoutTax = ParseDecimal(strings.Fields(value)[0])
			matched = true
		case "estado":
			record.StatusCode = value
			matched = true
		}
	}

	if !matched {
		return nil
	}
	if record.Identifier == "" {
		if entry.ID == "" {
			return nil
		}
		record.Identifier = entry.ID
	}
	return record
}

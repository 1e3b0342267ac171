// Package model はクローラーのドメインモデルを定義する。
package model

import "github.com/shopspring/decimal"

// TenderRecord はCODICEのContractFolderStatusをフラット化した調達案件レコード。
// 抽出器がエントリ1件につき1回生成し、以降は変更されない。
// 金額フィールドはすべて*decimal.Decimalで、nilは「値なし」を意味する。
// パースに失敗した金額を0として埋めることは許されない。
// 真偽値フィールドは*boolの三値セマンティクスを持ち、nilは「不明」を表す。
type TenderRecord struct {
	// 識別・状態
	Identifier           string `json:"identifier"`
	StatusCode           string `json:"status_code,omitempty"`
	Link                 string `json:"link,omitempty"`
	UpdateDate           string `json:"update_date,omitempty"`
	FirstPublicationDate string `json:"first_publication_date,omitempty"`

	// 内容
	ContractObject   string `json:"contract_object,omitempty"`
	ContractTypeCode string `json:"contract_type_code,omitempty"`
	CPVCode          string `json:"cpv_code,omitempty"`

	// 予算
	EstimatedAmount  *decimal.Decimal `json:"estimated_amount,omitempty"`
	BudgetWithoutTax *decimal.Decimal `json:"budget_without_tax,omitempty"`
	BudgetWithTax    *decimal.Decimal `json:"budget_with_tax,omitempty"`

	// 履行場所
	NUTSCode   string `json:"nuts_code,omitempty"`
	PlaceName  string `json:"place_name,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`

	// 発注機関
	AuthorityName        string   `json:"authority_name,omitempty"`
	AuthorityID          string   `json:"authority_id,omitempty"`
	AuthorityTaxID       string   `json:"authority_tax_id,omitempty"`
	AuthorityDIR3Code    string   `json:"authority_dir3_code,omitempty"`
	AuthorityProfileLink string   `json:"authority_profile_link,omitempty"`
	ParentAuthorities    []string `json:"parent_authorities,omitempty"`

	// 手続き
	ProcedureTypeCode        string           `json:"procedure_type_code,omitempty"`
	SystemTypeCode           string           `json:"system_type_code,omitempty"`
	ProcessingTypeCode       string           `json:"processing_type_code,omitempty"`
	SubcontractingAllowed    *bool            `json:"subcontracting_allowed,omitempty"`
	SubcontractingPercentage *decimal.Decimal `json:"subcontracting_percentage,omitempty"`

	// Lots はロット列。明示的なロット要素を持たない単一ロット案件では
	// 空のままトップレベルの予算フィールドのみが有効となる。
	Lots []Lot `json:"lots,omitempty"`

	// Results は落札・結果列。落札者ゼロの結果（不調・中止）も保持される。
	Results []Result `json:"results,omitempty"`

	// Partial はサマリーテキストからの低信頼抽出であることを示す。
	// trueのレコードは識別子・機関名・金額・状態程度しか持たない。
	Partial bool `json:"partial,omitempty"`
}

// Lot は案件内の1ロットを表す。
type Lot struct {
	LotNumber        string           `json:"lot_number,omitempty"`
	Object           string           `json:"object,omitempty"`
	BudgetWithoutTax *decimal.Decimal `json:"budget_without_tax,omitempty"`
	BudgetWithTax    *decimal.Decimal `json:"budget_with_tax,omitempty"`
	CPVCode          string           `json:"cpv_code,omitempty"`
	ExecutionPlace   string           `json:"execution_place,omitempty"`
}

// Result は1ロット分の結果・落札情報を表す。
type Result struct {
	LotNumber             string           `json:"lot_number,omitempty"`
	ResultStatus          string           `json:"result_status,omitempty"`
	AwardDate             string           `json:"award_date,omitempty"`
	OffersReceivedCount   *int             `json:"offers_received_count,omitempty"`
	LowestOfferAmount     *decimal.Decimal `json:"lowest_offer_amount,omitempty"`
	HighestOfferAmount    *decimal.Decimal `json:"highest_offer_amount,omitempty"`
	AbnormallyLowExcluded *bool            `json:"abnormally_low_excluded,omitempty"`
	ContractNumber        string           `json:"contract_number,omitempty"`
	FormalizationDate     string           `json:"formalization_date,omitempty"`
	AwardedCompanies      []AwardedCompany `json:"awarded_companies,omitempty"`
}

// AwardedCompany は落札企業1社を表す。
type AwardedCompany struct {
	Name                  string           `json:"name,omitempty"`
	IdentifierType        string           `json:"identifier_type,omitempty"`
	Identifier            string           `json:"identifier,omitempty"`
	IsSME                 *bool            `json:"is_sme,omitempty"`
	AwardAmountWithoutTax *decimal.Decimal `json:"award_amount_without_tax,omitempty"`
	AwardAmountWithTax    *decimal.Decimal `json:"award_amount_with_tax,omitempty"`
}

package extractor

import (
	"log/slog"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hitoshi/licitafeed/internal/atom"
	"github.com/hitoshi/licitafeed/internal/codice"
	"github.com/hitoshi/licitafeed/internal/model"
)

// Tier は抽出に使われた情報源の段階を表す。
// 構造化データから順に信頼度が下がる。
type Tier int

const (
	// TierNone は利用可能な情報がなくレコードを生成できなかったことを示す。
	TierNone Tier = iota
	// TierSummary はサマリーテキストからの低信頼抽出。
	TierSummary
	// TierLegacy はcontent要素内に埋め込まれた旧形式CODICEからの抽出。
	TierLegacy
	// TierStructured はエントリ直下のCODICE要素からの完全抽出。
	TierStructured
)

// String はTierのラベルを返す。メトリクスのラベル値として使用する。
func (t Tier) String() string {
	switch t {
	case TierStructured:
		return "structured"
	case TierLegacy:
		return "legacy"
	case TierSummary:
		return "summary"
	default:
		return "none"
	}
}

// Extractor はATOMエントリからTenderRecordを抽出する。
type Extractor struct {
	aggregateNS []string
	basicNS     []string
	sanitizer   *bluemonday.Policy
	logger      *slog.Logger
}

// New はデフォルトの名前空間候補を使うExtractorを生成する。
func New(logger *slog.Logger) *Extractor {
	return &Extractor{
		aggregateNS: codice.DefaultAggregateNamespaces,
		basicNS:     codice.DefaultBasicNamespaces,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger,
	}
}

// Extract はエントリから案件レコードを抽出する。
// 情報源を段階的に試す: エントリ直下のContractFolderStatus、
// content要素内の旧形式、サマリーテキスト。
// どの段階でも情報が得られない場合は(nil, TierNone, nil)を返す。
// 構造化データの不在はエラーではない。
func (e *Extractor) Extract(entry *atom.Entry) (*model.TenderRecord, Tier, error) {
	if entry == nil {
		return nil, TierNone, model.NewParseError("エントリがnilです")
	}

	// 第1段階: エントリ直下の構造化CODICE
	if folder := codice.FindAnyNS(entry.Raw, "ContractFolderStatus", e.aggregateNS); folder != nil {
		return e.extractFolder(entry, folder), TierStructured, nil
	}

	// 第2段階: content等の下に埋め込まれた旧形式CODICE
	if folder := codice.FindDeep(entry.Raw, "ContractFolderStatus"); folder != nil {
		return e.extractFolder(entry, folder), TierLegacy, nil
	}
	// contentがエスケープ済みXML文字列を運ぶ最古の形式
	if folder := e.parseEmbeddedContent(entry); folder != nil {
		return e.extractFolder(entry, folder), TierLegacy, nil
	}

	// 第3段階: サマリーテキストからの低信頼抽出
	if record := e.extractFromSummary(entry); record != nil {
		return record, TierSummary, nil
	}

	e.logger.Debug("エントリから抽出可能な情報がありません",
		slog.String("entry_id", entry.ID))
	return nil, TierNone, nil
}

// parseEmbeddedContent はcontent要素のテキストをXMLとして解析し直して
// ContractFolderStatusを探す。解析できない場合はnilを返す。
func (e *Extractor) parseEmbeddedContent(entry *atom.Entry) *xmlquery.Node {
	content := codice.FindAnyNS(entry.Raw, "content", []string{codice.NamespaceAtom})
	if content == nil {
		return nil
	}
	text := strings.TrimSpace(content.InnerText())
	if text == "" || !strings.HasPrefix(text, "<") {
		return nil
	}
	doc, err := xmlquery.Parse(strings.NewReader(text))
	if err != nil {
		e.logger.Debug("content要素の埋め込みXMLを解析できません",
			slog.String("entry_id", entry.ID),
			slog.String("error", err.Error()))
		return nil
	}
	return codice.FindDeep(doc, "ContractFolderStatus")
}

// extractFolder はContractFolderStatus部分木を1件のレコードにフラット化する。
func (e *Extractor) extractFolder(entry *atom.Entry, folder *xmlquery.Node) *model.TenderRecord {
	record := &model.TenderRecord{
		Identifier: codice.ChildText(folder, "ContractFolderID", e.basicNS),
		StatusCode: codice.ChildText(folder, "ContractFolderStatusCode", e.basicNS),
		Link:       entry.Link,
		UpdateDate: entry.Updated,
	}
	if record.Identifier == "" {
		record.Identifier = entry.ID
	}

	e.extractAuthority(folder, record)
	e.extractProject(folder, record)
	e.extractLots(folder, record)
	e.extractProcess(folder, record)
	e.extractResults(folder, record)
	e.extractFirstPublication(folder, record)

	return record
}

// extractAuthority はLocatedContractingPartyから発注機関情報を抽出する。
func (e *Extractor) extractAuthority(folder *xmlquery.Node, record *model.TenderRecord) {
	located := codice.FindAnyNS(folder, "LocatedContractingParty", e.aggregateNS)
	if located == nil {
		return
	}

	record.AuthorityProfileLink = codice.ChildText(located, "BuyerProfileURIID", e.basicNS)

	party := codice.FindAnyNS(located, "Party", e.aggregateNS)
	if party != nil {
		if partyName := codice.FindAnyNS(party, "PartyName", e.aggregateNS); partyName != nil {
			record.AuthorityName = codice.ChildText(partyName, "Name", e.basicNS)
		}
		if record.AuthorityProfileLink == "" {
			record.AuthorityProfileLink = codice.ChildText(party, "WebsiteURI", e.basicNS)
		}
		e.extractAuthorityIdentifiers(party, record)
	}

	// 上位機関の連鎖: ParentLocatedPartyを外側から順にたどる
	parent := codice.FindAnyNS(located, "ParentLocatedParty", e.aggregateNS)
	for parent != nil {
		if partyName := codice.FindAnyNS(parent, "PartyName", e.aggregateNS); partyName != nil {
			if name := codice.ChildText(partyName, "Name", e.basicNS); name != "" {
				record.ParentAuthorities = append(record.ParentAuthorities, name)
			}
		}
		parent = codice.FindAnyNS(parent, "ParentLocatedParty", e.aggregateNS)
	}
}

// extractAuthorityIdentifiers はPartyIdentificationのschemeName属性で
// 識別子の種類を判別して振り分ける。
func (e *Extractor) extractAuthorityIdentifiers(party *xmlquery.Node, record *model.TenderRecord) {
	for _, ident := range codice.FindAllNS(party, "PartyIdentification", e.aggregateNS) {
		id := codice.FindAnyNS(ident, "ID", e.basicNS)
		value := codice.Text(id)
		if value == "" {
			continue
		}
		switch codice.Attr(id, "schemeName") {
		case "DIR3":
			record.AuthorityDIR3Code = value
		case "NIF":
			record.AuthorityTaxID = value
		default:
			if record.AuthorityID == "" {
				record.AuthorityID = value
			}
		}
	}
}

// extractProject はProcurementProjectから案件内容・予算・履行場所を抽出する。
func (e *Extractor) extractProject(folder *xmlquery.Node, record *model.TenderRecord) {
	project := codice.FindAnyNS(folder, "ProcurementProject", e.aggregateNS)
	if project == nil {
		return
	}

	record.ContractObject = codice.ChildText(project, "Name", e.basicNS)
	record.ContractTypeCode = codice.ChildText(project, "TypeCode", e.basicNS)

	if budget := codice.FindAnyNS(project, "BudgetAmount", e.aggregateNS); budget != nil {
		record.EstimatedAmount = ParseDecimal(codice.ChildText(budget, "EstimatedOverallContractAmount", e.basicNS))
		record.BudgetWithoutTax = ParseDecimal(codice.ChildText(budget, "TaxExclusiveAmount", e.basicNS))
		record.BudgetWithTax = ParseDecimal(codice.ChildText(budget, "TotalAmount", e.basicNS))
	}

	if classification := codice.FindAnyNS(project, "RequiredCommodityClassification", e.aggregateNS); classification != nil {
		record.CPVCode = codice.ChildText(classification, "ItemClassificationCode", e.basicNS)
	}

	if location := codice.FindAnyNS(project, "RealizedLocation", e.aggregateNS); location != nil {
		record.NUTSCode = codice.ChildText(location, "CountrySubentityCode", e.basicNS)
		record.PlaceName = codice.ChildText(location, "CountrySubentity", e.basicNS)
		if address := codice.FindAnyNS(location, "Address", e.aggregateNS); address != nil {
			if record.PlaceName == "" {
				record.PlaceName = codice.ChildText(address, "CityName", e.basicNS)
			}
			record.PostalCode = codice.ChildText(address, "PostalZone", e.basicNS)
		}
	}
}

// extractLots はProcurementProjectLot列をロット列に変換する。
func (e *Extractor) extractLots(folder *xmlquery.Node, record *model.TenderRecord) {
	for _, lotNode := range codice.FindAllNS(folder, "ProcurementProjectLot", e.aggregateNS) {
		lot := model.Lot{
			LotNumber: codice.ChildText(lotNode, "ID", e.basicNS),
		}
		if project := codice.FindAnyNS(lotNode, "ProcurementProject", e.aggregateNS); project != nil {
			lot.Object = codice.ChildText(project, "Name", e.basicNS)
			if budget := codice.FindAnyNS(project, "BudgetAmount", e.aggregateNS); budget != nil {
				lot.BudgetWithoutTax = ParseDecimal(codice.ChildText(budget, "TaxExclusiveAmount", e.basicNS))
				lot.BudgetWithTax = ParseDecimal(codice.ChildText(budget, "TotalAmount", e.basicNS))
			}
			if classification := codice.FindAnyNS(project, "RequiredCommodityClassification", e.aggregateNS); classification != nil {
				lot.CPVCode = codice.ChildText(classification, "ItemClassificationCode", e.basicNS)
			}
			if location := codice.FindAnyNS(project, "RealizedLocation", e.aggregateNS); location != nil {
				lot.ExecutionPlace = codice.ChildText(location, "CountrySubentity", e.basicNS)
			}
		}
		record.Lots = append(record.Lots, lot)
	}
}

// extractProcess はTenderingProcessとTenderingTermsから手続き情報を抽出する。
func (e *Extractor) extractProcess(folder *xmlquery.Node, record *model.TenderRecord) {
	if process := codice.FindAnyNS(folder, "TenderingProcess", e.aggregateNS); process != nil {
		record.ProcedureTypeCode = codice.ChildText(process, "ProcedureCode", e.basicNS)
		record.SystemTypeCode = codice.ChildText(process, "ContractingSystemCode", e.basicNS)
		record.ProcessingTypeCode = codice.ChildText(process, "UrgencyCode", e.basicNS)
	}

	terms := codice.FindAnyNS(folder, "TenderingTerms", e.aggregateNS)
	if terms == nil {
		return
	}
	subcontract := codice.FindAnyNS(terms, "AllowedSubcontractTerms", e.aggregateNS)
	if subcontract == nil {
		return
	}
	allowed := true
	record.SubcontractingAllowed = &allowed
	pct := codice.ChildText(subcontract, "MaximumPercent", e.basicNS)
	if pct == "" {
		pct = codice.ChildText(subcontract, "Rate", e.basicNS)
	}
	record.SubcontractingPercentage = ParseDecimal(pct)
}

// extractResults はTenderResult列を結果列に変換する。
// 落札者ゼロの結果（不調・中止）もレコードとして保持する。
func (e *Extractor) extractResults(folder *xmlquery.Node, record *model.TenderRecord) {
	for _, resultNode := range codice.FindAllNS(folder, "TenderResult", e.aggregateNS) {
		result := model.Result{
			ResultStatus:        codice.ChildText(resultNode, "ResultCode", e.basicNS),
			AwardDate:           codice.ChildText(resultNode, "AwardDate", e.basicNS),
			OffersReceivedCount: ParseInt(codice.ChildText(resultNode, "ReceivedTenderQuantity", e.basicNS)),
			LowestOfferAmount:   ParseDecimal(codice.ChildText(resultNode, "LowerTenderAmount", e.basicNS)),
			HighestOfferAmount:  ParseDecimal(codice.ChildText(resultNode, "HigherTenderAmount", e.basicNS)),
			AbnormallyLowExcluded: ParseBool(
				codice.ChildText(resultNode, "AbnormallyLowTendersExcludedIndicator", e.basicNS)),
		}

		if awarded := codice.FindAnyNS(resultNode, "AwardedTenderedProject", e.aggregateNS); awarded != nil {
			result.LotNumber = codice.ChildText(awarded, "ProcurementProjectLotID", e.basicNS)
		}

		if contract := codice.FindAnyNS(resultNode, "Contract", e.aggregateNS); contract != nil {
			result.ContractNumber = codice.ChildText(contract, "ID", e.basicNS)
			result.FormalizationDate = codice.ChildText(contract, "IssueDate", e.basicNS)
		}

		for _, winner := range codice.FindAllNS(resultNode, "WinningParty", e.aggregateNS) {
			result.AwardedCompanies = append(result.AwardedCompanies, e.extractWinner(winner, resultNode))
		}

		record.Results = append(record.Results, result)
	}
}

// extractWinner はWinningPartyから落札企業1社分を抽出する。
func (e *Extractor) extractWinner(winner, resultNode *xmlquery.Node) model.AwardedCompany {
	company := model.AwardedCompany{
		IsSME: ParseBool(codice.ChildText(winner, "SMEIndicator", e.basicNS)),
	}
	if partyName := codice.FindAnyNS(winner, "PartyName", e.aggregateNS); partyName != nil {
		company.Name = codice.ChildText(partyName, "Name", e.basicNS)
	}
	if ident := codice.FindAnyNS(winner, "PartyIdentification", e.aggregateNS); ident != nil {
		id := codice.FindAnyNS(ident, "ID", e.basicNS)
		company.Identifier = codice.Text(id)
		company.IdentifierType = codice.Attr(id, "schemeName")
	}
	if awarded := codice.FindAnyNS(resultNode, "AwardedTenderedProject", e.aggregateNS); awarded != nil {
		if total := codice.FindAnyNS(awarded, "LegalMonetaryTotal", e.aggregateNS); total != nil {
			company.AwardAmountWithoutTax = ParseDecimal(codice.ChildText(total, "TaxExclusiveAmount", e.basicNS))
			company.AwardAmountWithTax = ParseDecimal(codice.ChildText(total, "PayableAmount", e.basicNS))
		}
	}
	return company
}

// extractFirstPublication はValidNoticeInfoの公示日から最初の公開日を求める。
func (e *Extractor) extractFirstPublication(folder *xmlquery.Node, record *model.TenderRecord) {
	earliest := ""
	for _, notice := range codice.FindAllNS(folder, "ValidNoticeInfo", e.aggregateNS) {
		for _, status := range codice.FindAllNS(notice, "AdditionalPublicationStatus", e.aggregateNS) {
			for _, ref := range codice.FindAllNS(status, "AdditionalPublicationDocumentReference", e.aggregateNS) {
				date := codice.ChildText(ref, "IssueDate", e.basicNS)
				if date == "" {
					continue
				}
				if earliest == "" || date < earliest {
					earliest = date
				}
			}
		}
	}
	record.FirstPublicationDate = earliest
}

// Package atom はATOMフィードの解析とシンジケーションチェーンの追跡を提供する。
package atom

import (
	"bytes"
	"log/slog"

	"github.com/antchfx/xmlquery"
	"golang.org/x/net/html/charset"

	"github.com/hitoshi/licitafeed/internal/codice"
	"github.com/hitoshi/licitafeed/internal/model"
)

// Entry はATOMフィード内の1エントリを表す。
// Rawには抽出器がCODICE要素を探索するための生XML部分木を保持する。
type Entry struct {
	ID      string
	Title   string
	Updated string
	Summary string
	Link    string
	// Raw はentry要素そのもののノード。名前空間付きの子孫要素すべてを含む。
	Raw *xmlquery.Node
}

// Feed は解析済みのATOMフィード1件を表す。
type Feed struct {
	ID      string
	Title   string
	Updated string
	// PreviousArchiveURL はrel="previous-archive"リンクのhref。
	// チェーンの末尾では空になる。
	PreviousArchiveURL string
	// SourceName はログ用のフィード取得元名（ファイル名またはURL）。
	SourceName string
	Entries    []*Entry
}

// Parser はATOMフィードのバイト列を解析する。
type Parser struct {
	logger *slog.Logger
}

// NewParser はParserを生成する。
func NewParser(logger *slog.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse はATOMフィードのバイト列を解析してFeedを返す。
// フィードがXMLとして整形式でない場合、またはfeed要素が見つからない場合はエラー。
// 個々のエントリの解析失敗はフィード全体を失敗させず、警告ログを出して読み飛ばす。
// UTF-8以外のエンコーディング宣言を持つフィードも透過的に扱う。
func (p *Parser) Parse(buf []byte, sourceName string) (*Feed, error) {
	doc, err := xmlquery.ParseWithOptions(bytes.NewReader(buf), xmlquery.ParserOptions{
		Decoder: &xmlquery.DecoderOptions{
			CharsetReader: charset.NewReaderLabel,
		},
	})
	if err != nil {
		return nil, model.NewParseError(err.Error())
	}

	feedNode := findRootElement(doc, "feed")
	if feedNode == nil {
		return nil, model.NewParseError("feed要素が見つかりません")
	}

	feed := &Feed{
		ID:         codice.ChildText(feedNode, "id", atomNamespaces),
		Title:      codice.ChildText(feedNode, "title", atomNamespaces),
		Updated:    codice.ChildText(feedNode, "updated", atomNamespaces),
		SourceName: sourceName,
	}
	if feed.ID == "" {
		return nil, model.NewParseError("フィードのid要素が空です")
	}

	for _, link := range codice.FindAllNS(feedNode, "link", atomNamespaces) {
		if codice.Attr(link, "rel") == "previous-archive" {
			feed.PreviousArchiveURL = codice.Attr(link, "href")
			break
		}
	}

	for _, entryNode := range codice.FindAllNS(feedNode, "entry", atomNamespaces) {
		entry, err := p.parseEntry(entryNode)
		if err != nil {
			p.logger.Warn("エントリの解析に失敗したため読み飛ばします",
				slog.String("source", sourceName),
				slog.String("error", err.Error()))
			continue
		}
		feed.Entries = append(feed.Entries, entry)
	}

	return feed, nil
}

var atomNamespaces = []string{codice.NamespaceAtom}

func (p *Parser) parseEntry(n *xmlquery.Node) (*Entry, error) {
	entry := &Entry{
		ID:      codice.ChildText(n, "id", atomNamespaces),
		Title:   codice.ChildText(n, "title", atomNamespaces),
		Updated: codice.ChildText(n, "updated", atomNamespaces),
		Summary: codice.ChildText(n, "summary", atomNamespaces),
		Raw:     n,
	}
	if entry.ID == "" {
		return nil, model.NewParseError("エントリのid要素が空です")
	}

	for _, link := range codice.FindAllNS(n, "link", atomNamespaces) {
		rel := codice.Attr(link, "rel")
		if rel == "" || rel == "alternate" {
			entry.Link = codice.Attr(link, "href")
			break
		}
	}

	return entry, nil
}

// findRootElement は文書ノード直下から指定ローカル名のルート要素を探す。
func findRootElement(doc *xmlquery.Node, local string) *xmlquery.Node {
	for child := doc.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode && child.Data == local {
			return child
		}
	}
	return nil
}

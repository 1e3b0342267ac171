package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/licitafeed/internal/fetch"
	"github.com/hitoshi/licitafeed/internal/model"
)

// Discoverer は書庫一覧の発見と処理順序の決定を行う。
type Discoverer struct {
	fetch  fetch.Func
	head   fetch.HeadFunc
	logger *slog.Logger
}

// NewDiscoverer はDiscovererを生成する。
// headは月次プローブ発見で使用し、nilの場合ProbeMonthlyは使えない。
func NewDiscoverer(fetchFunc fetch.Func, headFunc fetch.HeadFunc, logger *slog.Logger) *Discoverer {
	return &Discoverer{
		fetch:  fetchFunc,
		head:   headFunc,
		logger: logger,
	}
}

// Discover はインデックスURLから書庫一覧を発見する。
// インデックスがフィード（ATOM/RSS）の場合は各アイテムのリンクを、
// HTMLページの場合はZIPへのアンカーを書庫候補として収集する。
// 期間が導出できない書庫も破棄せず、ゼロ値Periodのまま含める。
func (d *Discoverer) Discover(ctx context.Context, indexURL string) ([]model.ArchiveDescriptor, error) {
	body, err := d.fetch(ctx, indexURL)
	if err != nil {
		return nil, err
	}

	var archives []model.ArchiveDescriptor
	if looksLikeFeed(body) {
		archives, err = d.discoverFromFeed(body, indexURL)
	} else {
		archives, err = d.discoverFromHTML(body, indexURL)
	}
	if err != nil {
		return nil, err
	}

	d.logger.Info("書庫一覧を発見しました",
		slog.String("index", indexURL),
		slog.Int("count", len(archives)))

	if series := distinctSeries(archives); len(series) > 1 {
		d.logger.Warn("複数のシンジケーション系列が混在しています",
			slog.String("index", indexURL),
			slog.Any("series", series))
	}
	return archives, nil
}

// distinctSeries は書庫列に含まれるシンジケーション系列IDの一覧を返す。
func distinctSeries(archives []model.ArchiveDescriptor) []string {
	seen := map[string]bool{}
	var series []string
	for _, a := range archives {
		if a.SyndicationID == "" || seen[a.SyndicationID] {
			continue
		}
		seen[a.SyndicationID] = true
		series = append(series, a.SyndicationID)
	}
	return series
}

// discoverFromFeed はフィードインデックスの各アイテムから書庫を収集する。
func (d *Discoverer) discoverFromFeed(body []byte, indexURL string) ([]model.ArchiveDescriptor, error) {
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, model.NewParseError(fmt.Sprintf("インデックスフィード: %s", err))
	}

	var archives []model.ArchiveDescriptor
	for _, item := range parsed.Items {
		link := item.Link
		if link == "" && len(item.Enclosures) > 0 {
			link = item.Enclosures[0].URL
		}
		if link == "" || !isZipLink(link) {
			continue
		}
		archives = append(archives, d.describe(link, indexURL))
	}
	return archives, nil
}

// discoverFromHTML はHTML一覧ページのアンカーから書庫を収集する。
func (d *Discoverer) discoverFromHTML(body []byte, indexURL string) ([]model.ArchiveDescriptor, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, model.NewParseError(fmt.Sprintf("インデックスHTML: %s", err))
	}

	seen := map[string]bool{}
	var archives []model.ArchiveDescriptor
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !isZipLink(href) {
			return
		}
		resolved := resolveURL(indexURL, href)
		if seen[resolved] {
			return
		}
		seen[resolved] = true
		archives = append(archives, d.describe(resolved, indexURL))
	})
	return archives, nil
}

// describe はリンクからArchiveDescriptorを構築する。
func (d *Discoverer) describe(link, indexURL string) model.ArchiveDescriptor {
	resolved := resolveURL(indexURL, link)
	filename := resolved
	if u, err := url.Parse(resolved); err == nil {
		filename = path.Base(u.Path)
	}

	period, ok := ExtractPeriod(filename)
	if !ok {
		d.logger.Warn("書庫ファイル名から期間を導出できませんでした",
			slog.String("filename", filename))
	}

	return model.ArchiveDescriptor{
		Filename:      filename,
		URL:           resolved,
		Period:        period,
		SyndicationID: ExtractSyndicationID(filename),
	}
}

// ProbeMonthly はURLテンプレートにYYYYMMを埋め込んだHEADプローブで
// 書庫の存在を確認し、存在したものだけを返す。
// HTML一覧が提供されないミラーサイト向けの発見手段。
func (d *Discoverer) ProbeMonthly(ctx context.Context, pattern string, from, to model.Period) ([]model.ArchiveDescriptor, error) {
	if d.head == nil {
		return nil, model.NewInvalidConfigError("HEADクライアントなしで月次プローブは実行できません")
	}
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil, model.NewInvalidConfigError(fmt.Sprintf("不正なプローブ範囲: %s〜%s", from, to))
	}

	var archives []model.ArchiveDescriptor
	for p := from; !to.Before(p); p = nextMonth(p) {
		probeURL := strings.Replace(pattern, "%s", p.String(), 1)
		exists, size, err := d.head(ctx, probeURL)
		if err != nil {
			d.logger.Warn("月次プローブに失敗しました",
				slog.String("url", probeURL),
				slog.String("error", err.Error()))
			continue
		}
		if !exists {
			continue
		}
		desc := d.describe(probeURL, probeURL)
		desc.SizeBytes = size
		archives = append(archives, desc)
	}
	return archives, nil
}

// Order は書庫列を古い順（時系列昇順）に安定ソートして返す。
// 期間が導出できなかった書庫は末尾に回し、同一期間内および
// 不明期間同士はファイル名の辞書順で並べる。入力は変更しない。
// 同じ入力集合に対して常に同じ順序を返す。
func Order(archives []model.ArchiveDescriptor) []model.ArchiveDescriptor {
	ordered := make([]model.ArchiveDescriptor, len(archives))
	copy(ordered, archives)

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Period.IsZero() != b.Period.IsZero() {
			return !a.Period.IsZero()
		}
		if !a.Period.IsZero() && a.Period.Key() != b.Period.Key() {
			return a.Period.Key() < b.Period.Key()
		}
		return a.Filename < b.Filename
	})
	return ordered
}

// FilterSince はsince（YYYYMM）以降の期間を持つ書庫だけを返す。
// sinceが0の場合は入力をそのまま返す。期間不明の書庫は保持される。
func FilterSince(archives []model.ArchiveDescriptor, since int) []model.ArchiveDescriptor {
	if since == 0 {
		return archives
	}
	var filtered []model.ArchiveDescriptor
	for _, a := range archives {
		if a.Period.IsZero() || a.Period.Key() >= since {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

// looksLikeFeed はボディ先頭を覗いてフィード文書かどうかを推定する。
func looksLikeFeed(body []byte) bool {
	head := body
	if len(head) > 1024 {
		head = head[:1024]
	}
	s := strings.ToLower(string(head))
	return strings.Contains(s, "<feed") || strings.Contains(s, "<rss")
}

func isZipLink(href string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".zip")
}

func resolveURL(base, ref string) string {
	baseParsed, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refParsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseParsed.ResolveReference(refParsed).String()
}

func nextMonth(p model.Period) model.Period {
	if p.Month >= 12 {
		return model.Period{Year: p.Year + 1, Month: 1}
	}
	return model.Period{Year: p.Year, Month: p.Month + 1}
}

package atom

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/hitoshi/licitafeed/internal/fetch"
)

// ChainFollower はprevious-archiveリンクをたどってフィードチェーンを収集する。
// 収集結果は新しい順（たどった順）で返されるため、
// 時系列処理が必要な場合は呼び出し側で反転する。
type ChainFollower struct {
	parser  *Parser
	fetch   fetch.Func
	maxHops int
	logger  *slog.Logger
}

// NewChainFollower はChainFollowerを生成する。
// maxHopsは起点フィードを含まない追跡上限。
func NewChainFollower(parser *Parser, fetchFunc fetch.Func, maxHops int, logger *slog.Logger) *ChainFollower {
	return &ChainFollower{
		parser:  parser,
		fetch:   fetchFunc,
		maxHops: maxHops,
		logger:  logger,
	}
}

// Follow は起点URLのフィードを取得し、チェーン全体を追跡して返す。
func (f *ChainFollower) Follow(ctx context.Context, startURL string) ([]*Feed, error) {
	buf, err := f.fetch(ctx, startURL)
	if err != nil {
		return nil, err
	}
	start, err := f.parser.Parse(buf, startURL)
	if err != nil {
		return nil, err
	}
	return f.FollowFrom(ctx, start, startURL), nil
}

// FollowFrom は解析済みの起点フィードからprevious-archiveリンクをたどる。
// 取得または解析に失敗した時点でチェーンを打ち切り、それまでに収集した
// フィード列を返す。起点フィードは常に含まれるため、戻り値は1件以上。
// 同一URLの再訪はループとして検出し、その時点で打ち切る。
func (f *ChainFollower) FollowFrom(ctx context.Context, start *Feed, baseURL string) []*Feed {
	feeds := []*Feed{start}
	visited := map[string]bool{baseURL: true}

	current := start
	currentBase := baseURL
	for hop := 0; hop < f.maxHops; hop++ {
		next := current.PreviousArchiveURL
		if next == "" {
			break
		}

		resolved := resolveURL(currentBase, next)
		if visited[resolved] {
			f.logger.Warn("チェーン内でURLの再訪を検出したため追跡を打ち切ります",
				slog.String("url", resolved),
				slog.Int("hop", hop))
			break
		}
		visited[resolved] = true

		buf, err := f.fetch(ctx, resolved)
		if err != nil {
			f.logger.Warn("前アーカイブの取得に失敗したためチェーンを打ち切ります",
				slog.String("url", resolved),
				slog.Int("hop", hop),
				slog.String("error", err.Error()))
			break
		}

		feed, err := f.parser.Parse(buf, resolved)
		if err != nil {
			f.logger.Warn("前アーカイブの解析に失敗したためチェーンを打ち切ります",
				slog.String("url", resolved),
				slog.Int("hop", hop),
				slog.String("error", err.Error()))
			break
		}

		feeds = append(feeds, feed)
		current = feed
		currentBase = resolved
	}

	if current.PreviousArchiveURL != "" && len(feeds) == f.maxHops+1 {
		f.logger.Info("追跡上限に到達しました",
			slog.String("start", baseURL),
			slog.Int("max_hops", f.maxHops))
	}

	return feeds
}

// resolveURL は相対参照をbaseに対して解決する。解決できない場合はrefをそのまま返す。
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

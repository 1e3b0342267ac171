package atom

import (
	"context"
	"fmt"
	"testing"
)

func feedXML(id, prev string) string {
	link := ""
	if prev != "" {
		link = `<link rel="previous-archive" href="` + prev + `"/>`
	}
	return `<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <id>` + id + `</id>
  <title>t</title>
  <updated>2021-01-01T00:00:00Z</updated>
  ` + link + `
</feed>`
}

func mapFetch(pages map[string]string) func(context.Context, string) ([]byte, error) {
	return func(_ context.Context, url string) ([]byte, error) {
		body, ok := pages[url]
		if !ok {
			return nil, fmt.Errorf("not found: %s", url)
		}
		return []byte(body), nil
	}
}

func TestFollow_チェーン全体の追跡(t *testing.T) {
	pages := map[string]string{
		"https://example.org/feed.atom":   feedXML("urn:feed:0", "feed_1.atom"),
		"https://example.org/feed_1.atom": feedXML("urn:feed:1", "feed_2.atom"),
		"https://example.org/feed_2.atom": feedXML("urn:feed:2", ""),
	}

	f := NewChainFollower(NewParser(discardLogger()), mapFetch(pages), 10, discardLogger())
	feeds, err := f.Follow(context.Background(), "https://example.org/feed.atom")
	if err != nil {
		t.Fatalf("Follow() error = %v", err)
	}
	if len(feeds) != 3 {
		t.Fatalf("フィード数 = %d, want 3", len(feeds))
	}
	// 新しい順で返される
	for i, wantID := range []string{"urn:feed:0", "urn:feed:1", "urn:feed:2"} {
		if feeds[i].ID != wantID {
			t.Errorf("feeds[%d].ID = %q, want %q", i, feeds[i].ID, wantID)
		}
	}
}

func TestFollow_取得失敗でチェーン打ち切り(t *testing.T) {
	pages := map[string]string{
		"https://example.org/feed.atom":   feedXML("urn:feed:0", "feed_1.atom"),
		"https://example.org/feed_1.atom": feedXML("urn:feed:1", "feed_missing.atom"),
	}

	f := NewChainFollower(NewParser(discardLogger()), mapFetch(pages), 10, discardLogger())
	feeds, err := f.Follow(context.Background(), "https://example.org/feed.atom")
	if err != nil {
		t.Fatalf("Follow() error = %v", err)
	}
	if len(feeds) != 2 {
		t.Fatalf("フィード数 = %d, want 2 (取得失敗地点で打ち切り)", len(feeds))
	}
}

func TestFollow_起点の取得失敗はエラー(t *testing.T) {
	f := NewChainFollower(NewParser(discardLogger()), mapFetch(nil), 10, discardLogger())

	_, err := f.Follow(context.Background(), "https://example.org/missing.atom")
	if err == nil {
		t.Fatal("起点フィードの取得失敗でエラーが返るべき")
	}
}

func TestFollow_追跡上限(t *testing.T) {
	pages := map[string]string{}
	for i := 0; i < 20; i++ {
		pages[fmt.Sprintf("https://example.org/feed_%d.atom", i)] =
			feedXML(fmt.Sprintf("urn:feed:%d", i), fmt.Sprintf("feed_%d.atom", i+1))
	}

	f := NewChainFollower(NewParser(discardLogger()), mapFetch(pages), 5, discardLogger())
	feeds, err := f.Follow(context.Background(), "https://example.org/feed_0.atom")
	if err != nil {
		t.Fatalf("Follow() error = %v", err)
	}
	if len(feeds) != 6 {
		t.Errorf("フィード数 = %d, want 6 (起点 + 上限5ホップ)", len(feeds))
	}
}

func TestFollow_ループ検出(t *testing.T) {
	pages := map[string]string{
		"https://example.org/a.atom": feedXML("urn:feed:a", "b.atom"),
		"https://example.org/b.atom": feedXML("urn:feed:b", "a.atom"),
	}

	f := NewChainFollower(NewParser(discardLogger()), mapFetch(pages), 10, discardLogger())
	feeds, err := f.Follow(context.Background(), "https://example.org/a.atom")
	if err != nil {
		t.Fatalf("Follow() error = %v", err)
	}
	if len(feeds) != 2 {
		t.Errorf("フィード数 = %d, want 2 (再訪URLで打ち切り)", len(feeds))
	}
}

func TestFollow_相対URL解決(t *testing.T) {
	var fetched []string
	pages := map[string]string{
		"https://example.org/sindicacion/feed.atom":   feedXML("urn:feed:0", "archivo/feed_1.atom"),
		"https://example.org/sindicacion/archivo/feed_1.atom": feedXML("urn:feed:1", ""),
	}
	fetchFn := func(ctx context.Context, url string) ([]byte, error) {
		fetched = append(fetched, url)
		return mapFetch(pages)(ctx, url)
	}

	f := NewChainFollower(NewParser(discardLogger()), fetchFn, 10, discardLogger())
	feeds, err := f.Follow(context.Background(), "https://example.org/sindicacion/feed.atom")
	if err != nil {
		t.Fatalf("Follow() error = %v", err)
	}
	if len(feeds) != 2 {
		t.Fatalf("フィード数 = %d, want 2", len(feeds))
	}
	want := "https://example.org/sindicacion/archivo/feed_1.atom"
	if fetched[1] != want {
		t.Errorf("相対URLが解決されるべき: got %q, want %q", fetched[1], want)
	}
}

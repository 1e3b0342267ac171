package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/licitafeed/internal/model"
)

func TestFetch_正常取得(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("User-Agentヘッダーが設定されていない")
		}
		w.Write([]byte("feed body"))
	}))
	defer srv.Close()

	client := NewClientWithHTTPClient(srv.Client(), 1<<20)
	body, err := client.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(body) != "feed body" {
		t.Errorf("body = %q, want feed body", body)
	}
}

func TestFetch_非2xxステータス(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClientWithHTTPClient(srv.Client(), 1<<20)
	_, err := client.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("404でエラーが返らなかった")
	}
	if !model.HasCode(err, model.ErrCodeFetchFailed) {
		t.Errorf("エラーコードがFETCH_FAILEDではない: %v", err)
	}
}

func TestFetch_サイズ上限超過(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer srv.Close()

	client := NewClientWithHTTPClient(srv.Client(), 50)
	_, err := client.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("サイズ上限超過でエラーが返らなかった")
	}
}

func TestHead_存在確認(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("メソッド = %s, want HEAD", r.Method)
		}
		if strings.HasSuffix(r.URL.Path, "/missing.zip") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Length", "1024")
	}))
	defer srv.Close()

	client := NewClientWithHTTPClient(srv.Client(), 1<<20)

	exists, size, err := client.Head(context.Background(), srv.URL+"/archive.zip")
	if err != nil {
		t.Fatalf("Head() error = %v", err)
	}
	if !exists {
		t.Error("存在する書庫でexists=falseが返った")
	}
	if size != 1024 {
		t.Errorf("size = %d, want 1024", size)
	}

	exists, _, err = client.Head(context.Background(), srv.URL+"/missing.zip")
	if err != nil {
		t.Fatalf("404はエラーではなくexists=falseを返すべき: %v", err)
	}
	if exists {
		t.Error("404でexists=trueが返った")
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"正常なHTTPS URL", "https://contrataciondelestado.es/sindicacion", false},
		{"正常なHTTP URL", "http://example.org/feed", false},
		{"空のURL", "", true},
		{"不正なスキーム", "ftp://example.org/feed", true},
		{"localhost", "http://localhost/feed", true},
		{"ループバックIP", "http://127.0.0.1/feed", true},
		{"プライベートIP", "http://192.168.1.1/feed", true},
		{"リンクローカルIP", "http://169.254.169.254/meta", true},
		{"ホストなし", "http:///feed", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

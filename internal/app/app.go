// Package app はアプリケーションの初期化と起動を行う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/licitafeed/internal/config"
	"github.com/hitoshi/licitafeed/internal/fetch"
	"github.com/hitoshi/licitafeed/internal/logger"
	"github.com/hitoshi/licitafeed/internal/metrics"
	"github.com/hitoshi/licitafeed/internal/pipeline"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("index_url", cfg.IndexURL),
		slog.Int("workers", cfg.Workers),
	)

	return runCrawl(cfg)
}

// runCrawl は取り込みを1回実行する。
// 運用HTTPサーバー（ヘルスチェック・メトリクス）をバックグラウンドで公開しつつ
// パイプラインを実行し、完了後にサーバーを停止して終了する。
// SIGINTまたはSIGTERMシグナルで実行中の取り込みをキャンセルする。
func runCrawl(cfg *config.Config) error {
	// 1. 設定URLの事前検証
	if err := fetch.ValidateURL(cfg.IndexURL); err != nil {
		return fmt.Errorf("invalid index URL: %w", err)
	}

	// 2. HTTPクライアントの初期化
	client := fetch.NewClient(cfg.FetchTimeout, cfg.FetchMaxSize)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. レコード出力先の初期化
	var sink pipeline.RecordSink
	if cfg.OutputPath != "" {
		out, err := os.Create(cfg.OutputPath)
		if err != nil {
			return fmt.Errorf("failed to open output file: %w", err)
		}
		defer out.Close()
		sink = pipeline.NewJSONLinesSink(out)
	} else {
		sink = pipeline.NewJSONLinesSink(os.Stdout)
	}

	// 5. パイプラインの構築
	svc := pipeline.New(cfg, client.Fetch, client.Head, sink, collector, slog.Default())

	// 6. 運用HTTPサーバーの起動
	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	router.Method(http.MethodGet, "/metrics", metrics.Handler(registry))

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("ops server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down crawler...")
		cancel()
	}()

	// 7. 取り込みの実行（ブロッキング）
	stats, runErr := svc.Run(ctx)
	if stats != nil {
		slog.Info("crawl finished",
			slog.String("run_id", stats.RunID),
			slog.Int("total", stats.Total()),
			slog.Int("successful", stats.Successful()),
			slog.Int("failed", stats.Failed()),
			slog.Float64("success_rate", stats.SuccessRate()),
			slog.Duration("avg_duration", stats.AverageDuration()),
			slog.Duration("elapsed", stats.Elapsed()),
		)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", slog.String("error", err.Error()))
	}

	if runErr != nil {
		return fmt.Errorf("crawl failed: %w", runErr)
	}
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /healthz エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/healthz", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

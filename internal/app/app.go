package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/layershowcase/internal/config"
	"github.com/hitoshi/layershowcase/internal/database"
	"github.com/hitoshi/layershowcase/internal/gateway"
	"github.com/hitoshi/layershowcase/internal/handler"
	"github.com/hitoshi/layershowcase/internal/logger"
	"github.com/hitoshi/layershowcase/internal/metrics"
	"github.com/hitoshi/layershowcase/internal/middleware"
	"github.com/hitoshi/layershowcase/internal/registry"
	"github.com/hitoshi/layershowcase/internal/seed"
)

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数からConfigを読み込んだ後、LOG_LEVELでログレベルを再設定する。
// wが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたレベルで再初期化
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.SetupDefault(w, level)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
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
		slog.String("storage_driver", cfg.StorageDriver),
		slog.String("port", cfg.ServerPort),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandSeed:
		seedFile := cfg.SeedFile
		if len(args) > 1 {
			seedFile = args[1]
		}
		return runSeed(ctx, cfg, seedFile)
	default:
		return runServe(ctx, cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// ストレージを開いて依存グラフを組み立て、HTTPサーバーを起動する。
// ctxがキャンセルされる（SIGINT/SIGTERM）とグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	// 1. 依存グラフ
	reg, err := registry.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := reg.Close(); err != nil {
			slog.Error("failed to close registry", slog.String("error", err.Error()))
		}
	}()

	// 2. メトリクス
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(promReg)

	// 3. レート制限
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfigPerMinute(cfg.RateLimitGeneral))
	defer rateLimiter.Stop()

	// 4. ルーター
	router := newRouter(cfg, reg, promReg, collector, rateLimiter)

	// 5. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// newRouter はRegistryのFacadeを公開するルーターを構築する。
func newRouter(cfg *config.Config, reg *registry.Registry, gatherer prometheus.Gatherer, collector *metrics.Collector, rl *middleware.RateLimiter) http.Handler {
	deps := &handler.RouterDeps{
		Users:             reg.Facade(),
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rl,
		Metrics:           collector,
		MetricsHandler:    metrics.Handler(gatherer),
	}
	if p, ok := reg.Gateway().(gateway.Pinger); ok {
		deps.HealthChecker = p
	}
	return handler.NewRouter(deps)
}

// runMigrate はストレージのスキーマを作成・更新する。
// postgresはすべての未適用マイグレーションを順番に適用し、sqliteはテーブルを作成する。
func runMigrate(cfg *config.Config) error {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		slog.Info("running database migrations",
			slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
		)
		version, err := database.MigrateUp(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		slog.Info("database migrations completed successfully", slog.Uint64("version", uint64(version)))

	case config.DriverSQLite:
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		if err := db.Close(); err != nil {
			return fmt.Errorf("failed to close sqlite database: %w", err)
		}
		slog.Info("sqlite schema ensured", slog.String("path", cfg.SQLitePath))

	default:
		slog.Info("storage driver has no schema, nothing to migrate", slog.String("driver", cfg.StorageDriver))
	}
	return nil
}

// runSeed は初期ユーザーをFacade経由で投入する。
// seedFileが空の場合は既定の5ユーザーを投入する。
// インメモリストレージはプロセス終了で破棄されるため拒否する。
func runSeed(ctx context.Context, cfg *config.Config, seedFile string) error {
	if cfg.StorageDriver == config.DriverMemory {
		return fmt.Errorf("seed requires a persistent storage driver (%s or %s), got %q",
			config.DriverSQLite, config.DriverPostgres, cfg.StorageDriver)
	}

	entries := seed.DefaultEntries()
	if seedFile != "" {
		loaded, err := seed.LoadFile(seedFile)
		if err != nil {
			return err
		}
		entries = loaded
	}

	reg, err := registry.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer reg.Close()

	if _, err := seed.Run(ctx, reg.Facade(), entries, slog.Default()); err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	endpoint := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(endpoint)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}

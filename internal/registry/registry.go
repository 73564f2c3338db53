// Package registry は依存グラフを組み立てる唯一の場所。
// Gateway → Repository → Service → Facade の順に生成し、1つのハンドルにまとめる。
package registry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hitoshi/layershowcase/internal/config"
	"github.com/hitoshi/layershowcase/internal/database"
	"github.com/hitoshi/layershowcase/internal/facade"
	"github.com/hitoshi/layershowcase/internal/gateway"
	"github.com/hitoshi/layershowcase/internal/repository"
	"github.com/hitoshi/layershowcase/internal/user"
)

// postgresMaxOpenConns はPostgreSQL接続プールの上限。
const postgresMaxOpenConns = 10

// pingTimeout は起動時の疎通確認のタイムアウト。
const pingTimeout = 5 * time.Second

// Registry は1組の依存グラフを保持する。
// 各層はこのハンドル内で生成された下位層のインスタンスだけを参照する。
type Registry struct {
	gw      gateway.Gateway
	repo    repository.UserRepository
	service *user.Service
	facade  *facade.UserFacade
}

// New は注入されたGatewayの上に依存グラフを組み立てる。
// テストではgateway.NewMemoryGatewayを渡して隔離されたストアを使う。
func New(gw gateway.Gateway) *Registry {
	repo := repository.NewUserRepo(gw)
	svc := user.NewService(repo)

	return &Registry{
		gw:      gw,
		repo:    repo,
		service: svc,
		facade:  facade.NewUserFacade(svc),
	}
}

// Open は設定されたストレージドライバのGatewayを生成し、依存グラフを組み立てる。
func Open(ctx context.Context, cfg *config.Config) (*Registry, error) {
	gw, err := openGateway(ctx, cfg)
	if err != nil {
		return nil, err
	}

	slog.Info("storage gateway opened", slog.String("driver", cfg.StorageDriver))
	return New(gw), nil
}

func openGateway(ctx context.Context, cfg *config.Config) (gateway.Gateway, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		return gateway.NewMemoryGateway(), nil

	case config.DriverSQLite:
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite storage: %w", err)
		}
		return gateway.NewSQLiteGateway(db), nil

	case config.DriverPostgres:
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		database.ConfigurePool(db, postgresMaxOpenConns)

		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return gateway.NewPostgresGateway(db), nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

// Gateway はこのハンドルのPersistence Gatewayを返す。
func (r *Registry) Gateway() gateway.Gateway { return r.gw }

// Repository はこのハンドルのRepositoryを返す。
func (r *Registry) Repository() repository.UserRepository { return r.repo }

// Service はこのハンドルのDomain Serviceを返す。
func (r *Registry) Service() *user.Service { return r.service }

// Facade はこのハンドルのFacadeを返す。外部の呼び出し側が使うのはこれだけ。
func (r *Registry) Facade() *facade.UserFacade { return r.facade }

// Close はGatewayがエンジン資源を持つ場合に解放する。
func (r *Registry) Close() error {
	if c, ok := r.gw.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close storage gateway: %w", err)
		}
	}
	return nil
}

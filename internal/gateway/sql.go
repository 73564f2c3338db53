package gateway

import (
	"context"
	"database/sql"
	"errors"

	"github.com/hitoshi/layershowcase/internal/model"
)

// queries はエンジンごとのSQL文。
type queries struct {
	findAll   string
	findByKey string
	insert    string
	update    string
	delete    string
}

var postgresQueries = queries{
	findAll:   `SELECT id, name FROM users ORDER BY seq`,
	findByKey: `SELECT id, name FROM users WHERE id = $1`,
	insert:    `INSERT INTO users (id, name) VALUES ($1, $2) RETURNING id, name`,
	update:    `UPDATE users SET name = COALESCE($2, name) WHERE id = $1 RETURNING id, name`,
	delete:    `DELETE FROM users WHERE id = $1`,
}

var sqliteQueries = queries{
	findAll:   `SELECT id, name FROM users ORDER BY rowid`,
	findByKey: `SELECT id, name FROM users WHERE id = ?`,
	insert:    `INSERT INTO users (id, name) VALUES (?, ?) RETURNING id, name`,
	update:    `UPDATE users SET name = COALESCE(?2, name) WHERE id = ?1 RETURNING id, name`,
	delete:    `DELETE FROM users WHERE id = ?`,
}

// SQLGateway はdatabase/sqlを使用したゲートウェイ。
// PostgreSQL（lib/pq）とSQLite（modernc.org/sqlite）で共通の実装を使い、SQL文のみ切り替える。
type SQLGateway struct {
	db     *sql.DB
	q      queries
	engine string
}

// NewPostgresGateway はPostgreSQL用のSQLGatewayを生成する。
// スキーマはdatabase.RunMigrationsで作成済みであること。
func NewPostgresGateway(db *sql.DB) *SQLGateway {
	return &SQLGateway{db: db, q: postgresQueries, engine: "postgres"}
}

// NewSQLiteGateway はSQLite用のSQLGatewayを生成する。
// スキーマはdatabase.OpenSQLiteで作成済みであること。
func NewSQLiteGateway(db *sql.DB) *SQLGateway {
	return &SQLGateway{db: db, q: sqliteQueries, engine: "sqlite"}
}

// Engine はエンジン名を返す。
func (g *SQLGateway) Engine() string {
	return g.engine
}

// FindAll は全レコードを挿入順に返す。
func (g *SQLGateway) FindAll(ctx context.Context) ([]Record, error) {
	rows, err := g.db.QueryContext(ctx, g.q.findAll)
	if err != nil {
		return nil, model.NewStorageError("find_all", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Name); err != nil {
			return nil, model.NewStorageError("find_all", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, model.NewStorageError("find_all", err)
	}

	return records, nil
}

// FindByKey は指定IDのレコードを返す。見つからない場合はnilを返す。
func (g *SQLGateway) FindByKey(ctx context.Context, id string) (*Record, error) {
	rec := &Record{}
	err := g.db.QueryRowContext(ctx, g.q.findByKey, id).Scan(&rec.ID, &rec.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, model.NewStorageError("find_by_key", err)
	}
	return rec, nil
}

// Insert はレコードを挿入し、RETURNINGで保存内容を返す。
func (g *SQLGateway) Insert(ctx context.Context, rec Record) (Record, error) {
	var saved Record
	err := g.db.QueryRowContext(ctx, g.q.insert, rec.ID, rec.Name).Scan(&saved.ID, &saved.Name)
	if err != nil {
		return Record{}, model.NewStorageError("insert", err)
	}
	return saved, nil
}

// Update は指定IDのレコードを上書きする。該当行がない場合はnilを返す。
func (g *SQLGateway) Update(ctx context.Context, id string, patch RecordPatch) (*Record, error) {
	var name any
	if patch.Name != nil {
		name = *patch.Name
	}

	rec := &Record{}
	err := g.db.QueryRowContext(ctx, g.q.update, id, name).Scan(&rec.ID, &rec.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, model.NewStorageError("update", err)
	}
	return rec, nil
}

// Delete は指定IDのレコードを削除する。
func (g *SQLGateway) Delete(ctx context.Context, id string) (bool, error) {
	result, err := g.db.ExecContext(ctx, g.q.delete, id)
	if err != nil {
		return false, model.NewStorageError("delete", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, model.NewStorageError("delete", err)
	}
	return rowsAffected > 0, nil
}

// Ping はストレージへの疎通を確認する。
func (g *SQLGateway) Ping(ctx context.Context) error {
	if err := g.db.PingContext(ctx); err != nil {
		return model.NewStorageError("ping", err)
	}
	return nil
}

// Close はDB接続を閉じる。
func (g *SQLGateway) Close() error {
	return g.db.Close()
}

// compile-time interface checks
var (
	_ Gateway = (*SQLGateway)(nil)
	_ Pinger  = (*SQLGateway)(nil)
)

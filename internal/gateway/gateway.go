// Package gateway はusersテーブルへのレコード単位のストレージアクセスを提供する。
// 検証やビジネスロジックは持たない。
package gateway

import "context"

// Record はusersテーブルの1行を表す。
type Record struct {
	ID   string
	Name string
}

// RecordPatch は部分更新の内容を表す。nilのフィールドは変更しない。
type RecordPatch struct {
	Name *string
}

// Gateway は永続化ゲートウェイのインターフェース。
// エンジン由来の失敗はすべて *model.StorageError として返す。
type Gateway interface {
	// FindAll は全レコードを挿入順に返す。
	FindAll(ctx context.Context) ([]Record, error)

	// FindByKey は指定IDのレコードを返す。見つからない場合はnilを返す。
	FindByKey(ctx context.Context, id string) (*Record, error)

	// Insert はレコードを挿入し、保存された内容を返す。
	// 既存IDとの重複はストレージ制約違反として失敗する。
	Insert(ctx context.Context, rec Record) (Record, error)

	// Update は指定IDのレコードを上書きし、更新後の内容を返す。
	// 該当行がない場合はnilを返す。
	Update(ctx context.Context, id string, patch RecordPatch) (*Record, error)

	// Delete は指定IDのレコードを削除する。行が削除された場合のみtrueを返す。
	Delete(ctx context.Context, id string) (bool, error)
}

// Pinger はストレージの疎通確認ができるゲートウェイが実装する。
type Pinger interface {
	Ping(ctx context.Context) error
}

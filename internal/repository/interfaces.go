// Package repository はストレージレコードとドメインエンティティの変換を担う。
// ビジネスロジックは持たない。
package repository

import (
	"context"

	"github.com/hitoshi/layershowcase/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindAll は全ユーザーを返す。0件の場合は空スライスを返す。
	FindAll(ctx context.Context) ([]model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Create はユーザーを保存し、保存された内容を返す。IDは呼び出し側のものをそのまま使う。
	Create(ctx context.Context, user model.User) (model.User, error)

	// Update は指定IDのユーザー名を置き換える。見つからない場合はnilを返す。
	Update(ctx context.Context, id string, cmd model.UpdateCommand) (*model.User, error)

	// Delete は指定IDのユーザーを削除する。行が存在し削除された場合のみtrueを返す。
	Delete(ctx context.Context, id string) (bool, error)
}

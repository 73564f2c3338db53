package repository

import (
	"context"
	"fmt"

	"github.com/hitoshi/layershowcase/internal/gateway"
	"github.com/hitoshi/layershowcase/internal/model"
)

// UserRepo はゲートウェイを使用したユーザーリポジトリ。
type UserRepo struct {
	gw gateway.Gateway
}

// NewUserRepo はUserRepoを生成する。
func NewUserRepo(gw gateway.Gateway) *UserRepo {
	return &UserRepo{gw: gw}
}

// FindAll は全ユーザーを返す。
func (r *UserRepo) FindAll(ctx context.Context) ([]model.User, error) {
	records, err := r.gw.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}

	users := make([]model.User, len(records))
	for i, rec := range records {
		users[i] = recordToDomain(rec)
	}
	return users, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *UserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	rec, err := r.gw.FindByKey(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	if rec == nil {
		return nil, nil
	}
	u := recordToDomain(*rec)
	return &u, nil
}

// Create はユーザーを保存する。
func (r *UserRepo) Create(ctx context.Context, user model.User) (model.User, error) {
	rec, err := r.gw.Insert(ctx, domainToRecord(user))
	if err != nil {
		return model.User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return recordToDomain(rec), nil
}

// Update は指定IDのユーザー名を置き換える。見つからない場合はnilを返す。
func (r *UserRepo) Update(ctx context.Context, id string, cmd model.UpdateCommand) (*model.User, error) {
	name := cmd.Name
	rec, err := r.gw.Update(ctx, id, gateway.RecordPatch{Name: &name})
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if rec == nil {
		return nil, nil
	}
	u := recordToDomain(*rec)
	return &u, nil
}

// Delete は指定IDのユーザーを削除する。
func (r *UserRepo) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := r.gw.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	return deleted, nil
}

// recordToDomain はストレージレコードをドメインエンティティに変換する。
// 主キーのないレコードはストレージ側の不変条件違反なのでpanicする。
func recordToDomain(rec gateway.Record) model.User {
	if rec.ID == "" {
		panic("repository: storage record without primary key")
	}
	return model.User{
		ID:   rec.ID,
		Name: rec.Name,
	}
}

func domainToRecord(u model.User) gateway.Record {
	return gateway.Record{
		ID:   u.ID,
		Name: u.Name,
	}
}

// compile-time interface check
var _ UserRepository = (*UserRepo)(nil)

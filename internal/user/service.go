// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/layershowcase/internal/model"
	"github.com/hitoshi/layershowcase/internal/repository"
)

// Service はユーザー管理のサービス層。
// 存在に関する不変条件を強制する。入力検証はFacadeの責務であり、ここでは行わない。
//
// 存在が前提の操作（IDでの取得・更新・削除）は厳格版で、対象がなければNotFoundErrorを返す。
// 存在の有無で分岐したい呼び出し側はGetUserByIDOrNull・UserExistsを使う。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// GetAllUsers は全ユーザーを返す。
func (s *Service) GetAllUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// GetUserByID は指定IDのユーザーを返す。存在しない場合はNotFoundErrorを返す。
func (s *Service) GetUserByID(ctx context.Context, id string) (model.User, error) {
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return model.User{}, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if u == nil {
		return model.User{}, model.NewUserNotFoundError(id, model.OpFetch)
	}
	return *u, nil
}

// GetUserByIDOrNull は指定IDのユーザーを返す。存在しない場合はnilを返す。
func (s *Service) GetUserByIDOrNull(ctx context.Context, id string) (*model.User, error) {
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	return u, nil
}

// CreateUser はユーザーを保存する。userは検証済みであること。
func (s *Service) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	created, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return model.User{}, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("ユーザーを作成しました",
		slog.String("user_id", created.ID),
	)

	return created, nil
}

// UpdateUser は指定IDのユーザーを更新する。存在しない場合はNotFoundErrorを返す。
func (s *Service) UpdateUser(ctx context.Context, id string, cmd model.UpdateCommand) (model.User, error) {
	updated, err := s.userRepo.Update(ctx, id, cmd)
	if err != nil {
		return model.User{}, fmt.Errorf("ユーザーの更新に失敗しました: %w", err)
	}
	if updated == nil {
		return model.User{}, model.NewUserNotFoundError(id, model.OpUpdate)
	}

	slog.Info("ユーザーを更新しました",
		slog.String("user_id", id),
	)

	return *updated, nil
}

// DeleteUser は指定IDのユーザーを削除する。存在しない場合はNotFoundErrorを返す。
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	deleted, err := s.userRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewUserNotFoundError(id, model.OpDelete)
	}

	slog.Info("ユーザーを削除しました",
		slog.String("user_id", id),
	)

	return nil
}

// UserExists は指定IDのユーザーが存在するかを返す。
func (s *Service) UserExists(ctx context.Context, id string) (bool, error) {
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("ユーザーの存在確認に失敗しました: %w", err)
	}
	return u != nil, nil
}

// Package facade は外部の呼び出し側が直接使う唯一のコンポーネントを提供する。
// 未検証の入力を検証・変換してからドメインサービスに委譲し、
// 結果を外部向けの型に写像して返す。
package facade

import (
	"context"

	"github.com/google/uuid"

	"github.com/hitoshi/layershowcase/internal/model"
)

// UserService はFacadeが必要とするドメインサービスのインターフェース。
type UserService interface {
	GetAllUsers(ctx context.Context) ([]model.User, error)
	GetUserByID(ctx context.Context, id string) (model.User, error)
	GetUserByIDOrNull(ctx context.Context, id string) (*model.User, error)
	CreateUser(ctx context.Context, user model.User) (model.User, error)
	UpdateUser(ctx context.Context, id string, cmd model.UpdateCommand) (model.User, error)
	DeleteUser(ctx context.Context, id string) error
	UserExists(ctx context.Context, id string) (bool, error)
}

// UserOutput は外部に公開するユーザーの形。
// model.Userと同じ形だが、内部表現を外部契約から切り離すため別の型にしている。
type UserOutput struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserFacade はユーザー操作の境界コンポーネント。
// すべてのメソッドは検証してから委譲する。検証に失敗した場合、サービスは呼ばれない。
type UserFacade struct {
	service UserService
	newID   func() string
}

// NewUserFacade はUserFacadeを生成する。
func NewUserFacade(service UserService) *UserFacade {
	return &UserFacade{
		service: service,
		newID:   uuid.NewString,
	}
}

// GetAllUsers は全ユーザーを返す。
func (f *UserFacade) GetAllUsers(ctx context.Context) ([]UserOutput, error) {
	users, err := f.service.GetAllUsers(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]UserOutput, len(users))
	for i, u := range users {
		out[i] = toOutput(u)
	}
	return out, nil
}

// GetUserByID は指定IDのユーザーを返す。存在しない場合はNotFoundErrorを返す。
func (f *UserFacade) GetUserByID(ctx context.Context, id string) (UserOutput, error) {
	validID, verr := parseUserID(id)
	if verr != nil {
		return UserOutput{}, verr
	}

	u, err := f.service.GetUserByID(ctx, validID)
	if err != nil {
		return UserOutput{}, err
	}
	return toOutput(u), nil
}

// GetUserByIDOrNull は指定IDのユーザーを返す。存在しない場合はnilを返す。
func (f *UserFacade) GetUserByIDOrNull(ctx context.Context, id string) (*UserOutput, error) {
	validID, verr := parseUserID(id)
	if verr != nil {
		return nil, verr
	}

	u, err := f.service.GetUserByIDOrNull(ctx, validID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}
	out := toOutput(*u)
	return &out, nil
}

// CreateUser は入力を検証し、新しいUUIDを採番してユーザーを作成する。
// 入力にidが含まれていても無視する。
func (f *UserFacade) CreateUser(ctx context.Context, input any) (UserOutput, error) {
	in, verr := parseCreateUser(input)
	if verr != nil {
		return UserOutput{}, verr
	}

	user := model.User{
		ID:   f.newID(),
		Name: in.Name,
	}

	created, err := f.service.CreateUser(ctx, user)
	if err != nil {
		return UserOutput{}, err
	}
	return toOutput(created), nil
}

// UpdateUser はidと入力をそれぞれ検証し、ユーザー名を更新する。
// 両方に違反がある場合は1つのValidationErrorにまとめて返す。
func (f *UserFacade) UpdateUser(ctx context.Context, id string, input any) (UserOutput, error) {
	var issues []model.Issue
	if _, verr := parseUserID(id); verr != nil {
		issues = append(issues, verr.Issues...)
	}
	in, verr := parseUpdateUser(input)
	if verr != nil {
		issues = append(issues, verr.Issues...)
	}
	if len(issues) > 0 {
		return UserOutput{}, model.NewValidationError(issues...)
	}

	updated, err := f.service.UpdateUser(ctx, id, toUpdateCommand(in))
	if err != nil {
		return UserOutput{}, err
	}
	return toOutput(updated), nil
}

// DeleteUser は指定IDのユーザーを削除する。
func (f *UserFacade) DeleteUser(ctx context.Context, id string) error {
	validID, verr := parseUserID(id)
	if verr != nil {
		return verr
	}
	return f.service.DeleteUser(ctx, validID)
}

// UserExists は指定IDのユーザーが存在するかを返す。
func (f *UserFacade) UserExists(ctx context.Context, id string) (bool, error) {
	validID, verr := parseUserID(id)
	if verr != nil {
		return false, verr
	}
	return f.service.UserExists(ctx, validID)
}

func toOutput(u model.User) UserOutput {
	return UserOutput{
		ID:   u.ID,
		Name: u.Name,
	}
}

func toUpdateCommand(in UpdateUserInput) model.UpdateCommand {
	return model.UpdateCommand{
		Name: in.Name,
	}
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/layershowcase/internal/facade"
	"github.com/hitoshi/layershowcase/internal/middleware"
	"github.com/hitoshi/layershowcase/internal/model"
)

// maxBodyBytes はリクエストボディの上限（1 MiB）。
const maxBodyBytes = 1 << 20

// UserFacade はユーザーハンドラーが必要とするFacadeのインターフェース。
// ハンドラーはService・Repositoryを直接参照しない。
type UserFacade interface {
	GetAllUsers(ctx context.Context) ([]facade.UserOutput, error)
	GetUserByID(ctx context.Context, id string) (facade.UserOutput, error)
	CreateUser(ctx context.Context, input any) (facade.UserOutput, error)
	UpdateUser(ctx context.Context, id string, input any) (facade.UserOutput, error)
	DeleteUser(ctx context.Context, id string) error
	UserExists(ctx context.Context, id string) (bool, error)
}

var _ UserFacade = (*facade.UserFacade)(nil)

// ErrorRecorder は操作の失敗をエラー種別ごとに記録する。
type ErrorRecorder interface {
	RecordOperationError(operation string, kind model.Kind)
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	facade   UserFacade
	recorder ErrorRecorder
}

// NewUserHandler はUserHandlerを生成する。recorderはnilでもよい。
func NewUserHandler(f UserFacade, recorder ErrorRecorder) *UserHandler {
	return &UserHandler{
		facade:   f,
		recorder: recorder,
	}
}

// existsResponse は存在確認のAPIレスポンス。
type existsResponse struct {
	Exists bool `json:"exists"`
}

// ListUsers は全ユーザーを作成順に返す。
// GET /api/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.facade.GetAllUsers(r.Context())
	if err != nil {
		h.fail(w, "list_users", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// GetUser は指定IDのユーザーを返す。
// GET /api/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.facade.GetUserByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get_user", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// UserExists は指定IDのユーザーが存在するかを返す。
// GET /api/users/{id}/exists
func (h *UserHandler) UserExists(w http.ResponseWriter, r *http.Request) {
	ok, err := h.facade.UserExists(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "user_exists", err)
		return
	}
	writeJSON(w, http.StatusOK, existsResponse{Exists: ok})
}

// CreateUser はユーザーを作成する。ボディの解釈はFacadeに任せる。
// POST /api/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	u, err := h.facade.CreateUser(r.Context(), body)
	if err != nil {
		h.fail(w, "create_user", err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// UpdateUser はユーザー名を更新する。
// PUT /api/users/{id}, PATCH /api/users/{id}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	u, err := h.facade.UpdateUser(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		h.fail(w, "update_user", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// DeleteUser はユーザーを削除する。
// DELETE /api/users/{id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.facade.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete_user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) fail(w http.ResponseWriter, operation string, err error) {
	if h.recorder != nil {
		h.recorder.RecordOperationError(operation, model.KindOf(err))
	}
	handleServiceError(w, err)
}

// readBody はボディを上限付きで読み込み、未解釈のJSONテキストとして返す。
// 上限を超えた場合は413を書き込んでfalseを返す。
func readBody(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			middleware.WriteErrorResponse(w, http.StatusRequestEntityTooLarge, &model.APIError{
				Code:     model.ErrCodeRequestTooLarge,
				Message:  "リクエストボディが大きすぎます。",
				Category: "validation",
				Action:   "1MiB以下のリクエストを送信してください。",
			})
			return nil, false
		}
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeValidation,
			Message:  "リクエストボディを読み込めませんでした。",
			Category: "validation",
			Action:   "リクエストを確認してください。",
		})
		return nil, false
	}
	return json.RawMessage(data), true
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

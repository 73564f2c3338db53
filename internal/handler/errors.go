package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/layershowcase/internal/middleware"
	"github.com/hitoshi/layershowcase/internal/model"
)

// handleServiceError はFacadeから返されたエラーを種別に応じたHTTPレスポンスに変換する。
// 検証 400、未存在 404、ストレージ 503、それ以外 500。
func handleServiceError(w http.ResponseWriter, err error) {
	switch model.KindOf(err) {
	case model.KindValidation:
		var verr *model.ValidationError
		errors.As(err, &verr)
		middleware.WriteValidationError(w, verr)

	case model.KindNotFound:
		middleware.WriteErrorResponse(w, http.StatusNotFound, &model.APIError{
			Code:     model.ErrCodeUserNotFound,
			Message:  "ユーザーが見つかりません。",
			Category: "user",
			Action:   "ユーザーIDを確認してください。",
		})

	case model.KindStorage:
		slog.Error("storage error", slog.String("error", err.Error()))
		middleware.WriteErrorResponse(w, http.StatusServiceUnavailable, &model.APIError{
			Code:     model.ErrCodeStorage,
			Message:  "ストレージにアクセスできませんでした。",
			Category: "storage",
			Action:   "しばらく待ってから再度お試しください。",
		})

	default:
		slog.Error("internal server error", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
	}
}

package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/layershowcase/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// 原因カテゴリと対処方法を含む。検証エラーの場合は違反の一覧を含む。
type ErrorResponseBody struct {
	Code     string      `json:"code"`
	Message  string      `json:"message"`
	Category string      `json:"category"`
	Action   string      `json:"action"`
	Issues   []IssueBody `json:"issues,omitempty"`
}

// IssueBody は1件の検証違反。
type IssueBody struct {
	Field      string `json:"field,omitempty"`
	Constraint string `json:"constraint"`
	Message    string `json:"message"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeErrorBody(w, statusCode, ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// WriteValidationError は検証エラーを400の統一エラーフォーマットで書き込む。
func WriteValidationError(w http.ResponseWriter, verr *model.ValidationError) {
	issues := make([]IssueBody, len(verr.Issues))
	for i, is := range verr.Issues {
		issues[i] = IssueBody{
			Field:      is.Field,
			Constraint: string(is.Constraint),
			Message:    is.Message,
		}
	}

	writeErrorBody(w, http.StatusBadRequest, ErrorResponseBody{
		Code:     model.ErrCodeValidation,
		Message:  "入力内容に誤りがあります。",
		Category: "validation",
		Action:   "入力内容を確認してください。",
		Issues:   issues,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     model.ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

func writeErrorBody(w http.ResponseWriter, statusCode int, body ErrorResponseBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

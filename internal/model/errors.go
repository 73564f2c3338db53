// Package model はドメインモデルとエラー分類を定義する。
package model

import (
	"errors"
	"fmt"
	"strings"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, user, storage, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeUserNotFound = "USER_NOT_FOUND"
	ErrCodeStorage      = "STORAGE_ERROR"
	ErrCodeInternal     = "INTERNAL_ERROR"

	ErrCodeRateLimited     = "RATE_LIMIT_EXCEEDED"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// Constraint は入力検証で違反した制約の種類を表す。
type Constraint string

const (
	ConstraintRequired    Constraint = "required"
	ConstraintInvalidType Constraint = "invalid_type"
	ConstraintTooShort    Constraint = "too_short"
	ConstraintTooLong     Constraint = "too_long"
	ConstraintInvalidUUID Constraint = "invalid_uuid"
	ConstraintInvalidJSON Constraint = "invalid_json"
)

// Issue は1件の検証違反を表す。
// Fieldが空の場合は入力全体に対する違反。
type Issue struct {
	Field      string
	Constraint Constraint
	Message    string
}

// ValidationError はFacadeの入力検証に失敗したことを表す。
// Service・Repositoryの呼び出し前にのみ生成される。
type ValidationError struct {
	Issues []Issue
}

// NewValidationError は指定された違反を持つValidationErrorを生成する。
func NewValidationError(issues ...Issue) *ValidationError {
	return &ValidationError{Issues: issues}
}

// Error はerrorインターフェースを実装する。
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		if is.Field == "" {
			parts = append(parts, fmt.Sprintf("%s: %s", is.Constraint, is.Message))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s: %s", is.Field, is.Constraint, is.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Field は最初の違反のフィールド名を返す。
func (e *ValidationError) Field() string {
	if len(e.Issues) == 0 {
		return ""
	}
	return e.Issues[0].Field
}

// Constraint は最初の違反の制約を返す。
func (e *ValidationError) Constraint() Constraint {
	if len(e.Issues) == 0 {
		return ""
	}
	return e.Issues[0].Constraint
}

// Operation はNotFoundErrorを発生させた操作を表す。
type Operation string

const (
	OpFetch  Operation = "fetch"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// NotFoundError は参照されたユーザーが存在しないことを表す。
// ドメインサービスの厳格メソッドのみが生成する。
type NotFoundError struct {
	ID string
	Op Operation
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError(id string, op Operation) *NotFoundError {
	return &NotFoundError{ID: id, Op: op}
}

// Error はerrorインターフェースを実装する。
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("user with id %s not found (%s)", e.ID, e.Op)
}

// StorageError は永続化ゲートウェイで発生したストレージエラーを表す。
// 中身のエンジンエラーはUnwrapで取得できる。
type StorageError struct {
	Op  string
	Err error
}

// NewStorageError はエンジンエラーをStorageErrorで包む。
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// Error はerrorインターフェースを実装する。
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

// Unwrap は元のエラーを返す。
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Kind はエラーの分類を表す。
type Kind int

const (
	KindNone Kind = iota
	KindValidation
	KindNotFound
	KindStorage
	KindInternal
)

// String はKindの名前を返す。メトリクスのラベルにも使う。
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindStorage:
		return "storage"
	default:
		return "internal"
	}
}

// KindOf はエラーチェーンを分類する。nilはKindNoneを返す。
// 呼び出し側は戻り値をswitchで網羅的に扱うこと。
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return KindValidation
	}
	var nferr *NotFoundError
	if errors.As(err, &nferr) {
		return KindNotFound
	}
	var serr *StorageError
	if errors.As(err, &serr) {
		return KindStorage
	}
	return KindInternal
}

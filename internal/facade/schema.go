package facade

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/hitoshi/layershowcase/internal/model"
)

// 検証メッセージ
const (
	msgInputRequired = "Input is required"
	msgInputObject   = "Input must be an object"
	msgInputJSON     = "Input must be valid JSON"
	msgNameRequired  = "Name is required"
	msgNameString    = "Name must be a string"
	msgNameUTF8      = "Name must be valid UTF-8 text"
	msgNameTooLong   = "Name must be at most 100 characters"
	msgIDInvalid     = "User ID must be a valid UUID"
)

const maxUUID = "ffffffff-ffff-ffff-ffff-ffffffffffff"

// 独自タグ
const (
	tagUserID    = "user_id"
	tagValidUTF8 = "valid_utf8"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Issue.Field にはJSONのキー名を使う
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation(tagUserID, isUserID); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation(tagValidUTF8, func(fl validator.FieldLevel) bool {
		return utf8.ValidString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// userIDField はパスパラメータのidを検証する。
type userIDField struct {
	ID string `json:"id" validate:"required,len=36,user_id"`
}

// nameFields は {name: string(1..100)} の形をした入力。name以外のキーは無視する。
type nameFields struct {
	Name *string `json:"name" validate:"required,valid_utf8,min=1,max=100"`
}

// CreateUserInput は検証済みの作成リクエスト。
type CreateUserInput struct {
	Name string
}

// UpdateUserInput は検証済みの更新リクエスト。
type UpdateUserInput struct {
	Name string
}

// parseUserID はidが正規形式（8-4-4-4-12）のUUIDであることを検証する。
// 波括弧・urn:uuid:接頭辞・ハイフンなしの形式は受け付けない。
func parseUserID(id string) (string, *model.ValidationError) {
	if is := checkUserID(id); is != nil {
		return "", model.NewValidationError(*is)
	}
	return id, nil
}

// parseCreateUser は未検証の入力を作成リクエストに変換する。
func parseCreateUser(input any) (CreateUserInput, *model.ValidationError) {
	name, issues := parseNameObject(input)
	if len(issues) > 0 {
		return CreateUserInput{}, model.NewValidationError(issues...)
	}
	return CreateUserInput{Name: name}, nil
}

// parseUpdateUser は未検証の入力を更新リクエストに変換する。
func parseUpdateUser(input any) (UpdateUserInput, *model.ValidationError) {
	name, issues := parseNameObject(input)
	if len(issues) > 0 {
		return UpdateUserInput{}, model.NewValidationError(issues...)
	}
	return UpdateUserInput{Name: name}, nil
}

func checkUserID(id string) *model.Issue {
	if err := validate.Struct(userIDField{ID: id}); err != nil {
		return &model.Issue{Field: "id", Constraint: model.ConstraintInvalidUUID, Message: msgIDInvalid}
	}
	return nil
}

// isUserID はハイフン区切りのUUIDのうち、nil・max、またはRFC 4122バリアントの
// バージョン1〜8を受け付ける。
func isUserID(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if strings.Count(s, "-") != 4 {
		return false
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	if u == uuid.Nil || strings.EqualFold(s, maxUUID) {
		return true
	}
	v := u.Version()
	return v >= 1 && v <= 8 && u.Variant() == uuid.RFC4122
}

func parseNameObject(input any) (string, []model.Issue) {
	fields, is := decodeNameFields(input)
	if is != nil {
		return "", []model.Issue{*is}
	}
	if err := validate.Struct(fields); err != nil {
		return "", nameIssues(err)
	}
	return *fields.Name, nil
}

// nameIssues はvalidatorのエラーをIssueに変換する。
func nameIssues(err error) []model.Issue {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []model.Issue{{Constraint: model.ConstraintInvalidType, Message: msgInputObject}}
	}

	issues := make([]model.Issue, 0, len(verrs))
	for _, fe := range verrs {
		is := model.Issue{Field: fe.Field()}
		switch fe.Tag() {
		case "required":
			is.Constraint, is.Message = model.ConstraintRequired, msgNameRequired
		case "min":
			is.Constraint, is.Message = model.ConstraintTooShort, msgNameRequired
		case "max":
			is.Constraint, is.Message = model.ConstraintTooLong, msgNameTooLong
		default:
			is.Constraint, is.Message = model.ConstraintInvalidType, msgNameUTF8
		}
		issues = append(issues, is)
	}
	return issues
}

// decodeNameFields は未検証の入力をnameFieldsとして解釈する。
// JSONテキスト（json.RawMessage, []byte）はここでのみデコードする。
func decodeNameFields(input any) (nameFields, *model.Issue) {
	switch v := input.(type) {
	case nil:
		return nameFields{}, &model.Issue{Constraint: model.ConstraintRequired, Message: msgInputRequired}
	case map[string]any:
		return nameFromMap(v)
	case map[string]string:
		s, ok := v["name"]
		if !ok {
			return nameFields{}, nil
		}
		return nameFields{Name: &s}, nil
	case json.RawMessage:
		return decodeJSONNameFields(v)
	case []byte:
		return decodeJSONNameFields(v)
	default:
		return nameFields{}, &model.Issue{Constraint: model.ConstraintInvalidType, Message: msgInputObject}
	}
}

func nameFromMap(obj map[string]any) (nameFields, *model.Issue) {
	switch raw := obj["name"].(type) {
	case nil:
		return nameFields{}, nil
	case string:
		return nameFields{Name: &raw}, nil
	default:
		return nameFields{}, &model.Issue{Field: "name", Constraint: model.ConstraintInvalidType, Message: msgNameString}
	}
}

func decodeJSONNameFields(data []byte) (nameFields, *model.Issue) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nameFields{}, &model.Issue{Constraint: model.ConstraintRequired, Message: msgInputRequired}
	}
	// JSONテキストはUTF-8でなければならない（デコーダーはU+FFFDに置換してしまう）
	if !utf8.Valid(data) {
		return nameFields{}, &model.Issue{Constraint: model.ConstraintInvalidJSON, Message: msgInputJSON}
	}

	var fields nameFields
	if err := json.Unmarshal(data, &fields); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return nameFields{}, &model.Issue{Constraint: model.ConstraintInvalidJSON, Message: msgInputJSON}
		}
		if typeErr.Field == "name" {
			return nameFields{}, &model.Issue{Field: "name", Constraint: model.ConstraintInvalidType, Message: msgNameString}
		}
		return nameFields{}, &model.Issue{Constraint: model.ConstraintInvalidType, Message: msgInputObject}
	}
	return fields, nil
}

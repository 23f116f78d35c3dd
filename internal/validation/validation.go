// Package validation は構造体タグによる入力検証を提供する。
// go-playground/validatorの検証結果を、フィールド名→理由のマップを持つ
// model.APIErrorに変換する。
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/hitoshi/bloghub/internal/model"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// validate はプロセス内で共有するvalidatorを返す。
// validator.Validateは構造体情報をキャッシュし、並行利用しても安全。
func validate() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(fieldName)
		// 空白のみの文字列も空とみなす
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		instance = v
	})
	return instance
}

// fieldName はエラーに使うフィールド名を返す。
// jsonタグがあればその名前、なければフィールド名の小文字表記。
func fieldName(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" {
		name := strings.SplitN(tag, ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return strings.ToLower(f.Name)
}

// Struct は構造体を検証する。
// 検証に失敗した場合はフィールドごとの理由を持つValidationErrorを返す。
func Struct(s any) error {
	err := validate().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if _, exists := fields[name]; exists {
			continue
		}
		fields[name] = reason(fe)
	}
	return model.NewValidationError(fields)
}

// reason はvalidatorのタグを理由コードに変換する。
func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return model.ReasonBlank
	case "min":
		return model.ReasonTooShort
	case "max":
		return model.ReasonTooLong
	default:
		return model.ReasonInvalid
	}
}

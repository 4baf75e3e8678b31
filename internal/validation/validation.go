// Package validation wraps a shared validator that reports failures with json
// field names and English messages
package validation

import (
	"reflect"
	"strings"
	"sync"

	"github.com/azure/yt-comment-analyzer/internal/errs"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	once       sync.Once
	validate   *validator.Validate
	translator ut.Translator
)

func instance() (*validator.Validate, ut.Translator) {
	once.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		translator, _ = uni.GetTranslator("en")

		validate = validator.New()

		// prefer json tag names in messages
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})

		_ = en_translations.RegisterDefaultTranslations(validate, translator)
	})
	return validate, translator
}

// Check validates s and returns an errs validation error naming the first bad field
func Check(op string, s interface{}) error {
	v, _ := instance()
	if err := v.Struct(s); err != nil {
		return errs.Validation(op, Message(err))
	}
	return nil
}

// Message returns the translated message of the first field error in err
func Message(err error) string {
	if err == nil {
		return ""
	}
	if inv, ok := err.(*validator.InvalidValidationError); ok {
		return inv.Error()
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		_, trans := instance()
		return verrs[0].Translate(trans)
	}
	return err.Error()
}

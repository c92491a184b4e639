// Package validate registers the API field rules on gin's binding validator
// and turns its failures into field errors keyed by JSON field name.
//
// Input types declare their rules in `binding` tags. Alongside the
// go-playground built-ins the following tags are available:
//
//	username     letter first, then letters, digits and @ . + - _
//	notreserved  rejects ReservedUsername
//	slug         letters, digits, hyphens and underscores
//	notblank     rejects strings that are empty after trimming
//	notfuture    rejects years after the current one
//	score        MinScore..MaxScore inclusive
package validate

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/yamdb/yamdb/util/common"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	MinScore = 1
	MaxScore = 10

	// ReservedUsername is the alias of the self-service profile route.
	ReservedUsername = "me"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z][\p{L}\p{N}_.@+-]{1,150}$`)
	slugRe     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

var rules = map[string]validator.Func{
	"username": func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	},
	"notreserved": func(fl validator.FieldLevel) bool {
		return fl.Field().String() != ReservedUsername
	},
	"slug": func(fl validator.FieldLevel) bool {
		return slugRe.MatchString(fl.Field().String())
	},
	"notblank": func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	},
	"notfuture": func(fl validator.FieldLevel) bool {
		return fl.Field().Int() <= int64(time.Now().Year())
	},
	"score": func(fl validator.FieldLevel) bool {
		v := fl.Field().Int()
		return v >= MinScore && v <= MaxScore
	},
}

func init() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		panic("validate: gin binding validator is not go-playground")
	}
	v.RegisterTagNameFunc(jsonName)
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// Struct checks obj against its binding tags. With partial set, fields that
// were not supplied are not reported as missing.
func Struct(obj any, partial bool) error {
	return Translate(binding.Validator.ValidateStruct(obj), partial)
}

// Translate converts go-playground failures into a *common.ValidationError.
// Any other error is returned unchanged.
func Translate(err error, partial bool) error {
	if err == nil {
		return nil
	}
	var failures validator.ValidationErrors
	if !errors.As(err, &failures) {
		return err
	}
	v := common.NewValidationError()
	for _, fe := range failures {
		// a supplied pointer always passes required, so only absent fields fail it
		if partial && fe.Tag() == "required" {
			continue
		}
		id, data := message(fe)
		v.Add(fe.Field(), id, data)
	}
	return v.OrNil()
}

func message(fe validator.FieldError) (string, map[string]any) {
	switch fe.Tag() {
	case "required", "notblank":
		return "validation.required", nil
	case "max":
		return "validation.maxLength", map[string]any{"Max": fe.Param()}
	case "min":
		if k := fe.Kind(); k == reflect.Slice || k == reflect.Array {
			return "validation.emptyList", nil
		}
		return "validation.minLength", map[string]any{"Min": fe.Param()}
	case "email":
		return "email.invalid", nil
	case "username":
		return "username.invalid", nil
	case "notreserved":
		return "username.reserved", nil
	case "slug":
		return "slug.invalid", nil
	case "notfuture":
		return "year.future", map[string]any{"Year": time.Now().Year()}
	case "score":
		return "score.range", map[string]any{"Min": MinScore, "Max": MaxScore}
	}
	return "validation.invalid", nil
}

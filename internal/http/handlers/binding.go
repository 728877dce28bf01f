package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/you/missionlog/domain"
)

var tagNamesOnce sync.Once

// useJSONFieldNames makes validation errors report json tag names
func useJSONFieldNames() {
	tagNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

// bindJSON decodes the body into req and converts binding failures into a
// *domain.ValidationError naming every violated field
func bindJSON(c *gin.Context, req any) error {
	useJSONFieldNames()
	err := c.ShouldBindJSON(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		ve := &domain.ValidationError{}
		for _, fe := range verrs {
			ve.Fields = append(ve.Fields, domain.FieldError{
				Field:  fe.Field(),
				Reason: reason(fe),
			})
		}
		return ve
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return domain.NewValidationError("body", "is required")
	case errors.As(err, &typeErr):
		return domain.NewValidationError(typeErr.Field, "has the wrong type")
	case errors.As(err, &syntaxErr):
		return domain.NewValidationError("body", "must be valid JSON")
	}
	return domain.NewValidationError("body", "is invalid")
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "numeric":
		return "must contain only digits"
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "is invalid"
	}
}

package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"mp3player/internal/server/apierrors"
)

// Validator lets request DTOs add domain rules on top of binding tags.
type Validator interface {
	Validate() error
}

// BindJSON binds and validates a JSON request body.
func BindJSON(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return apierrors.NewValidation("invalid request body", fieldErrors(err))
	}
	return validateDomain(req)
}

// BindQuery binds and validates query parameters.
func BindQuery(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindQuery(req); err != nil {
		return apierrors.NewValidation("invalid query parameters", fieldErrors(err))
	}
	return validateDomain(req)
}

func validateDomain(req interface{}) error {
	if v, ok := req.(Validator); ok {
		return v.Validate()
	}
	return nil
}

func fieldErrors(err error) map[string]string {
	fields := make(map[string]string)

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		fields["request"] = "malformed request"
		return fields
	}

	for _, fe := range validationErrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			fields[field] = "is required"
		case "min":
			fields[field] = "is too small"
		case "max":
			fields[field] = "is too large"
		case "oneof":
			fields[field] = "must be one of the allowed values"
		default:
			fields[field] = "is invalid"
		}
	}
	return fields
}

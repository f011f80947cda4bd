// internal/utils/validator.go
package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/layerhub/marketplace-backend/internal/models"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	validate.RegisterValidation("like_action", validateLikeAction)
	validate.RegisterValidation("onboarding_role", validateOnboardingRole)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateLikeAction(fl validator.FieldLevel) bool {
	action := models.LikeAction(fl.Field().String())
	return action == models.LikeActionLike || action == models.LikeActionUnlike
}

func validateOnboardingRole(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case models.RoleCreator, models.RoleCustomer:
		return true
	}
	return false
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   e.Field(),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "gt":
		return e.Field() + " must be greater than " + e.Param()
	case "gte":
		return e.Field() + " must be at least " + e.Param()
	case "like_action":
		return "action must be either like or unlike"
	case "onboarding_role":
		return "role must be either Creator or Customer"
	default:
		return e.Field() + " is invalid"
	}
}

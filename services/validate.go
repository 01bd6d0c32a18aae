package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validateInput runs struct validation and turns the first failure into an
// InvalidInput error naming the offending field.
func validateInput(in interface{}) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			return InvalidInput(fmt.Sprintf("%s is required", field))
		case "email":
			return InvalidInput("Invalid email address")
		case "oneof":
			return InvalidInput(fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		case "min", "max", "gte", "lte":
			return InvalidInput(fmt.Sprintf("%s is out of range", field))
		}
		return InvalidInput(fmt.Sprintf("%s is invalid", field))
	}
	return InvalidInput(err.Error())
}

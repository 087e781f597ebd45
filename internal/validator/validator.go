// Package validator wraps go-playground/validator for checking fetched
// payloads at the ingestion boundary.
package validator

import (
	"errors"
	"fmt"
	"strings"

	govalidator "github.com/go-playground/validator/v10"
)

var validate = govalidator.New(govalidator.WithRequiredStructEnabled())

// Struct validates a decoded payload against its `validate` tags and
// returns a single flattened error naming the offending fields.
func Struct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs govalidator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid payload: %s", strings.Join(fields, ", "))
}

package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sunity/api/internal/helpers"
	"github.com/sunity/api/internal/models"
)

// now is the clock every service stamps records with. Stored times are UTC.
var now = func() time.Time { return time.Now().UTC() }

// storeError classifies a repository error. ErrNotFound becomes a not_found
// error with the given reason; everything unexpected is internal.
func storeError(err error, notFound string) error {
	if errors.Is(err, models.ErrNotFound) {
		return helpers.NotFound(notFound)
	}
	return helpers.Internal(err)
}

// validationError turns validator output into one readable reason.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return helpers.Validation("invalid input: %v", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return helpers.Validation("invalid input: %s", strings.Join(fields, ", "))
}

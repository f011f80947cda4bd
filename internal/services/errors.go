// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrProductNotFound        = errors.New("product not found")
	ErrForbidden              = errors.New("not the owner of this product")
	ErrSlugCollisionExhausted = errors.New("no free slug after exhausting all attempts")
	ErrStaleProduct           = errors.New("product was changed since it was loaded")
	ErrUserNotFound           = errors.New("user not found")
	ErrIdentityUnavailable    = errors.New("identity provider unavailable")
)

// ValidationError carries the itemized problems found in a product form.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid product: " + strings.Join(e.Fields, "; ")
}

func NewValidationError(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// AssetUploadError reports the file whose upload aborted a save.
type AssetUploadError struct {
	Name string
	Err  error
}

func (e *AssetUploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Name, e.Err)
}

func (e *AssetUploadError) Unwrap() error {
	return e.Err
}

package services

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
)

// MaxImageSize mirrors the server's upload limit.
const MaxImageSize = 10 << 20

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp"}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct runs the struct tags of v and folds the failures into one
// ErrValidation.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}

// ValidateImage checks a local file before upload: it must exist, fit
// MaxImageSize and be a JPEG, PNG or WebP image by content.
func ValidateImage(label, path string) error {
	if path == "" {
		return fmt.Errorf("%w: %s image is required", ErrValidation, label)
	}

	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s image: %v", ErrValidation, label, err)
	}
	if fi.IsDir() {
		return fmt.Errorf("%w: %s image %q is a directory", ErrValidation, label, path)
	}
	if fi.Size() > MaxImageSize {
		return fmt.Errorf("%w: %s image is too large (max %d MB)", ErrValidation, label, MaxImageSize>>20)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s image: %v", ErrValidation, label, err)
	}
	if !mimetype.EqualsAny(mt.String(), allowedImageTypes...) {
		return fmt.Errorf("%w: %s image must be JPEG, PNG or WebP, got %s", ErrValidation, label, mt.String())
	}
	return nil
}

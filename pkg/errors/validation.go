package errors

import (
	"math"
	"unicode"

	"github.com/google/uuid"
)

// Limits enforced by the validators.
const (
	MaxCanvas      = 10000.0
	MaxFontSize    = 500.0
	MaxLabelLength = 256
)

// ValidateDimensions checks a canvas size: both sides must be finite, positive
// and at most [MaxCanvas].
func ValidateDimensions(width, height float64) error {
	for _, d := range []struct {
		name string
		v    float64
	}{{"width", width}, {"height", height}} {
		switch {
		case math.IsNaN(d.v) || math.IsInf(d.v, 0):
			return New(ErrCodeInvalidOptions, "%s must be a finite number", d.name)
		case d.v <= 0:
			return New(ErrCodeInvalidOptions, "%s must be positive, got %g", d.name, d.v)
		case d.v > MaxCanvas:
			return New(ErrCodeInvalidOptions, "%s too large (max %g)", d.name, MaxCanvas)
		}
	}
	return nil
}

// ValidateFontSize checks a label font size.
func ValidateFontSize(size float64) error {
	if math.IsNaN(size) || size <= 0 || size > MaxFontSize {
		return New(ErrCodeInvalidOptions, "font size must be in (0, %g], got %g", MaxFontSize, size)
	}
	return nil
}

// ValidateID checks that id is a UUID as issued by the tree store.
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "id cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return Wrap(ErrCodeInvalidID, err, "invalid id %q", id)
	}
	return nil
}

// ValidateLabel checks a node label or record name: at most
// [MaxLabelLength] bytes and free of control characters.
func ValidateLabel(label string) error {
	if len(label) > MaxLabelLength {
		return New(ErrCodeInvalidInput, "label too long (max %d characters)", MaxLabelLength)
	}
	for _, r := range label {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "label contains invalid control characters")
		}
	}
	return nil
}

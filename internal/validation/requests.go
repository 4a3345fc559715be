package validation

import (
	"github.com/hyperengineering/reel/internal/types"
)

const (
	MaxEmailLength       = 254
	MinPasswordLength    = 6
	MaxPasswordBytes     = 72
	MaxVideoPathLength   = 1024
	MaxCategoryLength    = 255
	MaxInteractionLength = 64
)

// ValidateCredentials checks a register or login body.
func ValidateCredentials(req types.CredentialsRequest) []ValidationError {
	var c Collector

	if err := ValidateRequired("email", req.Email); err != nil {
		c.Add(err)
	} else {
		c.Add(ValidateMaxLength("email", req.Email, MaxEmailLength))
		c.Add(ValidateEmail("email", req.Email))
	}

	if err := ValidateRequired("password", req.Password); err != nil {
		c.Add(err)
	} else {
		c.Add(ValidateNoNullBytes("password", req.Password))
		c.Add(ValidateMaxBytes("password", req.Password, MaxPasswordBytes))
	}

	return c.Errors()
}

// ValidateRegistration checks a register body. It adds the password length
// floor on top of ValidateCredentials; login accepts whatever was stored.
func ValidateRegistration(req types.CredentialsRequest) []ValidationError {
	errs := ValidateCredentials(req)
	if req.Password != "" {
		if err := ValidateMinLength("password", req.Password, MinPasswordLength); err != nil {
			errs = append(errs, *err)
		}
	}
	return errs
}

// ValidateInteractRequest checks a feedback body. The interaction type is
// not restricted to known values; unknown types are recorded with no score
// change.
func ValidateInteractRequest(req types.InteractRequest) []ValidationError {
	var c Collector

	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"video_path", req.VideoPath, MaxVideoPathLength},
		{"category", req.Category, MaxCategoryLength},
		{"interaction_type", string(req.InteractionType), MaxInteractionLength},
	}
	for _, f := range fields {
		if err := ValidateRequired(f.name, f.value); err != nil {
			c.Add(err)
			continue
		}
		c.Add(ValidateUTF8(f.name, f.value))
		c.Add(ValidateNoNullBytes(f.name, f.value))
		c.Add(ValidateMaxLength(f.name, f.value, f.max))
	}

	return c.Errors()
}

// ValidateCategoryName checks a category name supplied by a client.
func ValidateCategoryName(field, name string) []ValidationError {
	var c Collector
	c.Add(ValidateUTF8(field, name))
	c.Add(ValidateNoNullBytes(field, name))
	c.Add(ValidateMaxLength(field, name, MaxCategoryLength))
	c.Add(ValidateNoPathTraversal(field, name))
	return c.Errors()
}

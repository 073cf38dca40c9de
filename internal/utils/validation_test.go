package contextutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	// Test valid emails
	assert.True(t, IsValidEmail("user@example.com"))
	assert.True(t, IsValidEmail("user.name@example.com"))
	assert.True(t, IsValidEmail("user+tag@example.com"))
	assert.True(t, IsValidEmail("user@example.co.uk"))
	assert.True(t, IsValidEmail("user@subdomain.example.com"))

	// Test invalid emails
	assert.False(t, IsValidEmail(""))
	assert.False(t, IsValidEmail("invalid-email"))
	assert.False(t, IsValidEmail("@example.com"))
	assert.False(t, IsValidEmail("user@"))
	assert.False(t, IsValidEmail("user@.com"))
	assert.False(t, IsValidEmail("user@example"))
	assert.False(t, IsValidEmail("user@example."))
	assert.False(t, IsValidEmail("user name@example.com"))

	assert.False(t, IsValidEmail("user@example..com"))
}

type sampleInput struct {
	Title    string `validate:"required,max=10"`
	Score    int    `validate:"min=1,max=10"`
	Priority string `validate:"oneof=low medium high"`
	Email    string `validate:"omitempty,email"`
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, ValidateStruct(sampleInput{Title: "ok", Score: 5, Priority: "low"}))

	err := ValidateStruct(sampleInput{Score: 11, Priority: "urgent", Email: "nope"})
	assert.Error(t, err)
	assert.Equal(t, ErrorCodeValidationFailed, GetErrorCode(err))

	var appErr *AppError
	assert.True(t, AsError(err, &appErr))
	assert.Contains(t, appErr.Details, "Title is required")
	assert.Contains(t, appErr.Details, "Score must be at most 10")
	assert.Contains(t, appErr.Details, "Priority must be one of [low medium high]")
	assert.Contains(t, appErr.Details, "Email must be a valid email address")
}

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/yourusername/accounts-api/internal/pkg/errors"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name       string
		password   string
		userInputs []string
		wantErr    string
	}{
		{
			name:     "accepts a strong password",
			password: "Str0ng!horse",
		},
		{
			name:     "rejects short password",
			password: "Ab1!xyz",
			wantErr:  "at least 8 characters",
		},
		{
			name:     "rejects entirely numeric password",
			password: "73829105846",
			wantErr:  "entirely numeric",
		},
		{
			name:     "rejects common password",
			password: "password123",
			wantErr:  "too common",
		},
		{
			name:     "common password check is case-insensitive",
			password: "QwErTy123",
			wantErr:  "too common",
		},
		{
			name:       "rejects password containing email local part",
			password:   "jane.doe2024!",
			userInputs: []string{"jane.doe@example.com"},
			wantErr:    "too similar",
		},
		{
			name:       "rejects password contained in a name",
			password:   "annabelle",
			userInputs: []string{"Annabelle-Lee Smith"},
			wantErr:    "too similar",
		},
		{
			name:       "short attributes are not compared",
			password:   "abcdefg1!",
			userInputs: []string{"abc"},
		},
		{
			name:       "unrelated attributes pass",
			password:   "Str0ng!horse",
			userInputs: []string{"jane.doe@example.com", "Jane", "Doe"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password, tt.userInputs...)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

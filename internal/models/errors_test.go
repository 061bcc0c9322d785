package models_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TheMichaelB/filedeck/internal/models"
)

func TestMutationError(t *testing.T) {
	tests := []struct {
		name string
		err  *models.MutationError
		want string
	}{
		{
			name: "with target",
			err: &models.MutationError{
				Op:       "rename folder",
				TargetID: 7,
				Err:      errors.New("name taken"),
			},
			want: "rename folder 7: name taken",
		},
		{
			name: "without target",
			err: &models.MutationError{
				Op:  "create folder",
				Err: errors.New("connection timeout"),
			},
			want: "create folder: connection timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAPIError(t *testing.T) {
	err := &models.APIError{
		Code:       models.ErrCodeNotFound,
		Message:    "Folder not found",
		StatusCode: 404,
	}

	assert.Equal(t, "API error 404 (NOT_FOUND): Folder not found", err.Error())
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, fmt.Errorf("load: %w", err), models.ErrNotFound)

	conflict := &models.APIError{Code: models.ErrCodeConflict, StatusCode: 409}
	assert.NotErrorIs(t, conflict, models.ErrNotFound)
}

func TestCodeForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{404, models.ErrCodeNotFound},
		{401, models.ErrCodeAuth},
		{403, models.ErrCodeAuth},
		{409, models.ErrCodeConflict},
		{429, models.ErrCodeRateLimit},
		{502, models.ErrCodeServerError},
		{400, models.ErrCodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, models.CodeForStatus(tt.status))
		})
	}
}

func TestUserMessage(t *testing.T) {
	apiErr := &models.APIError{StatusCode: 400, Message: "Cannot move a folder into itself"}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"backend message", apiErr, "Cannot move a folder into itself"},
		{"wrapped backend message", fmt.Errorf("move folder: %w", apiErr), "Cannot move a folder into itself"},
		{"mutation wrapper", &models.MutationError{Op: "move folder", Err: apiErr}, "Cannot move a folder into itself"},
		{"plain error", errors.New("dial tcp: connection refused"), "dial tcp: connection refused"},
		{"empty api message", &models.APIError{StatusCode: 500}, "API error 500 (): "},
		{"nil", nil, "Unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, models.UserMessage(tt.err))
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	err := &models.MutationError{Op: "create folder", Err: models.ErrInvalidTarget}
	assert.True(t, errors.Is(err, models.ErrInvalidTarget))
}

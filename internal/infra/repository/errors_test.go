package repository

import (
	"fmt"
	"testing"

	repo "haritsattva/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil))
	assert.ErrorIs(t, translateError(gorm.ErrRecordNotFound), repo.ErrNotFound)
	assert.ErrorIs(t, translateError(gorm.ErrDuplicatedKey), repo.ErrConflict)

	wrapped := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	assert.ErrorIs(t, translateError(wrapped), repo.ErrConflict)

	other := errors.New("connection refused")
	got := translateError(other)
	assert.ErrorIs(t, got, other)
	assert.NotErrorIs(t, got, repo.ErrNotFound)
}

// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

package auth

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	duplicate := &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "account_username_unique"}

	assert.True(t, isUniqueViolation(duplicate))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert failed: %w", duplicate)))

	assert.False(t, isUniqueViolation(nil))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(fmt.Errorf("plain failure")))
}

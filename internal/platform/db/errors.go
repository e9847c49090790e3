package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/medirx/medirx/internal/platform/apperr"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// TranslatePG maps driver errors onto the apperr sentinels so services never
// see pgx types. Other errors are wrapped with op.
func TranslatePG(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%s: %s: %w", op, pgErr.ConstraintName, apperr.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// TranslateMongo is the MongoDB counterpart of TranslatePG.
func TranslateMongo(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, apperr.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

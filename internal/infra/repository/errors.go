package repository

import (
	"errors"

	repo "ecshop/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation           = "23505"
	pgInvalidTextRepresentation = "22P02"
)

// PostgreSQL/gormのエラーをrepositoryのエラーにそろえる
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repo.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repo.ErrConflict
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return repo.ErrConflict
		case pgInvalidTextRepresentation:
			// uuidとして読めないIDは存在しない扱い
			return repo.ErrNotFound
		}
	}
	return err
}

package usecase

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

const (
	msgInternal         = "Server error, please try again later."
	msgValidationFailed = "Validation failed"
	msgForbiddenRole    = "Access denied: insufficient permissions"
	msgUnauthorized     = "Unauthorized"
)

type HTTPError struct {
	Status  int
	Message string
	// 入力エラーの一覧（400のとき）
	Details []string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func NewValidationError(details []string) error {
	return &HTTPError{
		Status:  http.StatusBadRequest,
		Message: msgValidationFailed,
		Details: details,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// 想定外の失敗はログだけ詳しく、返すのは500固定
func internalError(log *zerolog.Logger, err error, op string) error {
	log.Error().Err(err).Str("op", op).Msg("downstream failure")
	return NewHTTPError(http.StatusInternalServerError, msgInternal)
}

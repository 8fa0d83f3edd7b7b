package usecase

import (
	"errors"
	"fmt"
	"net/http"

	repo "haritsattva/internal/repository"
)

// usecaseが返すエラー。handlerはStatusとMessageをそのまま返す
type HTTPError struct {
	Status  int
	Message string
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

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// repositoryのエラーを寄せる。ErrNotFound だけ404、それ以外は500
func fromRepo(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return NewHTTPError(http.StatusNotFound, "not found")
	default:
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
}

func requireActor(userID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return nil
}

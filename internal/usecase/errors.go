package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

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

// よく使う失敗
func errDB() error {
	return NewHTTPError(http.StatusInternalServerError, "db error")
}

func errRail() error {
	return NewHTTPError(http.StatusBadGateway, "payment provider error")
}

func errOrderNotFound() error {
	return NewHTTPError(http.StatusNotFound, "Order not found")
}

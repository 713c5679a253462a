package hue

import (
	"fmt"

	"github.com/amimof/huego"
	"github.com/pkg/errors"
)

var (
	ErrNotFound    = errors.New("resource not found")
	ErrBreakerOpen = errors.New("bridge circuit breaker is open")
)

// bridge error types, see the Hue API error list
const (
	API_ERROR_UNAUTHORIZED       = 1
	API_ERROR_NOT_AVAILABLE      = 3
	API_ERROR_PARAMETER_READONLY = 8
	API_ERROR_DEVICE_OFF         = 201
)

// APIError is an error reported by the bridge in a response body.
type APIError struct {
	Type        int
	Address     string
	Description string
}

func newAPIError(typ int, address, description string) *APIError {
	return &APIError{Type: typ, Address: address, Description: description}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bridge error %d at %s: %s", e.Type, e.Address, e.Description)
}

func (e *APIError) Unwrap() error {
	if e.Type == API_ERROR_NOT_AVAILABLE {
		return ErrNotFound
	}
	return nil
}

func fromHuegoError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *huego.APIError
	if errors.As(err, &apiErr) {
		return newAPIError(apiErr.Type, apiErr.Address, apiErr.Description)
	}
	return err
}

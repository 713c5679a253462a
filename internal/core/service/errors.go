package service

import "github.com/pkg/errors"

var (
	ErrInvalidValue  = errors.New("invalid value")
	ErrUnknownEntity = errors.New("unknown characteristic")
)

func invalidValue(v any) error {
	return errors.Wrapf(ErrInvalidValue, "%v", v)
}

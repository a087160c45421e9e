package apperrors

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrUnsupportedProvider = errors.New("unsupported AI provider")
	ErrUnsupportedStrategy = errors.New("unsupported generation strategy")
	ErrUnsupportedStore    = errors.New("unsupported datasource type")
	ErrRecordInvalid       = errors.New("record invalid")
	ErrNoColumns           = errors.New("table has no columns")
	ErrInvalidIdentifier   = errors.New("invalid identifier")
)

package domain

import "errors"

var (
	ErrMissingAPIKey   = errors.New("missing api key")
	ErrEmptyPrompt     = errors.New("prompt is required")
	ErrUnknownModel    = errors.New("unknown model")
	ErrUnknownProvider = errors.New("unknown provider")
)

package service

import "errors"

var (
	ErrInvalidSort         = errors.New("sort must be one of: timestamp, title")
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrUnsupportedFormat   = errors.New("format must be one of: ndjson, json")
	ErrSettingsUnavailable = errors.New("could not load font settings")
)

package settings

import "errors"

var (
	ErrSettingsNotFound   = errors.New("settings not found")
	ErrInvalidTemperature = errors.New("temperature must be between 0 and 2")
	ErrInvalidMaxTokens   = errors.New("max_tokens must be between 1 and 32768")
	ErrInvalidThreshold   = errors.New("confidence_threshold must be between 0 and 1")
)

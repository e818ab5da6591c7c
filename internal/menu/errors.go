package menu

import "errors"

var (
	ErrMissingImage       = errors.New("no menu image provided")
	ErrMissingPreferences = errors.New("no dietary preferences provided")
	ErrUploadTooLarge     = errors.New("upload too large")
)

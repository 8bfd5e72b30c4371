package service

import "errors"

// ErrInvalidInput marks requests rejected before touching the store.
var ErrInvalidInput = errors.New("invalid input")

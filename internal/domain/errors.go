package domain

import "errors"

var ErrNotFound = errors.New("not found")
var ErrInvalidInput = errors.New("invalid input")
var ErrCatalog = errors.New("catalog request failed")
var ErrStore = errors.New("search store unavailable")

package rag

import "errors"

// ErrInvalidInput is wrapped by every error caused by a malformed label
// volume or an unsupported connectivity value.
var ErrInvalidInput = errors.New("invalid input")

package store

import "errors"

var errNotInitialized = errors.New("store: call log not initialized")

package mirror

import "errors"

// ErrNotMirrored is returned when a kind has never been mirrored.
var ErrNotMirrored = errors.New("collection not mirrored")

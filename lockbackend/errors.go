package lockbackend

import "errors"

// ErrUnknownBackend is returned when the configured lock backend does not exist.
var ErrUnknownBackend = errors.New("unknown lock backend")

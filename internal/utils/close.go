package utils

import (
	"io"
)

// DrainClose discards up to limit unread bytes then closes rc, so the
// underlying keep-alive connection can be reused.
func DrainClose(rc io.ReadCloser, limit int64) {
	_, _ = io.CopyN(io.Discard, rc, limit)
	_ = rc.Close()
}

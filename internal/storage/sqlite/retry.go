package sqlite

import (
	"strings"
	"time"
)

// retryWithExponentialBackoff retries fn a few times when sqlite reports
// SQLITE_BUSY / "database is locked", which can happen transiently even
// with a single writer connection under WAL checkpoint pressure.
func retryWithExponentialBackoff(fn func() error) error {
	const maxAttempts = 5
	delay := 10 * time.Millisecond

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !isBusyError(err) {
			return err
		}
		time.Sleep(delay)
		delay *= 2
	}
	return err
}

func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "sqlite_busy") || strings.Contains(msg, "database is locked")
}

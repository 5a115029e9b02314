package assistant

import (
	"errors"
	"fmt"
)

// ErrNotConfigured means the assistant credentials are absent; callers fail
// fast before any session work begins.
var ErrNotConfigured = errors.New("assistant not configured")

// TurnFailedError reports a run that reached a terminal state other than
// completed. No partial output accompanies it.
type TurnFailedError struct {
	Status string
}

func (e *TurnFailedError) Error() string {
	return fmt.Sprintf("run ended with status %s", e.Status)
}

// IsTurnFailed reports whether err is a TurnFailedError.
func IsTurnFailed(err error) bool {
	var tf *TurnFailedError
	return errors.As(err, &tf)
}

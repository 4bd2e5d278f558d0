package lock

import "errors"

// ErrLockTimeout is returned when a player's previous command is still running.
var ErrLockTimeout = errors.New("lock acquisition timeout")

package cache

import "errors"

// ErrLockNotAcquired is returned when the distributed lock could not be taken.
var ErrLockNotAcquired = errors.New("distributed lock not acquired")

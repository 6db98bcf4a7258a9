// errors.go
package mediagate

import "errors"

var (
	ErrInvalidConfig    = errors.New("invalid gateway configuration")
	ErrUnknownCategory  = errors.New("unknown cache category")
	ErrUnknownQueryType = errors.New("unknown query type")
	ErrNotFound         = errors.New("snapshot not found")
	ErrCorruptSnapshot  = errors.New("corrupt cache snapshot")
	ErrSchedulerClosed  = errors.New("scheduler closed")
	ErrStoreUnavailable = errors.New("snapshot store unavailable")
	ErrCacheUnavailable = errors.New("cache unavailable")
)

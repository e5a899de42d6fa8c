package location

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/location/dto"
)

type UseCase interface {
	Relocate(ctx context.Context, input *dto.RelocateInput) (int, error)
}

// Locker is an advisory lock keyed by string, held by the owner of value.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

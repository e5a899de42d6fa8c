package authz

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"go.uber.org/zap"
)

// Resources and actions checked by the core before any mutation.
const (
	ResourceItems     = "items"
	ResourceOrders    = "orders"
	ResourceRefunds   = "refunds"
	ResourceLocations = "locations"
	ResourceProducts  = "products"

	ActionCreate = "create"
	ActionUpdate = "update"
)

// Checker answers whether an actor may perform action on resource.
type Checker interface {
	HasPermission(ctx context.Context, actorID, resource, action string) (bool, error)
}

type CheckerFunc func(ctx context.Context, actorID, resource, action string) (bool, error)

func (f CheckerFunc) HasPermission(ctx context.Context, actorID, resource, action string) (bool, error) {
	return f(ctx, actorID, resource, action)
}

// Guard turns permission answers into errors and fails closed when the checker errors.
type Guard struct {
	checker Checker
	logger  logger.ZapLogger
}

func NewGuard(checker Checker, log logger.ZapLogger) *Guard {
	return &Guard{checker: checker, logger: log}
}

func (g *Guard) Require(ctx context.Context, actorID, resource, action string) error {
	const op = "authz.Require"

	if actorID == "" {
		return apperr.Unauthorized(op, "missing actor")
	}

	ok, err := g.checker.HasPermission(ctx, actorID, resource, action)
	if err != nil {
		g.logger.Warn("permission check failed, denying",
			zap.String("actor_id", actorID),
			zap.String("resource", resource),
			zap.String("action", action),
			zap.Error(err),
		)
		return apperr.Wrap(apperr.KindUnauthorized, op, err)
	}
	if !ok {
		return apperr.Unauthorized(op, "actor %s may not %s %s", actorID, action, resource)
	}
	return nil
}

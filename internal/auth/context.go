package auth

import (
	"context"

	"google.golang.org/grpc/metadata"
)

// ActorHeader carries the authenticated user id, set by the gateway in front of this service.
const ActorHeader = "x-user-id"

// GetActorID returns the acting user from incoming metadata.
func GetActorID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		if val := md.Get(ActorHeader); len(val) > 0 {
			return val[0]
		}
	}
	return ""
}

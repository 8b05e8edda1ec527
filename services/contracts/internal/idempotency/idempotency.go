// Package idempotency replays previously recorded responses for mutating
// endpoints so a retried submission cannot apply twice.
package idempotency

import "context"

// Actor identifies the caller and its idempotency key for one request.
type Actor struct {
	ActorID        string
	IdempotencyKey string
}

type Store interface {
	GetIdempotencyRecord(ctx context.Context, actorID, idempotencyKey, endpoint string) (int, map[string]any, bool, error)
	SaveIdempotencyRecord(ctx context.Context, actorID, idempotencyKey, endpoint string, responseStatus int, responseBody map[string]any) error
}

// Replay returns the recorded response for this actor/key/endpoint, if any.
// An empty key disables replay.
func Replay(ctx context.Context, st Store, actor Actor, endpoint string) (int, map[string]any, bool, error) {
	if actor.IdempotencyKey == "" {
		return 0, nil, false, nil
	}
	return st.GetIdempotencyRecord(ctx, actor.ActorID, actor.IdempotencyKey, endpoint)
}

// Save records the response for later replay. An empty key is a no-op.
func Save(ctx context.Context, st Store, actor Actor, endpoint string, status int, response map[string]any) error {
	if actor.IdempotencyKey == "" {
		return nil
	}
	return st.SaveIdempotencyRecord(ctx, actor.ActorID, actor.IdempotencyKey, endpoint, status, response)
}

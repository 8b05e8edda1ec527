package idempotency

import (
	"context"
	"testing"
)

type fakeStore struct {
	records map[string]record
}

type record struct {
	status int
	body   map[string]any
}

func (f *fakeStore) key(actorID, key, endpoint string) string { return actorID + "|" + key + "|" + endpoint }

func (f *fakeStore) GetIdempotencyRecord(_ context.Context, actorID, key, endpoint string) (int, map[string]any, bool, error) {
	r, ok := f.records[f.key(actorID, key, endpoint)]
	if !ok {
		return 0, nil, false, nil
	}
	return r.status, r.body, true, nil
}

func (f *fakeStore) SaveIdempotencyRecord(_ context.Context, actorID, key, endpoint string, status int, body map[string]any) error {
	f.records[f.key(actorID, key, endpoint)] = record{status: status, body: body}
	return nil
}

func TestReplayRoundTrip(t *testing.T) {
	st := &fakeStore{records: map[string]record{}}
	actor := Actor{ActorID: "act_1", IdempotencyKey: "k1"}
	ctx := context.Background()

	if _, _, found, err := Replay(ctx, st, actor, "sign"); err != nil || found {
		t.Fatalf("fresh key should not replay: found=%v err=%v", found, err)
	}
	if err := Save(ctx, st, actor, "sign", 201, map[string]any{"ok": true}); err != nil {
		t.Fatalf("save: %v", err)
	}
	status, body, found, err := Replay(ctx, st, actor, "sign")
	if err != nil || !found || status != 201 || body["ok"] != true {
		t.Fatalf("replay mismatch: %d %v %v %v", status, body, found, err)
	}
	// Same key, different endpoint: no replay.
	if _, _, found, _ := Replay(ctx, st, actor, "prepare"); found {
		t.Fatal("replay must be scoped per endpoint")
	}
}

func TestEmptyKeyIsDisabled(t *testing.T) {
	st := &fakeStore{records: map[string]record{}}
	actor := Actor{ActorID: "act_1"}
	ctx := context.Background()
	if err := Save(ctx, st, actor, "sign", 200, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(st.records) != 0 {
		t.Fatal("empty key must not be recorded")
	}
}

package ctxutil

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestGettersOnEmptyContext(t *testing.T) {
	ctx := context.Background()
	if GetRequestData(ctx) != nil || GetTraceData(ctx) != nil {
		t.Fatalf("expected nil data on empty context")
	}
	if kv := LogFields(ctx); len(kv) != 0 {
		t.Fatalf("expected no log fields, got %v", kv)
	}
}

func TestLogFields(t *testing.T) {
	uid := primitive.NewObjectID()
	ctx := WithTraceData(context.Background(), &TraceData{TraceID: "t1", RequestID: "r1"})
	ctx = WithRequestData(ctx, &RequestData{UserID: uid, Role: "admin"})

	got := LogFields(ctx)
	want := []interface{}{"trace_id", "t1", "request_id", "r1", "user_id", uid.Hex(), "role", "admin"}
	if len(got) != len(want) {
		t.Fatalf("LogFields = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("LogFields[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLogFieldsSkipsAnonymousCaller(t *testing.T) {
	ctx := WithRequestData(context.Background(), &RequestData{})
	if kv := LogFields(ctx); len(kv) != 0 {
		t.Fatalf("expected no fields for anonymous caller, got %v", kv)
	}
}

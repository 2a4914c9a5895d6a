// Package ctxutil carries per-request identity through context.Context.
package ctxutil

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type (
	requestDataKey struct{}
	traceDataKey   struct{}
)

// RequestData is the authenticated caller attached by the auth middleware.
type RequestData struct {
	TokenString string
	UserID      primitive.ObjectID
	Role        string
}

// TraceData correlates a request across logs, responses and spans.
type TraceData struct {
	TraceID   string
	RequestID string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

// LogFields returns the trace, request and caller ids in ctx as logger key/value pairs.
// user_id is hashed by the logger.
func LogFields(ctx context.Context) []interface{} {
	var kv []interface{}
	if td := GetTraceData(ctx); td != nil {
		if td.TraceID != "" {
			kv = append(kv, "trace_id", td.TraceID)
		}
		if td.RequestID != "" {
			kv = append(kv, "request_id", td.RequestID)
		}
	}
	if rd := GetRequestData(ctx); rd != nil && !rd.UserID.IsZero() {
		kv = append(kv, "user_id", rd.UserID.Hex())
		if rd.Role != "" {
			kv = append(kv, "role", rd.Role)
		}
	}
	return kv
}

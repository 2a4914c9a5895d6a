package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/neocube/neocube-backend/internal/platform/ctxutil"
)

func TestAttachTraceContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		requestID   string
		traceID     string
		wantReqID   string
		wantTraceID string
	}{
		{name: "generated", wantReqID: "", wantTraceID: ""},
		{name: "client ids kept", requestID: "req-1", traceID: "trace-1", wantReqID: "req-1", wantTraceID: "trace-1"},
		{name: "oversized id replaced", requestID: strings.Repeat("a", 200), wantReqID: ""},
		{name: "non printable replaced", requestID: "bad id", wantReqID: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *ctxutil.TraceData
			r := gin.New()
			r.Use(AttachTraceContext())
			r.GET("/", func(c *gin.Context) {
				seen = ctxutil.GetTraceData(c.Request.Context())
				c.Status(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.requestID != "" {
				req.Header.Set(headerRequestID, tt.requestID)
			}
			if tt.traceID != "" {
				req.Header.Set(headerTraceID, tt.traceID)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if seen == nil {
				t.Fatalf("trace data not attached")
			}
			if got := w.Header().Get(headerRequestID); got != seen.RequestID || got == "" {
				t.Fatalf("request id header %q vs context %q", got, seen.RequestID)
			}
			if got := w.Header().Get(headerTraceID); got != seen.TraceID || got == "" {
				t.Fatalf("trace id header %q vs context %q", got, seen.TraceID)
			}
			if tt.wantReqID != "" && seen.RequestID != tt.wantReqID {
				t.Fatalf("request id = %q, want %q", seen.RequestID, tt.wantReqID)
			}
			if tt.wantReqID == "" && seen.RequestID == tt.requestID {
				t.Fatalf("expected a generated request id, kept %q", seen.RequestID)
			}
			if tt.wantTraceID != "" && seen.TraceID != tt.wantTraceID {
				t.Fatalf("trace id = %q, want %q", seen.TraceID, tt.wantTraceID)
			}
		})
	}
}

package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/garyellow/uonline/internal/ctxutil"
)

func TestTracingHandler_Handle(t *testing.T) {
	tests := []struct {
		name           string
		setupContext   func(context.Context) context.Context
		expectedFields map[string]string
		absentFields   []string
	}{
		{
			name: "extracts all context values",
			setupContext: func(ctx context.Context) context.Context {
				ctx = ctxutil.WithRequestID(ctx, "req-abc-123")
				return ctxutil.WithClientIP(ctx, "10.1.2.3")
			},
			expectedFields: map[string]string{
				"request_id": "req-abc-123",
				"client_ip":  "10.1.2.3",
			},
		},
		{
			name: "extracts partial context values",
			setupContext: func(ctx context.Context) context.Context {
				return ctxutil.WithRequestID(ctx, "req-only")
			},
			expectedFields: map[string]string{"request_id": "req-only"},
			absentFields:   []string{"client_ip"},
		},
		{
			name:         "handles empty context",
			setupContext: func(ctx context.Context) context.Context { return ctx },
			absentFields: []string{"request_id", "client_ip"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := NewTracingHandler(slog.NewJSONHandler(&buf, nil))
			slog.New(handler).InfoContext(tt.setupContext(context.Background()), "test message")

			output := buf.String()
			for key, value := range tt.expectedFields {
				want := `"` + key + `":"` + value + `"`
				if !strings.Contains(output, want) {
					t.Errorf("expected %s in output, got %s", want, output)
				}
			}
			for _, key := range tt.absentFields {
				if strings.Contains(output, `"`+key+`"`) {
					t.Errorf("did not expect %s in output, got %s", key, output)
				}
			}
		})
	}
}

func TestTracingHandler_Enabled(t *testing.T) {
	handler := NewTracingHandler(slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}))

	if handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled when the wrapped handler is at warn")
	}
	if !handler.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled when the wrapped handler is at warn")
	}
}

func TestTracingHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	handler := NewTracingHandler(slog.NewJSONHandler(&buf, nil))

	withAttrs := handler.WithAttrs([]slog.Attr{slog.String("module", "api")})
	if _, ok := withAttrs.(*TracingHandler); !ok {
		t.Fatalf("WithAttrs returned %T, want *TracingHandler", withAttrs)
	}
	withGroup := withAttrs.WithGroup("req")
	if _, ok := withGroup.(*TracingHandler); !ok {
		t.Fatalf("WithGroup returned %T, want *TracingHandler", withGroup)
	}

	ctx := ctxutil.WithRequestID(context.Background(), "req-9")
	slog.New(withGroup).InfoContext(ctx, "grouped", "path", "/records")

	output := buf.String()
	for _, want := range []string{`"module":"api"`, `"req":{`, `"path":"/records"`, `"request_id":"req-9"`} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output, got %s", want, output)
		}
	}
}

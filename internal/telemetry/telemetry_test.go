package telemetry

import (
	"context"
	"errors"
	"testing"
)

func TestNewProviderNoOpWithoutEndpoint(t *testing.T) {
	p, err := NewProvider(context.Background(), "", "dcmtkctl")
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown on no-op provider should be safe, got %v", err)
	}
}

func TestStartProcessSpanAndEndSpanDoNotPanic(t *testing.T) {
	ctx, span := StartProcessSpan(context.Background(), "storescp", "corr-1")
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}
	EndSpan(span, nil)

	_, span2 := StartToolSpan(context.Background(), "echoscu", "corr-2")
	EndSpan(span2, errors.New("boom"))
}

package events

import (
	"context"
	"testing"
)

func TestSourceRoundTrip(t *testing.T) {
	ctx := ContextWithSource(context.Background(), SourceGateway)
	if got := SourceFromContext(ctx, SourceStore); got != SourceGateway {
		t.Errorf("got %q, want %q", got, SourceGateway)
	}
}

func TestSourceFromEmptyContext(t *testing.T) {
	if got := SourceFromContext(context.Background(), SourceStore); got != SourceStore {
		t.Errorf("got %q, want fallback %q", got, SourceStore)
	}
}

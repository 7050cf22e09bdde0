package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfWrapped(t *testing.T) {
	base := Conflict("watchlist %q already exists", "Tech")
	wrapped := fmt.Errorf("create watchlist: %w", base)
	if got := KindOf(wrapped); got != KindConflict {
		t.Fatalf("expected conflict got %v", got)
	}
	if !Is(wrapped, KindConflict) {
		t.Fatalf("Is should see through fmt wrapping")
	}
	if KindOf(errors.New("boom")) != KindInternal {
		t.Fatalf("plain errors must be internal")
	}
	if Is(nil, KindInternal) {
		t.Fatalf("nil is not an error of any kind")
	}
}

func TestUpstreamKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Upstream(cause, "failed to retrieve news")
	if err.Error() != "failed to retrieve news: dial tcp: connection refused" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause should be reachable through Unwrap")
	}
	if err.Kind.String() != "upstream_unavailable" {
		t.Fatalf("unexpected kind string %q", err.Kind.String())
	}
}

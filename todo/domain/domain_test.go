package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestKindOf_FindsWrappedError(t *testing.T) {
	err := fmt.Errorf("handler: %w", E(KindNotFound, "todo.get", ErrNotFound))

	if got := KindOf(err); got != KindNotFound {
		t.Fatalf("expected KindNotFound, got %s", got)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected errors.Is to reach ErrNotFound")
	}
}

func TestKindOf_UnknownForPlainErrors(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != KindUnknown {
		t.Fatalf("expected KindUnknown, got %s", got)
	}
}

func TestError_MessageIncludesOp(t *testing.T) {
	err := E(KindPool, "pool.acquire", ErrPoolExhausted)
	if got := err.Error(); got != "pool.acquire: connection pool exhausted" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestTimestamp_FormatParseKeepsOffset(t *testing.T) {
	zone := time.FixedZone("BRT", -3*60*60)
	ts := TimestampOf(time.Date(2024, 5, 17, 10, 30, 0, 123456789, zone))

	got, err := ParseTimestamp(ts.Format())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Time.Equal(ts.Time) {
		t.Fatalf("expected %s, got %s", ts.Time, got.Time)
	}
	if _, offset := got.Time.Zone(); offset != -3*60*60 {
		t.Fatalf("expected offset -10800, got %d", offset)
	}
}

func TestTimestamp_InvalidFormatsEmpty(t *testing.T) {
	if got := (Timestamp{}).Format(); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestParseTimestamp_RejectsGarbage(t *testing.T) {
	if _, err := ParseTimestamp("ontem à tarde"); err == nil {
		t.Fatalf("expected parse error")
	}
}

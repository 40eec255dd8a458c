package sqlutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

func TestTextRoundTrip(t *testing.T) {
	if got := FromPgText(ToPgText(nil)); got != nil {
		t.Fatalf("nil text should stay nil, got %q", *got)
	}
	v := "5"
	got := FromPgText(ToPgText(&v))
	if got == nil || *got != "5" {
		t.Fatalf("FromPgText(ToPgText(5)) = %v", got)
	}
}

func TestUUIDConversions(t *testing.T) {
	if got := FromPgUUID(ToNullPgUUID(nil)); got != nil {
		t.Fatalf("expected nil UUID, got %v", got)
	}
	id := uuid.New()
	got := FromPgUUID(ToNullPgUUID(&id))
	if got == nil || *got != id {
		t.Fatalf("FromPgUUID(ToNullPgUUID(%s)) = %v", id, got)
	}
}

func TestFloatAndTime(t *testing.T) {
	score := 8.0
	if got := FromPgFloat8(ToPgFloat8(&score)); got == nil || *got != 8 {
		t.Fatalf("float round trip = %v", got)
	}
	if got := FromPgFloat8(ToPgFloat8(nil)); got != nil {
		t.Fatalf("expected nil float, got %v", *got)
	}
	if !FromPgTimestamptz(pgtype.Timestamptz{}).IsZero() {
		t.Fatal("NULL timestamptz should map to zero time")
	}
	now := time.Now()
	if got := FromPgTimestamptz(pgtype.Timestamptz{Time: now, Valid: true}); !got.Equal(now) {
		t.Fatalf("got %v, want %v", got, now)
	}
}

package sqlutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Helper functions for converting between Go types and pgtype values

// ToPgText converts a Go string pointer to pgtype.Text
func ToPgText(val *string) pgtype.Text {
	if val == nil {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: *val, Valid: true}
}

// FromPgText converts pgtype.Text to a Go string pointer
func FromPgText(val pgtype.Text) *string {
	if !val.Valid {
		return nil
	}
	s := val.String
	return &s
}

// ToPgFloat8 converts a Go float pointer to pgtype.Float8
func ToPgFloat8(val *float64) pgtype.Float8 {
	if val == nil {
		return pgtype.Float8{Valid: false}
	}
	return pgtype.Float8{Float64: *val, Valid: true}
}

// FromPgFloat8 converts pgtype.Float8 to a Go float pointer
func FromPgFloat8(val pgtype.Float8) *float64 {
	if !val.Valid {
		return nil
	}
	f := val.Float64
	return &f
}

// ToPgUUID converts a Go UUID to pgtype.UUID
func ToPgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// ToNullPgUUID converts a Go UUID pointer to pgtype.UUID
func ToNullPgUUID(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{Valid: false}
	}
	return ToPgUUID(*id)
}

// FromPgUUID converts pgtype.UUID to a Go UUID pointer
func FromPgUUID(val pgtype.UUID) *uuid.UUID {
	if !val.Valid {
		return nil
	}
	id := uuid.UUID(val.Bytes)
	return &id
}

// FromPgTimestamptz converts pgtype.Timestamptz to time.Time, zero when NULL
func FromPgTimestamptz(val pgtype.Timestamptz) time.Time {
	if !val.Valid {
		return time.Time{}
	}
	return val.Time
}

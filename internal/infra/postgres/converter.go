package postgres

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/jinford/voxly/internal/core/summary"
)

// UUIDToPgtype converts uuid.UUID to pgtype.UUID
func UUIDToPgtype(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// PgtypeToUUID converts pgtype.UUID to uuid.UUID
func PgtypeToUUID(id pgtype.UUID) uuid.UUID {
	return id.Bytes
}

// StringToNullableText converts string to pgtype.Text (nullable)
func StringToNullableText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

// PgtextToStringPtr converts pgtype.Text to *string
func PgtextToStringPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

// JSONBFromStringSlice converts []string to []byte (JSONB)
func JSONBFromStringSlice(s []string) []byte {
	if s == nil {
		s = []string{}
	}
	b, _ := json.Marshal(s)
	return b
}

// StringSliceFromJSONB converts []byte (JSONB) to []string
func StringSliceFromJSONB(b []byte) []string {
	if b == nil {
		return []string{}
	}
	var s []string
	if err := json.Unmarshal(b, &s); err != nil || s == nil {
		return []string{}
	}
	return s
}

// JSONBFromActionItems converts []summary.ActionItem to []byte (JSONB)
func JSONBFromActionItems(items []summary.ActionItem) []byte {
	if items == nil {
		items = []summary.ActionItem{}
	}
	b, _ := json.Marshal(items)
	return b
}

// ActionItemsFromJSONB converts []byte (JSONB) to []summary.ActionItem
func ActionItemsFromJSONB(b []byte) []summary.ActionItem {
	if b == nil {
		return []summary.ActionItem{}
	}
	var items []summary.ActionItem
	if err := json.Unmarshal(b, &items); err != nil || items == nil {
		return []summary.ActionItem{}
	}
	return items
}

package db

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestSetAndGetSetting(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := t.Context()

	err := db.SetSettings(ctx, map[string]json.RawMessage{
		"enabled":      json.RawMessage(`true`),
		"fromCurrency": json.RawMessage(`"JPY"`),
	})
	if err != nil {
		t.Fatalf("SetSettings() error = %v", err)
	}

	got, err := db.GetSetting(ctx, "fromCurrency")
	if err != nil {
		t.Fatalf("GetSetting() error = %v", err)
	}
	if string(got) != `"JPY"` {
		t.Errorf("GetSetting() = %s, want %q", got, `"JPY"`)
	}

	// Upsert replaces the value
	if err := db.SetSettings(ctx, map[string]json.RawMessage{"fromCurrency": json.RawMessage(`"EUR"`)}); err != nil {
		t.Fatalf("SetSettings() update error = %v", err)
	}
	got, _ = db.GetSetting(ctx, "fromCurrency")
	if string(got) != `"EUR"` {
		t.Errorf("after update GetSetting() = %s, want %q", got, `"EUR"`)
	}
}

func TestGetSetting_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := db.GetSetting(t.Context(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSetting() error = %v, want ErrNotFound", err)
	}
}

func TestGetSettings(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := t.Context()

	values := map[string]json.RawMessage{
		"tariff":           json.RawMessage(`false`),
		"tariffPercentage": json.RawMessage(`12.5`),
		"allowlistUrls":    json.RawMessage(`["ebay.com"]`),
	}
	if err := db.SetSettings(ctx, values); err != nil {
		t.Fatalf("SetSettings() error = %v", err)
	}

	tests := []struct {
		name string
		keys []string
		want int
	}{
		{"all", nil, 3},
		{"subset", []string{"tariff", "allowlistUrls"}, 2},
		{"with missing", []string{"tariff", "nope"}, 1},
		{"only missing", []string{"nope"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.GetSettings(ctx, tt.keys)
			if err != nil {
				t.Fatalf("GetSettings() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("GetSettings() returned %d keys, want %d", len(got), tt.want)
			}
		})
	}
}

func TestSetSettings_InvalidJSONRollsBack(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := t.Context()

	err := db.SetSettings(ctx, map[string]json.RawMessage{
		"enabled": json.RawMessage(`true`),
		"broken":  json.RawMessage(`{nope`),
	})
	if err == nil {
		t.Fatal("SetSettings() expected error for invalid JSON")
	}

	got, err := db.GetSettings(ctx, nil)
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected rollback, found %d settings", len(got))
	}
}

func TestDeleteSetting(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := t.Context()

	_ = db.SetSettings(ctx, map[string]json.RawMessage{"enabled": json.RawMessage(`true`)})
	if err := db.DeleteSetting(ctx, "enabled"); err != nil {
		t.Fatalf("DeleteSetting() error = %v", err)
	}
	if _, err := db.GetSetting(ctx, "enabled"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSetting() after delete error = %v, want ErrNotFound", err)
	}
	if err := db.DeleteSetting(ctx, "enabled"); err != nil {
		t.Errorf("DeleteSetting() on missing key error = %v", err)
	}
}

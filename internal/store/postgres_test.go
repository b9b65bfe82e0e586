package store

import (
	"testing"
)

func TestNullIfEmpty(t *testing.T) {
	if v := nullIfEmpty(nil); v != nil {
		t.Fatalf("nil -> nil expected, got %v", v)
	}
	empty := ""
	if v := nullIfEmpty(&empty); v != nil {
		t.Fatalf("empty -> nil expected, got %v", v)
	}
	note := "signature mismatch"
	if v := nullIfEmpty(&note); v != "signature mismatch" {
		t.Fatalf("want note, got %v", v)
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	for _, name := range []string{"migrations/0001_webhook_events.sql", "migrations/0002_transactions.sql"} {
		b, err := migrationsFS.ReadFile(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(b) == 0 {
			t.Fatalf("%s is empty", name)
		}
	}
}

func TestClampLimit(t *testing.T) {
	cases := map[int]int{-1: DefaultLimit, 0: DefaultLimit, 1: 1, 20: 20, MaxLimit: MaxLimit, MaxLimit + 1: MaxLimit}
	for in, want := range cases {
		if got := clampLimit(in); got != want {
			t.Fatalf("clampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

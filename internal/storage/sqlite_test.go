package storage

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func newKVs(t *testing.T) map[string]KV {
	t.Helper()
	sqlite, err := NewSQLiteKV(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = sqlite.Close() })
	return map[string]KV{
		"sqlite": sqlite,
		"memory": NewMemoryKV(),
	}
}

func TestKVRoundTrip(t *testing.T) {
	for name, kv := range newKVs(t) {
		t.Run(name, func(t *testing.T) {
			if err := kv.Set("k", "v1"); err != nil {
				t.Fatal(err)
			}
			if err := kv.Set("k", "v2"); err != nil {
				t.Fatal(err)
			}
			got, err := kv.Get("k")
			if err != nil {
				t.Fatal(err)
			}
			if got != "v2" {
				t.Errorf("Get = %q", got)
			}
			if err := kv.Remove("k"); err != nil {
				t.Fatal(err)
			}
			if _, err := kv.Get("k"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
			// Removing an absent key is not an error.
			if err := kv.Remove("k"); err != nil {
				t.Errorf("second remove: %v", err)
			}
		})
	}
}

func TestKVKeysPrefix(t *testing.T) {
	for name, kv := range newKVs(t) {
		t.Run(name, func(t *testing.T) {
			_ = kv.Set("bookmark:doc1:b", "x")
			_ = kv.Set("bookmark:doc1:a", "x")
			_ = kv.Set("bookmark:doc2:c", "x")
			_ = kv.Set("note:doc1:n", "x")

			keys, err := kv.Keys("bookmark:doc1:")
			if err != nil {
				t.Fatal(err)
			}
			want := []string{"bookmark:doc1:a", "bookmark:doc1:b"}
			if !reflect.DeepEqual(keys, want) {
				t.Errorf("Keys = %v, want %v", keys, want)
			}
		})
	}
}

func TestKVKeysHighByteAfterPrefix(t *testing.T) {
	for name, kv := range newKVs(t) {
		t.Run(name, func(t *testing.T) {
			_ = kv.Set("p:\xffid", "x")
			_ = kv.Set("p:a", "x")
			_ = kv.Set("q:a", "x")

			keys, err := kv.Keys("p:")
			if err != nil {
				t.Fatal(err)
			}
			want := []string{"p:a", "p:\xffid"}
			if !reflect.DeepEqual(keys, want) {
				t.Errorf("Keys = %v, want %v", keys, want)
			}
		})
	}
}

func TestKeyRangeEnd(t *testing.T) {
	cases := []struct{ prefix, want string }{
		{"p:", "p;"},
		{"a\xff", "b"},
		{"\xff\xff", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := keyRangeEnd(tc.prefix); got != tc.want {
			t.Errorf("keyRangeEnd(%q) = %q, want %q", tc.prefix, got, tc.want)
		}
	}
}

func TestSQLiteKVPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	kv, err := NewSQLiteKV(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := kv.Set("progress:doc", "value"); err != nil {
		t.Fatal(err)
	}
	if err := kv.Close(); err != nil {
		t.Fatal(err)
	}

	kv2, err := NewSQLiteKV(path)
	if err != nil {
		t.Fatal(err)
	}
	defer kv2.Close()
	got, err := kv2.Get("progress:doc")
	if err != nil || got != "value" {
		t.Errorf("Get after reopen = %q, %v", got, err)
	}
}

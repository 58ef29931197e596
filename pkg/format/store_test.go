package format

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testMappingsYAML = `
categories:
  record-management:
    fields:
      name:
        label: Customer
        priority: 1
        type: text
`

func TestStore_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappings.yaml")
	if err := os.WriteFile(path, []byte(testMappingsYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := NewStoreFromFile(path)
	if err != nil {
		t.Fatalf("NewStoreFromFile: %v", err)
	}

	spec, ok := store.Mappings().Lookup(CategoryRecord, "name")
	if !ok || spec.Label != "Customer" {
		t.Fatalf("lookup = %+v, %v", spec, ok)
	}
}

func TestStore_ReloadKeepsOldOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappings.yaml")
	if err := os.WriteFile(path, []byte(testMappingsYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := NewStoreFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	before := store.Mappings()

	if err := os.WriteFile(path, []byte("categories: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := store.Reload(); err == nil {
		t.Fatal("expected reload error for invalid YAML")
	}
	if store.Mappings() != before {
		t.Error("snapshot replaced despite reload failure")
	}
}

func TestStore_WatchPicksUpEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappings.yaml")
	if err := os.WriteFile(path, []byte(testMappingsYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := NewStoreFromFile(path)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = store.Watch(ctx)
	}()

	// Give the watcher a moment to register before editing.
	time.Sleep(50 * time.Millisecond)

	edited := `
categories:
  record-management:
    fields:
      name:
        label: Client
        priority: 1
        type: text
`
	if err := os.WriteFile(path, []byte(edited), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		spec, _ := store.Mappings().Lookup(CategoryRecord, "name")
		if spec.Label == "Client" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("edit never picked up, label = %q", spec.Label)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
}

func TestStore_NoBackingFile(t *testing.T) {
	store := NewStore()
	if err := store.Reload(); err == nil {
		t.Error("Reload without backing file should fail")
	}
	if err := store.Watch(context.Background()); err == nil {
		t.Error("Watch without backing file should fail")
	}
	if _, ok := store.Mappings().Lookup(CategoryRecord, "name"); !ok {
		t.Error("default mappings missing")
	}
}

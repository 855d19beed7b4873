package state

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/dgraph-io/badger/v3"
	"github.com/goccy/go-json"

	"github.com/evanofslack/zone-update/internal/metrics"
	"github.com/evanofslack/zone-update/provider"
)

func tempDB(t *testing.T) string {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "badger-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })
	return filepath.Join(tempDir, "badger")
}

func TestBadgerManager(t *testing.T) {
	manager, err := New(tempDB(t), metrics.New(false))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	defer manager.Close()

	www := Key{Host: "www", Type: provider.A}
	acme := Key{Host: "_acme-challenge", Type: provider.TXT}

	tests := []struct {
		name  string
		state State
	}{
		{
			name:  "empty state",
			state: NewState(),
		},
		{
			name: "single record",
			state: State{Records: map[Key]Entry{
				www: {Value: "10.0.0.1", Owner: "edge", LastSeen: 100},
			}},
		},
		{
			name: "multiple records",
			state: State{Records: map[Key]Entry{
				www:  {Value: "10.0.0.1", Owner: "edge", LastSeen: 100},
				acme: {Value: `"token"`, Owner: "edge", RunID: "run-1", LastSeen: 101},
			}},
		},
		{
			name: "remove record",
			state: State{Records: map[Key]Entry{
				acme: {Value: `"token"`, Owner: "edge", RunID: "run-1", LastSeen: 101},
			}},
		},
		{
			name: "update record",
			state: State{Records: map[Key]Entry{
				acme: {Value: `"rotated"`, Owner: "edge", RunID: "run-2", LastSeen: 102},
			}},
		},
		{
			name:  "clear all records",
			state: NewState(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if err := manager.SaveState(ctx, tt.state); err != nil {
				t.Fatalf("SaveState failed: %v", err)
			}

			loaded, err := manager.LoadState(ctx)
			if err != nil {
				t.Fatalf("LoadState failed: %v", err)
			}
			if !reflect.DeepEqual(loaded, tt.state) {
				t.Errorf("Expected %+v but got %+v", tt.state, loaded)
			}
		})
	}
}

func TestBadgerManagerDirect(t *testing.T) {
	dbPath := tempDB(t)

	db, err := badger.Open(badger.DefaultOptions(dbPath).WithLogger(nil))
	if err != nil {
		t.Fatalf("failed to open badger db: %v", err)
	}

	entry := Entry{Value: "target.example.net", Owner: "edge", LastSeen: 42}
	data, _ := json.Marshal(entry)
	txn := db.NewTransaction(true)
	if err := txn.Set([]byte(recordPrefix+"CNAME:docs"), data); err != nil {
		t.Fatalf("failed to set value: %v", err)
	}
	// unreadable keys are skipped
	if err := txn.Set([]byte(recordPrefix+"BOGUS:docs"), data); err != nil {
		t.Fatalf("failed to set value: %v", err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	manager, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	defer manager.Close()

	loaded, err := manager.LoadState(context.Background())
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	want := State{Records: map[Key]Entry{{Host: "docs", Type: provider.CNAME}: entry}}
	if !reflect.DeepEqual(loaded, want) {
		t.Errorf("Expected %+v but got %+v", want, loaded)
	}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		in      string
		want    Key
		wantErr bool
	}{
		{in: "A:www", want: Key{Host: "www", Type: provider.A}},
		{in: "txt:_acme-challenge", want: Key{Host: "_acme-challenge", Type: provider.TXT}},
		{in: "A:", wantErr: true},
		{in: "www", wantErr: true},
		{in: "NOPE:www", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseKey(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseKey(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("parseKey(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
		if err == nil && got.String() != tt.want.Type.String()+":"+tt.want.Host {
			t.Errorf("round trip of %q gave %q", tt.in, got.String())
		}
	}
}

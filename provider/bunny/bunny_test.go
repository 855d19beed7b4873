package bunny

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/evanofslack/zone-update/provider"
	"github.com/evanofslack/zone-update/provider/providertest"
)

const testZone = 4242

func fakeBunny(store *providertest.Store) http.Handler {
	toCode := map[string]uint64{"A": 0, "AAAA": 1, "CNAME": 2, "TXT": 3}
	fromCode := map[uint64]string{0: "A", 1: "AAAA", 2: "CNAME", 3: "TXT"}
	zonePath := "/" + strconv.Itoa(testZone)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		store.CountLookup()
		if r.Header.Get("AccessKey") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		providertest.WriteJSON(w, 200, map[string]any{"Items": []map[string]any{
			{"Id": 1, "Domain": "other.example.com"},
			{"Id": testZone, "Domain": r.URL.Query().Get("search")},
		}})
	})
	mux.HandleFunc("GET "+zonePath, func(w http.ResponseWriter, r *http.Request) {
		recs := []map[string]any{
			// Record types the library doesn't know must not break lookups.
			{"Id": 1, "Type": 5, "Name": "redirect", "Value": "https://x", "Ttl": 300},
		}
		for _, e := range store.All() {
			id, _ := strconv.Atoi(e.ID)
			recs = append(recs, map[string]any{"Id": id, "Type": toCode[e.Type], "Name": e.Host, "Value": e.Value, "Ttl": e.TTL})
		}
		providertest.WriteJSON(w, 200, map[string]any{"Records": recs})
	})
	mux.HandleFunc("PUT "+zonePath+"/records", func(w http.ResponseWriter, r *http.Request) {
		var body createUpdate
		if err := providertest.ReadJSON(r, &body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		e := store.Add(body.Name, fromCode[body.Type], body.Value, body.TTL)
		providertest.WriteJSON(w, 201, map[string]any{"Id": e.ID})
	})
	mux.HandleFunc("POST "+zonePath+"/records/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body createUpdate
		if err := providertest.ReadJSON(r, &body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if !store.Set(r.PathValue("id"), body.Value, body.TTL) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("DELETE "+zonePath+"/records/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !store.Remove(r.PathValue("id")) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func TestBunny(t *testing.T) {
	store := providertest.NewStore(false)
	providertest.Run(t, providertest.Suite{
		Store:   store,
		Handler: fakeBunny(store),
		New: func(endpoint string, dryRun bool) (provider.Provider, error) {
			cfg := provider.Config{Domain: "example.com", DryRun: dryRun}
			return New(cfg, Auth{Key: "secret"}, provider.WithEndpoint(endpoint))
		},
		MissingUpdate: providertest.UpdateIgnored,
		CachesID:      true,
	})
}

func TestCodes(t *testing.T) {
	tests := []struct {
		rtype provider.RecordType
		code  uint64
	}{
		{provider.A, 0},
		{provider.AAAA, 1},
		{provider.CNAME, 2},
		{provider.TXT, 3},
		{provider.SRV, 8},
		{provider.HTTPS, 14},
	}
	for _, tt := range tests {
		got, err := codes.Encode(tt.rtype)
		if err != nil || got != tt.code {
			t.Errorf("encode %s: got %d, %v", tt.rtype, got, err)
		}
		back, err := codes.Decode(tt.code)
		if err != nil || back != tt.rtype {
			t.Errorf("decode %d: got %s, %v", tt.code, back, err)
		}
	}
	if _, err := codes.Encode(provider.SSHFP); err == nil {
		t.Errorf("expected SSHFP to be unsupported")
	}
	if _, err := codes.Decode(5); err == nil {
		t.Errorf("expected code 5 to be unknown")
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(provider.Config{Domain: "example.com"}, Auth{}); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

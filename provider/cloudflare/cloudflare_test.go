package cloudflare

import (
	"net/http"
	"strings"
	"testing"

	"github.com/evanofslack/zone-update/provider"
	"github.com/evanofslack/zone-update/provider/providertest"
)

type cfRecord struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
	TTL     int    `json:"ttl"`
}

func envelope(result any, count int) map[string]any {
	out := map[string]any{
		"success":  true,
		"errors":   []any{},
		"messages": []any{},
		"result":   result,
	}
	if count >= 0 {
		out["result_info"] = map[string]int{"page": 1, "per_page": 100, "count": count, "total_count": count, "total_pages": 1}
	}
	return out
}

func fakeCloudflare(store *providertest.Store) http.Handler {
	mux := http.NewServeMux()
	auth := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer cf-token" {
				providertest.WriteJSON(w, 403, map[string]any{"success": false, "errors": []map[string]any{{"code": 9109, "message": "Invalid access token"}}})
				return
			}
			next(w, r)
		}
	}
	short := func(name string) string {
		if name == "example.com" {
			return ""
		}
		return strings.TrimSuffix(name, ".example.com")
	}
	toRecord := func(e providertest.Entry) cfRecord {
		return cfRecord{ID: e.ID, Type: e.Type, Name: provider.FQDN(e.Host, "example.com"), Content: e.Value, TTL: int(e.TTL)}
	}
	update := func(w http.ResponseWriter, r *http.Request) {
		var body cfRecord
		if err := providertest.ReadJSON(r, &body); err != nil {
			w.WriteHeader(400)
			return
		}
		if !store.Set(r.PathValue("id"), body.Content, uint32(body.TTL)) {
			providertest.WriteJSON(w, 404, map[string]any{"success": false, "errors": []map[string]any{{"code": 81044, "message": "Record does not exist."}}})
			return
		}
		e, _ := store.Get(r.PathValue("id"))
		providertest.WriteJSON(w, 200, envelope(toRecord(e), -1))
	}

	mux.HandleFunc("GET /zones", auth(func(w http.ResponseWriter, r *http.Request) {
		store.CountLookup()
		zones := []map[string]string{}
		if r.URL.Query().Get("name") == "example.com" {
			zones = append(zones, map[string]string{"id": "zone-123", "name": "example.com"})
		}
		providertest.WriteJSON(w, 200, envelope(zones, len(zones)))
	}))
	mux.HandleFunc("GET /zones/zone-123/dns_records", auth(func(w http.ResponseWriter, r *http.Request) {
		recs := []cfRecord{}
		for _, e := range store.Find(short(r.URL.Query().Get("name")), r.URL.Query().Get("type")) {
			recs = append(recs, toRecord(e))
		}
		providertest.WriteJSON(w, 200, envelope(recs, len(recs)))
	}))
	mux.HandleFunc("POST /zones/zone-123/dns_records", auth(func(w http.ResponseWriter, r *http.Request) {
		var body cfRecord
		if err := providertest.ReadJSON(r, &body); err != nil {
			w.WriteHeader(400)
			return
		}
		e := store.Add(short(body.Name), body.Type, body.Content, uint32(body.TTL))
		providertest.WriteJSON(w, 200, envelope(toRecord(e), -1))
	}))
	mux.HandleFunc("PATCH /zones/zone-123/dns_records/{id}", auth(update))
	mux.HandleFunc("PUT /zones/zone-123/dns_records/{id}", auth(update))
	mux.HandleFunc("DELETE /zones/zone-123/dns_records/{id}", auth(func(w http.ResponseWriter, r *http.Request) {
		if !store.Remove(r.PathValue("id")) {
			providertest.WriteJSON(w, 404, map[string]any{"success": false, "errors": []map[string]any{{"code": 81044, "message": "Record does not exist."}}})
			return
		}
		providertest.WriteJSON(w, 200, envelope(map[string]string{"id": r.PathValue("id")}, -1))
	}))
	return mux
}

func TestCloudflare(t *testing.T) {
	store := providertest.NewStore(true)
	providertest.Run(t, providertest.Suite{
		Store:   store,
		Handler: fakeCloudflare(store),
		New: func(endpoint string, dryRun bool) (provider.Provider, error) {
			cfg := provider.Config{Domain: "example.com", DryRun: dryRun}
			return New(cfg, Settings{Token: "cf-token", RateLimit: 1000}, provider.WithEndpoint(endpoint))
		},
		MissingUpdate: providertest.UpdateIgnored,
		CachesID:      true,
	})
}

package digitalocean

import (
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/evanofslack/zone-update/provider"
	"github.com/evanofslack/zone-update/provider/providertest"
)

func fakeDigitalOcean(store *providertest.Store) http.Handler {
	mux := http.NewServeMux()
	auth := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer do-token" {
				providertest.WriteJSON(w, 401, map[string]string{"id": "unauthorized"})
				return
			}
			next(w, r)
		}
	}
	toRecord := func(e providertest.Entry) record {
		id, _ := strconv.ParseUint(e.ID, 10, 64)
		return record{ID: id, Type: e.Type, Name: e.Host, TTL: e.TTL, Data: e.Value}
	}

	mux.HandleFunc("GET /example.com/records", auth(func(w http.ResponseWriter, r *http.Request) {
		// The API filters on the fully qualified name but answers with the short
		// one, and the apex is named "@".
		host := strings.TrimSuffix(r.URL.Query().Get("name"), ".example.com")
		if host == "example.com" {
			host = "@"
		}
		recs := []record{}
		for _, e := range store.Find(host, r.URL.Query().Get("type")) {
			recs = append(recs, toRecord(e))
		}
		providertest.WriteJSON(w, 200, records{DomainRecords: recs})
	}))
	mux.HandleFunc("POST /example.com/records", auth(func(w http.ResponseWriter, r *http.Request) {
		var body createUpdate
		if err := providertest.ReadJSON(r, &body); err != nil {
			w.WriteHeader(400)
			return
		}
		e := store.Add(body.Name, body.Type, body.Data, body.TTL)
		providertest.WriteJSON(w, 201, map[string]record{"domain_record": toRecord(e)})
	}))
	mux.HandleFunc("PUT /example.com/records/{id}", auth(func(w http.ResponseWriter, r *http.Request) {
		var body createUpdate
		if err := providertest.ReadJSON(r, &body); err != nil {
			w.WriteHeader(400)
			return
		}
		if !store.Set(r.PathValue("id"), body.Data, body.TTL) {
			providertest.WriteJSON(w, 404, map[string]string{"id": "not_found"})
			return
		}
		e, _ := store.Get(r.PathValue("id"))
		providertest.WriteJSON(w, 200, map[string]record{"domain_record": toRecord(e)})
	}))
	mux.HandleFunc("DELETE /example.com/records/{id}", auth(func(w http.ResponseWriter, r *http.Request) {
		if !store.Remove(r.PathValue("id")) {
			providertest.WriteJSON(w, 404, map[string]string{"id": "not_found"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	return mux
}

func TestDigitalOcean(t *testing.T) {
	store := providertest.NewStore(false)
	providertest.Run(t, providertest.Suite{
		Store:   store,
		Handler: fakeDigitalOcean(store),
		New: func(endpoint string, dryRun bool) (provider.Provider, error) {
			cfg := provider.Config{Domain: "example.com", DryRun: dryRun}
			return New(cfg, Auth{Key: "do-token"}, provider.WithEndpoint(endpoint))
		},
		Host: func(host string) string {
			if host == "" {
				return "@"
			}
			return host
		},
		MissingUpdate: providertest.UpdateFails,
	})
}

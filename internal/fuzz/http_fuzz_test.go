package fuzz

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jwoo-kim/team-draft/internal/draft"
	"github.com/jwoo-kim/team-draft/internal/handlers"
	"github.com/jwoo-kim/team-draft/internal/logger"
	"github.com/jwoo-kim/team-draft/internal/pubsub"
	"github.com/jwoo-kim/team-draft/internal/store"
)

func init() {
	// Initialize logger for tests
	logger.Init()
}

func newAPI() *handlers.APIHandlers {
	ps := pubsub.New()
	engine := draft.New(store.NewMemoryStore(), ps)
	return handlers.NewAPIHandlers(engine, ps)
}

// FuzzHTTPIngest fuzzes the sheet ingestion endpoint
func FuzzHTTPIngest(f *testing.F) {
	// Seed corpus with valid examples
	f.Add("name\tposition\t1st\r\nKim\tTop\tA")
	f.Add("header\r\n\r\n\r\n")
	f.Add("a\tb\tc\td\te\tf\tg")
	f.Add("\"quoted\"\t  spaced  out  \tA")
	f.Add(string(make([]byte, 10000)))

	f.Fuzz(func(t *testing.T, data string) {
		api := newAPI()

		req := httptest.NewRequest(http.MethodPost, "/api/draft/ingest", bytes.NewBufferString(data))
		w := httptest.NewRecorder()

		// Should not panic - that's the main goal of fuzzing
		api.Ingest(w, req)
	})
}

// FuzzHTTPPick fuzzes the pick endpoint
func FuzzHTTPPick(f *testing.F) {
	// Seed corpus
	f.Add(`{"participantId":"1","teamId":"A"}`)
	f.Add(`{"participantId":"","teamId":""}`)
	f.Add(`{"participantId":"invalid","teamId":"999"}`)
	f.Add(`not json`)

	f.Fuzz(func(t *testing.T, data string) {
		api := newAPI()

		// Give the engine some state so picks can hit real teams
		ingest := httptest.NewRequest(http.MethodPost, "/api/draft/ingest",
			bytes.NewBufferString("name\tposition\t1st\r\nKim\tTop\tA\r\nLee\tJungle\tB"))
		api.Ingest(httptest.NewRecorder(), ingest)

		req := httptest.NewRequest(http.MethodPost, "/api/draft/pick", bytes.NewBufferString(data))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		api.Pick(w, req)
	})
}

// FuzzHTTPSetFilters fuzzes the filter update endpoint
func FuzzHTTPSetFilters(f *testing.F) {
	// Seed corpus
	f.Add(`{"position":"Top","assignment":"assigned","round":0,"teamId":"A"}`)
	f.Add(`{"round":-1}`)
	f.Add(`{"assignment":"bogus"}`)
	f.Add(`{"round":999999}`)

	f.Fuzz(func(t *testing.T, data string) {
		api := newAPI()

		req := httptest.NewRequest(http.MethodPost, "/api/filters", bytes.NewBufferString(data))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		api.SetFilters(w, req)
	})
}

// FuzzHTTPAddParticipant fuzzes the add participant endpoint
func FuzzHTTPAddParticipant(f *testing.F) {
	// Seed corpus
	f.Add(`{"name":"Park","position":"Mid","choices":["A","B"]}`)
	f.Add(`{"name":"","position":""}`)
	f.Add(`{"choices":[]}`)

	f.Fuzz(func(t *testing.T, data string) {
		api := newAPI()

		req := httptest.NewRequest(http.MethodPost, "/api/participants/add", bytes.NewBufferString(data))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		api.AddParticipant(w, req)
	})
}

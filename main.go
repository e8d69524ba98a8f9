package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/jwoo-kim/team-draft/internal/draft"
	"github.com/jwoo-kim/team-draft/internal/handlers"
	"github.com/jwoo-kim/team-draft/internal/logger"
	"github.com/jwoo-kim/team-draft/internal/pubsub"
	"github.com/jwoo-kim/team-draft/internal/store"
)

var snapshots store.SnapshotStore

func main() {
	// Initialize logger first
	logger.Init()

	logger.Info("Starting team-draft server")

	// Initialize snapshot store driver
	dbDriver := os.Getenv("DB_DRIVER")
	if dbDriver == "" {
		dbDriver = "memory"
	}

	var err error
	switch dbDriver {
	case "memory":
		snapshots = store.NewMemoryStore()
		logger.Info("Using in-memory snapshot store")
	case "sqlite":
		sqliteFile := os.Getenv("SQLITE_FILE")
		if sqliteFile == "" {
			sqliteFile = "dev.sqlite"
		}
		snapshots, err = store.NewSQLiteStore(sqliteFile)
		if err != nil {
			logger.Error("Failed to initialize SQLite", "error", err)
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		logger.Info("Connected to SQLite database", "file", sqliteFile)
	case "postgres":
		dbConnString := os.Getenv("DATABASE_URL")
		if dbConnString == "" {
			logger.Error("DATABASE_URL environment variable is required for postgres driver")
			log.Fatal("DATABASE_URL environment variable is required for postgres driver")
		}
		snapshots, err = store.NewPostgresStore(dbConnString)
		if err != nil {
			logger.Error("Failed to initialize Postgres", "error", err)
			log.Fatalf("Failed to initialize Postgres: %v", err)
		}
		logger.Info("Connected to Postgres database")
	default:
		logger.Error("Unknown DB_DRIVER", "driver", dbDriver)
		log.Fatalf("Unknown DB_DRIVER: %s (valid: memory, sqlite, postgres)", dbDriver)
	}

	// Initialize pub/sub (embedded NATS for development, real NATS otherwise)
	natsSubject := os.Getenv("NATS_SUBJECT")
	if natsSubject == "" {
		natsSubject = "draft.events"
	}

	environment := os.Getenv("ENVIRONMENT")
	var upstream pubsub.Upstream

	if environment == "" || environment == "development" {
		logger.Info("Starting embedded NATS server for local development")
		embedded, err := pubsub.NewEmbeddedNATSPubSub(pubsub.EmbeddedNATSOptions{
			Port:    0, // Random available port
			Subject: natsSubject,
		})
		if err != nil {
			logger.Error("Failed to initialize embedded NATS", "error", err)
			log.Fatalf("Failed to initialize embedded NATS: %v", err)
		}
		upstream = embedded
		logger.Info("Embedded NATS server ready", "url", embedded.ServerURL())
	} else {
		natsURL := os.Getenv("NATS_URL")
		if natsURL == "" {
			natsURL = "nats://localhost:4222"
		}
		realNats, err := pubsub.NewNATSPubSub(natsURL, natsSubject)
		if err != nil {
			logger.Error("Failed to initialize NATS", "error", err)
			log.Fatalf("Failed to initialize NATS: %v", err)
		}
		upstream = realNats
		logger.Info("Connected to NATS", "url", natsURL)
	}

	ps := pubsub.NewWithUpstream(upstream)

	// Build the engine and restore any persisted session state
	engine := draft.New(snapshots, ps)
	if err := engine.Restore(); err != nil {
		logger.Error("Failed to restore draft state", "error", err)
		log.Fatalf("Failed to restore draft state: %v", err)
	}

	// Set up HTTP routes
	mux := http.NewServeMux()

	api := handlers.NewAPIHandlers(engine, ps)

	// Draft API
	mux.HandleFunc("/api/draft/state", api.GetState)
	mux.HandleFunc("/api/draft/ingest", api.Ingest)
	mux.HandleFunc("/api/draft/start", api.StartDraft)
	mux.HandleFunc("/api/draft/next", api.NextTurn)
	mux.HandleFunc("/api/draft/reset", api.ResetDraft)
	mux.HandleFunc("/api/draft/pick", api.Pick)
	mux.HandleFunc("/api/draft/unpick", api.Unpick)
	mux.HandleFunc("/api/draft/summary", api.Summary)

	// Participants API
	mux.HandleFunc("/api/participants", api.ListParticipants)
	mux.HandleFunc("/api/participants/add", api.AddParticipant)
	mux.HandleFunc("/api/participants/remove", api.RemoveParticipant)

	// Teams API
	mux.HandleFunc("/api/teams", api.ListTeams)
	mux.HandleFunc("/api/teams/members", api.TeamMembers)

	// Filters API
	mux.HandleFunc("/api/filters", api.SetFilters)

	// SSE for realtime updates
	mux.HandleFunc("/api/events", api.EventsSSE)

	// Health check endpoints
	mux.HandleFunc("/api/health", healthHandler)
	mux.HandleFunc("/healthz", livenessHandler) // Kubernetes liveness probe
	mux.HandleFunc("/readyz", readinessHandler) // Kubernetes readiness probe

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	addr := "0.0.0.0:" + port
	logger.Info("Server starting", "address", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("Server failed", "error", err)
		log.Fatal(err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	// Check snapshot store connectivity
	if snapshots != nil {
		if _, err := snapshots.Load(); err != nil && err != store.ErrNoSnapshot {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
			checks["store"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
		} else {
			checks["store"] = map[string]interface{}{
				"status": "healthy",
			}
		}
	} else {
		checks["store"] = map[string]interface{}{
			"status": "not_configured",
		}
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(response)
}

// livenessHandler handles Kubernetes liveness probes. Returns 200 as long
// as the process runs, no dependency checks.
func livenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().Unix(),
	})
}

// readinessHandler handles Kubernetes readiness probes. The snapshot
// store must answer before the server accepts traffic.
func readinessHandler(w http.ResponseWriter, r *http.Request) {
	if snapshots != nil {
		if _, err := snapshots.Load(); err != nil && err != store.ErrNoSnapshot {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":    "not_ready",
				"reason":    "store_unavailable",
				"timestamp": time.Now().Unix(),
			})
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "ready",
		"timestamp": time.Now().Unix(),
	})
}

// Package ops exposes the local operations endpoint: health and status
// for the CLI and for anything watching the process.
package ops

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
)

// TicketCounter reports how many support tickets have been closed. The
// storage layer satisfies this.
type TicketCounter interface {
	CountClosedTickets() (int, error)
}

// Deps carries everything the handler reads when serving status.
type Deps struct {
	Version string
	Started time.Time
	Tickets TicketCounter
	Logger  *slog.Logger
}

// Status is the /status response body.
type Status struct {
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Goroutines    int    `json:"goroutines"`
	AllocBytes    uint64 `json:"alloc_bytes"`
	ClosedTickets int    `json:"closed_tickets"`
}

// NewHandler returns the http.Handler for the operations endpoint.
func NewHandler(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Get("/health", handleHealth)
	r.Get("/status", handleStatus(deps))
	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleStatus(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)

		st := Status{
			Version:       deps.Version,
			UptimeSeconds: int64(time.Since(deps.Started).Seconds()),
			Goroutines:    runtime.NumGoroutine(),
			AllocBytes:    mem.Alloc,
		}
		if deps.Tickets != nil {
			n, err := deps.Tickets.CountClosedTickets()
			if err != nil {
				deps.Logger.Warn("counting closed tickets", "error", err)
			} else {
				st.ClosedTickets = n
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(st); err != nil {
			deps.Logger.Warn("encoding status", "error", err)
		}
	}
}

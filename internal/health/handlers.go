// Package health holds the replica liveness verdict and its HTTP probes.
package health

import (
	"encoding/json"
	"net/http"
	"time"
)

// Reporter is the read side of a monitor used by the HTTP probes
type Reporter interface {
	Name() string
	Snapshot() Snapshot
}

// LivenessResponse represents the response for the process liveness check.
type LivenessResponse struct {
	Status string `json:"status"`
}

// ReplicaResponse represents the response for the replica liveness check.
type ReplicaResponse struct {
	Alive       bool   `json:"alive"`
	Status      string `json:"status"`
	LastUpdated string `json:"last_updated,omitempty"`
	Monitor     string `json:"monitor"`
}

// LivenessHandler handles GET /health/live.
// Returns 200 OK while the process is serving.
func LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(LivenessResponse{Status: "alive"})
}

// ReplicaHandler handles GET /health/replica.
// Returns 200 OK when the last completed probe found the replica healthy, 503 otherwise.
func ReplicaHandler(rep Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := rep.Snapshot()

		resp := ReplicaResponse{
			Alive:   snap.Alive,
			Status:  snap.Status,
			Monitor: rep.Name(),
		}
		if !snap.LastUpdated.IsZero() {
			resp.LastUpdated = snap.LastUpdated.UTC().Format(time.RFC3339)
		}

		w.Header().Set("Content-Type", "application/json")
		if snap.Alive {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(resp)
	}
}

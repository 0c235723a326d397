package diag

import (
	"encoding/json"
	"net/http"

	"nmuxd/internal/nmea"
)

// Handler serves the read-only diagnostics API described in spec section
// 7: a single GET endpoint mirroring the dialogue grammar's G command.
func Handler(status *Status, engine *nmea.Engine) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		snap := status.Take(engine)
		b, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			http.Error(w, "marshal failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(b)
		_, _ = w.Write([]byte("\n"))
	})

	return mux
}

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"firewatch/internal/buildinfo"
)

// DebugJSON handles GET /debug/info
func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"addr":            s.Cfg.Addr,
			"rateRps":         s.Cfg.RateRPS,
			"rateBurst":       s.Cfg.RateBurst,
			"gathererTimeout": s.Cfg.GathererTimeout.String(),
			"sweepSchedule":   s.Cfg.SweepSchedule,
			"watchLocations":  len(s.Cfg.WatchLocations),
			"hasDatabaseUrl":  s.Cfg.DatabaseURL != "",
			"hasRedisUrl":     s.Cfg.RedisURL != "",
		},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(info)
}

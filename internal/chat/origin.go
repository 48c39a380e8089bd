package chat

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

// NewUpgrader returns an upgrader that accepts the given origins. A "*" entry
// allows any origin. Requests without an Origin header come from non-browser
// clients and are accepted.
func NewUpgrader(origins []string, logger *slog.Logger) *websocket.Upgrader {
	allowed, allowAll := normalizeOrigins(origins, logger)
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			header := r.Header.Get("Origin")
			if header == "" || allowAll {
				return true
			}
			origin, ok := normalizeOrigin(header)
			if !ok {
				return false
			}
			if _, ok := allowed[origin]; ok {
				return true
			}
			logger.Warn("Rejected WebSocket origin", "origin", header)
			return false
		},
	}
}

func normalizeOrigins(origins []string, logger *slog.Logger) (map[string]struct{}, bool) {
	allowed := make(map[string]struct{}, len(origins))
	allowAll := false
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		switch {
		case trimmed == "":
			continue
		case trimmed == "*":
			allowAll = true
			continue
		}
		normalized, ok := normalizeOrigin(trimmed)
		if !ok {
			logger.Warn("Ignoring invalid origin in configuration", "origin", origin)
			continue
		}
		allowed[normalized] = struct{}{}
	}
	return allowed, allowAll
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}

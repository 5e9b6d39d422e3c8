package handlers

import (
	"net/http"
	"strconv"

	"github.com/omprakash24d/mockify-auth/internal/auditlog"
	pkghttp "github.com/omprakash24d/mockify-auth/pkg/http"
)

// AuditHandler exposes the auth event log to operators
type AuditHandler struct {
	authLog *auditlog.AuthLogger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(authLog *auditlog.AuthLogger) *AuditHandler {
	return &AuditHandler{authLog: authLog}
}

// GetLogs returns the most recent auth events, newest first
// @Summary Recent auth events
// @Param limit query int false "Max entries to return (default 100)"
// @Produce json
// @Success 200 {array} models.AuthLogEntry
// @Router /ops/auth-logs [get]
func (h *AuditHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			pkghttp.WriteBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	logs, err := h.authLog.GetLogs(r.Context(), limit)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, logs)
}

// GetStats aggregates auth activity over a trailing window
// @Summary Auth activity stats
// @Param hours query int false "Trailing window in hours (default 24)"
// @Produce json
// @Success 200 {object} models.AuthStats
// @Router /ops/auth-stats [get]
func (h *AuditHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	hours := 0
	if raw := r.URL.Query().Get("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			pkghttp.WriteBadRequest(w, "hours must be a positive integer")
			return
		}
		hours = parsed
	}

	stats, err := h.authLog.GetStats(r.Context(), hours)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, stats)
}

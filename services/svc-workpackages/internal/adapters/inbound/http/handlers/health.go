package handlers

import (
	"net/http"
	"time"

	"github.com/architeacher/workpackages/services/svc-workpackages/internal/domain/model"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/usecases/queries"
)

type (
	dependencyCheckDocument struct {
		Status      model.DependencyStatus `json:"status"`
		LatencyMs   uint64                 `json:"latencyMs"`
		Message     string                 `json:"message,omitempty"`
		LastChecked time.Time              `json:"lastChecked"`
	}

	livenessDocument struct {
		Status    model.HealthStatus `json:"status"`
		Timestamp time.Time          `json:"timestamp"`
		Version   string             `json:"version"`
	}

	readinessDocument struct {
		Status    model.HealthStatus                 `json:"status"`
		Timestamp time.Time                          `json:"timestamp"`
		Version   string                             `json:"version"`
		Checks    map[string]dependencyCheckDocument `json:"checks"`
	}

	healthDocument struct {
		Status    model.HealthStatus                 `json:"status"`
		Timestamp time.Time                          `json:"timestamp"`
		Version   map[string]string                  `json:"version"`
		Uptime    map[string]any                     `json:"uptime"`
		Checks    map[string]dependencyCheckDocument `json:"checks"`
		System    map[string]any                     `json:"system"`
	}
)

func (h *Handler) GetLiveness(w http.ResponseWriter, r *http.Request) {
	report, err := h.app.Queries.FetchLiveness.Execute(r.Context(), queries.FetchLivenessQuery{})
	if err != nil {
		h.writeQueryError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, applicationJSON, livenessDocument{
		Status:    report.Status,
		Timestamp: report.Timestamp,
		Version:   report.Version,
	})
}

// GetReadiness answers 503 while a critical dependency is down.
func (h *Handler) GetReadiness(w http.ResponseWriter, r *http.Request) {
	report, err := h.app.Queries.FetchReadiness.Execute(r.Context(), queries.FetchReadinessQuery{})
	if err != nil {
		h.writeQueryError(w, r, err)

		return
	}

	writeJSON(w, healthStatusCode(report.Status), applicationJSON, readinessDocument{
		Status:    report.Status,
		Timestamp: report.Timestamp,
		Version:   report.Version,
		Checks:    toCheckDocuments(report.Checks),
	})
}

func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	report, err := h.app.Queries.FetchHealthReport.Execute(r.Context(), queries.FetchHealthReportQuery{})
	if err != nil {
		h.writeQueryError(w, r, err)

		return
	}

	writeJSON(w, healthStatusCode(report.Status), applicationJSON, healthDocument{
		Status:    report.Status,
		Timestamp: report.Timestamp,
		Version: map[string]string{
			"api":   report.Version.API,
			"build": report.Version.Build,
			"go":    report.Version.Go,
		},
		Uptime: map[string]any{
			"startedAt":       report.Uptime.StartedAt,
			"duration":        report.Uptime.Duration,
			"durationSeconds": report.Uptime.DurationSeconds,
		},
		Checks: toCheckDocuments(report.Checks),
		System: map[string]any{
			"goroutines": report.System.Goroutines,
			"cpuCores":   report.System.CPUCores,
			"allocMB":    report.System.AllocMB,
			"sysMB":      report.System.SysMB,
		},
	})
}

func healthStatusCode(status model.HealthStatus) int {
	if status == model.HealthStatusDown {
		return http.StatusServiceUnavailable
	}

	return http.StatusOK
}

func toCheckDocuments(checks map[string]model.DependencyCheck) map[string]dependencyCheckDocument {
	docs := make(map[string]dependencyCheckDocument, len(checks))
	for name, check := range checks {
		docs[name] = dependencyCheckDocument{
			Status:      check.Status,
			LatencyMs:   check.LatencyMs,
			Message:     check.Message,
			LastChecked: check.LastChecked,
		}
	}

	return docs
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"trainpulse/internal/metrics"
	"trainpulse/internal/model"
	"trainpulse/internal/predict"
	"trainpulse/internal/service"
	"trainpulse/pkg"
)

// Handler serves the analysis API endpoints.
type Handler struct {
	svc     *service.AnalysisService
	metrics *metrics.Manager
}

func NewHandler(svc *service.AnalysisService, m *metrics.Manager) *Handler {
	return &Handler{svc: svc, metrics: m}
}

// PredictRequest is the body of POST /v1/predict.
type PredictRequest struct {
	ActivityType model.ActivityKind `json:"activityType"`
	predict.Features
}

type errorResponse struct {
	Error string `json:"error"`
}

type buildingBaselineResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// HandleAnalyze ingests one input batch and runs a full analysis pass.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var snap model.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		log.Errorf("analyze, unmarshal json params: %s", err)
		http.Error(w, "analyze failed", http.StatusBadRequest)
		return
	}

	for _, m := range snap.Metrics {
		if !m.Kind.Valid() {
			writeError(w, http.StatusBadRequest, "unknown metric kind: "+string(m.Kind))
			return
		}
	}
	for _, workout := range snap.Workouts {
		if !workout.Kind.Valid() {
			writeError(w, http.StatusBadRequest, "unknown activity kind: "+string(workout.Kind))
			return
		}
	}

	ctx := r.Context()
	if err := h.svc.Ingest(ctx, &snap); err != nil {
		log.Errorf("failed to ingest input batch: %s", err)
		writeError(w, http.StatusInternalServerError, "failed to store inputs")
		return
	}

	results, err := h.svc.Analyze(ctx)
	if err != nil {
		log.Errorf("analysis pass failed: %s", err)
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	writeJSON(w, http.StatusOK, results)
}

// HandlePredict serves one performance prediction. Add ?interval=true
// for the 95% interval bounds.
func (h *Handler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("predict, unmarshal json params: %s", err)
		http.Error(w, "predict failed", http.StatusBadRequest)
		return
	}
	if !req.ActivityType.Valid() {
		writeError(w, http.StatusBadRequest, "unknown activity kind: "+string(req.ActivityType))
		return
	}

	withInterval := r.URL.Query().Get("interval") == "true"
	prediction, err := h.svc.Predict(req.ActivityType, req.Features, withInterval)
	switch {
	case errors.Is(err, predict.ErrNoTrainedModel):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		log.Errorf("prediction failed: %s", err)
		writeError(w, http.StatusInternalServerError, "prediction failed")
		return
	}

	writeJSON(w, http.StatusOK, prediction)
}

// HandleLoadSummary returns the load summary of the last analysis pass.
func (h *Handler) HandleLoadSummary(w http.ResponseWriter, r *http.Request) {
	results, ok := h.svc.Results()
	if !ok {
		writeBuildingBaseline(w, "no analysis run yet")
		return
	}
	if results.LoadSummary == nil {
		writeBuildingBaseline(w, "no training load in the last 28 days")
		return
	}
	writeJSON(w, http.StatusOK, results.LoadSummary)
}

// HandleInjuryRisk returns the injury risk assessment of the last pass.
func (h *Handler) HandleInjuryRisk(w http.ResponseWriter, r *http.Request) {
	results, ok := h.svc.Results()
	if !ok {
		writeBuildingBaseline(w, "no analysis run yet")
		return
	}
	writeJSON(w, http.StatusOK, results.InjuryRisk)
}

// HandleReadiness returns the readiness score of the last pass.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	results, ok := h.svc.Results()
	if !ok {
		writeBuildingBaseline(w, "no analysis run yet")
		return
	}
	writeJSON(w, http.StatusOK, results.Readiness)
}

// HandleTrends returns the per-metric trends of the last pass.
func (h *Handler) HandleTrends(w http.ResponseWriter, r *http.Request) {
	results, ok := h.svc.Results()
	if !ok {
		writeBuildingBaseline(w, "no analysis run yet")
		return
	}
	if results.Trends == nil {
		writeBuildingBaseline(w, "trends need at least 14 days per metric")
		return
	}
	writeJSON(w, http.StatusOK, results.Trends)
}

// HandleModels returns trained-model metadata.
func (h *Handler) HandleModels(w http.ResponseWriter, r *http.Request) {
	models := h.svc.Models()
	if len(models) == 0 {
		writeBuildingBaseline(w, "no models trained yet")
		return
	}
	writeJSON(w, http.StatusOK, models)
}

// HandleHealth is the liveness probe.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	pkg.WriteResponse(w, pkg.ContentType.Text, "ok", http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("failed to marshal response: %s", err)
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, data, status)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeBuildingBaseline(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusNotFound, buildingBaselineResponse{
		Status: "building_baseline",
		Detail: detail,
	})
}

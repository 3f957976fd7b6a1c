// Package dashboard serves the agent overview page and a small JSON API.
package dashboard

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"cryptointel/agency"
	"cryptointel/database"
	"cryptointel/setup"
)

//go:embed templates/*
var templatesFS embed.FS

// recentLimit bounds the lists on the overview page
const recentLimit = 10

// Handler serves dashboard routes for a bootstrapped system
type Handler struct {
	sys       *setup.Bootstrap
	templates *template.Template
	logger    *zap.Logger
}

// NewHandler parses the embedded templates
func NewHandler(sys *setup.Bootstrap) (*Handler, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"pct":         func(v float64) string { return strconv.FormatFloat(v*100, 'f', 0, 64) + "%" },
		"short":       shortID,
		"when":        func(t time.Time) string { return t.Local().Format("15:04:05") },
		"regimeClass": func(r agency.Regime) string { return "regime-" + string(r) },
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Handler{
		sys:       sys,
		templates: tmpl,
		logger:    sys.Logger.Named("dashboard"),
	}, nil
}

// RegisterRoutes registers the page, API, health and metrics routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.handleIndex).Methods("GET")
	r.HandleFunc("/health", h.handleHealth).Methods("GET")
	r.Handle("/metrics", h.sys.Metrics.Handler()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/suggestions", h.handleSuggestions).Methods("GET")
	api.HandleFunc("/suggestions/{id}/feedback", h.handleFeedback).Methods("POST")
	api.HandleFunc("/decisions", h.handleDecisions).Methods("GET")
	api.HandleFunc("/discoveries", h.handleDiscoveries).Methods("GET")
	api.HandleFunc("/stats", h.handleStats).Methods("GET")
	api.HandleFunc("/reputation", h.handleReputation).Methods("GET")
	api.HandleFunc("/goals", h.handleGoals).Methods("GET")
	api.HandleFunc("/cycle", h.handleCycle).Methods("POST")
}

// overview is the data behind the index page
type overview struct {
	Regime      *database.StrategicDecision
	Stats       *database.Stats
	Reputation  []agency.AgentReputation
	Suggestions []database.Suggestion
	Decisions   []database.StrategicDecision
	Discoveries []database.AlphaDiscovery
	Goals       []agency.Goal
	GeneratedAt time.Time
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store := h.sys.Store

	data := overview{GeneratedAt: time.Now()}
	var err error

	if data.Stats, err = store.Stats(ctx); err != nil {
		h.serverError(w, err)
		return
	}
	if data.Suggestions, err = store.ListSuggestions(ctx, database.SuggestionFilter{Limit: recentLimit}); err != nil {
		h.serverError(w, err)
		return
	}
	if data.Decisions, err = store.ListStrategicDecisions(ctx, recentLimit); err != nil {
		h.serverError(w, err)
		return
	}
	if data.Discoveries, err = store.ListAlphaDiscoveries(ctx, database.DiscoveryFilter{Limit: recentLimit}); err != nil {
		h.serverError(w, err)
		return
	}
	if len(data.Decisions) > 0 {
		data.Regime = &data.Decisions[0]
	}
	data.Reputation = h.sys.Reputation.Snapshot(time.Now())
	if h.sys.Orchestrator != nil {
		data.Goals = h.sys.Orchestrator.Goals().Active(time.Now())
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		h.logger.Error("template failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.sys.Store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := database.SuggestionFilter{
		AgentID: q.Get("agent"),
		Status:  database.SuggestionStatus(q.Get("status")),
		Type:    q.Get("type"),
		Limit:   queryInt(q.Get("limit"), 50),
	}
	if v := q.Get("min_confidence"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid min_confidence")
			return
		}
		filter.MinConfidence = f
	}

	list, err := h.sys.Store.ListSuggestions(r.Context(), filter)
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

// feedbackRequest is the body of POST /api/suggestions/{id}/feedback
type feedbackRequest struct {
	Outcome database.FeedbackOutcome `json:"outcome"`
	Score   *float64                 `json:"score,omitempty"`
	Comment string                   `json:"comment"`
}

func (h *Handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !req.Outcome.Valid() {
		writeError(w, http.StatusBadRequest, "outcome must be positive, negative or neutral")
		return
	}

	fb := &database.Feedback{
		SuggestionID: id,
		Outcome:      req.Outcome,
		Score:        req.Outcome.DefaultScore(),
		Comment:      req.Comment,
	}
	if req.Score != nil {
		fb.Score = *req.Score
	}

	if err := h.sys.RecordFeedback(r.Context(), fb); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "suggestion not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, fb)
}

func (h *Handler) handleDecisions(w http.ResponseWriter, r *http.Request) {
	list, err := h.sys.Store.ListStrategicDecisions(r.Context(), queryInt(r.URL.Query().Get("limit"), 20))
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (h *Handler) handleDiscoveries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.sys.Store.ListAlphaDiscoveries(r.Context(), database.DiscoveryFilter{
		AgentID: q.Get("agent"),
		Symbol:  q.Get("symbol"),
		Kind:    database.DiscoveryKind(q.Get("kind")),
		Status:  database.DiscoveryStatus(q.Get("status")),
		Limit:   queryInt(q.Get("limit"), 50),
	})
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.sys.Store.Stats(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) handleReputation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sys.Reputation.Snapshot(time.Now()))
}

func (h *Handler) handleGoals(w http.ResponseWriter, r *http.Request) {
	if h.sys.Orchestrator == nil {
		writeJSON(w, http.StatusOK, []agency.GoalNode{})
		return
	}

	goals := h.sys.Orchestrator.Goals()
	trees := make([]*agency.GoalNode, 0)
	for _, root := range goals.Roots() {
		tree, err := goals.Tree(root.ID)
		if err != nil {
			h.serverError(w, err)
			return
		}
		trees = append(trees, tree)
	}
	writeJSON(w, http.StatusOK, trees)
}

func (h *Handler) handleCycle(w http.ResponseWriter, r *http.Request) {
	report, err := h.sys.RunCycle(r.Context())
	if err != nil && report == nil {
		h.serverError(w, err)
		return
	}
	// Agent failures are listed in report.Errors
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) serverError(w http.ResponseWriter, err error) {
	h.logger.Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryInt(v string, def int) int {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// nonNil keeps empty lists encoding as [] rather than null
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

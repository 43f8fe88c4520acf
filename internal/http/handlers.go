package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/dashboard"
	"fintrack/internal/log"
	"fintrack/internal/lookup"
	"fintrack/internal/services"
)

const saveFailedMessage = "Sorry, there was a problem saving your data. Please try again."

type typeOption struct {
	Value    core.TxType
	Label    string
	Selected bool
}

// dashboardData feeds the "dashboard" template.
type dashboardData struct {
	dashboard.View
	Alerts            []services.Alert
	NextTheme         core.Theme
	CategoryChartJSON string
	TrendChartJSON    string
}

// indexData feeds index.html.
type indexData struct {
	Dashboard           dashboardData
	Today               string
	Types               []typeOption
	Categories          []string
	ExportedMessage     string
	ExportFailedMessage string
}

func (s *Server) dashboardData(ctx context.Context, res services.Result) dashboardData {
	d := dashboardData{
		View:              res.View,
		Alerts:            res.Alerts,
		NextTheme:         res.View.Theme.Toggled(),
		CategoryChartJSON: res.Charts.CategorySpec(),
		TrendChartJSON:    res.Charts.TrendSpec(),
	}
	if d.CategoryChartJSON == "" || d.TrendChartJSON == "" {
		log.FromContext(ctx).WarnContext(ctx, "Dashboard rendered without charts", log.FieldOperation, log.OpRender)
	}
	return d
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.templates == nil {
		log.FromContext(ctx).ErrorContext(ctx, "Templates not loaded",
			log.FieldPath, r.URL.Path,
			log.FieldComponent, log.ComponentTemplate,
			"error_type", log.ErrorTypeConfiguration)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	res, err := s.tracker.Dashboard(ctx)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Dashboard load failed", log.FieldError, err, log.FieldOperation, log.OpRead)
		http.Error(w, "could not load your data", http.StatusInternalServerError)
		return
	}

	data := indexData{
		Dashboard: s.dashboardData(ctx, res),
		Today:     s.tracker.Today().String(),
		Types: []typeOption{
			{Value: core.Expense, Label: "Money Out", Selected: true},
			{Value: core.Income, Label: "Money In"},
		},
		Categories:          core.CategoriesFor(core.Expense),
		ExportedMessage:     services.ExportedMessage,
		ExportFailedMessage: services.ExportFailedMessage,
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Index template execution failed", log.FieldError, err, "template", "index.html")
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// writeDashboard renders the dashboard partial into b and sends it.
func (s *Server) writeDashboard(w http.ResponseWriter, r *http.Request, res services.Result, b *HTMXResponseBuilder) {
	ctx := r.Context()
	if s.templates == nil {
		InternalServerError("templates not loaded").Write(w)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "dashboard", s.dashboardData(ctx, res)); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Dashboard template execution failed", log.FieldError, err, "template", "dashboard")
		InternalServerError("Error rendering dashboard").Write(w)
		return
	}
	b.TriggerAlerts(res.Alerts).BodyHTML(buf.String()).Write(w)
}

// commandFailed maps a service error to a response.
func (s *Server) commandFailed(w http.ResponseWriter, r *http.Request, err error, op, failMessage string) {
	ctx := r.Context()
	if core.IsValidation(err) {
		log.FromContext(ctx).InfoContext(ctx, "Rejected input", log.FieldOperation, op, log.FieldError, err)
		UnprocessableEntityError(validationMessage(err)).Write(w)
		return
	}
	log.FromContext(ctx).ErrorContext(ctx, "Command failed", log.FieldOperation, op, log.FieldError, err)
	InternalServerError(failMessage).Write(w)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	p, fail := ParseBodyOrFail(r)
	if fail != nil {
		fail.Write(w)
		return
	}

	res, tx, err := s.tracker.AddTransaction(r.Context(), p.TransactionInput())
	if err != nil {
		s.commandFailed(w, r, err, log.OpCreate, saveFailedMessage)
		return
	}
	s.writeDashboard(w, r, res, NewHTMXResponse().
		TriggerTransactionRecorded(tx.ID).
		TriggerFormReset())
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	p, fail := ParseBodyOrFail(r)
	if fail != nil {
		fail.Write(w)
		return
	}
	res, err := s.tracker.SetBudget(r.Context(), p.Get("amount"))
	if err != nil {
		s.commandFailed(w, r, err, log.OpUpdate, saveFailedMessage)
		return
	}
	s.writeDashboard(w, r, res, NewHTMXResponse())
}

func (s *Server) handleSetSavingsGoal(w http.ResponseWriter, r *http.Request) {
	p, fail := ParseBodyOrFail(r)
	if fail != nil {
		fail.Write(w)
		return
	}
	res, err := s.tracker.SetSavingsGoal(r.Context(), p.SavingsGoalInput())
	if err != nil {
		s.commandFailed(w, r, err, log.OpUpdate, saveFailedMessage)
		return
	}
	s.writeDashboard(w, r, res, NewHTMXResponse())
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	p, fail := ParseBodyOrFail(r)
	if fail != nil {
		fail.Write(w)
		return
	}
	res, err := s.tracker.SetTheme(r.Context(), p.Get("theme"))
	if err != nil {
		s.commandFailed(w, r, err, log.OpUpdate, saveFailedMessage)
		return
	}
	s.writeDashboard(w, r, res, NewHTMXResponse().TriggerThemeChanged(string(res.View.Theme)))
}

func (s *Server) handleClearData(w http.ResponseWriter, r *http.Request) {
	res, err := s.tracker.ClearAll(r.Context())
	if err != nil {
		s.commandFailed(w, r, err, log.OpClear, services.ClearFailedMessage)
		return
	}
	s.writeDashboard(w, r, res, NewHTMXResponse().TriggerFormReset())
}

// handleCategories returns the category options for the selected type.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats := core.CategoriesFor(core.TxType(sanitizeInput(r.URL.Query().Get("type"))))
	if cats == nil {
		NewHTMXResponse().
			Status(http.StatusBadRequest).
			BodyHTML(`<option value="">Choose Money In or Money Out first</option>`).
			Write(w)
		return
	}
	s.writeTemplate(w, r, "category_options", cats)
}

type extrasData struct {
	Rates []rateRow
	Tip   string
}

func (s *Server) decorations(ctx context.Context) lookup.Decorations {
	if s.extras == nil {
		return lookup.Decorations{Tip: lookup.FallbackTip}
	}
	return s.extras.Decorations(ctx)
}

// handleExtras renders the rates and money tip panel.
func (s *Server) handleExtras(w http.ResponseWriter, r *http.Request) {
	d := s.decorations(r.Context())
	s.writeTemplate(w, r, "extras", extrasData{Rates: rateRows(d.Rates), Tip: d.Tip})
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	d := s.decorations(r.Context())
	status := http.StatusOK
	body := map[string]any{"base": "USD", "rates": d.Rates, "tip": d.Tip}
	if d.Rates == nil {
		status = http.StatusBadGateway
		body["error"] = "currency rates are unavailable"
	}
	writeJSON(w, status, body)
}

func (s *Server) writeTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	ctx := r.Context()
	if s.templates == nil {
		InternalServerError("templates not loaded").Write(w)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Template execution failed", log.FieldError, err, "template", name)
		InternalServerError("Error rendering page").Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(buf.String()).Write(w)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	exp, ok := s.export(w, r)
	if !ok {
		return
	}
	writeAttachment(w, "text/csv; charset=utf-8", exp.CSVName, exp.CSV)
}

func (s *Server) handleExportBackup(w http.ResponseWriter, r *http.Request) {
	exp, ok := s.export(w, r)
	if !ok {
		return
	}
	writeAttachment(w, "application/json", exp.BackupName, exp.Backup)
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) (services.Export, bool) {
	ctx := r.Context()
	exp, err := s.tracker.Export(ctx)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Export failed", log.FieldError, err, log.FieldComponent, log.ComponentExport)
		http.Error(w, services.ExportFailedMessage, http.StatusInternalServerError)
		return services.Export{}, false
	}
	return exp, true
}

func writeAttachment(w http.ResponseWriter, contentType, name string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks templates and the storage backend.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.ready == nil:
		checks["storage"] = "not_configured"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	default:
		if err := s.ready.Ping(ctx); err != nil {
			checks["storage"] = fmt.Sprintf("failed: %v", err)
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["storage"] = "ok"
		}
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.limiter.ActiveClients(),
		"rejected":       s.limiter.Rejected(),
	}
	checks["requests"] = s.tracer.Requests()

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

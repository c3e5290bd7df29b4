package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ogulcanaydogan/expense-tracker/internal/export"
	"github.com/ogulcanaydogan/expense-tracker/pkg/budget"
	"github.com/ogulcanaydogan/expense-tracker/pkg/model"
	"github.com/ogulcanaydogan/expense-tracker/pkg/report"
	"github.com/ogulcanaydogan/expense-tracker/pkg/storage"
)

// OwnerHeader carries the authenticated owner id set by the upstream gateway.
const OwnerHeader = "X-Owner-ID"

// Options tunes request handling.
type Options struct {
	DefaultOwner   string
	RequestTimeout time.Duration
	Location       *time.Location
	Now            func() time.Time
}

// maxBodyBytes bounds request bodies of the expense write routes.
const maxBodyBytes = 1 << 20

// Server exposes reports, expenses and budget status over HTTP.
type Server struct {
	reporter *report.Reporter
	store    storage.Storage
	budgets  *budget.Manager
	mux      *http.ServeMux
	logger   *slog.Logger
	opts     Options
}

// NewServer creates an API server.
func NewServer(reporter *report.Reporter, store storage.Storage, budgets *budget.Manager, logger *slog.Logger, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{
		reporter: reporter,
		store:    store,
		budgets:  budgets,
		mux:      http.NewServeMux(),
		logger:   logger,
		opts:     opts,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/reports/daily", s.handleDaily)
	s.mux.HandleFunc("GET /api/v1/reports/weekly", s.handleWeekly)
	s.mux.HandleFunc("GET /api/v1/reports/monthly", s.handleMonthly)
	s.mux.HandleFunc("GET /api/v1/reports/range", s.handleRange)
	s.mux.HandleFunc("GET /api/v1/reports/overview", s.handleOverview)
	s.mux.HandleFunc("GET /api/v1/expenses", s.handleExpenses)
	s.mux.HandleFunc("POST /api/v1/expenses", s.handleCreateExpense)
	s.mux.HandleFunc("GET /api/v1/expenses/summary", s.handleSummary)
	s.mux.HandleFunc("GET /api/v1/expenses/{id}", s.handleGetExpense)
	s.mux.HandleFunc("PUT /api/v1/expenses/{id}", s.handleUpdateExpense)
	s.mux.HandleFunc("DELETE /api/v1/expenses/{id}", s.handleDeleteExpense)
	s.mux.HandleFunc("GET /api/v1/export", s.handleExport)
	s.mux.HandleFunc("GET /api/v1/budgets/status", s.handleBudgetStatus)
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) owner(r *http.Request) string {
	if id := r.Header.Get(OwnerHeader); id != "" {
		return id
	}
	return s.opts.DefaultOwner
}

// anchor parses the "date" query parameter, defaulting to now.
func (s *Server) anchor(r *http.Request) (time.Time, error) {
	v := r.URL.Query().Get("date")
	if v == "" {
		return s.opts.Now().In(s.opts.Location), nil
	}
	return model.ParseTime(v, s.opts.Location)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	s.writeJSONStatus(w, http.StatusOK, v)
}

func (s *Server) writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	date, err := s.anchor(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	rep, err := s.reporter.Daily(ctx, s.owner(r), date)
	if err != nil {
		s.internalError(w, "daily report", err)
		return
	}
	s.writeJSON(w, rep)
}

func (s *Server) handleWeekly(w http.ResponseWriter, r *http.Request) {
	date, err := s.anchor(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	rep, err := s.reporter.Weekly(ctx, s.owner(r), date)
	if err != nil {
		s.internalError(w, "weekly report", err)
		return
	}
	s.writeJSON(w, rep)
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	now := s.opts.Now().In(s.opts.Location)
	year, month := now.Year(), int(now.Month())

	q := r.URL.Query()
	if v := q.Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid year %q", v), http.StatusBadRequest)
			return
		}
		year = n
	}
	if v := q.Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 12 {
			http.Error(w, "month must be between 1 and 12", http.StatusBadRequest)
			return
		}
		month = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	rep, err := s.reporter.Monthly(ctx, s.owner(r), year, time.Month(month))
	if errors.Is(err, report.ErrInvalidMonth) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		s.internalError(w, "monthly report", err)
		return
	}
	s.writeJSON(w, rep)
}

// parseRange reads required start and end parameters and rejects empty intervals.
func (s *Server) parseRange(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	if q.Get("start") == "" || q.Get("end") == "" {
		return time.Time{}, time.Time{}, errors.New("start and end are required")
	}
	start, err := model.ParseTime(q.Get("start"), s.opts.Location)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := model.ParseTime(q.Get("end"), s.opts.Location)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, errors.New("end must be after start")
	}
	return start, end, nil
}

func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	start, end, err := s.parseRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	rep, err := s.reporter.Range(ctx, s.owner(r), start, end)
	if err != nil {
		s.internalError(w, "range summary", err)
		return
	}
	s.writeJSON(w, rep)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	date, err := s.anchor(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	ov, err := s.reporter.Overview(ctx, s.owner(r), date)
	if err != nil {
		s.internalError(w, "overview", err)
		return
	}
	s.writeJSON(w, ov)
}

// expenseFilter builds a listing filter from optional query parameters.
func (s *Server) expenseFilter(r *http.Request) (model.ExpenseFilter, error) {
	q := r.URL.Query()
	filter := model.ExpenseFilter{OwnerID: s.owner(r)}

	if v := q.Get("category"); v != "" {
		c, err := model.ParseCategory(v)
		if err != nil {
			return filter, err
		}
		filter.Category = c
	}
	for _, p := range []struct {
		key string
		dst *time.Time
	}{{"start", &filter.Start}, {"end", &filter.End}} {
		if v := q.Get(p.key); v != "" {
			t, err := model.ParseTime(v, s.opts.Location)
			if err != nil {
				return filter, err
			}
			*p.dst = t
		}
	}
	for _, p := range []struct {
		key string
		dst *int
	}{{"limit", &filter.Limit}, {"offset", &filter.Offset}} {
		if v := q.Get(p.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return filter, fmt.Errorf("invalid %s %q", p.key, v)
			}
			*p.dst = n
		}
	}
	return filter, nil
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	filter, err := s.expenseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	expenses, err := s.store.ListExpenses(ctx, filter)
	if err != nil {
		s.internalError(w, "list expenses", err)
		return
	}
	if expenses == nil {
		expenses = []model.Expense{}
	}
	s.writeJSON(w, expenses)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := export.FormatCSV
	if v := r.URL.Query().Get("format"); v != "" {
		f, err := export.ParseFormat(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		format = f
	}
	filter, err := s.expenseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	expenses, err := s.store.ListExpenses(ctx, filter)
	if err != nil {
		s.internalError(w, "export expenses", err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", "attachment; filename="+format.FileName(s.opts.Now()))
	if err := export.Write(w, format, expenses, s.opts.Location); err != nil {
		s.logger.Error("write export", "format", format, "error", err)
	}
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	statuses, err := s.budgets.Status(ctx, s.owner(r))
	if err != nil {
		s.internalError(w, "budget status", err)
		return
	}
	s.writeJSON(w, statuses)
}

package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerline/spendtrack/internal/domain"
	"github.com/ledgerline/spendtrack/internal/service"
	"github.com/ledgerline/spendtrack/pkg/httputil"
	"github.com/ledgerline/spendtrack/pkg/middleware"
	"github.com/ledgerline/spendtrack/pkg/pagination"
	"github.com/ledgerline/spendtrack/pkg/validator"
)

// ExpenseHandler handles HTTP requests for expense endpoints.
type ExpenseHandler struct {
	service *service.ExpenseService
	logger  *slog.Logger
}

// NewExpenseHandler creates a new expense HTTP handler.
func NewExpenseHandler(svc *service.ExpenseService, logger *slog.Logger) *ExpenseHandler {
	return &ExpenseHandler{service: svc, logger: logger}
}

// ExpenseRequest is the JSON request body for creating or updating an
// expense. Date is a calendar day in YYYY-MM-DD form.
type ExpenseRequest struct {
	Amount        float64  `json:"amount" validate:"required,gt=0"`
	Currency      string   `json:"currency" validate:"omitempty,len=3"`
	Date          string   `json:"date" validate:"required"`
	Category      string   `json:"category" validate:"required,min=1,max=100"`
	Tags          []string `json:"tags" validate:"omitempty,dive,min=1,max=50"`
	Notes         string   `json:"notes" validate:"omitempty,max=1000"`
	Merchant      string   `json:"merchant" validate:"omitempty,max=200"`
	Description   string   `json:"description" validate:"omitempty,max=1000"`
	AttachmentURL string   `json:"attachment_url" validate:"omitempty,url,max=500"`
}

func (req *ExpenseRequest) toInput() (service.ExpenseInput, error) {
	date, err := time.ParseInLocation("2006-01-02", req.Date, time.UTC)
	if err != nil {
		return service.ExpenseInput{}, err
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	return service.ExpenseInput{
		Amount:        req.Amount,
		Currency:      strings.ToUpper(currency),
		Date:          date,
		Category:      req.Category,
		Tags:          req.Tags,
		Notes:         req.Notes,
		Merchant:      req.Merchant,
		Description:   req.Description,
		AttachmentURL: req.AttachmentURL,
	}, nil
}

// Create handles POST /api/expenses
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req ExpenseRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input, err := req.toInput()
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "date must be in YYYY-MM-DD format"},
		})
		return
	}

	expense, err := h.service.Create(r.Context(), userID, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: expense})
}

// List handles GET /api/expenses
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	filter, err := filterFromQuery(r)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()},
		})
		return
	}

	params := pagination.FromRequest(r)
	page, err := h.service.List(r.Context(), userID, service.ListExpensesInput{
		Filter:  filter,
		Page:    params.Page,
		PerPage: params.PerPage,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: httputil.NewPaginatedResponse(page.Expenses, page.Total, page.Page, page.PerPage),
	})
}

// Get handles GET /api/expenses/{id}
func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	expense, err := h.service.Get(r.Context(), userID, id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: expense})
}

// Update handles PUT /api/expenses/{id}
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req ExpenseRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input, err := req.toInput()
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "date must be in YYYY-MM-DD format"},
		})
		return
	}

	expense, err := h.service.Update(r.Context(), userID, id.String(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: expense})
}

// Delete handles DELETE /api/expenses/{id}
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"id": id.String(), "status": "deleted"},
	})
}

// Categories handles GET /api/categories
func (h *ExpenseHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: categories})
}

// filterFromQuery parses the list filter parameters. Comma-separated
// category and tags values become lists; blank entries are dropped.
func filterFromQuery(r *http.Request) (domain.ExpenseFilter, error) {
	q := r.URL.Query()
	filter := domain.ExpenseFilter{
		Categories: splitCSV(q.Get("category")),
		Tags:       splitCSV(q.Get("tags")),
		Query:      strings.TrimSpace(q.Get("q")),
	}

	if v := q.Get("from"); v != "" {
		from, err := time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			return domain.ExpenseFilter{}, errInvalidDateParam("from")
		}
		filter.From = &from
	}

	if v := q.Get("to"); v != "" {
		to, err := time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			return domain.ExpenseFilter{}, errInvalidDateParam("to")
		}
		// Include the whole calendar day.
		end := to.AddDate(0, 0, 1).Add(-time.Millisecond)
		filter.To = &end
	}

	return filter, nil
}

type errInvalidDateParam string

func (e errInvalidDateParam) Error() string {
	return string(e) + " must be a date in YYYY-MM-DD format"
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

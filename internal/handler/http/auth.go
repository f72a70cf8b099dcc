package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ledgerline/spendtrack/internal/domain"
	"github.com/ledgerline/spendtrack/internal/service"
	"github.com/ledgerline/spendtrack/pkg/httputil"
	"github.com/ledgerline/spendtrack/pkg/validator"
)

// refreshCookieName is the httpOnly cookie carrying the refresh token.
const refreshCookieName = "refresh_token"

// refreshCookiePath scopes the cookie to the auth endpoints so it is not
// sent with every API call.
const refreshCookiePath = "/api/auth"

// AuthHandler handles HTTP requests for auth endpoints.
type AuthHandler struct {
	service      *service.AuthService
	logger       *slog.Logger
	secureCookie bool
}

// NewAuthHandler creates a new auth HTTP handler. secureCookie should be
// true everywhere except local development over plain HTTP.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger, secureCookie bool) *AuthHandler {
	return &AuthHandler{service: svc, logger: logger, secureCookie: secureCookie}
}

// --- Request DTOs ---

// RegisterRequest is the JSON request body for user registration.
type RegisterRequest struct {
	FirstName       string `json:"first_name" validate:"required,min=1,max=100"`
	LastName        string `json:"last_name" validate:"required,min=1,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6,max=15"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	Tos             bool   `json:"tos" validate:"required"`
	Phone           string `json:"phone" validate:"omitempty,max=20"`
	Marketing       bool   `json:"marketing"`
	TwoFA           bool   `json:"two_fa"`
}

// LoginRequest is the JSON request body for user login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// --- Response types ---

// RegisterResponse is the response body for a successful registration.
type RegisterResponse struct {
	Status  string       `json:"status"`
	NewUser *domain.User `json:"newUser"`
}

// LoginResponse carries the user and access token; the refresh token
// travels only in the cookie.
type LoginResponse struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"access_token"`
}

// RefreshResponse is the response body for a successful token refresh.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// --- Handlers ---

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req RegisterRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	user, err := h.service.Register(r.Context(), service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
		TwoFA:     req.TwoFA,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{
		Data: RegisterResponse{Status: "success", NewUser: user},
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req LoginRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	out, err := h.service.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.setRefreshCookie(w, out.Tokens.RefreshToken, out.SessionExpiresAt)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: LoginResponse{User: out.User, AccessToken: out.Tokens.AccessToken},
	})
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "missing refresh token"},
		})
		return
	}

	out, err := h.service.Refresh(r.Context(), cookie.Value)
	if err != nil {
		h.clearRefreshCookie(w)
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.setRefreshCookie(w, out.Tokens.RefreshToken, out.SessionExpiresAt)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: RefreshResponse{AccessToken: out.Tokens.AccessToken},
	})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		h.service.Logout(r.Context(), cookie.Value)
	}

	h.clearRefreshCookie(w)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"status": "logged out"},
	})
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

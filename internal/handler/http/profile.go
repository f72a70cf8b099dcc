package http

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ledgerline/spendtrack/internal/service"
	"github.com/ledgerline/spendtrack/pkg/httputil"
	"github.com/ledgerline/spendtrack/pkg/middleware"
	"github.com/ledgerline/spendtrack/pkg/validator"
)

// avatarField is the multipart form field carrying the avatar file.
const avatarField = "avatar"

var allowedAvatarExts = map[string]struct{}{
	".jpeg": {},
	".jpg":  {},
	".png":  {},
	".gif":  {},
}

// ProfileHandler handles HTTP requests for the current-user endpoints,
// including avatar uploads to local disk.
type ProfileHandler struct {
	service       *service.ProfileService
	logger        *slog.Logger
	uploadDir     string
	maxUploadSize int64
	baseURL       string
}

// NewProfileHandler creates a new profile HTTP handler.
func NewProfileHandler(svc *service.ProfileService, logger *slog.Logger, uploadDir string, maxUploadSize int64, baseURL string) *ProfileHandler {
	return &ProfileHandler{
		service:       svc,
		logger:        logger,
		uploadDir:     uploadDir,
		maxUploadSize: maxUploadSize,
		baseURL:       strings.TrimRight(baseURL, "/"),
	}
}

// UpdateInformationRequest is the JSON request body for updating profile
// information.
type UpdateInformationRequest struct {
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string `json:"last_name" validate:"omitempty,max=100"`
	Phone     string `json:"phone" validate:"omitempty,max=20"`
}

// Get handles GET /api/me
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	user, err := h.service.Get(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

// UpdateInformation handles PUT /api/me/information
func (h *ProfileHandler) UpdateInformation(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req UpdateInformationRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	user, err := h.service.UpdateInformation(r.Context(), userID, service.UpdateInformationInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

// UpdateAvatar handles PUT /api/me. The request is a multipart form with
// the avatar file in the "avatar" field.
func (h *ProfileHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid multipart form or file too large"},
		})
		return
	}

	file, header, err := r.FormFile(avatarField)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "avatar file is required"},
		})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := allowedAvatarExts[ext]; !ok {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "avatar must be a jpeg, jpg, png, or gif file"},
		})
		return
	}

	filename := uuid.New().String() + ext
	avatarURL, err := h.saveAvatar(file, filename)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to store avatar",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INTERNAL_ERROR", Message: "failed to store avatar"},
		})
		return
	}

	user, err := h.service.SetAvatar(r.Context(), userID, avatarURL)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

func (h *ProfileHandler) saveAvatar(src io.Reader, filename string) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	dst, err := os.Create(filepath.Join(h.uploadDir, filename))
	if err != nil {
		return "", fmt.Errorf("create avatar file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write avatar file: %w", err)
	}

	return h.baseURL + "/uploads/" + filename, nil
}

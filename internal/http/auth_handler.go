package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/barbershop-booking/internal/application"
)

type identityService interface {
	Authenticate(ctx context.Context, email, password string) (application.User, error)
	Register(ctx context.Context, params application.RegisterParams) (application.User, error)
	Logout(ctx context.Context)
	CurrentUser() (application.User, bool)
	GetUser(ctx context.Context, id int64) (application.User, error)
}

// TokenIssuer signs bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID int64, role string) (string, time.Time, error)
}

// AuthHandler serves sign-in, sign-up and session endpoints.
type AuthHandler struct {
	service   identityService
	tokens    TokenIssuer
	responder responder
	logger    *slog.Logger
}

func NewAuthHandler(service identityService, tokens TokenIssuer, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{service: service, tokens: tokens, responder: newResponder(base), logger: base}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

// CreateSession handles POST /sessions.
func (h *AuthHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil || h.tokens == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "CreateSession", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode session request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "CreateSession", "email", req.Email)
	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		logger.ErrorContext(r.Context(), "authentication rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.respondWithToken(r.Context(), w, http.StatusCreated, user, logger)
}

// Register handles POST /users. A successful sign-up also opens a session.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil || h.tokens == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Register", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode registration request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Register", "email", req.Email)
	user, err := h.service.Register(r.Context(), application.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "registration rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.respondWithToken(r.Context(), w, http.StatusCreated, user, logger)
}

// CurrentSession handles GET /sessions/current.
func (h *AuthHandler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	session, ok := SessionFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	user, err := h.service.GetUser(r.Context(), session.Principal.UserID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

// DeleteCurrentSession handles DELETE /sessions/current. Tokens are stateless,
// so the client discards its token. The process-wide session is cleared only
// when it belongs to the caller; the token stays valid until it expires.
func (h *AuthHandler) DeleteCurrentSession(w http.ResponseWriter, r *http.Request) {
	session, ok := SessionFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	if current, ok := h.service.CurrentUser(); ok && current.ID == session.Principal.UserID {
		h.service.Logout(r.Context())
	}
	h.log(r.Context(), "DeleteCurrentSession", "user_id", session.Principal.UserID).InfoContext(r.Context(), "session closed")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *AuthHandler) respondWithToken(ctx context.Context, w http.ResponseWriter, status int, user application.User, logger *slog.Logger) {
	token, expires, err := h.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		logger.ErrorContext(ctx, "failed to issue token", "error", err)
		h.responder.writeError(ctx, w, http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Authorization", "Bearer "+token)
	logger.InfoContext(ctx, "session opened", "user_id", user.ID)
	h.responder.writeJSON(ctx, w, status, sessionResponse{
		Token:     token,
		ExpiresAt: expires.UTC().Format(time.RFC3339Nano),
		User:      toUserDTO(user),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tasktrack/apiserver/internal/services"
	"github.com/tasktrack/apiserver/internal/store"
	"github.com/tasktrack/apiserver/types"
)

var (
	errMissingCredential = errors.New("missing authorization token")
	errInvalidCredential = errors.New("invalid or expired token")
)

// AuthHandler provides registration, login and identity endpoints.
type AuthHandler struct {
	users  *services.UserService
	tokens *services.TokenService
	logger *slog.Logger
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(users *services.UserService, tokens *services.TokenService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, users *services.UserService, tokens *services.TokenService, logger *slog.Logger) {
	handler := NewAuthHandler(users, tokens, logger)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.With(RequireAuth(tokens)).Get("/me", handler.Me)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// token subject in the request context. It is the only place tokens are
// verified.
func RequireAuth(tokens *services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			subject, err := tokens.Verify(tokenString)
			if err != nil {
				writeError(w, http.StatusUnauthorized, errInvalidCredential.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), subject)))
		})
	}
}

// Register creates a new user account and returns a token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to register user")
		return
	}

	h.respondWithToken(w, r, http.StatusCreated, user)
}

// Login verifies credentials and returns a token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to authenticate")
		return
	}

	h.respondWithToken(w, r, http.StatusOK, user)
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, errInvalidCredential.Error())
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, errInvalidCredential.Error())
			return
		}
		writeServiceError(w, r, h.logger, err, "failed to load user")
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{User: user})
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, user types.User) {
	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to create token")
		return
	}
	writeJSON(w, status, AuthResponse{Token: token, UserID: user.ID})
}

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

type UserResponse struct {
	User types.User `json:"user"`
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errMissingCredential
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errInvalidCredential
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errMissingCredential
	}
	return token, nil
}

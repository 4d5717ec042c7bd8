package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/toteco/apiserver/internal/services"
	"github.com/toteco/apiserver/internal/validation"
	"github.com/toteco/apiserver/types"
)

// UserHandler provides HTTP handlers for user accounts.
type UserHandler struct {
	userService *services.UserService
	logger      logrus.FieldLogger
}

func NewUserHandler(userService *services.UserService, logger logrus.FieldLogger) *UserHandler {
	return &UserHandler{userService: userService, logger: logger}
}

// UserRouter registers user routes. Account creation and recovery-code
// reset stay public; every other route goes through authMiddleware.
func UserRouter(r chi.Router, userService *services.UserService, authMiddleware func(http.Handler) http.Handler, logger logrus.FieldLogger) {
	handler := NewUserHandler(userService, logger)

	r.Post("/", handler.CreateUser)
	r.Patch("/update-recovery-code/{id}/{code}", handler.UpdateRecoveryCode)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/", handler.ListUsers)
		r.Put("/", handler.UpdateUser)
		r.Delete("/", handler.DeleteUsers)
		r.Get("/logged", handler.LoggedUser)
		r.Get("/id/{id}", handler.GetUser)
		r.Delete("/id/{id}", handler.DeleteUser)
		r.Get("/username/{username}", handler.FindByUsername)
		r.Get("/email/{email}", handler.FindByEmail)
		r.Get("/recover-account/{email}", handler.RecoverAccount)
		r.Patch("/activate/{id}", handler.Activate)
		r.Patch("/disable/{id}", handler.Disable)
		r.Patch("/update-money-spent/{id}", handler.UpdateMoneySpent)
		r.Patch("/update-publications-number/{id}", handler.UpdatePublicationsNumber)
		r.Patch("/update-password", handler.UpdatePassword)
	})
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req types.UserInput
	if !decodeBody(w, r, &req, validation.UserCreateRules) {
		return
	}

	user, err := h.userService.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err, "create user")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req types.UserUpdate
	if !decodeBody(w, r, &req, validation.UserUpdateRules) {
		return
	}

	rows, err := h.userService.Update(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err, "update user")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *UserHandler) DeleteUsers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.userService.DeleteAll(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "delete users")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	rows, err := h.userService.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "delete user")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "list users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	user, err := h.userService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "fetch user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) FindByUsername(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.FindByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeServiceError(w, h.logger, err, "find users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) FindByEmail(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.FindByEmail(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeServiceError(w, h.logger, err, "find users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// LoggedUser returns the account the bearer token was issued for.
func (h *UserHandler) LoggedUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := h.userService.Get(r.Context(), claims.ID)
	if err != nil {
		writeServiceError(w, h.logger, err, "fetch user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// RecoverAccount responds with null when no account uses the email.
func (h *UserHandler) RecoverAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.userService.RecoverAccount(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeServiceError(w, h.logger, err, "recover account")
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *UserHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.patchByID(w, r, "activate user", h.userService.Activate)
}

func (h *UserHandler) Disable(w http.ResponseWriter, r *http.Request) {
	h.patchByID(w, r, "disable user", h.userService.Disable)
}

func (h *UserHandler) UpdateMoneySpent(w http.ResponseWriter, r *http.Request) {
	h.patchByID(w, r, "update money spent", h.userService.UpdateMoneySpent)
}

func (h *UserHandler) UpdatePublicationsNumber(w http.ResponseWriter, r *http.Request) {
	h.patchByID(w, r, "update publications number", h.userService.UpdatePublicationsNumber)
}

// UpdateRecoveryCode sets the recovery code of an account; a code of 0
// clears it.
func (h *UserHandler) UpdateRecoveryCode(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	raw := chi.URLParam(r, "code")
	if err := validation.Value("code", raw, validation.Integer); err != nil {
		writeServiceError(w, h.logger, err, "update recovery code")
		return
	}
	code, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid code")
		return
	}

	rows, err := h.userService.UpdateRecoveryCode(r.Context(), id, code)
	if err != nil {
		writeServiceError(w, h.logger, err, "update recovery code")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req types.PasswordUpdate
	if !decodeBody(w, r, &req, validation.PasswordUpdateRules) {
		return
	}

	rows, err := h.userService.UpdatePassword(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err, "update password")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *UserHandler) patchByID(w http.ResponseWriter, r *http.Request, action string, fn func(ctx context.Context, id uuid.UUID) (int64, error)) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	rows, err := fn(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, action)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

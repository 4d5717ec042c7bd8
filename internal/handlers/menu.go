package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/toteco/apiserver/internal/services"
	"github.com/toteco/apiserver/internal/validation"
	"github.com/toteco/apiserver/types"
)

// MenuHandler provides HTTP handlers for menus.
type MenuHandler struct {
	menuService *services.MenuService
	logger      logrus.FieldLogger
}

func NewMenuHandler(menuService *services.MenuService, logger logrus.FieldLogger) *MenuHandler {
	return &MenuHandler{menuService: menuService, logger: logger}
}

// MenuRouter registers menu routes on the given router.
func MenuRouter(r chi.Router, menuService *services.MenuService, authMiddleware func(http.Handler) http.Handler, logger logrus.FieldLogger) {
	handler := NewMenuHandler(menuService, logger)

	r.Use(authMiddleware)
	r.Post("/", handler.CreateMenu)
	r.Put("/", handler.UpdateMenu)
	r.Delete("/", handler.DeleteMenus)
	r.Get("/", handler.ListMenus)
	r.Get("/id/{id}", handler.GetMenu)
	r.Delete("/id/{id}", handler.DeleteMenu)
}

func (h *MenuHandler) CreateMenu(w http.ResponseWriter, r *http.Request) {
	var req types.MenuInput
	if !decodeBody(w, r, &req, validation.MenuCreateRules) {
		return
	}

	menu, err := h.menuService.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err, "create menu")
		return
	}
	writeJSON(w, http.StatusCreated, menu)
}

func (h *MenuHandler) UpdateMenu(w http.ResponseWriter, r *http.Request) {
	var req types.MenuUpdate
	if !decodeBody(w, r, &req, validation.MenuUpdateRules) {
		return
	}

	rows, err := h.menuService.Update(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err, "update menu")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *MenuHandler) DeleteMenus(w http.ResponseWriter, r *http.Request) {
	rows, err := h.menuService.DeleteAll(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "delete menus")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *MenuHandler) DeleteMenu(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	rows, err := h.menuService.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "delete menu")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *MenuHandler) ListMenus(w http.ResponseWriter, r *http.Request) {
	menus, err := h.menuService.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "list menus")
		return
	}
	writeJSON(w, http.StatusOK, menus)
}

func (h *MenuHandler) GetMenu(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	menu, err := h.menuService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "fetch menu")
		return
	}
	writeJSON(w, http.StatusOK, menu)
}

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/toteco/apiserver/internal/services"
	"github.com/toteco/apiserver/internal/validation"
	"github.com/toteco/apiserver/types"
)

// EstablishmentHandler provides HTTP handlers for establishments.
type EstablishmentHandler struct {
	establishmentService *services.EstablishmentService
	logger               logrus.FieldLogger
}

func NewEstablishmentHandler(establishmentService *services.EstablishmentService, logger logrus.FieldLogger) *EstablishmentHandler {
	return &EstablishmentHandler{establishmentService: establishmentService, logger: logger}
}

// EstablishmentRouter registers establishment routes on the given router.
func EstablishmentRouter(r chi.Router, establishmentService *services.EstablishmentService, authMiddleware func(http.Handler) http.Handler, logger logrus.FieldLogger) {
	handler := NewEstablishmentHandler(establishmentService, logger)

	r.Use(authMiddleware)
	r.Post("/", handler.CreateEstablishment)
	r.Put("/", handler.UpdateEstablishment)
	r.Delete("/", handler.DeleteEstablishments)
	r.Get("/", handler.ListEstablishments)
	r.Get("/id/{id}", handler.GetEstablishment)
	r.Delete("/id/{id}", handler.DeleteEstablishment)
	r.Get("/name/{name}", handler.FindByName)
	r.Get("/mapsId/{mapsId}", handler.FindByMapsID)
}

func (h *EstablishmentHandler) CreateEstablishment(w http.ResponseWriter, r *http.Request) {
	var req types.EstablishmentInput
	if !decodeBody(w, r, &req, validation.EstablishmentCreateRules) {
		return
	}

	establishment, err := h.establishmentService.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err, "create establishment")
		return
	}
	writeJSON(w, http.StatusCreated, establishment)
}

func (h *EstablishmentHandler) UpdateEstablishment(w http.ResponseWriter, r *http.Request) {
	var req types.EstablishmentUpdate
	if !decodeBody(w, r, &req, validation.EstablishmentUpdateRules) {
		return
	}

	rows, err := h.establishmentService.Update(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err, "update establishment")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *EstablishmentHandler) DeleteEstablishments(w http.ResponseWriter, r *http.Request) {
	rows, err := h.establishmentService.DeleteAll(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "delete establishments")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *EstablishmentHandler) DeleteEstablishment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	rows, err := h.establishmentService.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "delete establishment")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *EstablishmentHandler) ListEstablishments(w http.ResponseWriter, r *http.Request) {
	establishments, err := h.establishmentService.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "list establishments")
		return
	}
	writeJSON(w, http.StatusOK, establishments)
}

func (h *EstablishmentHandler) GetEstablishment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	establishment, err := h.establishmentService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "fetch establishment")
		return
	}
	writeJSON(w, http.StatusOK, establishment)
}

func (h *EstablishmentHandler) FindByName(w http.ResponseWriter, r *http.Request) {
	establishments, err := h.establishmentService.FindByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeServiceError(w, h.logger, err, "find establishments")
		return
	}
	writeJSON(w, http.StatusOK, establishments)
}

func (h *EstablishmentHandler) FindByMapsID(w http.ResponseWriter, r *http.Request) {
	establishments, err := h.establishmentService.FindByMapsID(r.Context(), chi.URLParam(r, "mapsId"))
	if err != nil {
		writeServiceError(w, h.logger, err, "find establishments")
		return
	}
	writeJSON(w, http.StatusOK, establishments)
}

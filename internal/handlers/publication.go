package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/toteco/apiserver/internal/metrics"
	"github.com/toteco/apiserver/internal/services"
	"github.com/toteco/apiserver/internal/validation"
	"github.com/toteco/apiserver/types"
)

// PublicationHandler provides HTTP handlers for publications.
type PublicationHandler struct {
	publicationService *services.PublicationService
	metrics            *metrics.Metrics
	logger             logrus.FieldLogger
}

func NewPublicationHandler(publicationService *services.PublicationService, m *metrics.Metrics, logger logrus.FieldLogger) *PublicationHandler {
	return &PublicationHandler{publicationService: publicationService, metrics: m, logger: logger}
}

// PublicationRouter registers publication routes on the given router.
func PublicationRouter(
	r chi.Router,
	publicationService *services.PublicationService,
	m *metrics.Metrics,
	authMiddleware func(http.Handler) http.Handler,
	logger logrus.FieldLogger,
) {
	handler := NewPublicationHandler(publicationService, m, logger)

	r.Use(authMiddleware)
	r.Post("/", handler.CreatePublication)
	r.Put("/", handler.UpdatePublication)
	r.Delete("/", handler.DeletePublications)
	r.Get("/", handler.ListPublications)
	r.Get("/id/{id}", handler.GetPublication)
	r.Delete("/id/{id}", handler.DeletePublication)
	r.Get("/establishment/{id}", handler.FindByEstablishment)
	r.Get("/user/{id}", handler.FindByUser)
}

func (h *PublicationHandler) CreatePublication(w http.ResponseWriter, r *http.Request) {
	var req types.PublicationInput
	if !decodeBody(w, r, &req, validation.PublicationCreateRules) {
		return
	}

	publication, err := h.publicationService.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err, "create publication")
		return
	}
	if h.metrics != nil {
		h.metrics.PublicationCreated()
	}
	writeJSON(w, http.StatusCreated, publication)
}

func (h *PublicationHandler) UpdatePublication(w http.ResponseWriter, r *http.Request) {
	var req types.PublicationUpdate
	if !decodeBody(w, r, &req, validation.PublicationUpdateRules) {
		return
	}

	rows, err := h.publicationService.Update(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err, "update publication")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *PublicationHandler) DeletePublications(w http.ResponseWriter, r *http.Request) {
	rows, err := h.publicationService.DeleteAll(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "delete publications")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *PublicationHandler) DeletePublication(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	rows, err := h.publicationService.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "delete publication")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *PublicationHandler) ListPublications(w http.ResponseWriter, r *http.Request) {
	publications, err := h.publicationService.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "list publications")
		return
	}
	writeJSON(w, http.StatusOK, publications)
}

func (h *PublicationHandler) GetPublication(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	publication, err := h.publicationService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "fetch publication")
		return
	}
	writeJSON(w, http.StatusOK, publication)
}

func (h *PublicationHandler) FindByEstablishment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	publications, err := h.publicationService.FindByEstablishment(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "find publications")
		return
	}
	writeJSON(w, http.StatusOK, publications)
}

func (h *PublicationHandler) FindByUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	publications, err := h.publicationService.FindByUser(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "find publications")
		return
	}
	writeJSON(w, http.StatusOK, publications)
}

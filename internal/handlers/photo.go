package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/toteco/apiserver/internal/services"
	"github.com/toteco/apiserver/internal/validation"
)

const (
	formFieldPhoto     = "photo"
	maxMultipartMemory = 1 << 20
)

// PhotoHandler uploads and serves pictures referenced by users and
// publications.
type PhotoHandler struct {
	photoService *services.PhotoService
	logger       logrus.FieldLogger
}

func NewPhotoHandler(photoService *services.PhotoService, logger logrus.FieldLogger) *PhotoHandler {
	return &PhotoHandler{photoService: photoService, logger: logger}
}

// PhotoRouter registers photo routes on the given router.
func PhotoRouter(r chi.Router, photoService *services.PhotoService, authMiddleware func(http.Handler) http.Handler, logger logrus.FieldLogger) {
	handler := NewPhotoHandler(photoService, logger)

	r.Use(authMiddleware)
	r.Post("/", handler.UploadPhoto)
	r.Get("/{name}", handler.GetPhoto)
	r.Delete("/{name}", handler.DeletePhoto)
}

type PhotoResponse struct {
	Photo string `json:"photo"`
}

func (h *PhotoHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	// Allow the multipart envelope on top of the largest accepted file.
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxPhotoSize+maxMultipartMemory)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "photo is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile(formFieldPhoto)
	if err != nil {
		writeValidationError(w, &validation.Error{
			Message: "validation failed",
			Fields:  validation.Violations{formFieldPhoto: validation.ReasonRequired},
		})
		return
	}
	defer file.Close()

	key, err := h.photoService.Upload(r.Context(), file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		writeServiceError(w, h.logger, err, "store photo")
		return
	}
	writeJSON(w, http.StatusCreated, PhotoResponse{Photo: key})
}

func (h *PhotoHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	obj, err := h.photoService.Open(r.Context(), "photos/"+chi.URLParam(r, "name"))
	if err != nil {
		writeServiceError(w, h.logger, err, "fetch photo")
		return
	}
	defer obj.Close()

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj); err != nil {
		h.logger.WithError(err).Warn("failed to stream photo")
	}
}

func (h *PhotoHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	if err := h.photoService.Delete(r.Context(), "photos/"+chi.URLParam(r, "name")); err != nil {
		writeServiceError(w, h.logger, err, "delete photo")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package api

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/starford/sensemap/internal/storage"
)

// ImageHandler serves and accepts map images.
type ImageHandler struct {
	images    storage.Provider
	maxUpload int64
}

// NewImageHandler creates a handler over the image store. Uploads larger than
// maxUpload bytes are rejected; values outside (0, storage.MaxImageSize]
// fall back to storage.MaxImageSize.
func NewImageHandler(images storage.Provider, maxUpload int64) *ImageHandler {
	if maxUpload <= 0 || maxUpload > storage.MaxImageSize {
		maxUpload = storage.MaxImageSize
	}
	return &ImageHandler{images: images, maxUpload: maxUpload}
}

// ServeFile handles GET /images/{filename}.
func (h *ImageHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	abs, err := h.images.Path(chi.URLParam(r, "filename"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, statErr := os.Stat(abs); errors.Is(statErr, os.ErrNotExist) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}

// Upload handles POST /api/images (multipart/form-data, field "file").
// The stored name is a fresh UUID; the client's file name only hints the type.
//
//	@Summary		Upload a map image
//	@Tags			images
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Image file"
//	@Success		201		{object}	ImageUploadResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/images [post]
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}
	if int64(len(data)) > h.maxUpload {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("file too large"))
		return
	}

	name, err := storage.SaveImage(h.images, data, filepath.Ext(header.Filename))
	if err != nil {
		writeError(w, "upload image", err)
		return
	}

	writeJSON(w, http.StatusCreated, ImageUploadResponse{
		Filename: name,
		Size:     int64(len(data)),
		URL:      "/images/" + name,
	})
}

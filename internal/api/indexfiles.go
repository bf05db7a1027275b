package api

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/newsroll/internal/models"
	"github.com/starford/newsroll/internal/sse"
	"github.com/starford/newsroll/internal/storage"
)

const maxUploadBytes = 50 << 20 // 50 MB

// IndexChangeNotifier is told when an uploaded file replaces an index.
// *newsservice.Service satisfies it.
type IndexChangeNotifier interface {
	IndexChanged(kind string)
}

// IndexFileHandler serves and accepts the JSON index files of the local
// index directory.
type IndexFileHandler struct {
	store    storage.Provider
	notifier IndexChangeNotifier
}

// NewIndexFileHandler creates a handler over store.
func NewIndexFileHandler(store storage.Provider, notifier IndexChangeNotifier) *IndexFileHandler {
	return &IndexFileHandler{store: store, notifier: notifier}
}

// fileName validates that name is a plain .json file name.
func fileName(name string) (string, error) {
	if name == "" {
		return "", errors.New("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") || strings.HasPrefix(cleaned, ".") {
		return "", errors.New("invalid filename: " + name)
	}
	if filepath.Ext(cleaned) != ".json" {
		return "", errors.New("index files must have a .json extension")
	}
	return cleaned, nil
}

// List handles GET /api/index/files.
//
//	@Summary		List local index files
//	@Tags			index
//	@Produce		json
//	@Success		200	{object}	IndexFileListResponse
//	@Security		BearerAuth
//	@Router			/index/files [get]
func (h *IndexFileHandler) List(w http.ResponseWriter, _ *http.Request) {
	files, err := h.store.List()
	if err != nil {
		slog.Error("list index files failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if files == nil {
		files = []models.IndexFileMeta{}
	}
	writeJSON(w, http.StatusOK, IndexFileListResponse{Files: files})
}

// ServeFile handles GET /api/index/files/{filename}.
//
//	@Summary		Download a local index file
//	@Tags			index
//	@Produce		json
//	@Param			filename	path	string	true	"File name"
//	@Success		200
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/index/files/{filename} [get]
func (h *IndexFileHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	name, err := fileName(chi.URLParam(r, "filename"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	data, err := h.store.Read(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("read index file failed", slog.String("name", name), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// Upload handles POST /api/index/files (multipart/form-data, field "file").
// The file must decode as a page index; it replaces any file of the same name.
//
//	@Summary		Upload a local index file
//	@Tags			index
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Index JSON"
//	@Success		201		{object}	IndexUploadResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/index/files [post]
func (h *IndexFileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	name, err := fileName(header.Filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}
	var page models.IndexPage
	if err := json.Unmarshal(data, &page); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file is not a page index: "+err.Error()))
		return
	}

	if err := h.store.Write(name, data); err != nil {
		slog.Error("write index file failed", slog.String("name", name), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to write file"))
		return
	}
	if h.notifier != nil {
		h.notifier.IndexChanged(sse.KindUpdated)
	}

	writeJSON(w, http.StatusCreated, IndexUploadResponse{
		Name:    name,
		Size:    int64(len(data)),
		Entries: len(page.Data),
	})
}

package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tasktrack/apiserver/internal/storage"
)

const clientIndex = "index.html"

// AssetStore is the read side of the bucket holding the client build.
type AssetStore interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// ClientHandler serves the single-page client from object storage.
type ClientHandler struct {
	assets AssetStore
	prefix string
	logger *slog.Logger
}

// ClientRouter registers the static client routes. Unknown paths without a
// file extension fall back to index.html so client-side routing works.
func ClientRouter(r chi.Router, assets AssetStore, prefix string, logger *slog.Logger) {
	handler := &ClientHandler{assets: assets, prefix: prefix, logger: logger}
	r.Get("/*", handler.ServeAsset)
}

// ServeAsset streams one client file, falling back to index.html for routes.
func (h *ClientHandler) ServeAsset(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+chi.URLParam(r, "*")), "/")
	if name == "" {
		name = clientIndex
	}

	body, err := h.assets.Get(r.Context(), storage.ObjectKey(h.prefix, name))
	if errors.Is(err, storage.ErrNotFound) && path.Ext(name) == "" {
		name = clientIndex
		body, err = h.assets.Get(r.Context(), storage.ObjectKey(h.prefix, name))
	}
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to load client asset",
			slog.String("asset", name),
			slog.Any("error", err),
		)
		writeError(w, http.StatusInternalServerError, "failed to load asset")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", storage.ContentType(name))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, body)
}

package images

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"image-pipeline/internal/domain"
	"image-pipeline/internal/fetch"
	"image-pipeline/internal/http-server/handler/images/dto"
	repoImage "image-pipeline/internal/repository/image"
	"image-pipeline/internal/resolver"
	"image-pipeline/internal/usecase/operations"
	"image-pipeline/internal/usecase/thumbnail"
	"image-pipeline/internal/usecase/upload"

	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/zlog"
)

const maxMemory = 32 << 20

type ImagesHandler struct {
	thumbnails thumbnailService
	uploads    uploadUsecase
	resolver   *resolver.Resolver
	validate   *validator.Validate
	logger     *zlog.Zerolog
}

func NewImagesHandler(thumbnails thumbnailService, uploads uploadUsecase, res *resolver.Resolver, logger *zlog.Zerolog) *ImagesHandler {
	return &ImagesHandler{
		thumbnails: thumbnails,
		uploads:    uploads,
		resolver:   res,
		validate:   validator.New(),
		logger:     logger,
	}
}

// Thumbnail serves GET /api/images/thumbnail?url=<src>&w=<int>&h=<int>.
// The key= alias addresses stored objects directly.
func (h *ImagesHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	src := r.URL.Query().Get("url")
	if src == "" {
		src = r.URL.Query().Get("key")
	}
	width, _ := strconv.Atoi(r.URL.Query().Get("w"))
	height, _ := strconv.Atoi(r.URL.Query().Get("h"))

	req := dto.ThumbnailRequest{Source: src, Width: width, Height: height}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Missing or invalid url/w/h parameters")
		return
	}

	result, err := h.thumbnails.Render(ctx, thumbnail.Request{
		Source: req.Source,
		Width:  req.Width,
		Height: req.Height,
	})
	if err != nil {
		h.handleThumbnailError(w, err, req)
		return
	}

	if result.RedirectURL != "" {
		w.Header().Set("Cache-Control", domain.CacheControlImmutable)
		http.Redirect(w, r, result.RedirectURL, http.StatusFound)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Bytes)))
	w.Header().Set("Cache-Control", domain.CacheControlImmutable)
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if _, err := w.Write(result.Bytes); err != nil {
		h.logger.Error().Err(err).Str("key", result.Key).Msg("Failed to stream thumbnail")
	}
}

// Upload serves POST /api/images/upload with either a multipart file or a
// JSON body carrying a data URI.
func (h *ImagesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, domain.DefaultMaxUploadSize)

	var (
		result *domain.UploadResult
		err    error
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if parseErr := r.ParseMultipartForm(maxMemory); parseErr != nil {
			h.logger.Warn().Err(parseErr).Msg("Failed to parse multipart form")
			h.respondError(w, http.StatusBadRequest, "Invalid request format")
			return
		}

		file, header, formErr := r.FormFile("file")
		if formErr != nil {
			h.respondError(w, http.StatusBadRequest, "File is required")
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			h.respondError(w, http.StatusBadRequest, "File must be an image")
			return
		}

		data, readErr := io.ReadAll(file)
		if readErr != nil {
			h.logger.Error().Err(readErr).Str("filename", header.Filename).Msg("Failed to read file")
			h.respondError(w, http.StatusInternalServerError, "Failed to read file")
			return
		}

		result, err = h.uploads.SaveImage(ctx, data, header.Filename, contentType)
	} else {
		var req dto.UploadDataRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if validateErr := h.validate.Struct(req); validateErr != nil {
			h.respondError(w, http.StatusBadRequest, "dataUrl is required")
			return
		}

		result, err = h.uploads.SaveDataURI(ctx, req.DataURL, req.Filename)
	}

	if err != nil {
		h.handleUploadError(w, err)
		return
	}

	response := dto.UploadResponse{
		Key:    result.Key,
		URL:    h.resolver.PublicURL(result.Key),
		Width:  result.Width,
		Height: result.Height,
	}
	for _, rendition := range result.Renditions {
		response.Renditions = append(response.Renditions, dto.RenditionInfo{
			Key:    rendition.Key,
			Format: string(rendition.Format),
			Width:  rendition.Width,
			Height: rendition.Height,
			URL:    h.resolver.PublicURL(rendition.Key),
		})
	}

	h.respondJSON(w, http.StatusOK, response)
}

// Resolve serves GET /api/images/resolve?key=&usage= so non-Go collaborators
// can reuse the URL resolver.
func (h *ImagesHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		h.respondError(w, http.StatusBadRequest, "key parameter is required")
		return
	}

	usage := r.URL.Query().Get("usage")
	if usage == "" {
		h.respondJSON(w, http.StatusOK, dto.ResolveResponse{Src: h.resolver.PublicURL(key)})
		return
	}

	set := h.resolver.ResponsiveSet(key, usage)
	h.respondJSON(w, http.StatusOK, dto.ResolveResponse{Src: set.Src, SrcSet: set.SrcSet, Sizes: set.Sizes})
}

func (h *ImagesHandler) handleThumbnailError(w http.ResponseWriter, err error, req dto.ThumbnailRequest) {
	switch {
	case errors.Is(err, thumbnail.ErrHostNotAllowed):
		h.logger.Warn().Str("source", req.Source).Msg("Disallowed thumbnail source host")
		h.respondError(w, http.StatusForbidden, "Source host not allowed")
	case errors.Is(err, thumbnail.ErrInvalidSource):
		h.respondError(w, http.StatusBadRequest, "Invalid thumbnail source")
	case errors.Is(err, fetch.ErrSourceFetch), errors.Is(err, repoImage.ErrObjectNotFound):
		h.logger.Warn().Err(err).Str("source", req.Source).Msg("Thumbnail source unavailable")
		h.respondError(w, http.StatusBadGateway, "Source image unavailable")
	case errors.Is(err, repoImage.ErrStorageWrite), errors.Is(err, repoImage.ErrStorageRead):
		h.logger.Error().Err(err).Str("source", req.Source).Msg("Thumbnail storage failure")
		h.respondError(w, http.StatusBadGateway, "Storage unavailable")
	default:
		h.logger.Error().Err(err).Str("source", req.Source).Msg("Thumbnail generation failed")
		h.respondError(w, http.StatusInternalServerError, "Failed to generate thumbnail")
	}
}

func (h *ImagesHandler) handleUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, upload.ErrEmptyPayload), errors.Is(err, upload.ErrInvalidDataURI):
		h.respondError(w, http.StatusBadRequest, "Invalid upload payload")
	case errors.Is(err, operations.ErrProcessing):
		h.logger.Warn().Err(err).Msg("Upload processing failed")
		h.respondError(w, http.StatusBadRequest, "Unsupported or corrupt image")
	case errors.Is(err, repoImage.ErrStorageWrite), errors.Is(err, repoImage.ErrStorageRead):
		h.logger.Error().Err(err).Msg("Upload storage failure")
		h.respondError(w, http.StatusBadGateway, "Storage unavailable")
	default:
		h.logger.Error().Err(err).Msg("Upload failed")
		h.respondError(w, http.StatusInternalServerError, "Failed to store image")
	}
}

func (h *ImagesHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Interface("data", data).Msg("Failed to encode response")
	}
}

func (h *ImagesHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, dto.ErrorResponse{Error: message})
}

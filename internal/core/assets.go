package core

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"

	"assetgate/internal/assets"
	"assetgate/internal/auth"
)

// multipartMemory is the part of a multipart upload kept in memory; the
// remainder is spooled to temporary files by net/http.
const multipartMemory = 32 << 20

// handleGetAsset implements GET /assets/{name}.
func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	s.serveAttachment(w, r, s.assets, r.PathValue("name"))
}

// handleGetImage implements GET /images/{name}.
func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	s.serveAttachment(w, r, s.images, r.PathValue("name"))
}

// serveAttachment streams the named object to the client as a file
// download. Nothing is written until the store has confirmed the object
// exists.
func (s *Server) serveAttachment(w http.ResponseWriter, r *http.Request, store *assets.Store, name string) {
	ctx := r.Context()

	body, info, err := store.Fetch(ctx, name)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	if info.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, body); err != nil {
		slog.Error("Stream asset", "request_id", RequestID(ctx), "bucket", store.Bucket(), "name", name, "err", err)
	}
}

// handlePutAsset implements PUT /assets/. The caller's claims are checked
// before the form is read, then the filename, then its type.
func (s *Server) handlePutAsset(w http.ResponseWriter, r *http.Request) {
	if !auth.ClaimsFromContext(r.Context()).Has(auth.PermissionAddAsset) {
		writeError(w, http.StatusForbidden, "Missing permission: "+auth.PermissionAddAsset+".")
		return
	}

	s.upload(w, r, s.assets, "asset", "/assets/", true)
}

// handlePutImage implements the unauthenticated PUT /images/.
func (s *Server) handlePutImage(w http.ResponseWriter, r *http.Request) {
	s.upload(w, r, s.images, "image", "/images/", false)
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request, store *assets.Store, field string, prefix string, validate bool) {
	ctx := r.Context()

	file, header, err := formFile(r, field)
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			writeError(w, http.StatusRequestEntityTooLarge, "Upload exceeds the maximum allowed size.")
		case errors.Is(err, http.ErrMissingFile):
			writeError(w, http.StatusBadRequest, "Missing file field "+strconv.Quote(field)+".")
		default:
			writeError(w, http.StatusBadRequest, "Malformed multipart form.")
		}
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()
	defer file.Close()

	name := header.Filename
	if name == "" || name == "." || name == "/" {
		writeError(w, http.StatusBadRequest, "The uploaded file has no name.")
		return
	}

	if validate && !assets.IsValidAssetType(name) {
		writeError(w, http.StatusUnsupportedMediaType, "Only image, audio and video files are accepted.")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(name))
	}

	if err := store.Put(ctx, name, file, header.Size, contentType); err != nil {
		slog.Error("Store upload", "request_id", RequestID(ctx), "bucket", store.Bucket(), "name", name, "err", err)
		writeInternalError(w)
		return
	}

	slog.Info("Stored upload", "request_id", RequestID(ctx), "bucket", store.Bucket(), "name", name, "size", header.Size)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, prefix+name)
}

// formFile parses the multipart body and returns the file sent in field.
// On success the caller removes the parsed form once it is done with the
// file.
func formFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, nil, err
	}
	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		_ = r.MultipartForm.RemoveAll()
		return nil, nil, http.ErrMissingFile
	}

	f, err := files[0].Open()
	if err != nil {
		_ = r.MultipartForm.RemoveAll()
		return nil, nil, err
	}
	return f, files[0], nil
}

// handleListAssets implements GET /assets/.
func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	names, err := s.assets.ListAll(r.Context())
	if err != nil {
		slog.Error("List assets", "request_id", RequestID(r.Context()), "kind", assets.KindOf(err), "err", err)
		writeInternalError(w)
		return
	}

	writeJSONResponse(w, http.StatusOK, ListAssetsResponse{
		Assets:     names,
		TotalCount: len(names),
	})
}

// handleGetAssetInfo implements GET /assets/{name}/info.
func (s *Server) handleGetAssetInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.assets.Stat(r.Context(), r.PathValue("name"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, NewAssetInfo(info))
}

// handleBatchAssetInfo implements POST /assets/batch/info. Per-asset
// failures never fail the request; they are simply absent from the result.
func (s *Server) handleBatchAssetInfo(w http.ResponseWriter, r *http.Request) {
	var req BatchAssetInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed JSON body.")
		return
	}

	infos := s.assets.BatchStat(r.Context(), req.AssetNames)

	resp := BatchAssetInfoResponse{Assets: make([]AssetInfo, 0, len(infos))}
	for _, info := range infos {
		resp.Assets = append(resp.Assets, NewAssetInfo(info))
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

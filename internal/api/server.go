// Package api exposes the file service over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/renjuashokan/filepi/internal/files"
	"github.com/renjuashokan/filepi/internal/logging"
	"github.com/renjuashokan/filepi/internal/metrics"
	"github.com/renjuashokan/filepi/internal/thumbs"
)

// Server routes HTTP requests to the file service.
type Server struct {
	svc    *files.Service
	thumbs *thumbs.Cache
}

// NewServer creates an HTTP server around a file service and thumbnail cache.
func NewServer(svc *files.Service, cache *thumbs.Cache) *Server {
	return &Server{svc: svc, thumbs: cache}
}

// Handler returns the full HTTP handler with logging and metrics middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /api/v1/files", s.handleFiles)
	mux.HandleFunc("GET /api/v1/videos", s.handleVideos)
	mux.HandleFunc("GET /api/v1/search", s.handleSearch)

	mux.HandleFunc("POST /api/v1/createfolder", s.handleCreateFolder)
	mux.HandleFunc("POST /api/v1/uploadfile", s.handleUpload)
	mux.HandleFunc("POST /api/v1/mv", s.handleMove)

	mux.HandleFunc("GET /api/v1/file/{filePath...}", s.handleFile)
	mux.HandleFunc("GET /api/v1/stream/{filePath...}", s.handleStream)
	mux.HandleFunc("GET /api/v1/thumbnail/{filePath...}", s.handleThumbnail)

	return metrics.Middleware(logging.Middleware(mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Message: "filepi server is running",
	})
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	path, opts := listingParams(r)
	listing, err := s.svc.List(path, opts)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	metrics.RecordListing("files")
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleVideos(w http.ResponseWriter, r *http.Request) {
	path, opts := listingParams(r)
	recursive := boolParam(r, "recursive", true)
	listing, err := s.svc.Videos(path, recursive, opts)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	metrics.RecordListing("videos")
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		s.sendError(w, r, fmt.Errorf("%w: missing query parameter", files.ErrInvalidName))
		return
	}
	path, opts := listingParams(r)
	listing, err := s.svc.Search(path, query, opts)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	metrics.RecordListing("search")
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req CreateFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendErrorStatus(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.svc.CreateFolder(req.Path, req.FolderName); err != nil {
		metrics.RecordMutation("createfolder", false)
		s.sendError(w, r, err)
		return
	}
	metrics.RecordMutation("createfolder", true)
	logging.WithContext(r.Context()).Info("folder created",
		zap.String("path", req.Path), zap.String("name", req.FolderName))
	writeJSON(w, http.StatusCreated, MessageResponse{Message: "folder created"})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendErrorStatus(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.svc.Move(req.OldPath, req.NewPath); err != nil {
		metrics.RecordMutation("move", false)
		s.sendError(w, r, err)
		return
	}
	metrics.RecordMutation("move", true)
	logging.WithContext(r.Context()).Info("entry moved",
		zap.String("old", req.OldPath), zap.String("new", req.NewPath))
	writeJSON(w, http.StatusOK, MessageResponse{Message: "moved successfully"})
}

// handleUpload consumes a streaming multipart body. Text fields (location,
// user, sha512) must precede the file part, since the file is written out as
// it arrives rather than buffered.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	mr, err := r.MultipartReader()
	if err != nil {
		s.sendErrorStatus(w, http.StatusBadRequest, "expected multipart body")
		return
	}

	location := "."
	user := ""
	clientSHA := ""
	var result *files.UploadResult
	var filename string

	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}
		switch part.FormName() {
		case "location":
			location = readFormValue(part)
		case "user":
			user = readFormValue(part)
		case "sha512":
			clientSHA = readFormValue(part)
		case "file":
			filename = part.FileName()
			result, err = s.svc.SaveUpload(location, filename, part, clientSHA)
			part.Close()
			if err != nil {
				metrics.RecordContentUpload(0, false)
				s.sendError(w, r, err)
				return
			}
		default:
			part.Close()
		}
	}

	if result == nil {
		s.sendErrorStatus(w, http.StatusBadRequest, "missing file part")
		return
	}

	metrics.RecordContentUpload(result.Size, true)
	logging.WithContext(r.Context()).Info("file uploaded",
		zap.String("path", result.RelPath),
		zap.Int64("size", result.Size),
		zap.String("user", user),
		zap.Bool("skipped", result.Skipped),
	)

	msg := "file uploaded successfully"
	if result.Skipped {
		msg = "file already exists with identical content"
	}
	writeJSON(w, http.StatusOK, UploadResponse{
		Message:    msg,
		Filename:   filename,
		Location:   result.RelPath,
		UploadedBy: user,
		SHA512:     result.SHA512,
		Skipped:    result.Skipped,
	})
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	inline := boolParam(r, "inline", false)
	s.serveContent(w, r, r.PathValue("filePath"), inline, false)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	s.serveContent(w, r, r.PathValue("filePath"), true, true)
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	relPath := r.PathValue("filePath")
	entry, err := s.svc.StatFile(relPath)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	if !thumbs.IsImage(entry.Name) && !thumbs.IsVideo(entry.Name) {
		s.sendError(w, r, fmt.Errorf("%w: %s", thumbs.ErrUnsupportedMedia, entry.Name))
		return
	}

	data, err := s.thumbs.Get(r.Context(), entry.FullName, entry.RelPath, entry.ModifiedTime)
	if err != nil {
		s.sendError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// serveContent serves full or partial file content. Range requests get a 206
// with Content-Range; an unsatisfiable range gets a 416.
func (s *Server) serveContent(w http.ResponseWriter, r *http.Request, relPath string, inline, streaming bool) {
	entry, err := s.svc.StatFile(relPath)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	size := entry.Size

	start, end, hasRange, err := parseRangeHeader(r.Header.Get("Range"), size)
	if err != nil {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		s.sendErrorStatus(w, http.StatusRequestedRangeNotSatisfiable, "invalid range")
		return
	}

	length := size
	if hasRange {
		length = end - start + 1
	}

	rc, err := s.svc.OpenRange(relPath, start, length)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", entry.FileType)
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
	if inline {
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", entry.Name))
	} else {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", entry.Name))
	}

	if hasRange {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
		w.WriteHeader(http.StatusPartialContent)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	written, err := io.Copy(w, rc)
	metrics.RecordContentDownload(written, err == nil)
	if err != nil {
		// Headers are already out; all we can do is log the broken transfer.
		logging.WithContext(r.Context()).Debug("content transfer aborted",
			zap.String("path", relPath), zap.Error(err))
	}
}

var rangeRegex = regexp.MustCompile(`^bytes=(\d*)-(\d*)$`)

// parseRangeHeader parses a single-range Range header against the file size.
// It returns the inclusive byte range, whether a range was requested at all,
// and an error for a malformed or unsatisfiable range.
func parseRangeHeader(header string, size int64) (start, end int64, hasRange bool, err error) {
	if header == "" {
		return 0, 0, false, nil
	}
	m := rangeRegex.FindStringSubmatch(header)
	if m == nil {
		return 0, 0, false, fmt.Errorf("malformed range: %q", header)
	}
	if size <= 0 {
		// No byte range over an empty file is satisfiable.
		return 0, 0, false, fmt.Errorf("unsatisfiable range %q for size %d", header, size)
	}
	startStr, endStr := m[1], m[2]

	if startStr == "" && endStr == "" {
		return 0, 0, false, fmt.Errorf("malformed range: %q", header)
	}

	if startStr == "" {
		// Suffix range: the last N bytes.
		n, perr := strconv.ParseInt(endStr, 10, 64)
		if perr != nil || n <= 0 {
			return 0, 0, false, fmt.Errorf("malformed range: %q", header)
		}
		if n > size {
			n = size
		}
		return size - n, size - 1, true, nil
	}

	start, perr := strconv.ParseInt(startStr, 10, 64)
	if perr != nil {
		return 0, 0, false, fmt.Errorf("malformed range: %q", header)
	}
	if start >= size {
		return 0, 0, false, fmt.Errorf("range start %d beyond size %d", start, size)
	}

	end = size - 1
	if endStr != "" {
		end, perr = strconv.ParseInt(endStr, 10, 64)
		if perr != nil || end < start {
			return 0, 0, false, fmt.Errorf("malformed range: %q", header)
		}
		if end >= size {
			end = size - 1
		}
	}
	return start, end, true, nil
}

// sendError maps a service error to an HTTP status. Unknown errors are logged
// and reported as a generic 500 so internal details never reach the client.
func (s *Server) sendError(w http.ResponseWriter, r *http.Request, err error) {
	status := errStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logging.WithContext(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path), zap.Error(err))
		msg = "internal server error"
	}
	s.sendErrorStatus(w, status, msg)
}

func (s *Server) sendErrorStatus(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: status})
}

func errStatus(err error) int {
	switch {
	case errors.Is(err, files.ErrInvalidPath),
		errors.Is(err, files.ErrInvalidName),
		errors.Is(err, files.ErrNotDirectory),
		errors.Is(err, files.ErrNotFile),
		errors.Is(err, thumbs.ErrUnsupportedMedia):
		return http.StatusBadRequest
	case errors.Is(err, files.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, files.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, files.ErrSizeLimitExceeded):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, files.ErrCrossDevice):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// listingParams extracts the shared listing query parameters.
func listingParams(r *http.Request) (string, files.ListOptions) {
	q := r.URL.Query()

	path := q.Get("path")
	if path == "" {
		path = "."
	}

	opts := files.ListOptions{
		Skip:       intParam(q.Get("skip"), 0),
		Limit:      intParam(q.Get("limit"), 0),
		SortBy:     q.Get("sort_by"),
		Order:      q.Get("order"),
		SkipHidden: boolParam(r, "skip_hidden", false),
	}
	return path, opts
}

func intParam(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// readFormValue drains a small multipart text field.
func readFormValue(part *multipart.Part) string {
	defer part.Close()
	var sb strings.Builder
	if _, err := io.CopyN(&sb, part, 4096); err != nil && err != io.EOF {
		return ""
	}
	return strings.TrimSpace(sb.String())
}

func boolParam(r *http.Request, name string, def bool) bool {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/examcancel/internal/pdfdoc"
	"github.com/dgallion1/examcancel/internal/pipeline"
)

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("upload exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("pdf")
	if err != nil {
		jsonError(w, "pdf is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	filename := sanitizeFilename(header.Filename)
	res, err := s.processor.Process(r.Context(), filename, data, r.FormValue("iptal"))
	if res != nil {
		w.Header().Set("X-Run-ID", res.Run.ID)
	}
	if err != nil {
		switch {
		case errors.Is(err, pdfdoc.ErrInvalidPDF):
			jsonError(w, "could not read pdf: "+err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, pipeline.ErrUnavailable):
			jsonError(w, "server busy, try again", http.StatusServiceUnavailable)
		default:
			s.log.Error("cancel failed", "filename", filename, "error", err)
			jsonError(w, "processing failed", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, outputFilename(filename)))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.PDF)))
	w.Write(res.PDF)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	name = strings.Map(func(r rune) rune {
		if r == '"' || r < 0x20 {
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == "/" {
		name = "unnamed.pdf"
	}
	return name
}

// outputFilename names the download after the upload: "exam.pdf" becomes
// "exam-iptal.pdf".
func outputFilename(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" || base == "_" {
		base = "exam"
	}
	return base + "-iptal.pdf"
}

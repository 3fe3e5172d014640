package tracker

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/zombor/taxishift/internal/shift"
)

// writeJSON writes v with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError maps err to a status code and a message the driver can act on
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code, body := classifyError(err, s.service.MaxImageSize())
	if code >= http.StatusInternalServerError {
		slog.Error("Request failed", "kind", body.Kind, "error", err)
	}
	writeJSON(w, code, body)
}

// handleRegister creates an account and returns its session
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, &ValidationError{Message: "Invalid request body", Err: err})
		return
	}

	sess, err := s.service.Register(req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// handleLogin starts a session
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID       string `json:"id"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, &ValidationError{Message: "Invalid request body", Err: err})
		return
	}

	sess, err := s.service.Login(req.ID, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// handleLogout ends the current session
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.service.Logout(sessionFromContext(r.Context()).Token)
	w.WriteHeader(http.StatusNoContent)
}

// handleProfile returns the logged-in driver
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"user":               sess.User,
		"subscriptionFeeAED": SubscriptionFeeAED,
	})
}

// handleDashboard returns the totals and the recent shifts chart
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := s.service.Dashboard(sessionFromContext(r.Context()))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleListShifts returns the history, newest first
func (s *Server) handleListShifts(w http.ResponseWriter, r *http.Request) {
	history, err := s.service.History(sessionFromContext(r.Context()))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history.Newest())
}

// handleGetShift returns a single shift
func (s *Server) handleGetShift(w http.ResponseWriter, r *http.Request) {
	calculated, err := s.service.GetShift(sessionFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, calculated)
}

// handleGetShiftReceipt returns the archived photo of a shift
func (s *Server) handleGetShiftReceipt(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetShiftReceipt(sessionFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteShift deletes a shift
func (s *Server) handleDeleteShift(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteShift(sessionFromContext(r.Context()), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAddShift records a shift from typed-in figures
func (s *Server) handleAddShift(w http.ResponseWriter, r *http.Request) {
	var raw shift.RawShiftData
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		s.writeError(w, &ValidationError{Message: "Invalid shift data. All amounts must be numbers.", Err: err})
		return
	}

	calculated, err := s.service.AddShift(sessionFromContext(r.Context()), raw)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, calculated)
}

// handleExtractionStatus reports whether a photo is being processed
func (s *Server) handleExtractionStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ExtractionStatus(sessionFromContext(r.Context())))
}

// handleExportShifts streams the history as an XLSX workbook
func (s *Server) handleExportShifts(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	var buf bytes.Buffer
	if err := s.service.ExportHistory(sess, &buf); err != nil {
		s.writeError(w, err)
		return
	}

	filename := fmt.Sprintf("shifts_%s_%s.xlsx", sanitizeFilename(sess.User.ID), time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(buf.Bytes())
}

// handleSubmitReceipt handles a summary photo upload
func (s *Server) handleSubmitReceipt(w http.ResponseWriter, r *http.Request) {
	maxSize := s.service.MaxImageSize()
	// Leave room for the multipart envelope around the file
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+(1<<20))
	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, fmt.Errorf("%w: %v", ErrImageTooLarge, err))
			return
		}
		slog.Error("Error parsing multipart form", "error", err)
		s.writeError(w, &ValidationError{Message: "Error parsing form", Err: err})
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, &ValidationError{Message: "No file was selected. Please choose a photo to upload.", Err: err})
		return
	}
	defer f.Close()

	if header.Size > maxSize {
		s.writeError(w, fmt.Errorf("%w: %d bytes", ErrImageTooLarge, header.Size))
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		s.writeError(w, err)
		return
	}

	calculated, err := s.service.SubmitReceipt(r.Context(), sessionFromContext(r.Context()), header.Filename, data, uploadContentType(header.Header.Get("Content-Type"), header.Filename))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, calculated)
}

// uploadContentType normalizes the declared type, falling back to the file extension
func uploadContentType(declared, filename string) string {
	contentType := strings.ToLower(strings.TrimSpace(declared))
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"rentfolio/internal/app"
	"rentfolio/internal/identity"
	"rentfolio/internal/metrics"
	"rentfolio/internal/util"
	"rentfolio/pkg/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	Resolver       *identity.Resolver
	Metrics        *metrics.Collector
	Gatherer       prometheus.Gatherer
	MaxUploadBytes int64
}

// Server exposes the HTTP endpoints.
type Server struct {
	app            *app.App
	resolver       *identity.Resolver
	metrics        *metrics.Collector
	mux            *http.ServeMux
	maxUploadBytes int64
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("server requires app")
	}
	if cfg.Resolver == nil {
		return nil, errors.New("server requires identity resolver")
	}
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 32 << 20
	}
	s := &Server{
		app:            cfg.App,
		resolver:       cfg.Resolver,
		metrics:        cfg.Metrics,
		mux:            http.NewServeMux(),
		maxUploadBytes: maxUploadBytes,
	}
	s.routes(cfg.Gatherer)
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.withMetrics(s.mux)))))
}

func (s *Server) routes(gatherer prometheus.Gatherer) {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	if gatherer != nil {
		s.mux.Handle("/metrics", metrics.Handler(gatherer))
	}

	s.mux.Handle("/upload", s.withUser(s.handleUpload))

	s.mux.Handle("/properties", s.withUser(s.handleProperties))
	s.mux.Handle("/properties/my", s.withUser(s.handlePropertyRefs))
	s.mux.Handle("/properties/", s.withUser(s.handlePropertyByID))

	s.mux.Handle("/documents", s.withUser(s.handleDocuments))
	s.mux.Handle("/documents/", s.withUser(s.handleDocumentByID))

	s.mux.Handle("/expenses", s.withUser(s.handleExpenses))

	s.mux.Handle("/tenants", s.withUser(s.handleTenants))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type userHandler func(http.ResponseWriter, *http.Request, domain.User)

// withUser resolves the bearer token to a local user. A missing or invalid
// identity is always a 401; handlers never see a half-resolved user.
func (s *Server) withUser(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		user, ok := s.resolver.CurrentUser(r.Context(), token)
		if !ok {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, *user)
	})
}

func (s *Server) withMetrics(next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.RecordHTTPStatus(status)
		s.metrics.RecordRequestLatency(time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (s *Server) handleProperties(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		properties, err := s.app.ListProperties(r.Context(), user)
		if err != nil {
			s.respondAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": properties,
			"count": len(properties),
		})
	case http.MethodPost:
		var in app.PropertyInput
		if !decodeJSON(w, r, &in, s) {
			return
		}
		property, err := s.app.CreateProperty(r.Context(), user, in)
		if err != nil {
			s.respondAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, property)
	default:
		methodNotAllowed(w, s)
	}
}

func (s *Server) handlePropertyRefs(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, s)
		return
	}
	refs, err := s.app.ListPropertyRefs(r.Context(), user)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, refs)
}

// /properties/{id}
func (s *Server) handlePropertyByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	id := strings.TrimPrefix(r.URL.Path, "/properties/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		property, err := s.app.GetProperty(r.Context(), user, id)
		if err != nil {
			s.respondAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, property)
	case http.MethodPatch:
		var in app.PropertyInput
		if !decodeJSON(w, r, &in, s) {
			return
		}
		if in.ID == "" {
			in.ID = id
		}
		if in.ID != id {
			s.writeError(w, http.StatusBadRequest, "body id does not match path")
			return
		}
		property, err := s.app.UpdateProperty(r.Context(), user, in)
		if err != nil {
			s.respondAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, property)
	case http.MethodDelete:
		if err := s.app.DeleteProperty(r.Context(), user, id); err != nil {
			s.respondAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	default:
		methodNotAllowed(w, s)
	}
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, s)
		return
	}
	var in struct {
		PropertyID string `json:"propertyId"`
		URL        string `json:"url"`
	}
	if !decodeJSON(w, r, &in, s) {
		return
	}
	doc, err := s.app.AttachDocument(r.Context(), user, in.PropertyID, in.URL)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// /documents/{id}
func (s *Server) handleDocumentByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	id := strings.TrimPrefix(r.URL.Path, "/documents/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, s)
		return
	}
	if err := s.app.DeleteDocument(r.Context(), user, id); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		propertyID := strings.TrimSpace(r.URL.Query().Get("propertyId"))
		if propertyID == "" {
			s.writeError(w, http.StatusBadRequest, "missing propertyId")
			return
		}
		expenses, err := s.app.ListExpenses(r.Context(), user, propertyID)
		if err != nil {
			s.respondAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, expenses)
	case http.MethodPost:
		var in app.ExpenseInput
		if !decodeJSON(w, r, &in, s) {
			return
		}
		expense, err := s.app.CreateExpense(r.Context(), user, in)
		if err != nil {
			s.respondAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, expense)
	case http.MethodPatch:
		var in app.ExpenseInput
		if !decodeJSON(w, r, &in, s) {
			return
		}
		if strings.TrimSpace(in.ID) == "" {
			s.writeError(w, http.StatusBadRequest, "missing expense id")
			return
		}
		expense, err := s.app.UpdateExpense(r.Context(), user, in)
		if err != nil {
			s.respondAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, expense)
	case http.MethodDelete:
		id := strings.TrimSpace(r.URL.Query().Get("id"))
		if id == "" {
			s.writeError(w, http.StatusBadRequest, "missing expense id")
			return
		}
		if err := s.app.DeleteExpense(r.Context(), user, id); err != nil {
			s.respondAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	default:
		methodNotAllowed(w, s)
	}
}

func (s *Server) handleTenants(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		tenants, err := s.app.ListTenants(r.Context(), user)
		if err != nil {
			s.respondAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": tenants,
			"count": len(tenants),
		})
	case http.MethodPost:
		var in app.TenantInput
		if !decodeJSON(w, r, &in, s) {
			return
		}
		tenant, err := s.app.CreateTenant(r.Context(), user, in)
		if err != nil {
			s.respondAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, tenant)
	default:
		methodNotAllowed(w, s)
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, s)
		return
	}
	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "file is required (field: file)")
		return
	}
	defer file.Close()
	category := domain.UploadCategory(strings.TrimSpace(r.FormValue("type")))
	declaredType := header.Header.Get("Content-Type")
	result, err := s.app.UploadFile(r.Context(), category, header.Filename, declaredType, header.Size, file)
	if err != nil {
		if s.metrics != nil {
			var ve *app.ValidationError
			if errors.As(err, &ve) {
				s.metrics.RecordUploadRejected()
			}
		}
		s.respondAppError(w, r, err)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordUploadAccepted()
	}
	writeJSON(w, http.StatusOK, result)
}

// respondAppError maps application errors to the uniform error envelope.
func (s *Server) respondAppError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *app.ValidationError
	switch {
	case errors.As(err, &ve):
		s.writeErrorFields(w, http.StatusBadRequest, ve.Error(), ve.Fields)
	case errors.Is(err, app.ErrNotFound):
		if s.metrics != nil {
			s.metrics.RecordOwnershipDenial()
		}
		s.writeError(w, http.StatusNotFound, "not found or unauthorized")
	case errors.Is(err, app.ErrUnauthorized):
		s.writeError(w, http.StatusUnauthorized, "unauthorized")
	default:
		util.LoggerFromContext(r.Context()).Error("request failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, s *Server) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func methodNotAllowed(w http.ResponseWriter, s *Server) {
	s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string           `json:"error"`
	Code      string           `json:"code"`
	RequestID string           `json:"requestId,omitempty"`
	Fields    []app.FieldError `json:"fields,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeErrorFields(w, status, msg, nil)
}

func (s *Server) writeErrorFields(w http.ResponseWriter, status int, msg string, fields []app.FieldError) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      errorCode(status, msg),
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
		Fields:    fields,
	})
}

func errorCode(status int, msg string) string {
	message := strings.ToLower(strings.TrimSpace(msg))
	switch {
	case message == "unauthorized":
		return "AUTH_INVALID_TOKEN"
	case message == "not found or unauthorized":
		return "RESOURCE_NOT_FOUND"
	case strings.HasPrefix(message, "validation failed"):
		return "REQUEST_VALIDATION_FAILED"
	case message == "missing propertyid", message == "missing expense id":
		return "REQUEST_MISSING_PARAMETER"
	case message == "invalid form data", message == "invalid json body":
		return "REQUEST_MALFORMED_BODY"
	case strings.Contains(message, "file is required"):
		return "UPLOAD_FILE_REQUIRED"
	case message == "method not allowed":
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case message == "not found":
		return "SYSTEM_NOT_FOUND"
	}

	switch status {
	case http.StatusBadRequest:
		return "REQUEST_INVALID"
	case http.StatusUnauthorized:
		return "AUTH_INVALID_TOKEN"
	case http.StatusNotFound:
		return "RESOURCE_NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "SYSTEM_METHOD_NOT_ALLOWED"
	default:
		if status >= http.StatusInternalServerError {
			return "SYSTEM_INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

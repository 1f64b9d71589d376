package fakeidm

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/getmockd/idmclient/pkg/httputil"
	"github.com/getmockd/idmclient/pkg/logging"
)

// maxBodySize caps request bodies.
const maxBodySize = 1 << 20

// Server is an in-memory identity service. It implements http.Handler.
type Server struct {
	state     *state
	logger    *slog.Logger
	keyID     string
	keySecret string

	requests atomic.Int64
	gets     atomic.Int64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithAPIKey requires HTTP basic credentials on every request.
func WithAPIKey(id, secret string) Option {
	return func(s *Server) {
		s.keyID = id
		s.keySecret = secret
	}
}

// New creates a server holding a single tenant.
func New(opts ...Option) *Server {
	s := &Server{
		state:  newState("Fake Tenant"),
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TenantPath returns the path of the server's tenant, e.g. "tenants/<id>".
func (s *Server) TenantPath() string {
	return s.state.tenant
}

// Requests returns how many requests the server has handled.
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

// Gets returns how many GET requests the server has handled.
func (s *Server) Gets() int64 {
	return s.gets.Load()
}

// Len returns the number of stored items, the tenant included.
func (s *Server) Len() int {
	return s.state.count()
}

// Seed creates an item under parent as a POST would and returns its path.
// Hrefs inside fields may be relative paths.
func (s *Server) Seed(parent string, fields map[string]any) (string, error) {
	path, _, err := s.state.create("", strings.Trim(parent, "/"), fields, nil)
	return path, err
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.requests.Add(1)

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	defer func() {
		s.logger.Debug("fakeidm request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"requestId", r.Header.Get("X-Request-ID"),
		)
	}()

	if s.keyID != "" {
		id, secret, ok := r.BasicAuth()
		if !ok || id != s.keyID || secret != s.keySecret {
			httputil.WriteUnauthorized(rec)
			return
		}
	}

	path := strings.Trim(r.URL.Path, "/")
	base := baseURL(r)

	switch r.Method {
	case http.MethodGet:
		s.gets.Add(1)
		s.handleGet(rec, r, base, path)
	case http.MethodPost:
		s.handlePost(rec, r, base, path)
	case http.MethodDelete:
		if err := s.state.remove(path); err != nil {
			writeErr(rec, err)
			return
		}
		httputil.WriteNoContent(rec)
	default:
		httputil.WriteError(rec, &httputil.ErrorBody{
			Status:  http.StatusMethodNotAllowed,
			Message: r.Method + " is not supported.",
		})
	}
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request, base, path string) {
	if props, ok := s.state.get(base, path); ok {
		httputil.WriteOK(w, props)
		return
	}

	offset, limit, err := pageParams(r.URL.Query())
	if err != nil {
		writeErr(w, err)
		return
	}
	if page, ok := s.state.page(base, path, offset, limit); ok {
		httputil.WriteOK(w, page)
		return
	}
	httputil.WriteNotFound(w, path)
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request, base, path string) {
	body, err := decodeBody(r)
	if err != nil {
		writeErr(w, err)
		return
	}

	if _, exists := s.state.get(base, path); exists && path != "tenants/current" {
		props, err := s.state.save(base, path, body)
		if err != nil {
			writeErr(w, err)
			return
		}
		httputil.WriteOK(w, props)
		return
	}

	created, linkOnly, err := s.state.create(base, path, body, r.URL.Query())
	if err != nil {
		writeErr(w, err)
		return
	}
	if linkOnly {
		httputil.WriteOK(w, map[string]any{"href": base + "/" + created})
		return
	}
	props, _ := s.state.get(base, created)
	httputil.WriteCreated(w, props)
}

func decodeBody(r *http.Request) (map[string]any, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return nil, invalid("failed to read request body")
	}
	if len(data) > maxBodySize {
		return nil, &httputil.ErrorBody{Status: http.StatusRequestEntityTooLarge, Message: "Request body too large."}
	}
	body := map[string]any{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return body, nil
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, invalid("request body must be a JSON object")
	}
	return body, nil
}

func pageParams(q url.Values) (int, int, error) {
	offset, limit := 0, defaultPageLimit
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, invalid("offset must be a non-negative integer")
		}
		offset = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return 0, 0, invalid("limit must be a positive integer")
		}
		limit = min(n, maxPageLimit)
	}
	return offset, limit, nil
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func writeErr(w http.ResponseWriter, err error) {
	var body *httputil.ErrorBody
	if errors.As(err, &body) {
		httputil.WriteError(w, body)
		return
	}
	httputil.WriteError(w, &httputil.ErrorBody{Status: http.StatusInternalServerError, Message: err.Error()})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

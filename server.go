package twirp

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Handler serves one registered method: it decodes the raw request, invokes
// the service implementation and encodes the result. Generated servers
// install one per method.
type Handler func(ctx context.Context, req *RawRequest) (*RawResponse, error)

type route struct {
	method string
	path   string
}

// Server routes requests by (HTTP method, URL path) to registered handlers
// and maps every failure mode to the canonical JSON error response. It
// implements http.Handler. Registration is not synchronized: register all
// handlers before serving.
type Server struct {
	routes map[route]Handler
	log    *zap.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the logger for request and connection-failure logs.
func WithLogger(log *zap.Logger) ServerOption {
	return func(s *Server) { s.log = log }
}

// NewServer returns a Server with an empty dispatch table.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		routes: make(map[route]Handler),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle registers h for the given HTTP method and path. Generated tables
// use POST and the canonical /twirp/<pkg>.<Service>/<Method> path.
func (s *Server) Handle(method, path string, h Handler) {
	s.routes[route{method: method, path: path}] = h
}

// ServeHTTP implements http.Handler. Transport failures (request body reads,
// response writes) have no JSON rendering; they are logged and the
// connection is dropped.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if err := s.serve(w, r); err != nil {
		s.log.Error("aborting request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		panic(http.ErrAbortHandler)
	}
	s.log.Debug("request served",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Duration("elapsed", time.Since(start)))
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) error {
	switch contentType(r.Header) {
	case ContentTypeProtobuf, ContentTypeJSON:
	default:
		errBadContentType().WriteHTTP(w)
		return nil
	}

	req, err := ReadRequest(r)
	if err != nil {
		return WriteError(w, err)
	}

	h, ok := s.routes[route{method: r.Method, path: r.URL.Path}]
	if !ok {
		errNotFound().WriteHTTP(w)
		return nil
	}

	res, err := h(r.Context(), req)
	if err != nil {
		return WriteError(w, err)
	}
	return WriteResponse(w, res)
}

package server

import (
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/gorilla/mux"

	"github.com/clientdesk/clientdesk/pkg/application"
)

type Options struct {
	// Import requests run for minutes; keep both timeouts generous.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func NewHTTPServer(app application.Application, opts Options) *HTTPServer {
	return &HTTPServer{
		Controllers: app.Controllers(),
		Middlewares: app.Middleware(),
		Opts:        opts,
	}
}

type HTTPServer struct {
	Controllers []application.Controller
	Middlewares []mux.MiddlewareFunc
	Opts        Options
}

func (s *HTTPServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.Middlewares...)
	for _, controller := range s.Controllers {
		controller.Register(r)
	}
	return r
}

func (s *HTTPServer) Handler() http.Handler {
	return gziphandler.GzipHandler(s.Router())
}

func (s *HTTPServer) Start(socketAddress string) error {
	srv := &http.Server{
		Addr:         socketAddress,
		Handler:      s.Handler(),
		ReadTimeout:  s.Opts.ReadTimeout,
		WriteTimeout: s.Opts.WriteTimeout,
	}
	return srv.ListenAndServe()
}

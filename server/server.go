package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"time"

	"gemgrid/reinforcement"
	"gemgrid/reporting"
	"gemgrid/server/cell_views"
	"gemgrid/server/fastview"
	"gemgrid/server/root_view"

	"github.com/gorilla/mux"
)

const shutdownGracePeriod = 5 * time.Second

// StatusSource reports live training progress.
type StatusSource interface {
	Read() reinforcement.ProgressReport
}

// Server serves the live training view: an index page whose values grid, stats panel,
// and value surface are updated over a websocket, plus a rewards chart and a JSON status.
// The websocket's ele-update channel has a single consumer, so the page is meant for a
// single client at a time.
type Server struct {
	addr     string
	router   *mux.Router
	rootView *root_view.RootView
	status   StatusSource
	returns  func() []float64
}

// NewServer initializes all of the views and routes. The views stop when ctx is cancelled.
// returns supplies the per-episode returns so far for the rewards chart.
func NewServer(
	ctx context.Context,
	addr string,
	initial cell_views.Snapshot,
	snapshots <-chan cell_views.Snapshot,
	status StatusSource,
	returns func() []float64,
) (*Server, error) {
	rootView, err := root_view.NewRootView(ctx, initial, snapshots)
	if err != nil {
		return nil, fmt.Errorf("build views: %w", err)
	}

	server := &Server{
		addr:     addr,
		router:   mux.NewRouter(),
		rootView: rootView,
		status:   status,
		returns:  returns,
	}
	server.setupRoutes()
	return server, nil
}

func (server *Server) setupRoutes() {
	server.router.HandleFunc("/", server.serveIndex).Methods(http.MethodGet)
	server.router.HandleFunc("/ws", server.serveWebsocket)
	server.router.HandleFunc("/rewards", server.serveRewards).Methods(http.MethodGet)
	server.router.HandleFunc("/status", server.serveStatus).Methods(http.MethodGet)
}

// ServeHTTP implements http.Handler.
func (server *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	server.router.ServeHTTP(w, r)
}

// Serve listens on the server's address until ctx is cancelled.
func (server *Server) Serve(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              server.addr,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		errs <- httpServer.ListenAndServe()
	}()
	log.Printf("serving on http://%s", server.addr)

	select {
	case err := <-errs:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// serveWebsocket publishes view updates to the client until it disconnects.
func (server *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	cli, err := fastview.NewClient(server.rootView.Updates(), w, r)
	if err != nil {
		log.Println("upgrade:", err)
		return
	}

	if err := cli.Sync(); err != nil {
		log.Println("websocket:", err)
	}
}

func (server *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if err := renderTemplate(w, server.rootView, server.rootView.Latest()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (server *Server) serveRewards(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if err := reporting.RenderRewards(w, server.returns(), reporting.DEFAULT_WINDOW); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (server *Server) serveStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(server.status.Read()); err != nil {
		log.Println("status:", err)
	}
}

func renderTemplate(
	w io.Writer,
	vc fastview.ViewComponent,
	data interface{},
) (err error) {
	t := template.New("index.html")
	var tname string
	if tname, err = vc.Parse(t); err != nil {
		return
	}
	if _, err = t.Parse(`{{ template "` + tname + `" . }}`); err != nil {
		return
	}

	err = t.Execute(w, data)
	return
}

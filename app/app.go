package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/searchktools/wire-server/config"
	"github.com/searchktools/wire-server/core/dispatch"
	"github.com/searchktools/wire-server/core/http"
	"github.com/searchktools/wire-server/core/observability"
	"github.com/searchktools/wire-server/core/router"
	"github.com/searchktools/wire-server/core/server"
)

// App ties a routing table and a connection source into a serving loop.
type App struct {
	cfg     *config.Config
	routes  *router.Table
	monitor *observability.Monitor
}

// New creates an application instance.
func New(cfg *config.Config) *App {
	return &App{
		cfg:     cfg,
		routes:  router.NewTable(),
		monitor: observability.NewMonitor(),
	}
}

// Routes returns the routing table for registration.
func (a *App) Routes() *router.Table {
	return a.routes
}

// Handle registers a handler under a URL pattern.
func (a *App) Handle(pattern string, handler any) {
	a.routes.Add(pattern, handler)
}

// Monitor returns the per-route metrics collector.
func (a *App) Monitor() *observability.Monitor {
	return a.monitor
}

// Run serves until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.Serve(ctx)
}

// Serve accepts connections from the configured source and answers each
// with one response. A handler that declines a verb without a template
// fallback is a wiring mistake and stops the server.
func (a *App) Serve(ctx context.Context) error {
	src, err := a.newSource()
	if err != nil {
		return fmt.Errorf("app: start source: %w", err)
	}
	defer src.Close()

	log.Printf("listening on %s (%s strategy)", a.cfg.Addr(), a.cfg.Strategy)

	for {
		ev, ok := src.Next(ctx)
		if !ok {
			log.Printf("shutting down")
			return nil
		}
		if err := a.handle(ev); err != nil {
			return err
		}
	}
}

func (a *App) newSource() (server.Source, error) {
	switch a.cfg.Strategy {
	case config.StrategyAsync:
		return server.NewAsyncSource(a.cfg.Addr(), server.AsyncConfig{
			MaxBodySize: a.cfg.MaxBodySize,
			BufferSize:  a.cfg.BufferSize,
			IdleTimeout: a.cfg.IdleTimeout,
			MaxConns:    a.cfg.MaxConns,
		})
	case config.StrategyOffload:
		return server.NewOffloadSource(a.cfg.Addr())
	case config.StrategyPoll, "":
		return server.NewPollSource(a.cfg.Addr(), a.cfg.BufferSize)
	default:
		return nil, fmt.Errorf("app: unknown strategy %q", a.cfg.Strategy)
	}
}

func (a *App) handle(ev server.Event) error {
	defer ev.Conn.Close()

	start := time.Now()

	req, err := http.ParseRequest(ev.Data)
	if err != nil {
		log.Printf("bad request from %s: %v", ev.Conn.ID(), err)
		a.write(ev.Conn, http.NewResponse(http.StatusBadRequest))
		return nil
	}

	resp, err := dispatch.Dispatch(req, a.routes)
	if err != nil {
		return fmt.Errorf("app: %s %s: %w", req.Method, req.Path, err)
	}

	a.write(ev.Conn, resp)
	a.monitor.Record(req.Path, time.Since(start), resp.Status >= 500)
	log.Printf("%d %s %s", resp.Status, req.Method, req.Path)
	return nil
}

func (a *App) write(conn server.Conn, resp *http.Response) {
	wire, err := resp.Encode()
	if err != nil {
		log.Printf("encode response: %v", err)
		wire, _ = http.NewResponse(http.StatusInternalServerError).Encode()
	}
	if _, err := conn.Write(wire); err != nil && !errors.Is(err, os.ErrClosed) {
		log.Printf("write to %s: %v", conn.ID(), err)
	}
}

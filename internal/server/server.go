// Package server exposes page sessions and the message API over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dtnitsch/fxlens/models"
	"github.com/dtnitsch/fxlens/pkg/eventloop"
	"github.com/dtnitsch/fxlens/pkg/pipeline"
	"github.com/dtnitsch/fxlens/pkg/rates"
	"github.com/dtnitsch/fxlens/pkg/settings"
	"github.com/dtnitsch/fxlens/pkg/tooltip"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RateService answers rate lookups and rate messages.
type RateService interface {
	rates.Provider
	Handle(ctx context.Context, msg models.Message) models.Ack
}

// SettingsSource supplies the settings new pages start from and streams
// later changes.
type SettingsSource interface {
	Load(ctx context.Context) (models.ConversionSettings, models.FilterConfig, error)
	Subscribe(fn func([]settings.Change)) (unsubscribe func())
}

// Config holds HTTP server configuration.
type Config struct {
	Host     string
	Port     int
	Pipeline pipeline.Config
}

type page struct {
	id       string
	url      string
	created  time.Time
	pipeline *pipeline.Pipeline
	view     *tooltip.Recorder
	loop     *eventloop.Loop // runs the page's debounced work and lookup completions
}

// close detaches the page and stops its loop.
func (p *page) close() {
	p.pipeline.Detach()
	p.pipeline.Close()
	p.loop.Stop()
}

// flush waits until everything already posted to the page's loop has run.
func (p *page) flush(ctx context.Context) error {
	return p.loop.Do(ctx, func() {})
}

// Server provides HTTP endpoints for page sessions.
type Server struct {
	echo     *echo.Echo
	rates    RateService
	settings SettingsSource
	logger   *zap.Logger
	config   *Config

	mu          sync.Mutex
	pages       map[string]*page
	unsubscribe func()
}

// NewServer creates a new HTTP server.
func NewServer(rateSvc RateService, src SettingsSource, logger *zap.Logger, cfg *Config) (*Server, error) {
	if rateSvc == nil {
		return nil, fmt.Errorf("rate service cannot be nil")
	}
	if src == nil {
		return nil, fmt.Errorf("settings source cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host:     "127.0.0.1",
			Port:     8787,
			Pipeline: pipeline.DefaultConfig(),
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			logger.Debug("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})

	s := &Server{
		echo:     e,
		rates:    rateSvc,
		settings: src,
		logger:   logger,
		config:   cfg,
		pages:    make(map[string]*page),
	}
	s.unsubscribe = src.Subscribe(s.broadcast)
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/pages", s.handleCreatePage)
	v1.GET("/pages/:id", s.handleGetPage)
	v1.DELETE("/pages/:id", s.handleDeletePage)
	v1.POST("/pages/:id/signals", s.handleSignal)
	v1.POST("/pages/:id/messages", s.handleMessage)
	v1.GET("/pages/:id/tooltip", s.handleTooltip)
	v1.POST("/convert", s.handleConvert)
	v1.GET("/rates/:from/:to", s.handleRate)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and closes every page.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	s.unsubscribe()
	err := s.echo.Shutdown(ctx)

	s.mu.Lock()
	pages := s.pages
	s.pages = make(map[string]*page)
	s.mu.Unlock()
	for _, p := range pages {
		p.close()
	}
	return err
}

// broadcast applies a storage change batch to every open page.
func (s *Server) broadcast(changes []settings.Change) {
	s.mu.Lock()
	pages := make([]*page, 0, len(s.pages))
	for _, p := range s.pages {
		pages = append(pages, p)
	}
	s.mu.Unlock()

	for _, p := range pages {
		p.pipeline.ApplyChanges(changes)
	}
	s.logger.Debug("settings change applied", zap.Int("pages", len(pages)), zap.Int("changes", len(changes)))
}

func (s *Server) lookup(c echo.Context) (*page, error) {
	id := c.Param("id")
	s.mu.Lock()
	p, ok := s.pages[id]
	s.mu.Unlock()
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "page not found")
	}
	return p, nil
}

func (s *Server) openPage(ctx context.Context, url string) (*page, error) {
	st, f, err := s.settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	view := &tooltip.Recorder{}
	loop := eventloop.New()
	go func() { _ = loop.Run(context.Background()) }()

	p := &page{
		id:      uuid.NewString(),
		url:     url,
		created: time.Now(),
		pipeline: pipeline.New(s.config.Pipeline, st, f, s.rates, view,
			s.logger.With(zap.String("page_url", url)), pipeline.WithExecutor(loop)),
		view: view,
		loop: loop,
	}
	p.pipeline.SetPageURL(url)

	s.mu.Lock()
	s.pages[p.id] = p
	s.mu.Unlock()
	return p, nil
}

// Package server exposes the directory over HTTP.
//
// The surface is deliberately thin: parameter extraction, authentication
// middleware, fault-to-status mapping, and healthchecks. All visibility logic
// lives in the visage package.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/pthm/visage"
	"github.com/pthm/visage/internal/health"
)

// Config holds HTTP server settings.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// HealthTimeout bounds each dependency probe of the full healthcheck.
	HealthTimeout time.Duration
	// SlowThreshold marks slow dependency probes with a warning.
	SlowThreshold time.Duration
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DirectoryService is the slice of visage.Directory the handlers use.
// Narrowed to an interface so handler tests can stub it.
type DirectoryService interface {
	FindUsers(ctx context.Context, params visage.SearchParams, viewer visage.Identity) ([]visage.Projection, error)
	GetProfile(ctx context.Context, userCode string, viewer visage.Identity) (visage.Projection, error)
}

// TokenValidator exchanges a session token for a requester identity.
// Implemented by authclient.Client.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (visage.Identity, error)
}

// AuthHealth probes the auth service. Implemented by authclient.Client.
type AuthHealth interface {
	Healthcheck(ctx context.Context) health.Dependency
}

// Server wires the directory, auth client, and database handles into a fiber
// application.
type Server struct {
	cfg     Config
	dir     DirectoryService
	auth    TokenValidator
	authHC  AuthHealth
	primary *sql.DB
	replica *sql.DB
}

// New creates a server. replica may be nil when no replica is configured; the
// full healthcheck then reports the primary handle under both names.
func New(cfg Config, dir DirectoryService, auth TokenValidator, authHC AuthHealth, primary, replica *sql.DB) *Server {
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = 5 * time.Second
	}
	return &Server{
		cfg:     cfg,
		dir:     dir,
		auth:    auth,
		authHC:  authHC,
		primary: primary,
		replica: replica,
	}
}

// App builds the fiber application with all routes registered.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	})

	app.Get("/healthcheck", s.healthcheck)
	app.Get("/healthcheck/full", s.fullHealthcheck)

	user := app.Group("/user", s.authenticate)
	user.Get("/find", s.findUsers)
	user.Get("/:userCode", s.getProfile)

	return app
}

func (s *Server) healthcheck(c fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(health.Liveness())
}

func (s *Server) fullHealthcheck(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), s.cfg.HealthTimeout)
	defer cancel()

	replica := s.replica
	if replica == nil {
		replica = s.primary
	}

	report := health.Aggregate(map[string]health.Dependency{
		"authService": s.authHC.Healthcheck(ctx),
		"dbPrimary":   health.CheckDB(ctx, s.primary, s.cfg.SlowThreshold),
		"dbReplica":   health.CheckDB(ctx, replica, s.cfg.SlowThreshold),
	})

	status := fiber.StatusOK
	if !report.Available() {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(report)
}

func (s *Server) findUsers(c fiber.Ctx) error {
	viewer := identityFrom(c)

	params := visage.SearchParams{
		Name:     c.Query("name"),
		Email:    c.Query("email"),
		Phone:    c.Query("phone"),
		UserCode: c.Query("userCode"),
	}

	results, err := s.dir.FindUsers(c.Context(), params, viewer)
	if err != nil {
		return writeFault(c, err)
	}

	if results == nil {
		results = []visage.Projection{}
	}
	return c.Status(fiber.StatusOK).JSON(results)
}

func (s *Server) getProfile(c fiber.Ctx) error {
	viewer := identityFrom(c)

	profile, err := s.dir.GetProfile(c.Context(), c.Params("userCode"), viewer)
	if err != nil {
		return writeFault(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(profile)
}

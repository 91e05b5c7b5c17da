package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/dgnsrekt/tabswipe/internal/cdpcontrol"
	"github.com/dgnsrekt/tabswipe/internal/controller"
	"github.com/dgnsrekt/tabswipe/internal/relay"
	"github.com/dgnsrekt/tabswipe/internal/triage"
)

type Service interface {
	State() controller.State
	Tabs() []triage.TabRecord
	Summary() controller.Summary
	Reload(ctx context.Context) (controller.State, error)
	Close(ctx context.Context) (controller.Outcome, error)
	Keep(ctx context.Context) (controller.Outcome, error)
	Undo(ctx context.Context) (controller.Outcome, error)
	CloseDuplicates(ctx context.Context) (controller.Outcome, error)
	ApplyFilter(ctx context.Context, host string) (controller.State, error)
	ClearFilter(ctx context.Context) (controller.State, error)
	ContinueAll(ctx context.Context) (controller.State, error)
	FocusCurrent(ctx context.Context) (triage.TabRecord, error)
	PreviewMode() bool
	SetPreviewMode(ctx context.Context, on bool) (controller.State, error)
}

// LevelControl reads and changes the process log level.
type LevelControl interface {
	Level() slog.Level
	SetLevel(slog.Level)
}

// Options configures NewServer. Zero values disable the optional parts.
type Options struct {
	Events             *relay.Broker
	Levels             LevelControl
	CORSOrigins        []string
	RateLimitPerMinute int
}

type stateOutput struct {
	Body controller.State
}

type outcomeOutput struct {
	Body controller.Outcome
}

func NewServer(svc Service, opts Options) http.Handler {
	registerLogContext()

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)
	if len(opts.CORSOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
			MaxAge:         300,
		}))
	}
	if opts.RateLimitPerMinute > 0 {
		router.Use(httprate.LimitByIP(opts.RateLimitPerMinute, time.Minute))
	}

	cfg := huma.DefaultConfig("tabswipe API", "1.0.0")
	cfg.DocsPath = ""
	api := humachi.New(router, cfg)

	router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(docsHTML)); err != nil {
			slog.Debug("docs response write failed", "error", err)
		}
	})
	router.Get("/docs/events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(eventsDocsHTML)); err != nil {
			slog.Debug("docs response write failed", "error", err)
		}
	})
	if opts.Events != nil {
		router.Get("/api/v1/events", relay.SSEHandler(opts.Events))
	}

	registerSessionHandlers(api, svc)
	registerMiscHandlers(api, svc, opts)

	return router
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}

	var svcErr *controller.CodedError
	if errors.As(err, &svcErr) {
		if svcErr.Code == controller.CodeBusy {
			return huma.Error409Conflict(svcErr.Message)
		}
	}

	var triageErr *triage.CodedError
	if errors.As(err, &triageErr) {
		switch triageErr.Code {
		case triage.CodeNoCurrentTab:
			return huma.Error404NotFound(triageErr.Message)
		case triage.CodeNoActionToUndo:
			return huma.Error409Conflict(triageErr.Message)
		case triage.CodeCloseFailed, triage.CodeRestoreFailed, triage.CodeSourceFailed:
			return huma.Error502BadGateway(triageErr.Error())
		}
	}

	var coded *cdpcontrol.CodedError
	if errors.As(err, &coded) {
		switch coded.Code {
		case cdpcontrol.CodeValidation:
			return huma.Error400BadRequest(coded.Message)
		case cdpcontrol.CodeTabNotFound, cdpcontrol.CodeTokenNotFound:
			return huma.Error404NotFound(coded.Message)
		case cdpcontrol.CodeCDPUnavailable, cdpcontrol.CodeCommandFailed:
			return huma.Error502BadGateway(coded.Message)
		default:
			return huma.Error500InternalServerError(fmt.Sprintf("%s: %s", coded.Code, coded.Message))
		}
	}
	return huma.Error500InternalServerError(err.Error())
}

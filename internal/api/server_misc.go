package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

func registerMiscHandlers(api huma.API, svc Service, opts Options) {
	type healthOutput struct {
		Body struct {
			Status       string `json:"status"`
			EventClients int    `json:"event_clients" doc:"Open event stream subscribers"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/health", Summary: "Health check", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			out := &healthOutput{}
			out.Body.Status = "ok"
			if opts.Events != nil {
				out.Body.EventClients = opts.Events.ClientCount()
			}
			return out, nil
		})

	type previewOutput struct {
		Body struct {
			Enabled bool `json:"enabled"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "get-preview", Method: http.MethodGet, Path: "/api/v1/preview", Summary: "Get preview mode", Tags: []string{"Preview"}},
		func(ctx context.Context, input *struct{}) (*previewOutput, error) {
			out := &previewOutput{}
			out.Body.Enabled = svc.PreviewMode()
			return out, nil
		})

	type setPreviewInput struct {
		Body struct {
			Enabled bool `json:"enabled" doc:"Activate the current tab after every review action"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "set-preview", Method: http.MethodPut, Path: "/api/v1/preview", Summary: "Set preview mode", Tags: []string{"Preview"}},
		func(ctx context.Context, input *setPreviewInput) (*previewOutput, error) {
			st, err := svc.SetPreviewMode(ctx, input.Body.Enabled)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &previewOutput{}
			out.Body.Enabled = st.PreviewMode
			return out, nil
		})

	levels := opts.Levels
	if levels == nil {
		return
	}

	type levelOutput struct {
		Body struct {
			Level string `json:"level"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "get-log-level", Method: http.MethodGet, Path: "/api/v1/log/level", Summary: "Get log level", Tags: []string{"Logging"}},
		func(ctx context.Context, input *struct{}) (*levelOutput, error) {
			out := &levelOutput{}
			out.Body.Level = strings.ToLower(levels.Level().String())
			return out, nil
		})

	type setLevelInput struct {
		Body struct {
			Level string `json:"level" enum:"debug,info,warn,error"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "set-log-level", Method: http.MethodPut, Path: "/api/v1/log/level", Summary: "Change log level", Tags: []string{"Logging"}},
		func(ctx context.Context, input *setLevelInput) (*levelOutput, error) {
			var lvl slog.Level
			if err := lvl.UnmarshalText([]byte(input.Body.Level)); err != nil {
				return nil, huma.Error400BadRequest("unknown log level: " + input.Body.Level)
			}
			levels.SetLevel(lvl)
			slog.Info("log level changed", "level", lvl.String())
			out := &levelOutput{}
			out.Body.Level = strings.ToLower(lvl.String())
			return out, nil
		})
}

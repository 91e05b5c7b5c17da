package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dgnsrekt/tabswipe/internal/controller"
	"github.com/dgnsrekt/tabswipe/internal/triage"
)

func registerSessionHandlers(api huma.API, svc Service) {
	huma.Register(api, huma.Operation{OperationID: "get-session", Method: http.MethodGet, Path: "/api/v1/session", Summary: "Get review state", Tags: []string{"Session"}},
		func(ctx context.Context, input *struct{}) (*stateOutput, error) {
			return &stateOutput{Body: svc.State()}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "reload-session", Method: http.MethodPost, Path: "/api/v1/session/reload", Summary: "Start a fresh session from the open tabs", Tags: []string{"Session"}},
		func(ctx context.Context, input *struct{}) (*stateOutput, error) {
			st, err := svc.Reload(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			return &stateOutput{Body: st}, nil
		})

	type tabsOutput struct {
		Body struct {
			Tabs []triage.TabRecord `json:"tabs"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-session-tabs", Method: http.MethodGet, Path: "/api/v1/session/tabs", Summary: "List loaded tabs with dispositions", Tags: []string{"Session"}},
		func(ctx context.Context, input *struct{}) (*tabsOutput, error) {
			out := &tabsOutput{}
			out.Body.Tabs = svc.Tabs()
			return out, nil
		})

	type summaryOutput struct {
		Body controller.Summary
	}
	huma.Register(api, huma.Operation{OperationID: "get-session-summary", Method: http.MethodGet, Path: "/api/v1/session/summary", Summary: "Get session summary", Tags: []string{"Session"}},
		func(ctx context.Context, input *struct{}) (*summaryOutput, error) {
			return &summaryOutput{Body: svc.Summary()}, nil
		})

	actions := []struct {
		id, path, summary string
		fn                func(context.Context) (controller.Outcome, error)
	}{
		{"close-current", "/api/v1/session/close", "Close the current tab", svc.Close},
		{"keep-current", "/api/v1/session/keep", "Keep the current tab", svc.Keep},
		{"undo-last", "/api/v1/session/undo", "Undo the last keep or close", svc.Undo},
		{"close-duplicates", "/api/v1/session/close-duplicates", "Close tabs sharing the current tab's URL", svc.CloseDuplicates},
	}
	for _, a := range actions {
		fn := a.fn
		huma.Register(api, huma.Operation{OperationID: a.id, Method: http.MethodPost, Path: a.path, Summary: a.summary, Tags: []string{"Review"}},
			func(ctx context.Context, input *struct{}) (*outcomeOutput, error) {
				out, err := fn(ctx)
				if err != nil {
					return nil, mapErr(err)
				}
				return &outcomeOutput{Body: out}, nil
			})
	}

	huma.Register(api, huma.Operation{OperationID: "continue-all", Method: http.MethodPost, Path: "/api/v1/session/continue-all", Summary: "Drop the filter and continue with all tabs", Tags: []string{"Review"}},
		func(ctx context.Context, input *struct{}) (*stateOutput, error) {
			st, err := svc.ContinueAll(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			return &stateOutput{Body: st}, nil
		})

	type focusOutput struct {
		Body triage.TabRecord
	}
	huma.Register(api, huma.Operation{OperationID: "focus-current", Method: http.MethodPost, Path: "/api/v1/session/focus", Summary: "Bring the current tab to the front", Tags: []string{"Review"}},
		func(ctx context.Context, input *struct{}) (*focusOutput, error) {
			rec, err := svc.FocusCurrent(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			return &focusOutput{Body: rec}, nil
		})

	type filterInput struct {
		Body struct {
			Host string `json:"host" doc:"Hostname substring, case-insensitive. Blank clears the filter."`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "set-filter", Method: http.MethodPut, Path: "/api/v1/session/filter", Summary: "Filter review by hostname", Tags: []string{"Review"}},
		func(ctx context.Context, input *filterInput) (*stateOutput, error) {
			st, err := svc.ApplyFilter(ctx, input.Body.Host)
			if err != nil {
				return nil, mapErr(err)
			}
			return &stateOutput{Body: st}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "clear-filter", Method: http.MethodDelete, Path: "/api/v1/session/filter", Summary: "Clear the hostname filter", Tags: []string{"Review"}},
		func(ctx context.Context, input *struct{}) (*stateOutput, error) {
			st, err := svc.ClearFilter(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			return &stateOutput{Body: st}, nil
		})
}

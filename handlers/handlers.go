package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

type handler[I, O any] = func(context.Context, *I) (*O, error)

func handlerWithErrorHandler[I, O any](handler handler[I, O], do func(context.Context, error)) handler[I, O] {
	if do == nil {
		return handler
	}

	return func(ctx context.Context, i *I) (*O, error) {
		o, err := handler(ctx, i)
		if err != nil {
			do(ctx, err)
		}
		return o, err
	}
}

func opErrors(codes ...int) func(*huma.Operation) {
	return func(o *huma.Operation) { o.Errors = codes }
}

func opStatus(code int) func(*huma.Operation) {
	return func(o *huma.Operation) { o.DefaultStatus = code }
}

func opSummary(summary string) func(*huma.Operation) {
	return func(o *huma.Operation) { o.Summary = summary }
}

// ErrorModel is the body of every error response: {"error": "..."}.
// It implements [huma.StatusError].
type ErrorModel struct {
	status int

	Message string   `json:"error"             example:"Contact not found" doc:"Human readable error"`
	Details []string `json:"details,omitempty"                               doc:"Validation details"`
}

func (e *ErrorModel) Error() string  { return e.Message }
func (e *ErrorModel) GetStatus() int { return e.status }

// NewError has the signature of [huma.NewError] and can replace it so that
// framework errors share the [ErrorModel] shape.
func NewError(status int, msg string, errs ...error) huma.StatusError {
	e := &ErrorModel{status: status, Message: msg}
	for _, err := range errs {
		if err != nil {
			e.Details = append(e.Details, err.Error())
		}
	}
	return e
}

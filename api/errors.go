package api

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/render"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/devblog/postsapi"
	"github.com/devblog/postsapi/message"
	"github.com/devblog/postsapi/post"
)

var (
	// ErrMalformedBody is returned when a request body is not a JSON post.
	ErrMalformedBody = errors.New("malformed request body")

	// ErrMethodNotAllowed is returned when the route exists, but not for the request method.
	ErrMethodNotAllowed = errors.New("method not allowed")

	errRouteNotFound = errors.New("route not found")
)

// ErrorResponse is the body of every failed request.
// Not found answers carry only the status: {"err":404}.
type ErrorResponse struct {
	Err int    `json:"err"`
	Msg string `json:"msg,omitempty"`
}

type RecoveredPanicError struct {
	V          interface{}
	Stacktrace string
}

func (p RecoveredPanicError) Error() string {
	return fmt.Sprintf("panic occurred: %#v, stacktrace: \n%s", p.V, p.Stacktrace)
}

type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// handle adapts fn to http.HandlerFunc: returned errors and recovered panics are rendered as ErrorResponse.
func (h handlers) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.call(fn, w, r); err != nil {
			h.renderError(w, r, err)
		}
	}
}

func (h handlers) call(fn handlerFunc, w http.ResponseWriter, r *http.Request) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			panicErr := errors.WithStack(RecoveredPanicError{V: rec, Stacktrace: string(debug.Stack())})
			err = multierror.Append(err, panicErr)
		}
	}()

	return fn(w, r)
}

func (h handlers) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusCode(err)
	logFields := postsapi.LogFields{
		"method":     r.Method,
		"path":       r.URL.Path,
		"status":     status,
		"request_id": message.CorrelationIDFromCtx(r.Context()),
	}

	resp := ErrorResponse{Err: status}
	switch {
	case status >= http.StatusInternalServerError:
		h.logger.Error("Request failed", err, logFields)
		resp.Msg = http.StatusText(status)
	case status == http.StatusNotFound:
		h.logger.Debug("Not found", logFields.Add(postsapi.LogFields{"err": err.Error()}))
	default:
		h.logger.Debug("Bad request", logFields.Add(postsapi.LogFields{"err": err.Error()}))
		resp.Msg = err.Error()
	}

	render.Status(r, status)
	render.JSON(w, r, resp)
}

// StatusCode maps err to the HTTP status it is answered with.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, post.ErrNotFound), errors.Is(err, errRouteNotFound):
		return http.StatusNotFound
	case errors.Is(err, post.ErrInvalidID), errors.Is(err, ErrMalformedBody):
		return http.StatusBadRequest
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

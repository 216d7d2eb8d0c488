package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/inventar/internal/apperr"
)

// Layouts of the "time" fields in responses.
const (
	timeLayout      = "2006-01-02 15:04:05-07:00"
	localTimeLayout = "2006-01-02 15:04:05"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Status int    `json:"status"`
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes an error response with an explicit code and detail.
func jsonError(w http.ResponseWriter, status int, code, detail string) {
	jsonResponse(w, status, errorBody{Status: status, Code: code, Detail: detail})
}

// writeError translates err into an error response. Domain errors carry
// their reason as the detail; anything else is logged and reported as an
// internal error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		slog.Warn("request timed out", "path", r.URL.Path, "request_id", requestID(r.Context()), "error", err)
		jsonError(w, status, "timeout", "timeout")
	case status == http.StatusInternalServerError:
		slog.Error("request failed", "path", r.URL.Path, "request_id", requestID(r.Context()), "error", err)
		jsonError(w, status, apperr.ErrInternal.Error(), apperr.ErrInternal.Error())
	default:
		jsonError(w, status, apperr.Kind(err).Error(), apperr.Reason(err))
	}
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return apperr.Wrap(apperr.ErrInvalidInput, "invalid_request_body", err)
	}
	return nil
}

// queryInt parses an optional integer query parameter. An absent parameter
// yields 0, which the store treats as "use the default".
func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperr.InvalidInput("invalid_" + name)
	}
	return n, nil
}

// queryPage parses the limit and offset query parameters.
func queryPage(r *http.Request) (limit, offset int, err error) {
	if limit, err = queryInt(r, "limit"); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(r, "offset"); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

// pathID parses the {id} path value.
func pathID(r *http.Request, reason string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, apperr.InvalidInput(reason)
	}
	return id, nil
}

// clock formats response timestamps in the configured location.
type clock struct {
	loc *time.Location
	now func() time.Time
}

func (c clock) current() time.Time {
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	loc := c.loc
	if loc == nil {
		loc = time.UTC
	}
	return now().In(loc)
}

// stamp returns the current time with its UTC offset.
func (c clock) stamp() string {
	return c.current().Format(timeLayout)
}

// localStamp returns the current wall-clock time without an offset.
func (c clock) localStamp() string {
	return c.current().Format(localTimeLayout)
}

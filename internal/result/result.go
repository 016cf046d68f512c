// Package result builds the status-code-bearing payload returned by a run.
package result

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/law-makers/sismos/internal/engine"
	"github.com/law-makers/sismos/pkg/models"
)

// ErrNoRecords reports a table that exists but yielded no qualifying rows.
var ErrNoRecords = errors.New("no earthquake data found in the table")

// Result is the outcome of one run.
type Result struct {
	StatusCode int  `json:"statusCode"`
	Body       Body `json:"body"`
}

// Body carries either an error description or a success summary.
type Body struct {
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
	Total   *int            `json:"total_sismos,omitempty"`
	Records []models.Record `json:"sismos,omitempty"`

	// Artifact names what the sink wrote (file path, object URL or table).
	Artifact string `json:"artifact,omitempty"`
	RunID    string `json:"run_id,omitempty"`
}

// OK reports whether the run succeeded
func (r *Result) OK() bool {
	return r.StatusCode == http.StatusOK
}

// Success builds the 200 payload
func Success(records []models.Record, artifact string) *Result {
	n := len(records)
	return &Result{
		StatusCode: http.StatusOK,
		Body: Body{
			Message:  fmt.Sprintf("extracted %d earthquakes", n),
			Total:    &n,
			Records:  records,
			Artifact: artifact,
		},
	}
}

// FromError classifies err into an error payload. A nil err yields nil.
func FromError(err error) *Result {
	if err == nil {
		return nil
	}

	var engErr *engine.EngineError
	errors.As(err, &engErr)

	switch {
	case errors.Is(err, engine.ErrBadStatus) && engErr != nil && engErr.StatusCode != 0:
		return failure(engErr.StatusCode,
			fmt.Sprintf("error accessing the web page. Status: %d", engErr.StatusCode), "")

	case errors.Is(err, engine.ErrTimeout):
		return failure(http.StatusRequestTimeout,
			"timeout while accessing the page", "the request took too long")

	case errors.Is(err, engine.ErrNetworkError):
		return failure(http.StatusInternalServerError, "HTTP request error", rootMessage(err))

	case errors.Is(err, engine.ErrTableNotFound):
		return failure(http.StatusNotFound,
			"table not found in the web page", "the page may load its data dynamically")

	case errors.Is(err, ErrNoRecords):
		return failure(http.StatusNotFound,
			ErrNoRecords.Error(), "the table exists but has no data rows")

	default:
		return Internal(err)
	}
}

// Internal builds the catch-all 500 payload.
func Internal(err error) *Result {
	return failure(http.StatusInternalServerError, "internal server error", err.Error())
}

func failure(status int, msg, detail string) *Result {
	return &Result{
		StatusCode: status,
		Body: Body{
			Error:   msg,
			Message: detail,
		},
	}
}

// rootMessage returns the message of the innermost wrapped error.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

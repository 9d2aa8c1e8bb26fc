package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-orders-api/internal/database"
	"github.com/iliyamo/movie-orders-api/internal/repository"
	"github.com/iliyamo/movie-orders-api/internal/service"
)

const msgInternal = "Internal server error"

// errInvalidID is returned by parseID; it maps to 400.
var errInvalidID = fmt.Errorf("%w: invalid id", repository.ErrValidation)

// envelope is the body of every response.  The HTTP status always equals
// Status.
type envelope struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
	Result any    `json:"result,omitempty"`
}

func respond(c echo.Context, status int, msg string, result any) error {
	return c.JSON(status, envelope{Status: status, Msg: msg, Result: result})
}

// fail writes the envelope for err.  notFound replaces the generic 404
// message so each resource can name itself.
func fail(c echo.Context, err error, notFound string) error {
	status, msg := errorStatus(err)
	if status == http.StatusNotFound && notFound != "" {
		msg = notFound
	}
	return respond(c, status, msg, nil)
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, database.ErrConnect):
		return http.StatusInternalServerError, msgInternal
	case errors.Is(err, repository.ErrValidation):
		return http.StatusBadRequest, validationMsg(err)
	case errors.Is(err, service.ErrEmailNotFound):
		return http.StatusUnauthorized, "Email is incorrect"
	case errors.Is(err, service.ErrPasswordMismatch):
		return http.StatusUnauthorized, "Password is incorrect"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, "Already exists"
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// validationMsg drops the sentinel prefix so the client sees only the
// reason, e.g. "movie_title is required".
func validationMsg(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, repository.ErrValidation.Error()+": "); i >= 0 {
		msg = msg[i+len(repository.ErrValidation.Error())+2:]
	}
	if msg == "" || msg == repository.ErrValidation.Error() {
		return "Invalid input"
	}
	return msg
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// decodeFields reads a JSON object body.  Numbers are kept as json.Number
// so integer columns can reject fractional input.
func decodeFields(c echo.Context) (map[string]any, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable body", repository.ErrValidation)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: body must be a JSON object", repository.ErrValidation)
	}
	// exactly one value; anything after the object is rejected
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: body must be a JSON object", repository.ErrValidation)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

var errNoData = fmt.Errorf("%w: No data provided", repository.ErrValidation)

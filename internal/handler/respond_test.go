package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-orders-api/internal/database"
	"github.com/iliyamo/movie-orders-api/internal/repository"
	"github.com/iliyamo/movie-orders-api/internal/service"
)

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{fmt.Errorf("%w: dial tcp", database.ErrConnect), http.StatusInternalServerError, msgInternal},
		{fmt.Errorf("%w: movie_title is required", repository.ErrValidation), http.StatusBadRequest, "movie_title is required"},
		{repository.ErrValidation, http.StatusBadRequest, "Invalid input"},
		{service.ErrEmailNotFound, http.StatusUnauthorized, "Email is incorrect"},
		{service.ErrPasswordMismatch, http.StatusUnauthorized, "Password is incorrect"},
		{repository.ErrNotFound, http.StatusNotFound, "Not found"},
		{fmt.Errorf("insert into users: %w", repository.ErrConflict), http.StatusConflict, "Already exists"},
		{fmt.Errorf("update movies: %w: disk I/O", repository.ErrInternal), http.StatusInternalServerError, msgInternal},
		{errors.New("boom"), http.StatusInternalServerError, msgInternal},
	}
	for _, tc := range cases {
		status, msg := errorStatus(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.msg, msg, tc.err.Error())
	}
}

func newCtx(method, target, payload string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(payload))
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestParseID(t *testing.T) {
	for raw, ok := range map[string]bool{"1": true, "42": true, "0": false, "-3": false, "x": false, "": false} {
		c, _ := newCtx(http.MethodGet, "/", "")
		c.SetParamNames("id")
		c.SetParamValues(raw)
		id, err := parseID(c)
		if ok {
			require.NoError(t, err, raw)
			assert.Positive(t, id)
		} else {
			assert.ErrorIs(t, err, repository.ErrValidation, raw)
		}
	}
}

func TestDecodeFieldsKeepsNumbers(t *testing.T) {
	c, _ := newCtx(http.MethodPost, "/", `{"release_year":2010,"rating":8.8,"movie_title":"Inception"}`)
	fields, err := decodeFields(c)
	require.NoError(t, err)
	assert.Equal(t, json.Number("2010"), fields["release_year"])
	assert.Equal(t, json.Number("8.8"), fields["rating"])
	assert.Equal(t, "Inception", fields["movie_title"])

	c, _ = newCtx(http.MethodPost, "/", "   ")
	fields, err = decodeFields(c)
	require.NoError(t, err)
	assert.Empty(t, fields)

	c, _ = newCtx(http.MethodPost, "/", `"text"`)
	_, err = decodeFields(c)
	assert.ErrorIs(t, err, repository.ErrValidation)

	for _, payload := range []string{`{"movie_title":"A"} trailing`, `{"a":1}{"b":2}`, `{"a":1} [`} {
		c, _ = newCtx(http.MethodPost, "/", payload)
		_, err = decodeFields(c)
		assert.ErrorIs(t, err, repository.ErrValidation, payload)
	}

	c, _ = newCtx(http.MethodPost, "/", "{\"a\":1}\n")
	_, err = decodeFields(c)
	assert.NoError(t, err)
}

func TestFailUsesResourceMessage(t *testing.T) {
	c, rec := newCtx(http.MethodGet, "/", "")
	require.NoError(t, fail(c, repository.ErrNotFound, "Movie not found"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"status":404,"msg":"Movie not found"}`, rec.Body.String())
}

func TestMessagesFor(t *testing.T) {
	m := MessagesFor("Order", "orders")
	assert.Equal(t, "No orders found", m.Empty)
	assert.Equal(t, "Order not found or already deleted", m.Deleted)
	assert.Equal(t, "Order added successfully", m.Created)
}

func TestParseAge(t *testing.T) {
	n, err := parseAge("")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = parseAge("36")
	require.NoError(t, err)
	assert.Equal(t, 36, n)

	_, err = parseAge("36.5")
	assert.ErrorIs(t, err, repository.ErrValidation)
}

type downProvider struct{}

func (downProvider) Ping(context.Context) error { return database.ErrConnect }

func TestHealthReportsDatabaseDown(t *testing.T) {
	c, rec := newCtx(http.MethodGet, "/healthz", "")
	require.NoError(t, Health(downProvider{})(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

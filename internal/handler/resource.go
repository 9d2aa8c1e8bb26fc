package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-orders-api/internal/database"
	"github.com/iliyamo/movie-orders-api/internal/queue"
	"github.com/iliyamo/movie-orders-api/internal/repository"
	"github.com/iliyamo/movie-orders-api/internal/service"
)

const (
	// requestTimeout bounds the database work of a single request.
	requestTimeout = 5 * time.Second
	// publishTimeout bounds event delivery after the write committed.
	publishTimeout = 3 * time.Second
)

// ConnProvider reserves one database connection per request.
type ConnProvider interface {
	Acquire(ctx context.Context) (*sql.Conn, error)
}

// Messages holds the per-resource texts of the response envelope.
type Messages struct {
	Empty    string // list returned no rows
	NotFound string
	Deleted  string // delete of a missing row
	Removed  string
	Updated  string
	Created  string
}

// MessagesFor builds the default texts for a resource noun ("Movie") and
// its plural ("movies").
func MessagesFor(noun, plural string) Messages {
	return Messages{
		Empty:    "No " + plural + " found",
		NotFound: noun + " not found",
		Deleted:  noun + " not found or already deleted",
		Removed:  noun + " removed successfully",
		Updated:  noun + " updated successfully",
		Created:  noun + " added successfully",
	}
}

// Events says which event types a resource emits.  Empty types are not
// published.
type Events struct {
	Created string
	Updated string
	Deleted string
}

// ResourceHandler serves list/get/create/update/delete for one table.
type ResourceHandler struct {
	db     ConnProvider
	res    *repository.Resource
	msgs   Messages
	events Events
	pub    service.EventPublisher
	log    logrus.FieldLogger

	// prepare rewrites incoming fields before a write, e.g. to hash a
	// password.  It may be nil.
	prepare func(fields map[string]any) error
}

// NewResourceHandler wires a handler for res.  pub may be nil.
func NewResourceHandler(db ConnProvider, res *repository.Resource, msgs Messages, log logrus.FieldLogger) *ResourceHandler {
	return &ResourceHandler{
		db:   db,
		res:  res,
		msgs: msgs,
		log:  log.WithField("resource", res.Table().Name),
	}
}

// WithEvents publishes the given event types after successful writes.
func (h *ResourceHandler) WithEvents(pub service.EventPublisher, ev Events) *ResourceHandler {
	h.pub = pub
	h.events = ev
	return h
}

// WithPrepare installs a hook that runs on every write payload.
func (h *ResourceHandler) WithPrepare(fn func(fields map[string]any) error) *ResourceHandler {
	h.prepare = fn
	return h
}

// withConn runs fn on a connection reserved for this request under the
// request timeout.  The connection is released before withConn returns, so
// follow-up work such as event publishing never holds it.
func (h *ResourceHandler) withConn(c echo.Context, fn func(ctx context.Context, conn *sql.Conn) error) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	conn, err := h.db.Acquire(ctx)
	if err != nil {
		h.log.WithError(err).Error("acquire connection failed")
		return err
	}
	defer conn.Close()
	return fn(ctx, conn)
}

func (h *ResourceHandler) List(c echo.Context) error {
	var rows []repository.Row
	err := h.withConn(c, func(ctx context.Context, conn *sql.Conn) (err error) {
		rows, err = h.res.List(ctx, conn)
		return err
	})
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) && !errors.Is(err, database.ErrConnect) {
			h.log.WithError(err).Error("list failed")
		}
		return fail(c, err, h.msgs.Empty)
	}
	return respond(c, http.StatusOK, "success", rows)
}

func (h *ResourceHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, err, "")
	}
	var row repository.Row
	err = h.withConn(c, func(ctx context.Context, conn *sql.Conn) (err error) {
		row, err = h.res.Get(ctx, conn, id)
		return err
	})
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) && !errors.Is(err, database.ErrConnect) {
			h.log.WithError(err).WithField("id", id).Error("get failed")
		}
		return fail(c, err, h.msgs.NotFound)
	}
	return respond(c, http.StatusOK, "success", row)
}

func (h *ResourceHandler) Create(c echo.Context) error {
	fields, err := h.payload(c)
	if err != nil {
		return fail(c, err, "")
	}
	var id int64
	err = h.withConn(c, func(ctx context.Context, conn *sql.Conn) (err error) {
		id, err = h.res.Insert(ctx, conn, fields)
		return err
	})
	if err != nil {
		h.logWrite(err, "insert", 0)
		return fail(c, err, "")
	}
	h.publish(c, h.events.Created, id, fields)
	return respond(c, http.StatusOK, h.msgs.Created, echo.Map{"id": id})
}

func (h *ResourceHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, err, "")
	}
	fields, err := h.payload(c)
	if err != nil {
		return fail(c, err, "")
	}
	err = h.withConn(c, func(ctx context.Context, conn *sql.Conn) error {
		_, err := h.res.Update(ctx, conn, id, fields)
		return err
	})
	if err != nil {
		h.logWrite(err, "update", id)
		return fail(c, err, h.msgs.NotFound)
	}
	h.publish(c, h.events.Updated, id, fields)
	return respond(c, http.StatusOK, h.msgs.Updated, nil)
}

func (h *ResourceHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, err, "")
	}
	err = h.withConn(c, func(ctx context.Context, conn *sql.Conn) error {
		_, err := h.res.Delete(ctx, conn, id)
		return err
	})
	if err != nil {
		h.logWrite(err, "delete", id)
		return fail(c, err, h.msgs.Deleted)
	}
	h.publish(c, h.events.Deleted, id, nil)
	return respond(c, http.StatusOK, h.msgs.Removed, nil)
}

// payload decodes the body and rejects an empty one before any connection
// is taken.
func (h *ResourceHandler) payload(c echo.Context) (map[string]any, error) {
	fields, err := decodeFields(c)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	if h.prepare != nil {
		if err := h.prepare(fields); err != nil {
			return nil, err
		}
	}
	return fields, nil
}

func (h *ResourceHandler) logWrite(err error, op string, id int64) {
	if errors.Is(err, repository.ErrValidation) || errors.Is(err, repository.ErrNotFound) {
		return
	}
	entry := h.log.WithError(err).WithField("op", op)
	if id > 0 {
		entry = entry.WithField("id", id)
	}
	entry.Error("write failed")
}

func (h *ResourceHandler) publish(c echo.Context, typ string, id int64, fields map[string]any) {
	if h.pub == nil || typ == "" {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), publishTimeout)
	defer cancel()
	ev := queue.Event{Type: typ, Resource: h.res.Table().Name, ID: id, Fields: fields}
	if err := h.pub.Publish(ctx, ev); err != nil {
		h.log.WithError(err).WithField("event", typ).Warn("event not published")
	}
}

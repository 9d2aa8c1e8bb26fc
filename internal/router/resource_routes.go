package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-orders-api/internal/handler"
	"github.com/iliyamo/movie-orders-api/internal/middleware"
	"github.com/iliyamo/movie-orders-api/internal/queue"
	"github.com/iliyamo/movie-orders-api/internal/repository"
)

// RegisterResources mounts the CRUD routes for users, movies and orders.
// Users are created through /register, so there is no POST /user.
func RegisterResources(g *echo.Group, d Deps) {
	users := handler.NewResourceHandler(d.Store, repository.NewResource(repository.Users), handler.MessagesFor("User", "users"), d.Log).
		WithPrepare(handler.HashUserPassword(d.Creds))
	mount(g, d, "users", "/users", "/user", users, false)

	movies := handler.NewResourceHandler(d.Store, repository.NewResource(repository.Movies), handler.MessagesFor("Movie", "movies"), d.Log)
	mount(g, d, "movies", "/movies", "/movie", movies, true)

	orders := handler.NewResourceHandler(d.Store, repository.NewResource(repository.Orders), handler.MessagesFor("Order", "orders"), d.Log).
		WithEvents(d.Events, handler.Events{
			Created: queue.OrderCreated,
			Updated: queue.OrderUpdated,
			Deleted: queue.OrderDeleted,
		})
	mount(g, d, "orders", "/orders", "/order", orders, true)
}

// mount wires list under plural and get/update/delete (and create when
// allowed) under single.  Reads are cached in the resource namespace and
// writes evict it.
func mount(g *echo.Group, d Deps, ns, plural, single string, h *handler.ResourceHandler, create bool) {
	cache := middleware.ResponseCache(d.Cache, d.Redis, ns)
	evict := middleware.InvalidateCache(d.Cache, d.Redis, d.Log, ns)

	g.GET(plural, h.List, cache)
	g.GET(single+"/:id", h.Get, cache)
	if create {
		g.POST(single, h.Create, evict)
	}
	g.PATCH(single+"/:id", h.Update, evict)
	g.DELETE(single+"/:id", h.Delete, evict)
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/iliyamo/movie-orders-api/internal/database"
	"github.com/iliyamo/movie-orders-api/internal/model"
)

// ResourceTestSuite runs the generic repository against an in-memory SQLite
// database.
type ResourceTestSuite struct {
	suite.Suite
	db     *sql.DB
	conn   *sql.Conn
	ctx    context.Context
	movies *Resource
	orders *Resource
	users  *UserRepo
}

func (s *ResourceTestSuite) SetupTest() {
	s.ctx = context.Background()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(s.T(), err)
	require.NoError(s.T(), database.Migrate(s.ctx, db, "sqlite"))
	conn, err := db.Conn(s.ctx)
	require.NoError(s.T(), err)
	s.db, s.conn = db, conn
	s.movies = NewResource(Movies)
	s.orders = NewResource(Orders)
	s.users = NewUserRepo()
}

func (s *ResourceTestSuite) TearDownTest() {
	_ = s.conn.Close()
	_ = s.db.Close()
}

func (s *ResourceTestSuite) insertMovie(title string, year int64) int64 {
	id, err := s.movies.Insert(s.ctx, s.conn, map[string]any{
		"movie_title":  title,
		"release_year": json.Number(strconv.FormatInt(year, 10)),
	})
	require.NoError(s.T(), err)
	return id
}

func (s *ResourceTestSuite) TestListEmptyIsNotFound() {
	_, err := s.movies.List(s.ctx, s.conn)
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *ResourceTestSuite) TestInsertAndGetMovie() {
	id, err := s.movies.Insert(s.ctx, s.conn, map[string]any{
		"movie_title":  "Inception",
		"release_year": json.Number("2010"),
		"rating":       json.Number("8.8"),
		"description":  "Dreams within dreams",
		"star":         "Leonardo DiCaprio",
	})
	require.NoError(s.T(), err)
	assert.Positive(s.T(), id)

	row, err := s.movies.Get(s.ctx, s.conn, id)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), id, row["movieID"])
	assert.Equal(s.T(), "Inception", row["movie_title"])
	assert.Equal(s.T(), int64(2010), row["release_year"])
	assert.InDelta(s.T(), 8.8, row["rating"], 0.0001)
	assert.Equal(s.T(), "Dreams within dreams", row["description"])
	assert.Nil(s.T(), row["movie_poster"])
	assert.ElementsMatch(s.T(), Movies.Fields(), keys(row))
}

func (s *ResourceTestSuite) TestGetMissingIsNotFound() {
	_, err := s.movies.Get(s.ctx, s.conn, 42)
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *ResourceTestSuite) TestListMatchesGet() {
	s.insertMovie("Heat", 1995)
	s.insertMovie("Alien", 1979)

	rows, err := s.movies.List(s.ctx, s.conn)
	require.NoError(s.T(), err)
	require.Len(s.T(), rows, 2)
	for _, listed := range rows {
		got, err := s.movies.Get(s.ctx, s.conn, listed["movieID"].(int64))
		require.NoError(s.T(), err)
		assert.Equal(s.T(), listed, got)
	}
}

func (s *ResourceTestSuite) TestInsertValidation() {
	tests := []struct {
		name   string
		fields map[string]any
	}{
		{"empty", map[string]any{}},
		{"missing required", map[string]any{"star": "Someone"}},
		{"unknown field", map[string]any{"movie_title": "X", "budget": json.Number("10")}},
		{"key is not writable", map[string]any{"movie_title": "X", "movieID": json.Number("7")}},
		{"wrong type", map[string]any{"movie_title": json.Number("12")}},
		{"fractional int", map[string]any{"movie_title": "X", "release_year": json.Number("2010.5")}},
		{"null title", map[string]any{"movie_title": nil}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.movies.Insert(s.ctx, s.conn, tt.fields)
			assert.ErrorIs(s.T(), err, ErrValidation)
		})
	}
	_, err := s.movies.List(s.ctx, s.conn)
	assert.ErrorIs(s.T(), err, ErrNotFound, "rejected inserts must not write")
}

func (s *ResourceTestSuite) TestUpdateRejectsInjectedColumnNames() {
	id := s.insertMovie("Heat", 1995)

	_, err := s.movies.Update(s.ctx, s.conn, id, map[string]any{
		"movie_title = 'pwned', star": "x",
	})
	assert.ErrorIs(s.T(), err, ErrValidation)

	row, err := s.movies.Get(s.ctx, s.conn, id)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Heat", row["movie_title"])
}

func (s *ResourceTestSuite) TestUpdateEmptyIsRejectedForEveryTable() {
	for _, r := range []*Resource{s.movies, s.orders, s.users.Resource} {
		_, err := r.Update(s.ctx, s.conn, 1, map[string]any{})
		assert.ErrorIs(s.T(), err, ErrValidation, r.Table().Name)
	}
}

func (s *ResourceTestSuite) TestUpdatePartial() {
	id := s.insertMovie("Heat", 1995)

	n, err := s.movies.Update(s.ctx, s.conn, id, map[string]any{
		"rating":      json.Number("8.3"),
		"description": "Cops and robbers",
	})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), n)

	row, err := s.movies.Get(s.ctx, s.conn, id)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Heat", row["movie_title"])
	assert.Equal(s.T(), int64(1995), row["release_year"])
	assert.InDelta(s.T(), 8.3, row["rating"], 0.0001)
	assert.Equal(s.T(), "Cops and robbers", row["description"])
}

func (s *ResourceTestSuite) TestUpdateMissingIsNotFound() {
	_, err := s.orders.Update(s.ctx, s.conn, 99, map[string]any{"price": json.Number("10")})
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *ResourceTestSuite) TestDelete() {
	id := s.insertMovie("Heat", 1995)
	keep := s.insertMovie("Alien", 1979)

	_, err := s.movies.Delete(s.ctx, s.conn, 12345)
	assert.ErrorIs(s.T(), err, ErrNotFound)
	rows, err := s.movies.List(s.ctx, s.conn)
	require.NoError(s.T(), err)
	assert.Len(s.T(), rows, 2, "deleting a missing id has no side effects")

	n, err := s.movies.Delete(s.ctx, s.conn, id)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), n)

	_, err = s.movies.Get(s.ctx, s.conn, id)
	assert.ErrorIs(s.T(), err, ErrNotFound)
	_, err = s.movies.Get(s.ctx, s.conn, keep)
	assert.NoError(s.T(), err)
}

func (s *ResourceTestSuite) TestOrderRoundTrip() {
	id, err := s.orders.Insert(s.ctx, s.conn, map[string]any{
		"price":   json.Number("12.5"),
		"userID":  json.Number("3"),
		"movieID": json.Number("9"),
	})
	require.NoError(s.T(), err)

	row, err := s.orders.Get(s.ctx, s.conn, id)
	require.NoError(s.T(), err)
	assert.InDelta(s.T(), 12.5, row["price"], 0.0001)
	assert.Equal(s.T(), int64(3), row["userID"])
	assert.Equal(s.T(), int64(9), row["movieID"])
}

func (s *ResourceTestSuite) TestUserRepo() {
	u := model.User{
		Name:         "Ada",
		LastName:     "Lovelace",
		Gender:       "female",
		Age:          36,
		Email:        "  Ada@Example.com ",
		PasswordHash: "$2a$04$hash",
	}
	id, err := s.users.Create(s.ctx, s.conn, u)
	require.NoError(s.T(), err)

	n, err := s.users.CountByEmail(s.ctx, s.conn, "ADA@example.com")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, n)

	got, err := s.users.GetByEmail(s.ctx, s.conn, "ada@example.com")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), id, got.ID)
	assert.Equal(s.T(), "ada@example.com", got.Email)
	assert.Equal(s.T(), "$2a$04$hash", got.PasswordHash)

	row, err := s.users.Get(s.ctx, s.conn, id)
	require.NoError(s.T(), err)
	assert.NotContains(s.T(), row, "userPass")

	_, err = s.users.Create(s.ctx, s.conn, u)
	assert.ErrorIs(s.T(), err, ErrConflict)

	_, err = s.users.GetByEmail(s.ctx, s.conn, "nobody@example.com")
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func TestResourceTestSuite(t *testing.T) {
	suite.Run(t, new(ResourceTestSuite))
}

func keys(r Row) []string {
	out := make([]string, 0, len(r))
	for k := range r {
		out = append(out, k)
	}
	return out
}

func (s *ResourceTestSuite) count(table string) int {
	var n int
	require.NoError(s.T(), s.conn.QueryRowContext(s.ctx, "SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func (s *ResourceTestSuite) TestInsertFailureIsInternalAndRolledBack() {
	s.insertMovie("Heat", 1995)
	_, err := s.conn.ExecContext(s.ctx,
		`CREATE TRIGGER movies_reject BEFORE INSERT ON movies BEGIN SELECT RAISE(ABORT, 'boom'); END`)
	require.NoError(s.T(), err)

	_, err = s.movies.Insert(s.ctx, s.conn, map[string]any{"movie_title": "Ronin"})
	assert.ErrorIs(s.T(), err, ErrInternal)
	assert.NotErrorIs(s.T(), err, ErrConflict)
	assert.Equal(s.T(), 1, s.count("movies"))
}

func (s *ResourceTestSuite) TestUpdateFailureIsInternalAndRolledBack() {
	id := s.insertMovie("Heat", 1995)
	_, err := s.conn.ExecContext(s.ctx,
		`CREATE TRIGGER movies_freeze BEFORE UPDATE ON movies BEGIN SELECT RAISE(ABORT, 'boom'); END`)
	require.NoError(s.T(), err)

	_, err = s.movies.Update(s.ctx, s.conn, id, map[string]any{"movie_title": "Ronin"})
	assert.ErrorIs(s.T(), err, ErrInternal)

	row, err := s.movies.Get(s.ctx, s.conn, id)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Heat", row["movie_title"])
}

func (s *ResourceTestSuite) TestConstraintMessageMentioningUniqueIsNotConflict() {
	_, err := s.conn.ExecContext(s.ctx,
		`CREATE TRIGGER orders_reject BEFORE INSERT ON orders BEGIN SELECT RAISE(ABORT, 'UNIQUE slot taken'); END`)
	require.NoError(s.T(), err)

	_, err = s.orders.Insert(s.ctx, s.conn, map[string]any{
		"price": json.Number("5"), "userID": json.Number("1"), "movieID": json.Number("1"),
	})
	assert.ErrorIs(s.T(), err, ErrInternal)
	assert.NotErrorIs(s.T(), err, ErrConflict)
	assert.Equal(s.T(), 0, s.count("orders"))
}

func (s *ResourceTestSuite) TestUserAgeMustNotBeNegative() {
	id, err := s.users.Create(s.ctx, s.conn, model.User{
		Name: "Ada", LastName: "Lovelace", Gender: "F", Age: 36,
		Email: "ada@example.com", PasswordHash: "x",
	})
	require.NoError(s.T(), err)

	_, err = s.users.Update(s.ctx, s.conn, id, map[string]any{"age": json.Number("-5")})
	assert.ErrorIs(s.T(), err, ErrValidation)

	row, err := s.users.Get(s.ctx, s.conn, id)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(36), row["age"])
}

func TestColumnBind(t *testing.T) {
	intCol := Column{Field: "age", Kind: KindInt}
	v, err := intCol.bind(float64(30))
	require.NoError(t, err)
	assert.Equal(t, int64(30), v)
	_, err = intCol.bind(30.5)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = intCol.bind("30")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = intCol.bind(nil)
	assert.ErrorIs(t, err, ErrValidation)

	ageCol := Column{Field: "age", Kind: KindInt, Unsigned: true}
	_, err = ageCol.bind(json.Number("-5"))
	assert.ErrorIs(t, err, ErrValidation)
	v, err = ageCol.bind(json.Number("0"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	floatCol := Column{Field: "price", Kind: KindFloat, Nullable: true}
	v, err = floatCol.bind(json.Number("9.99"))
	require.NoError(t, err)
	assert.Equal(t, 9.99, v)
	v, err = floatCol.bind(nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

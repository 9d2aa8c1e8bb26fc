// Package service holds the credential flow: registration, login and
// session token issuance.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-orders-api/internal/config"
	"github.com/iliyamo/movie-orders-api/internal/model"
	"github.com/iliyamo/movie-orders-api/internal/queue"
	"github.com/iliyamo/movie-orders-api/internal/repository"
	"github.com/iliyamo/movie-orders-api/internal/utils"
)

// ErrInvalidCredentials covers both login failure modes.  The wrapped
// variants let the handler say which factor was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

var (
	ErrEmailNotFound    = fmt.Errorf("%w: email is incorrect", ErrInvalidCredentials)
	ErrPasswordMismatch = fmt.Errorf("%w: password is incorrect", ErrInvalidCredentials)
)

// EventPublisher delivers domain events.  Publishing is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// RegisterInput carries the registration form.  Age <= 0 counts as absent.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	LastName string
	Age      int
	Gender   string
}

// Session is the outcome of a successful register or login.
type Session struct {
	Token utils.SessionToken
	User  model.User
}

// Credentials implements the credential flow on top of the users table.
type Credentials struct {
	users  *repository.UserRepo
	secret string
	ttl    time.Duration
	cost   int
	events EventPublisher
	log    logrus.FieldLogger
}

// NewCredentials wires the service from configuration.  events may be nil.
func NewCredentials(cfg config.Config, users *repository.UserRepo, events EventPublisher, log logrus.FieldLogger) *Credentials {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = utils.DefaultBcryptCost
	}
	ttl := cfg.SessionTTL
	if ttl == 0 {
		ttl = 2 * time.Hour
	}
	return &Credentials{
		users:  users,
		secret: cfg.JWTSecret,
		ttl:    ttl,
		cost:   cost,
		events: events,
		log:    log,
	}
}

// Register creates a user and issues a session token.  The COUNT check and
// the INSERT are not atomic; two concurrent registrations for the same email
// are only separated by the unique index, which turns the loser's insert
// into ErrConflict.
func (s *Credentials) Register(ctx context.Context, q repository.DBTX, in RegisterInput) (Session, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Gender = strings.TrimSpace(in.Gender)
	if in.Email == "" || in.Password == "" || in.Name == "" || in.LastName == "" || in.Gender == "" || in.Age <= 0 {
		return Session{}, fmt.Errorf("%w: all fields are required", repository.ErrValidation)
	}
	log := s.log.WithField("email", in.Email)

	n, err := s.users.CountByEmail(ctx, q, in.Email)
	if err != nil {
		log.WithError(err).Error("register: email lookup failed")
		return Session{}, fmt.Errorf("%w: %v", repository.ErrInternal, err)
	}
	if n > 0 {
		log.Info("register: email already in use")
		return Session{}, fmt.Errorf("email already in use: %w", repository.ErrConflict)
	}

	hash, err := utils.HashPassword(in.Password, s.cost)
	if err != nil {
		log.WithError(err).Error("register: hash failed")
		return Session{}, fmt.Errorf("%w: %v", repository.ErrInternal, err)
	}
	u := model.User{
		Name:         in.Name,
		LastName:     in.LastName,
		Gender:       in.Gender,
		Age:          in.Age,
		Email:        in.Email,
		PasswordHash: hash,
	}
	id, err := s.users.Create(ctx, q, u)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			log.Info("register: lost race on unique email")
			return Session{}, fmt.Errorf("email already in use: %w", repository.ErrConflict)
		}
		log.WithError(err).Error("register: insert failed")
		return Session{}, err
	}
	u.ID = id

	tok, err := s.issue(in.Email)
	if err != nil {
		log.WithError(err).Error("register: token signing failed")
		return Session{}, err
	}
	log.WithField("user_id", id).Info("user registered")

	if s.events != nil {
		_ = s.events.Publish(ctx, queue.Event{Type: queue.UserRegistered, Resource: "users", ID: id, Email: in.Email})
	}
	u.PasswordHash = ""
	return Session{Token: tok, User: u}, nil
}

// Login verifies email and password and issues a session token.  The
// returned user never carries the hash.
func (s *Credentials) Login(ctx context.Context, q repository.DBTX, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Session{}, fmt.Errorf("%w: email and password are required", repository.ErrValidation)
	}
	log := s.log.WithField("email", email)

	u, err := s.users.GetByEmail(ctx, q, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Info("login: unknown email")
			return Session{}, ErrEmailNotFound
		}
		log.WithError(err).Error("login: lookup failed")
		return Session{}, fmt.Errorf("%w: %v", repository.ErrInternal, err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		log.Info("login: password mismatch")
		return Session{}, ErrPasswordMismatch
	}

	tok, err := s.issue(email)
	if err != nil {
		log.WithError(err).Error("login: token signing failed")
		return Session{}, err
	}
	u.PasswordHash = ""
	log.WithField("user_id", u.ID).Info("user logged in")
	return Session{Token: tok, User: u}, nil
}

// HashPassword hashes a new password for a user update.
func (s *Credentials) HashPassword(plain string) (string, error) {
	if plain == "" {
		return "", fmt.Errorf("%w: userPass must not be empty", repository.ErrValidation)
	}
	return utils.HashPassword(plain, s.cost)
}

func (s *Credentials) issue(email string) (utils.SessionToken, error) {
	tok, err := utils.NewSessionToken(s.secret, email, s.ttl)
	if err != nil {
		return utils.SessionToken{}, fmt.Errorf("%w: %v", repository.ErrInternal, err)
	}
	return tok, nil
}

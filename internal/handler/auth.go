package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-orders-api/internal/config"
	"github.com/iliyamo/movie-orders-api/internal/middleware"
	"github.com/iliyamo/movie-orders-api/internal/repository"
	"github.com/iliyamo/movie-orders-api/internal/service"
	"github.com/iliyamo/movie-orders-api/internal/utils"
)

// AuthHandler bundles dependencies for the credential endpoints.
type AuthHandler struct {
	DB     ConnProvider
	Creds  *service.Credentials
	Users  *repository.UserRepo
	Cookie string
	Secure bool
	Log    logrus.FieldLogger
}

func NewAuthHandler(cfg config.Config, db ConnProvider, creds *service.Credentials, users *repository.UserRepo, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		DB:     db,
		Creds:  creds,
		Users:  users,
		Cookie: cfg.CookieName,
		Secure: cfg.Env == "prod",
		Log:    log,
	}
}

// ----- DTOs -----

type registerReq struct {
	Email    string      `json:"emailAdd"`
	Password string      `json:"userPass"`
	Name     string      `json:"userName"`
	LastName string      `json:"lastName"`
	Age      json.Number `json:"age"`
	Gender   string      `json:"gender"`
}

type loginReq struct {
	Email    string `json:"emailAdd"`
	Password string `json:"userPass"`
}

type loginResp struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
	Token  string `json:"token"`
	Result any    `json:"result"`
}

// Register creates the user, sets the session cookie and answers 200.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "invalid body", nil)
	}
	age, err := parseAge(req.Age)
	if err != nil {
		return fail(c, err, "")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	conn, err := h.DB.Acquire(ctx)
	if err != nil {
		h.Log.WithError(err).Error("register: acquire connection failed")
		return fail(c, err, "")
	}
	defer conn.Close()

	sess, err := h.Creds.Register(ctx, conn, service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		LastName: req.LastName,
		Age:      age,
		Gender:   req.Gender,
	})
	if err != nil {
		status, msg := errorStatus(err)
		switch status {
		case http.StatusConflict:
			msg = "Email already in use"
		case http.StatusBadRequest:
			msg = "All fields are required"
		}
		return respond(c, status, msg, nil)
	}

	h.setCookie(c, sess.Token)
	return respond(c, http.StatusOK, "User registered successfully!", nil)
}

// Login verifies credentials, sets the session cookie and returns the token
// together with the public user fields.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "invalid body", nil)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	conn, err := h.DB.Acquire(ctx)
	if err != nil {
		h.Log.WithError(err).Error("login: acquire connection failed")
		return fail(c, err, "")
	}
	defer conn.Close()

	sess, err := h.Creds.Login(ctx, conn, req.Email, req.Password)
	if err != nil {
		status, msg := errorStatus(err)
		if status == http.StatusBadRequest {
			msg = "Email and password are required"
		}
		return respond(c, status, msg, nil)
	}

	h.setCookie(c, sess.Token)
	return c.JSON(http.StatusOK, loginResp{
		Status: http.StatusOK,
		Msg:    "Successful login",
		Token:  sess.Token.Token,
		Result: sess.User,
	})
}

// Me returns the user the session token belongs to.
func (h *AuthHandler) Me(c echo.Context) error {
	email, _ := c.Get(middleware.ContextEmail).(string)

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	conn, err := h.DB.Acquire(ctx)
	if err != nil {
		return fail(c, err, "")
	}
	defer conn.Close()

	u, err := h.Users.GetByEmail(ctx, conn, email)
	if err != nil {
		return fail(c, err, "User not found")
	}
	u.PasswordHash = ""
	return respond(c, http.StatusOK, "success", u)
}

func (h *AuthHandler) setCookie(c echo.Context, tok utils.SessionToken) {
	c.SetCookie(&http.Cookie{
		Name:     h.Cookie,
		Value:    tok.Token,
		Path:     "/",
		Expires:  tok.Exp,
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// HashUserPassword returns a write hook for the users resource: a userPass
// in the payload is replaced by its hash and emailAdd is normalised.
func HashUserPassword(creds *service.Credentials) func(map[string]any) error {
	return func(fields map[string]any) error {
		if v, ok := fields["emailAdd"].(string); ok {
			fields["emailAdd"] = strings.ToLower(strings.TrimSpace(v))
		}
		v, ok := fields["userPass"]
		if !ok {
			return nil
		}
		plain, ok := v.(string)
		if !ok {
			return fmt.Errorf("%w: userPass must be a string", repository.ErrValidation)
		}
		hash, err := creds.HashPassword(plain)
		if err != nil {
			return err
		}
		fields["userPass"] = hash
		return nil
	}
}

// parseAge accepts a JSON number or numeric string.  Absent is 0, which the
// credential service rejects as missing.
func parseAge(n json.Number) (int, error) {
	if n == "" {
		return 0, nil
	}
	v, err := n.Int64()
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: age must be a non-negative integer", repository.ErrValidation)
	}
	return int(v), nil
}

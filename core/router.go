package core

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

// NewRouter constructs the Gin engine with routes wired. The HTTP surface is
// a thin adapter: it maps store/session error kinds to status codes and
// user-facing messages, nothing more.
func NewRouter(cfg Config, store *sessions.CookieStore, users *UserStore) *gin.Engine {
	r := gin.Default()

	r.Use(SessionMiddleware(cfg, store))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/auth/register", func(c *gin.Context) {
			gate := gateFromContext(c)
			if _, ok := gate.CurrentUserID(); ok {
				c.Redirect(http.StatusSeeOther, "/dashboard")
				return
			}

			var req struct {
				Email           string `json:"email"`
				Password        string `json:"password"`
				PasswordConfirm string `json:"password_confirm"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}
			if strings.TrimSpace(req.Email) == "" || req.Password == "" {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "email and password are required")
				return
			}
			if req.Password != req.PasswordConfirm {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "passwords do not match")
				return
			}

			ctx := c.Request.Context()

			// Pre-check for a friendlier duplicate message; the unique index
			// on email remains the source of truth for races.
			switch _, err := users.GetUserByEmail(ctx, req.Email); {
			case err == nil:
				respondError(c, http.StatusBadRequest, "ALREADY_EXISTS", "an account already exists with that email")
				return
			case !errors.Is(err, ErrNotFound):
				log.Printf("registration lookup failed: %v", err)
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "we are experiencing technical difficulties, please try again later")
				return
			}

			nu, err := NewUserFromCredentials(req.Email, req.Password)
			if err != nil {
				log.Printf("password hashing failed: %v", err)
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "we are experiencing technical difficulties, please try again later")
				return
			}

			u, err := users.CreateUser(ctx, nu)
			if err != nil {
				if errors.Is(err, ErrAlreadyExists) {
					respondError(c, http.StatusBadRequest, "ALREADY_EXISTS", "an account already exists with that email")
					return
				}
				log.Printf("user creation failed: %v", err)
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "we are experiencing technical difficulties, please try again later")
				return
			}

			log.Printf("created new user with email %s", u.Email)
			c.JSON(http.StatusCreated, gin.H{"user": gin.H{"id": u.ID, "email": u.Email}})
		})

		api.POST("/auth/login", func(c *gin.Context) {
			gate := gateFromContext(c)
			if _, ok := gate.CurrentUserID(); ok {
				c.Redirect(http.StatusSeeOther, "/dashboard")
				return
			}

			var req struct {
				Email    string `json:"email"`
				Password string `json:"password"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}

			ctx := c.Request.Context()
			u, err := users.GetUserByEmail(ctx, req.Email)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					// Same message as a wrong password so account existence
					// is not revealed.
					log.Printf("login attempt for unknown email %s", req.Email)
					respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
					return
				}
				log.Printf("login lookup failed: %v", err)
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "we are experiencing problems, please try again later")
				return
			}

			if !VerifyPassword(req.Password, u.HashedPassword) {
				// The attempted password is never logged.
				log.Printf("wrong password for %s", req.Email)
				respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
				return
			}

			if err := gate.Establish(u.ID); err != nil {
				// The account exists but the caller is not logged in; a
				// generic internal error tells them to retry.
				log.Printf("session error: %v", err)
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "we are experiencing problems, please try again later")
				return
			}

			c.JSON(http.StatusOK, gin.H{"user": gin.H{"id": u.ID, "email": u.Email}})
		})

		api.POST("/auth/logout", func(c *gin.Context) {
			gate := gateFromContext(c)
			if err := gate.Purge(); err != nil {
				log.Printf("session purge failed: %v", err)
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to clear session")
				return
			}
			c.Status(http.StatusNoContent)
		})

		api.GET("/users/me", func(c *gin.Context) {
			gate := gateFromContext(c)
			userID, ok := gate.CurrentUserID()
			if !ok {
				respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "login required")
				return
			}
			c.JSON(http.StatusOK, gin.H{"user_id": userID})
		})
	}

	return r
}

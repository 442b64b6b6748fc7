package router

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/farmhand/internal/api/cache"
	"github.com/cuongbtq/farmhand/internal/api/handler"
	"github.com/cuongbtq/farmhand/internal/client/auth"
)

// LoggerMiddleware logs HTTP requests with slog
func LoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		attrs := []any{
			slog.Int("status", c.Writer.Status()),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.String("ip", c.ClientIP()),
			slog.Duration("latency", time.Since(start)),
			slog.Int("body_size", c.Writer.Size()),
		}
		if u, ok := handler.CurrentUser(c); ok {
			attrs = append(attrs, slog.String("user_id", u.ID))
		}

		logger.Info("HTTP Request", attrs...)

		for _, e := range c.Errors {
			logger.Error("Request error",
				slog.String("error", e.Error()),
				slog.Uint64("type", uint64(e.Type)),
			)
		}
	}
}

// CORSMiddleware handles Cross-Origin Resource Sharing
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept, Origin, Cache-Control")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		c.Writer.Header().Set("Access-Control-Expose-Headers", handler.NextCursorHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// TokenVerifier resolves an access token to its user
type TokenVerifier interface {
	User(ctx context.Context, accessToken string) (auth.User, error)
}

// ProfileStore records users seen by the API
type ProfileStore interface {
	UpsertProfile(ctx context.Context, u auth.User) error
}

// Authenticator checks bearer tokens, caching verified users
type Authenticator struct {
	verifier TokenVerifier
	cache    cache.TokenCache
	profiles ProfileStore
	ttl      time.Duration
	logger   *slog.Logger
}

// NewAuthenticator builds the bearer token middleware source
func NewAuthenticator(verifier TokenVerifier, tokenCache cache.TokenCache, profiles ProfileStore, ttl time.Duration, logger *slog.Logger) *Authenticator {
	if tokenCache == nil {
		tokenCache = cache.Noop{}
	}
	return &Authenticator{
		verifier: verifier,
		cache:    tokenCache,
		profiles: profiles,
		ttl:      ttl,
		logger:   logger,
	}
}

// Middleware rejects requests without a valid bearer token
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		user, err := a.resolve(c.Request.Context(), token)
		if errors.Is(err, auth.ErrInvalidToken) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if err != nil {
			a.logger.Error("Failed to verify token", slog.Any("error", err))
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "auth provider unavailable"})
			return
		}

		handler.SetUser(c, user)
		c.Next()
	}
}

func (a *Authenticator) resolve(ctx context.Context, token string) (auth.User, error) {
	if user, found, err := a.cache.GetUser(ctx, token); err != nil {
		a.logger.Warn("Token cache lookup failed", slog.Any("error", err))
	} else if found {
		return user, nil
	}

	user, err := a.verifier.User(ctx, token)
	if err != nil {
		return auth.User{}, err
	}

	if err := a.profiles.UpsertProfile(ctx, user); err != nil {
		return auth.User{}, err
	}

	if a.ttl > 0 {
		if err := a.cache.SetUser(ctx, token, user, a.ttl); err != nil {
			a.logger.Warn("Token cache store failed", slog.Any("error", err))
		}
	}

	return user, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

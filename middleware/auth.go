package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"messmate/models"
	"messmate/services"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "userId"
	ctxRole   = "role"
	ctxToken  = "token"
)

type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (services.Actor, error)
}

func bearerToken(c *gin.Context) string {
	tokenString := c.GetHeader("Authorization")
	if len(tokenString) > 7 && strings.EqualFold(tokenString[:7], "Bearer ") {
		tokenString = tokenString[7:]
	}
	return strings.TrimSpace(tokenString)
}

func AuthMiddleware(auth TokenAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			abort(c, http.StatusUnauthorized, "Token required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		actor, err := auth.Authenticate(ctx, tokenString)
		if err != nil {
			status, msg := http.StatusUnauthorized, "Invalid or expired token"
			var svcErr *services.Error
			if errors.As(err, &svcErr) {
				msg = svcErr.Message
				if svcErr.Kind == services.KindInternal {
					status = http.StatusInternalServerError
				}
			}
			abort(c, status, msg)
			return
		}

		c.Set(ctxUserID, actor.UserID.Hex())
		c.Set(ctxRole, actor.Role)
		c.Set(ctxToken, tokenString)
		c.Next()
	}
}

// RequireRole lets through only callers holding one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ctxRole)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "Access denied: "+strings.Join(roles, " or ")+" only")
	}
}

func AdminMiddleware() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}

// Actor returns the caller set by AuthMiddleware. The zero Actor means the
// request was not authenticated.
func Actor(c *gin.Context) services.Actor {
	actor, err := services.NewActor(c.GetString(ctxUserID), c.GetString(ctxRole))
	if err != nil {
		return services.Actor{}
	}
	return actor
}

func Token(c *gin.Context) string {
	return c.GetString(ctxToken)
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": msg})
}

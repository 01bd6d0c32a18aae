package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"messmate/services"

	"github.com/gin-gonic/gin"
)

const requestTimeout = 10 * time.Second

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindInvalidInput:
		return http.StatusBadRequest
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"success": false, "message", "error"}.
func respondError(c *gin.Context, err error) {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		svcErr = services.Internal("Something went wrong", err)
	}
	_ = c.Error(err)

	body := gin.H{"success": false, "message": svcErr.Message}
	if svcErr.Err != nil {
		body["error"] = svcErr.Err.Error()
	}
	c.JSON(statusFor(svcErr.Kind), body)
}

func badRequest(c *gin.Context, msg string) {
	respondError(c, services.InvalidInput(msg))
}

func messIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("mess_id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, services.NotFound("Mess not found"))
		return 0, false
	}
	return id, true
}

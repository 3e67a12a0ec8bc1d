package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"socal/internal/middleware"
	"socal/internal/services"
	"socal/internal/utils"

	"github.com/gin-gonic/gin"
)

// statusFor maps a service error onto its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"message": ...}. Internal errors are logged and
// hidden from the client.
func respondError(c *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Printf("[api] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.AbortWithStatusJSON(code, gin.H{"message": "internal server error"})
		return
	}
	c.AbortWithStatusJSON(code, gin.H{"message": msg(err)})
}

func msg(err error) string {
	if err == nil {
		return ""
	}
	s := err.Error()
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// pathID reads a numeric route parameter, answering 404 for anything that
// is not a positive integer.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Not found"})
		return 0, false
	}
	return id, true
}

// mustPrincipal is for handlers behind middleware.AuthRequired.
func mustPrincipal(c *gin.Context) services.Principal {
	p, _ := middleware.CurrentPrincipal(c)
	return p
}

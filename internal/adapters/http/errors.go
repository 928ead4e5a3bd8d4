package http

import (
	"errors"
	"net/http"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/gin-gonic/gin"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyComment),
		errors.Is(err, domain.ErrInvalidCharacters),
		errors.Is(err, domain.ErrUnknownCity),
		errors.Is(err, domain.ErrInvalidGroup),
		errors.Is(err, domain.ErrIndexOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCommentNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func abortWith(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}

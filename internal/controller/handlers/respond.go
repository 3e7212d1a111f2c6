package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yuchialin/clinicline/internal/service"
)

// Uniform response envelope.
type response struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

const (
	codeSuccess       = "000"
	codeBadRequest    = "400"
	codeForbidden     = "403"
	codeNotFound      = "404"
	codeConflict      = "409"
	codeInternalError = "500"
	codeUnavailable   = "503"
)

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, response{Code: codeSuccess, Message: "success", Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, response{Code: codeSuccess, Message: "success", Data: data})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, response{Code: codeBadRequest, Message: message})
}

// respondError maps service error kinds to HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, response{Code: codeBadRequest, Message: err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, response{Code: codeNotFound, Message: err.Error()})
	case errors.Is(err, service.ErrInvalidState), errors.Is(err, service.ErrCapacityExceeded):
		c.JSON(http.StatusConflict, response{Code: codeConflict, Message: err.Error()})
	case errors.Is(err, service.ErrUpstream):
		c.JSON(http.StatusServiceUnavailable, response{Code: codeUnavailable, Message: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, response{Code: codeInternalError, Message: err.Error()})
	}
}

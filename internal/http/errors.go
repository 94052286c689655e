package http

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	dto "time-bank.com/time-bank/internal/data_models"
	apperr "time-bank.com/time-bank/internal/errors"
)

// ErrorHandler renders every failure as a dto.ErrorResponse.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	resp := dto.ErrorResponse{
		Error:     apperr.Kind(err),
		Message:   err.Error(),
		Retryable: apperr.IsRetryable(err),
	}
	status := apperr.StatusCode(err)

	var he *echo.HTTPError
	var ae *apperr.Exception
	switch {
	case errors.As(err, &ae):
	case errors.As(err, &he):
		status = he.Code
		resp.Error = strings.ToLower(strings.ReplaceAll(http.StatusText(he.Code), " ", "_"))
		resp.Message = fmt.Sprint(he.Message)
	default:
		log.Printf("internal error on %s %s: %v", c.Request().Method, c.Path(), err)
		resp.Message = "internal server error"
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, resp)
	}
	if err != nil {
		log.Printf("failed to write error response: %v", err)
	}
}

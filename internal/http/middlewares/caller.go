package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"

	apperr "time-bank.com/time-bank/internal/errors"
	model "time-bank.com/time-bank/internal/models"
)

// CallerHeader carries the authenticated user id. Session handling lives in
// the gateway in front of this service.
const CallerHeader = "X-User-ID"

const callerKey = "caller"

type UserLookup interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
}

// Caller resolves the caller identity and rejects unknown users.
func Caller(users UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(CallerHeader)
			if id == "" {
				return fmt.Errorf("missing %s header: %w", CallerHeader, apperr.ErrUnauthenticated)
			}

			user, err := users.GetUser(c.Request().Context(), id)
			if err != nil {
				if errors.Is(err, apperr.ErrUserNotFound) {
					return fmt.Errorf("unknown user %s: %w", id, apperr.ErrUnauthenticated)
				}
				return err
			}

			c.Set(callerKey, user)
			return next(c)
		}
	}
}

// CallerFrom returns the user resolved by Caller.
func CallerFrom(c echo.Context) *model.User {
	user, _ := c.Get(callerKey).(*model.User)
	return user
}

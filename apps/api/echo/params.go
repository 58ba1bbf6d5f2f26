package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/academic"
)

func paramID(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

// queryInt returns 0 when the parameter is absent.
func queryInt(ctx echo.Context, name string) (int, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return 0, core.NewInvalidArgumentError(name, "must be a positive integer")
	}
	return n, nil
}

// queryDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp. It returns the zero
// time when the parameter is absent.
func queryDate(ctx echo.Context, name string) (time.Time, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return time.Time{}, nil
	}
	t, err := academic.ParseDate(val)
	if err != nil {
		return time.Time{}, core.NewInvalidArgumentError(name, "must be a date formatted as YYYY-MM-DD")
	}
	return t, nil
}

func noContent(ctx echo.Context) error {
	return ctx.NoContent(http.StatusNoContent)
}

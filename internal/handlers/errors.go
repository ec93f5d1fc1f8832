package handlers

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink/internal/apperr"
)

// httpError translates a service error into a huma status error by kind.
// Internal failures never expose their cause.
func httpError(err error) error {
	switch apperr.KindOf(err) {
	case apperr.KindExpired:
		return huma.Error410Gone("URL expired")
	case apperr.KindNotFound:
		return huma.Error404NotFound("URL not found")
	case apperr.KindUnavailable:
		return huma.Error503ServiceUnavailable("Service unavailable")
	case apperr.KindUnauthorized:
		return huma.Error401Unauthorized("Unauthorized", detail(err))
	case apperr.KindConflict:
		return huma.Error400BadRequest("Username already exists")
	case apperr.KindInvalidArgument:
		return huma.Error400BadRequest("Bad request", detail(err))
	default:
		return huma.Error500InternalServerError("Runtime error")
	}
}

// detail returns the innermost message meant for the caller, without the
// operation prefix.
func detail(err error) error {
	var e *apperr.Error
	if !errors.As(err, &e) {
		return err
	}

	if e.Msg != "" {
		return errors.New(e.Msg)
	}

	if e.Err != nil {
		return e.Err
	}

	return err
}

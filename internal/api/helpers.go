package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/samcharles93/guppi/pkg/guppi"
)

func writeBadRequest(c *echo.Context, param, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, param, "")
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg, "", "")
}

func writeError(c *echo.Context, status int, errType, msg, param, code string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
			Code:    code,
			Param:   param,
		},
	})
}

// writeStreamError maps library errors onto the error envelope.
func (s *Server) writeStreamError(c *echo.Context, err error) error {
	var inv invalidRequestError
	switch {
	case errors.As(err, &inv):
		return writeBadRequest(c, inv.param, inv.msg)
	case errors.Is(err, guppi.ErrNoFiles):
		return writeNotFound(c, err.Error())
	}
	s.log.Error("stream error", "error", err, "path", c.Request().URL.Path)
	return writeError(c, http.StatusUnprocessableEntity, "stream_error", err.Error(), "", errorCode(err))
}

func errorCode(err error) string {
	for _, m := range []struct {
		err  error
		code string
	}{
		{guppi.ErrTruncatedHeader, "truncated_header"},
		{guppi.ErrTruncatedBlock, "truncated_block"},
		{guppi.ErrMalformedHeaderValue, "malformed_header_value"},
		{guppi.ErrUnicodeDecode, "unicode_decode"},
		{guppi.ErrUnsupportedBitDepth, "unsupported_bit_depth"},
		{guppi.ErrUnsupportedPolarizationCount, "unsupported_polarization_count"},
		{guppi.ErrInconsistentBlockShape, "inconsistent_block_shape"},
		{guppi.ErrInvalidGeometry, "invalid_geometry"},
	} {
		if errors.Is(err, m.err) {
			return m.code
		}
	}
	return ""
}

func parseIndexParam(c *echo.Context) (int, error) {
	raw := c.Param("index")
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 {
		return 0, newInvalidRequest("index", "index must be a non-negative integer, got "+strconv.Quote(raw))
	}
	return i, nil
}

func parseQueryInt(c *echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, newInvalidRequest(name, name+" must be a non-negative integer")
	}
	return n, nil
}

// requestID echoes the caller's X-Request-Id or assigns a fresh one.
func requestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		id := c.Request().Header.Get(echo.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Response().Header().Set(echo.HeaderXRequestID, id)
		return next(c)
	}
}

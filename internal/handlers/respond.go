package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/luwas/internal/middleware"
	"github.com/joshua-takyi/luwas/internal/models"
)

const (
	maxUploadBytes  = 10 << 20
	streamKeepAlive = 25 * time.Second
)

// respondError writes the typed error as JSON and records it for ErrorHandler.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	status := middleware.StatusFor(c.Request.Method, err)
	res := models.ErrorResponse(err.Error())
	var ve models.ValidationError
	if errors.As(err, &ve) {
		res.Error = ve.Msg
		res.Field = ve.Field
	}
	if models.IsUnavailable(err) {
		res.Message = "Something went wrong, please try again"
	}
	if status == http.StatusInternalServerError {
		res.Error = "Internal server error"
	}
	if id, ok := c.Get("request_id"); ok {
		res.RequestID, _ = id.(string)
	}
	c.AbortWithStatusJSON(status, res)
}

func badRequest(c *gin.Context, field, msg string) {
	respondError(c, models.ValidationError{Field: field, Msg: msg})
}

func parseKind(c *gin.Context) (models.BookingKind, bool) {
	kind, err := models.ParseBookingKind(c.Param("kind"))
	if err != nil {
		respondError(c, err)
		return "", false
	}
	return kind, true
}

// parseLimit reads ?limit, falling back to def. Zero means unbounded.
func parseLimit(c *gin.Context, def int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return def, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		badRequest(c, "limit", "invalid limit parameter")
		return 0, false
	}
	return limit, true
}

// parseCoords returns nil pointers when the client sent no location.
func parseCoords(c *gin.Context) (lat, lon *float64, ok bool) {
	rawLat, rawLon := c.Query("lat"), c.Query("lon")
	if rawLat == "" || rawLon == "" {
		return nil, nil, true
	}
	la, err := strconv.ParseFloat(rawLat, 64)
	if err != nil || la < -90 || la > 90 {
		badRequest(c, "lat", "invalid latitude")
		return nil, nil, false
	}
	lo, err := strconv.ParseFloat(rawLon, 64)
	if err != nil || lo < -180 || lo > 180 {
		badRequest(c, "lon", "invalid longitude")
		return nil, nil, false
	}
	return &la, &lo, true
}

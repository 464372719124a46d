package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/luwas/internal/helpers"
	"github.com/joshua-takyi/luwas/internal/models"
	"github.com/joshua-takyi/luwas/internal/services"
)

type homeResponse struct {
	*services.HomeFeed
	Weather services.WeatherHeader `json:"weather"`
}

func Home(cs *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		lat, lon, ok := parseCoords(c)
		if !ok {
			return
		}
		id := helpers.IdentityFrom(c)
		uid, name := "", models.DefaultDisplayName
		if !id.Anonymous {
			uid, name = id.UID, id.DisplayName
		}

		feed, err := cs.Home(c.Request.Context(), uid, name)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(homeResponse{
			HomeFeed: feed,
			Weather:  cs.CurrentWeather(c.Request.Context(), lat, lon),
		}, ""))
	}
}

func CurrentWeather(cs *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		lat, lon, ok := parseCoords(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(cs.CurrentWeather(c.Request.Context(), lat, lon), ""))
	}
}

// listHandler serves one catalog rail with ?limit (0 = everything).
func listHandler[T any](defaultLimit int, list func(ctx context.Context, limit int) ([]T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := parseLimit(c, defaultLimit)
		if !ok {
			return
		}
		items, err := list(c.Request.Context(), limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(items, limit, len(items)))
	}
}

func ListDestinations(cs *services.CatalogService, defaultLimit int) gin.HandlerFunc {
	return listHandler(defaultLimit, cs.ListDestinations)
}

func ListItineraries(cs *services.CatalogService, defaultLimit int) gin.HandlerFunc {
	return listHandler(defaultLimit, cs.ListItineraries)
}

func ListPromos(cs *services.CatalogService, defaultLimit int) gin.HandlerFunc {
	return listHandler(defaultLimit, cs.ListPromos)
}

func GetDetail(cs *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, ok := parseKind(c)
		if !ok {
			return
		}
		itemID := helpers.StringTrim(c.Param("id"))
		if itemID == "" {
			badRequest(c, "id", "item ID is required")
			return
		}

		detail, err := cs.GetDetail(c.Request.Context(), kind, itemID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(detail, ""))
	}
}

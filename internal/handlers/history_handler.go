package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/luwas/internal/helpers"
	"github.com/joshua-takyi/luwas/internal/models"
	"github.com/joshua-takyi/luwas/internal/services"
)

func openHistory(c *gin.Context, hs *services.HistoryService) (*services.HistorySession, bool) {
	filter, err := models.ParseHistoryFilter(c.Query("filter"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	id := helpers.IdentityFrom(c)
	session, err := hs.Open(c.Request.Context(), id.UID, filter)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return session, true
}

func historyFailure(session *services.HistorySession) error {
	if err := session.Err(); err != nil {
		return models.UnavailableError{Op: "load bookings", Err: err}
	}
	return models.UnavailableError{Op: "load bookings"}
}

// GetHistory answers with the first complete merged view and releases the feeds.
func GetHistory(hs *services.HistoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := openHistory(c, hs)
		if !ok {
			return
		}
		defer session.Close()

		select {
		case view, ok := <-session.Views():
			if !ok {
				respondError(c, historyFailure(session))
				return
			}
			c.JSON(http.StatusOK, models.SuccessResponse(view, ""))
		case <-c.Request.Context().Done():
		}
	}
}

// StreamHistory keeps the three feeds open for as long as the client listens.
func StreamHistory(hs *services.HistoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := openHistory(c, hs)
		if !ok {
			return
		}
		defer session.Close()

		sseHeaders(c)
		ticker := time.NewTicker(streamKeepAlive)
		defer ticker.Stop()

		c.Stream(func(w io.Writer) bool {
			select {
			case <-c.Request.Context().Done():
				return false
			case <-ticker.C:
				c.SSEvent("ping", time.Now().Unix())
				return true
			case view, ok := <-session.Views():
				if !ok {
					if err := session.Err(); err != nil {
						_ = c.Error(err)
						c.SSEvent("error", models.ErrorResponse("live updates interrupted, reconnect to resume"))
					}
					return false
				}
				c.SSEvent("history", view)
				return true
			}
		})
	}
}

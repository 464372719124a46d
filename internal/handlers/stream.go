package handlers

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/luwas/internal/models"
)

func sseHeaders(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}

// streamSnapshots relays a live query as Server-Sent Events until the client
// goes away or the feed ends. render shapes each snapshot into the event body.
func streamSnapshots[T any](c *gin.Context, event string, feed <-chan models.Snapshot[T], render func([]T) any) {
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
		case snap, ok := <-feed:
			if !ok {
				return false
			}
			if snap.Err != nil {
				_ = c.Error(snap.Err)
				c.SSEvent("error", models.ErrorResponse("live updates interrupted, reconnect to resume"))
				return false
			}
			c.SSEvent(event, render(snap.Items))
			return true
		}
	})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/luwas/internal/helpers"
	"github.com/joshua-takyi/luwas/internal/models"
	"github.com/joshua-takyi/luwas/internal/services"
)

func OpenConversation(cs *services.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			GuestID string `json:"guestId"`
		}
		// an empty body is fine
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				badRequest(c, "body", "invalid request payload")
				return
			}
		}

		conv, err := cs.Open(c.Request.Context(), helpers.IdentityFrom(c), req.GuestID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(conv, ""))
	}
}

func ListMessages(cs *services.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		msgs, err := cs.Messages(c.Request.Context(), helpers.IdentityFrom(c), helpers.StringTrim(c.Param("id")))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(msgs, 0, len(msgs)))
	}
}

func SendMessage(cs *services.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Text string `json:"text"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "body", "invalid request payload")
			return
		}

		msg, err := cs.Send(c.Request.Context(), helpers.IdentityFrom(c), helpers.StringTrim(c.Param("id")), req.Text)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(msg, ""))
	}
}

func StreamMessages(cs *services.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		feed, err := cs.Watch(c.Request.Context(), helpers.IdentityFrom(c), helpers.StringTrim(c.Param("id")))
		if err != nil {
			respondError(c, err)
			return
		}
		streamSnapshots(c, "messages", feed, func(msgs []*models.Message) any {
			if msgs == nil {
				msgs = []*models.Message{}
			}
			return msgs
		})
	}
}

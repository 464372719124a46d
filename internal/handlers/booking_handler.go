package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/luwas/internal/helpers"
	"github.com/joshua-takyi/luwas/internal/models"
	"github.com/joshua-takyi/luwas/internal/services"
)

type createBookingRequest struct {
	ItemID string `json:"itemId"`
	models.TravelerForm
}

type bookingCreated struct {
	ID         string               `json:"id"`
	TotalPrice float64              `json:"totalPrice"`
	Status     models.BookingStatus `json:"status"`
}

func CreateBooking(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, ok := parseKind(c)
		if !ok {
			return
		}
		var req createBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "body", "invalid request payload")
			return
		}
		itemID := helpers.StringTrim(req.ItemID)
		if itemID == "" {
			badRequest(c, "itemId", fmt.Sprintf("%s ID is required", kind))
			return
		}

		booking, err := bs.Create(c.Request.Context(), helpers.IdentityFrom(c), kind, itemID, req.TravelerForm)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(bookingCreated{
			ID:         booking.ID,
			TotalPrice: booking.TotalPrice,
			Status:     booking.Status,
		}, "Booking created"))
	}
}

func GetBooking(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, ok := parseKind(c)
		if !ok {
			return
		}
		booking, err := bs.Get(c.Request.Context(), helpers.IdentityFrom(c), kind, helpers.StringTrim(c.Param("id")))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(booking, ""))
	}
}

// UploadProof accepts the payment screenshot as multipart field "proof".
func UploadProof(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, ok := parseKind(c)
		if !ok {
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
		file, err := c.FormFile("proof")
		if err != nil {
			badRequest(c, "proof", "please choose a payment screenshot")
			return
		}
		f, err := file.Open()
		if err != nil {
			badRequest(c, "proof", "could not read the uploaded image")
			return
		}
		defer f.Close()

		booking, err := bs.UploadProof(c.Request.Context(), helpers.IdentityFrom(c), kind, helpers.StringTrim(c.Param("id")), f)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(booking, "Payment proof submitted"))
	}
}

func GetReceipt(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, ok := parseKind(c)
		if !ok {
			return
		}
		bookingID := helpers.StringTrim(c.Param("id"))
		pdf, err := bs.Receipt(c.Request.Context(), helpers.IdentityFrom(c), kind, bookingID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", "luwas-receipt-"+bookingID+".pdf"))
		c.Data(http.StatusOK, "application/pdf", pdf)
	}
}

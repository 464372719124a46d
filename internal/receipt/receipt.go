// Package receipt renders a booking summary as a one-page PDF.
package receipt

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/joshua-takyi/luwas/internal/models"
	"github.com/phpdave11/gofpdf"
)

func safe(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func formatPeso(v float64) string {
	whole := int64(v)
	cents := int64((v-float64(whole))*100 + 0.5)
	if cents >= 100 {
		whole++
		cents -= 100
	}
	digits := fmt.Sprintf("%d", whole)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("PHP %s.%02d", b.String(), cents)
}

func statusLabel(b *models.Booking) string {
	label := strings.ReplaceAll(string(b.Status), "_", " ")
	if b.HasProof() && b.Status == models.StatusPendingPayment {
		// proof is attached but the status read is stale
		label = "awaiting approval"
	}
	return strings.ToUpper(safe(label, "unknown"))
}

// Render writes the receipt for b. The issued time is printed in the footer.
func Render(b *models.Booking, issued time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("LUWAS booking receipt", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "BOOKING RECEIPT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		"Booking No  : " + b.ID,
		"Type        : " + safe(b.Type, b.Kind.Tag()),
		"Status      : " + statusLabel(b),
		"Booked on   : " + b.CreatedAt.Format("2006-01-02 15:04"),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Trip")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, "Item        : "+safe(b.Destination, "-"))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Dates       : %s to %s", safe(b.DepartureDate, "-"), safe(b.ReturnDate, "-")))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Travelers   : %d", models.ClampTravelers(b.Travelers)))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Lead traveler")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, "Name        : "+safe(b.FullName, "-"))
	pdf.Ln(7)
	pdf.Cell(0, 7, "Email       : "+safe(b.Email, "-"))
	pdf.Ln(7)
	pdf.Cell(0, 7, "Phone       : "+safe(b.Phone, "-"))
	pdf.Ln(7)
	if strings.TrimSpace(b.SpecialRequests) != "" {
		pdf.MultiCell(0, 6, "Requests    : "+b.SpecialRequests, "", "", false)
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "TOTAL: "+formatPeso(b.TotalPrice))
	pdf.Ln(10)

	if b.PaidAt != nil {
		pdf.SetFont("Helvetica", "", 11)
		pdf.Cell(0, 6, "Proof received: "+b.PaidAt.Format("2006-01-02 15:04"))
		pdf.Ln(8)
	}

	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "Issued "+issued.Format(time.RFC1123)+". Payment is confirmed once an administrator approves the uploaded proof.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

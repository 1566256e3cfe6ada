package bookings

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"eventra/access"
	"eventra/globals"
	"eventra/models"
	"eventra/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

// signPayload returns eventID|bookingID|timestamp|signature for check-in
// verification.
func signPayload(eventID, bookingID string) string {
	data := fmt.Sprintf("%s|%s|%d", eventID, bookingID, time.Now().Unix())

	h := hmac.New(sha256.New, globals.HmacSecret)
	h.Write([]byte(data))
	sig := base64.StdEncoding.EncodeToString(h.Sum(nil))

	return fmt.Sprintf("%s|%s", data, sig)
}

// PrintConfirmation handles GET /api/bookings/:bookingid/ticket, returning a
// printable PDF with a signed QR code. Only confirmed bookings get one.
func PrintConfirmation(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookingID := ps.ByName("bookingid")

	req := access.FromRequest(r)
	if req.Actor == nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	store := MongoStore{}
	booking, err := store.BookingByID(ctx, bookingID)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
		return
	}
	if booking.User != req.Actor.UserID && !req.Actor.IsStaff() {
		utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
		return
	}
	if booking.Status != models.StatusConfirmed {
		utils.RespondWithError(w, http.StatusBadRequest, "Booking is not confirmed")
		return
	}

	event, err := store.EventByID(ctx, booking.Event)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Event not found")
		return
	}

	qrPNG, err := qrcode.Encode(signPayload(event.EventID, booking.BookingID), qrcode.Medium, 256)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate QR code")
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Booking Confirmation")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 10, fmt.Sprintf("Event: %s", event.Title))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Date: %s", event.Date.Format("2006-01-02 15:04")))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Attendee: %s", req.Actor.Name))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Booking ID: %s", booking.BookingID))
	pdf.Ln(12)

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 40, 40, 40, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="booking-%s.pdf"`, booking.BookingID))
	w.Write(buf.Bytes())
}

package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"busticket/internal/domain"
	"busticket/internal/domain/models"
	"busticket/internal/utils"
)

// ReceiptSource is the subset of the ledger store a receipt reads.
type ReceiptSource interface {
	GetBookingByReference(ctx context.Context, reference string) (models.Booking, error)
	GetRoute(ctx context.Context, id domain.ID) (models.Route, error)
	GetPayment(ctx context.Context, bookingID domain.ID) (models.Payment, error)
}

// ReceiptService renders a PDF receipt per booking reference.
type ReceiptService struct {
	Source   ReceiptSource
	Currency string
	Now      func() time.Time
}

type receiptData struct {
	Booking       models.Booking
	Route         models.Route
	PaymentMethod string
}

func (s ReceiptService) Generate(ctx context.Context, reference string) ([]byte, string, error) {
	ref := strings.ToUpper(strings.TrimSpace(reference))
	if ref == "" {
		return nil, "", domain.ValidationError{Field: "reference", Msg: "reference is required"}
	}
	data, err := s.load(ctx, ref)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "RECEIPT", "generate", "reference="+ref)

	out, err := buildReceiptPDF(data, s.currency(), s.now())
	if err != nil {
		return nil, "", domain.InternalError{Msg: "render receipt", Err: err}
	}
	return out, fmt.Sprintf("RECEIPT_%s.pdf", safeFilenamePart(ref)), nil
}

func (s ReceiptService) load(ctx context.Context, ref string) (receiptData, error) {
	b, err := s.Source.GetBookingByReference(ctx, ref)
	if err != nil {
		return receiptData{}, err
	}
	route, err := s.Source.GetRoute(ctx, b.RouteID)
	if err != nil {
		return receiptData{}, err
	}
	out := receiptData{Booking: b, Route: route}
	if p, err := s.Source.GetPayment(ctx, b.ID); err == nil {
		out.PaymentMethod = p.Method
	} else if !domain.IsNotFound(err) {
		return receiptData{}, err
	}
	return out, nil
}

func (s ReceiptService) currency() string {
	return safe(s.Currency, "IDR")
}

func (s ReceiptService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return utils.NowUTC()
}

func buildReceiptPDF(d receiptData, currency string, issued time.Time) ([]byte, error) {
	b := d.Booking
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Receipt "+b.BookingReference, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "BOOKING RECEIPT")
	pdf.Ln(12)

	if b.Status == models.BookingCancelled {
		pdf.SetTextColor(200, 0, 0)
		pdf.SetFont("Helvetica", "B", 16)
		pdf.CellFormat(0, 10, "CANCELLED", "1", 1, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Reference      : %s", b.BookingReference),
		fmt.Sprintf("Route          : %s", safe(d.Route.Label(), "-")),
		fmt.Sprintf("Travel date    : %s", safe(b.TravelDate, "-")),
		fmt.Sprintf("Departure      : %s", safe(d.Route.DepartureTime, "-")),
		fmt.Sprintf("Seat           : %d", b.SeatNumber),
		fmt.Sprintf("Passenger      : %s", safe(b.PassengerName, "-")),
		fmt.Sprintf("Amount         : %s", utils.FormatAmount(b.Amount, currency)),
		fmt.Sprintf("Payment        : %s", safe(d.PaymentMethod, "-")),
		fmt.Sprintf("Status         : %s", b.Status),
		fmt.Sprintf("Source         : %s", b.Source),
		fmt.Sprintf("Booked at      : %s", b.CreatedAt.UTC().Format("2006-01-02 15:04 MST")),
	}
	if b.CancelledAt != nil {
		lines = append(lines, fmt.Sprintf("Cancelled at   : %s", b.CancelledAt.UTC().Format("2006-01-02 15:04 MST")))
	}
	for _, line := range lines {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Valid for one passenger and one seat. Show this receipt at boarding. Issued "+
		issued.UTC().Format("2006-01-02 15:04 MST")+".", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}

package services

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"busticket/internal/domain"
	"busticket/internal/domain/models"
)

func TestReceipt_GenerateFromLedgerStore(t *testing.T) {
	repo := newFakeRepo(testRoute(4))
	svc, _ := newTestLedger(repo)
	res, err := svc.ReserveSeat(context.Background(), reserveInput(2, "Alice"))
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	receipts := ReceiptService{Source: repo, Currency: "IDR"}
	pdf, filename, err := receipts.Generate(context.Background(), res.Booking.BookingReference)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}
	if filename != "RECEIPT_"+res.Booking.BookingReference+".pdf" {
		t.Fatalf("unexpected filename %q", filename)
	}
}

func TestReceipt_CancelledBookingFromStore(t *testing.T) {
	repo := newFakeRepo(testRoute(4))
	svc, _ := newTestLedger(repo)
	in := reserveInput(3, "Bob")
	in.Source = models.SourceWalkIn
	in.PaymentMethod = "cash"
	res, err := svc.ReserveSeat(context.Background(), in)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), res.Booking.BookingReference); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	issued := time.Date(2024, 6, 21, 10, 0, 0, 0, time.UTC)
	receipts := ReceiptService{Source: repo, Now: func() time.Time { return issued }}
	pdf, filename, err := receipts.Generate(context.Background(), strings.ToLower(res.Booking.BookingReference))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) || filename != "RECEIPT_"+res.Booking.BookingReference+".pdf" {
		t.Fatalf("unexpected output len=%d filename=%q", len(pdf), filename)
	}
}

func TestReceipt_Errors(t *testing.T) {
	receipts := ReceiptService{Source: newFakeRepo(testRoute(4))}
	if _, _, err := receipts.Generate(context.Background(), " "); !domain.IsValidation(err) {
		t.Fatalf("expected validation, got %v", err)
	}
	if _, _, err := receipts.Generate(context.Background(), "TKTNOPE"); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"dormweb/pkg/api"
	"dormweb/pkg/apperrors"
	"dormweb/pkg/logging"
	"dormweb/pkg/mapper"
	"dormweb/pkg/models"
)

// isoMillis is the timestamp layout the backend expects for booking dates.
const isoMillis = "2006-01-02T15:04:05.000Z"

type CreateBookingInput struct {
	RoomID           string  `validate:"required"`
	RoomPrice        float64 `validate:"gt=0"`
	MoveInDate       string  `validate:"required"`
	MoveOutDate      string  `validate:"required"`
	Duration         int     `validate:"gte=1"`
	PaymentMethod    string  `validate:"paymentmethod"`
	SpecialRequests  string
	EmergencyContact string
	EmergencyPhone   string
}

var bookingMessages = map[string]string{
	"RoomID":        "Room ID is required",
	"RoomPrice":     "Room price is invalid",
	"MoveInDate":    "Move-in date is required",
	"MoveOutDate":   "Move-out date is required",
	"Duration":      "Duration must be at least 1 month",
	"PaymentMethod": "Payment method must be either VIETQR, VNPAY or MOMO",
}

type BookingResult struct {
	ID      string
	Raw     json.RawMessage
	Payment models.PaymentInfo
}

type BookingService struct {
	client *api.Client
	logger *slog.Logger
}

func NewBookingService(client *api.Client, logger *slog.Logger) *BookingService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &BookingService{client: client, logger: logger.With(slog.String("component", "booking"))}
}

// NormalizeBookingDate parses a calendar date or RFC 3339 timestamp and
// renders it as UTC with millisecond precision.
func NormalizeBookingDate(s string) (string, error) {
	t, ok := mapper.ParseTimestamp(s)
	if !ok {
		return "", apperrors.Validation("Invalid date format")
	}
	return t.UTC().Format(isoMillis), nil
}

// BuildBookingPayload validates in and produces the body for POST /bookings.
// Nothing here touches the network.
func BuildBookingPayload(in CreateBookingInput) (models.BookingPayload, error) {
	in.RoomID = strings.TrimSpace(in.RoomID)
	in.MoveInDate = strings.TrimSpace(in.MoveInDate)
	in.MoveOutDate = strings.TrimSpace(in.MoveOutDate)
	if err := validateStruct(in, bookingMessages); err != nil {
		return models.BookingPayload{}, err
	}

	start, err := NormalizeBookingDate(in.MoveInDate)
	if err != nil {
		return models.BookingPayload{}, err
	}
	end, err := NormalizeBookingDate(in.MoveOutDate)
	if err != nil {
		return models.BookingPayload{}, err
	}
	method, err := NormalizePaymentMethod(in.PaymentMethod)
	if err != nil {
		return models.BookingPayload{}, err
	}

	note := strings.TrimSpace(in.SpecialRequests)
	return models.BookingPayload{
		StartDate:     start,
		EndDate:       end,
		PaymentMethod: method,
		Note:          note,
		Details: []models.BookingDetail{{
			RoomID: in.RoomID,
			Price:  in.RoomPrice,
			Note:   note,
			Time:   in.Duration,
		}},
	}, nil
}

// CreateBooking submits a single-room booking. Every precondition is checked
// before the request is sent. There is no idempotency key, so a resubmission
// creates a second booking.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput, token, userID string) (*BookingResult, error) {
	payload, err := BuildBookingPayload(in)
	if err != nil {
		return nil, err
	}
	if err := requireToken(token); err != nil {
		return nil, err
	}
	if err := requireID(userID, "User ID is required"); err != nil {
		return nil, err
	}

	s.logger.Info("submitting booking", slog.String("room_id", payload.Details[0].RoomID),
		slog.String("payment_method", string(payload.PaymentMethod)), slog.String("user_id", userID))

	raw, err := s.client.CreateBooking(ctx, token, userID, payload)
	if err != nil {
		return nil, apperrors.Translate(err, "Booking", "creating booking")
	}

	booking := mapper.DecodeEnvelope(raw).First()
	return &BookingResult{
		ID:      booking.Str("id", "bookingId"),
		Raw:     raw,
		Payment: mapper.MapPaymentInfo(booking),
	}, nil
}

// GetUserBookings returns the signed-in user's bookings, newest first. Without
// a token the list is empty and no request is made.
func (s *BookingService) GetUserBookings(ctx context.Context, token string) ([]models.BookingSummary, error) {
	if strings.TrimSpace(token) == "" {
		return []models.BookingSummary{}, nil
	}
	raw, err := s.client.GetUserBookings(ctx, token)
	if err != nil {
		return nil, apperrors.Translate(err, "Booking", "fetching user bookings")
	}
	bookings := mapper.MapBookingSummaries(mapper.DecodeEnvelope(raw))
	mapper.SortBookingsByCreatedDesc(bookings)
	return bookings, nil
}

func (s *BookingService) GetBookingByID(ctx context.Context, id, token string) (*models.BookingSummary, error) {
	if err := requireID(id, "Booking ID is required"); err != nil {
		return nil, err
	}
	if err := requireToken(token); err != nil {
		return nil, err
	}
	raw, err := s.client.GetBookingByID(ctx, id, token)
	if err != nil {
		return nil, apperrors.Translate(err, "Booking", "fetching booking "+id)
	}
	record := mapper.DecodeEnvelope(raw).First()
	if record == nil {
		return nil, apperrors.NotFound("Booking", id)
	}
	b := mapper.MapBookingSummary(record)
	return &b, nil
}

// BookingStats are the header counters of the bookings page.
type BookingStats struct {
	Total   int
	Active  int
	Pending int
}

func ComputeBookingStats(bookings []models.BookingSummary) BookingStats {
	st := BookingStats{Total: len(bookings)}
	for _, b := range bookings {
		switch b.Status {
		case models.BookingConfirmed, models.BookingCheckedIn:
			st.Active++
		case models.BookingPending:
			st.Pending++
		}
	}
	return st
}

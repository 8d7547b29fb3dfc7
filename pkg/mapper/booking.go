package mapper

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"dormweb/pkg/models"
)

const (
	DefaultRoomName     = "Phòng chưa đặt tên"
	DefaultBuildingName = "Không xác định"
)

// MapBookingSummary builds the list projection of a booking. Backend
// revisions disagree on field names, so each field is read from the first of
// several candidates.
func MapBookingSummary(r Record) models.BookingSummary {
	if r == nil {
		r = Record{}
	}
	var detail, room Record
	if details := r.List("details"); len(details) > 0 {
		if d, ok := details[0].(map[string]any); ok {
			detail = d
			room = detail.Obj("room")
		}
	}
	if detail == nil {
		detail = Record{}
	}
	if room == nil {
		room = Record{}
	}

	s := models.BookingSummary{
		ID:          r.Str("id", "bookingId"),
		RoomID:      r.Str("roomId"),
		RoomName:    room.Str("name"),
		Status:      models.BookingStatus(strings.ToUpper(r.Str("status"))),
		MoveInDate:  r.Str("startDate", "moveInDate", "checkInDate"),
		MoveOutDate: r.Str("endDate", "moveOutDate", "checkOutDate"),
		CreatedAt:   r.Str("createdAt", "bookingDate"),
		Price:       bookingPrice(r, detail),
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.RoomID == "" {
		s.RoomID = room.Str("id")
	}
	if s.RoomID == "" {
		s.RoomID = detail.Str("roomId")
	}
	if s.RoomName == "" {
		s.RoomName = r.Str("roomName", "roomNumber")
	}
	if s.RoomName == "" {
		s.RoomName = DefaultRoomName
	}
	if s.Status == "" {
		s.Status = models.BookingPending
	}

	s.BuildingName = bookingBuildingName(r, room)

	if len(room) > 0 {
		mapped := MapRoom(room, s.BuildingName, "")
		s.Room = &mapped
	}
	return s
}

func bookingBuildingName(r, room Record) string {
	if b := room.Obj("building"); b != nil {
		if name := b.Str("name"); name != "" {
			return name
		}
	}
	if b := r.Obj("building"); b != nil {
		if name := b.Str("name"); name != "" {
			return name
		}
	}
	if name := r.Str("buildingName"); name != "" {
		return name
	}
	return DefaultBuildingName
}

// bookingPrice prefers an explicit totalPrice, even zero, over the line item.
func bookingPrice(r, detail Record) float64 {
	if _, ok := r["totalPrice"]; ok && r["totalPrice"] != nil {
		return r.Num("totalPrice")
	}
	price := detail.Num("price")
	if t := detail.Num("time"); price != 0 && t != 0 {
		return price * t
	}
	return price
}

func MapBookingSummaries(env Envelope) []models.BookingSummary {
	items := env.Items()
	out := make([]models.BookingSummary, 0, len(items))
	for _, r := range items {
		out = append(out, MapBookingSummary(r))
	}
	return out
}

// ParseTimestamp accepts RFC 3339 timestamps and plain calendar dates.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SortBookingsByCreatedDesc orders bookings newest first. Bookings without a
// parseable createdAt go last, keeping their relative order.
func SortBookingsByCreatedDesc(bookings []models.BookingSummary) {
	sort.SliceStable(bookings, func(i, j int) bool {
		ti, okI := ParseTimestamp(bookings[i].CreatedAt)
		tj, okJ := ParseTimestamp(bookings[j].CreatedAt)
		if okI != okJ {
			return okI
		}
		return ti.After(tj)
	})
}

// FilterBookings returns the bookings in the given status; an empty status or
// "ALL" returns the list unchanged.
func FilterBookings(bookings []models.BookingSummary, status string) []models.BookingSummary {
	if status == "" || status == "ALL" {
		return bookings
	}
	out := make([]models.BookingSummary, 0, len(bookings))
	for _, b := range bookings {
		if string(b.Status) == status {
			out = append(out, b)
		}
	}
	return out
}

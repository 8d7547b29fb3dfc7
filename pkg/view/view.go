// Package view holds the presentation helpers shared by the HTML templates.
package view

import (
	"html/template"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"dormweb/pkg/mapper"
	"dormweb/pkg/models"
)

const (
	Placeholder = "—"
	DateLayout  = "02/01/2006"
)

var (
	printer = message.NewPrinter(language.Vietnamese)
	vnd     = currency.MustParseISO("VND")
)

// FormatVND renders an amount the way vi-VN currency formatting does, e.g. "1.500.000 ₫".
// Zero renders as the placeholder.
func FormatVND(amount float64) string {
	if amount == 0 {
		return Placeholder
	}
	scale, _ := currency.Cash.Rounding(vnd)
	return printer.Sprintf("%v ₫", number.Decimal(amount, number.MaxFractionDigits(scale)))
}

// FormatNumber groups digits with the vi-VN separator.
func FormatNumber(v float64) string {
	return printer.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(0)))
}

// FormatDate renders a backend timestamp as dd/mm/yyyy. Empty input renders as
// the placeholder and unparseable input is returned unchanged.
func FormatDate(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	t, ok := mapper.ParseTimestamp(s)
	if !ok {
		return s
	}
	return t.In(time.UTC).Format(DateLayout)
}

type StatusLabel struct {
	Title    string
	Subtitle string
	Class    string
}

var statusLabels = map[models.BookingStatus]StatusLabel{
	models.BookingPending:   {"Đang xử lý", "Chờ xác nhận", "badge-pending"},
	models.BookingConfirmed: {"Đã xác nhận", "Sắp tới", "badge-confirmed"},
	models.BookingCheckedIn: {"Đang sử dụng", "Sinh viên đang ở", "badge-checked-in"},
	models.BookingCompleted: {"Hoàn tất", "Đơn đã kết thúc", "badge-completed"},
	models.BookingCancelled: {"Đã hủy", "Đơn đã bị hủy", "badge-cancelled"},
}

// BookingStatusLabel falls back to the pending label for unknown statuses.
func BookingStatusLabel(s models.BookingStatus) StatusLabel {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return statusLabels[models.BookingPending]
}

type Tab struct {
	ID     string
	Label  string
	Count  int
	Active bool
}

var tabOrder = []struct{ id, label string }{
	{"ALL", "Tất cả"},
	{string(models.BookingPending), "Đang xử lý"},
	{string(models.BookingConfirmed), "Đã xác nhận"},
	{string(models.BookingCheckedIn), "Đang ở"},
	{string(models.BookingCancelled), "Đã hủy"},
	{string(models.BookingCompleted), "Lịch sử"},
}

// NormalizeTab maps a query value onto a known tab id, defaulting to ALL.
func NormalizeTab(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, t := range tabOrder {
		if t.id == s {
			return s
		}
	}
	return "ALL"
}

// BookingTabs counts bookings per tab and marks the active one.
func BookingTabs(bookings []models.BookingSummary, active string) []Tab {
	active = NormalizeTab(active)
	counts := make(map[string]int, len(tabOrder))
	for _, b := range bookings {
		counts[string(b.Status)]++
	}
	tabs := make([]Tab, 0, len(tabOrder))
	for _, t := range tabOrder {
		n := counts[t.id]
		if t.id == "ALL" {
			n = len(bookings)
		}
		tabs = append(tabs, Tab{ID: t.id, Label: t.label, Count: n, Active: t.id == active})
	}
	return tabs
}

// FuncMap is installed on the template set.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"vnd":         FormatVND,
		"number":      FormatNumber,
		"date":        FormatDate,
		"statusLabel": BookingStatusLabel,
		"stars": func(n int) []int {
			out := make([]int, 5)
			for i := range out {
				if i < n {
					out[i] = 1
				}
			}
			return out
		},
	}
}

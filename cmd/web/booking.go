package main

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"dormweb/pkg/apperrors"
	"dormweb/pkg/mapper"
	"dormweb/pkg/payment"
	"dormweb/pkg/services"
	"dormweb/pkg/session"
	"dormweb/pkg/view"
)

const (
	msgLoginToBook     = "Bạn cần đăng nhập để đặt phòng."
	msgBookingFailed   = "Không thể tạo đơn đặt phòng. Vui lòng thử lại."
	msgBookingCreated  = "Đặt phòng thành công! Đang chuyển đến danh sách đặt phòng..."
	msgBookingsFailed  = "Không thể tải danh sách đặt phòng"
	msgReviewFailed    = "Không thể gửi đánh giá. Vui lòng thử lại."
	msgPaymentFailed   = "Rất tiếc, quá trình thanh toán đã gặp sự cố. Vui lòng thử lại."
	msgPaymentComplete = "Cảm ơn bạn đã thanh toán. Đơn đặt phòng của bạn đã được xác nhận."
)

// bookRoomHandler runs one booking submission. Failures re-render the room
// page with the message; nothing is retried.
func (s *server) bookRoomHandler(c *gin.Context) {
	var form bookingForm
	if err := c.ShouldBind(&form); err != nil {
		s.logger.Debug("booking form bind failed", slog.Any("error", err))
	}

	st := session.Current(c)
	room, ok := s.loadRoom(c)
	if !ok {
		return
	}
	if !st.IsAuthenticated() {
		s.renderRoom(c, http.StatusUnauthorized, room, roomPage{Form: form, BookingError: msgLoginToBook})
		return
	}

	result, err := s.bookings.CreateBooking(c.Request.Context(), services.CreateBookingInput{
		RoomID:           room.ID,
		RoomPrice:        room.Price,
		MoveInDate:       form.MoveInDate,
		MoveOutDate:      form.MoveOutDate,
		Duration:         form.Duration,
		PaymentMethod:    form.PaymentMethod,
		SpecialRequests:  form.SpecialRequests,
		EmergencyContact: form.EmergencyContact,
		EmergencyPhone:   form.EmergencyPhone,
	}, st.AccessToken(), st.User().ID)
	if err != nil {
		s.renderRoom(c, statusFor(err), room, roomPage{Form: form, BookingError: apperrors.UserMessage(err, msgBookingFailed)})
		return
	}

	next := payment.RedirectAfterBooking(result.Payment)
	if next.External {
		c.Redirect(http.StatusSeeOther, next.URL)
		return
	}
	s.render(c, http.StatusOK, "booking_success.tmpl", gin.H{
		"Title":          "Đặt phòng thành công",
		"Message":        msgBookingCreated,
		"BookingID":      result.ID,
		"QRImageURL":     result.Payment.QRImageURL,
		"RefreshURL":     next.URL,
		"RefreshSeconds": int(next.Delay.Seconds()),
	})
}

func (s *server) bookingsHandler(c *gin.Context) {
	st := session.Current(c)
	tab := view.NormalizeTab(c.Query("tab"))

	list, err := s.bookings.GetUserBookings(c.Request.Context(), st.AccessToken())
	if err != nil {
		s.render(c, statusFor(err), "bookings.tmpl", gin.H{
			"Title":    "Đặt phòng của tôi",
			"Error":    apperrors.UserMessage(err, msgBookingsFailed),
			"RetryURL": c.Request.URL.RequestURI(),
			"Tabs":     view.BookingTabs(nil, tab),
		})
		return
	}

	s.render(c, http.StatusOK, "bookings.tmpl", gin.H{
		"Title":    "Đặt phòng của tôi",
		"Tab":      tab,
		"Tabs":     view.BookingTabs(list, tab),
		"Stats":    services.ComputeBookingStats(list),
		"Bookings": mapper.FilterBookings(list, tab),
	})
}

type reviewForm struct {
	BookingID      string `form:"bookingId"`
	RatingOverall  int    `form:"ratingOverall"`
	RatingClean    string `form:"ratingClean"`
	RatingLocation string `form:"ratingLocation"`
	RatingPrice    string `form:"ratingPrice"`
	RatingService  string `form:"ratingService"`
	Comment        string `form:"comment"`
}

// optionalRating treats an empty select as "not rated".
func optionalRating(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}

func (s *server) createReviewHandler(c *gin.Context) {
	var form reviewForm
	if err := c.ShouldBind(&form); err != nil {
		s.logger.Debug("review form bind failed", slog.Any("error", err))
	}
	room, ok := s.loadRoom(c)
	if !ok {
		return
	}

	_, err := s.reviews.CreateReview(c.Request.Context(), services.CreateReviewInput{
		RoomID:         room.ID,
		BookingID:      form.BookingID,
		RatingOverall:  form.RatingOverall,
		RatingClean:    optionalRating(form.RatingClean),
		RatingLocation: optionalRating(form.RatingLocation),
		RatingPrice:    optionalRating(form.RatingPrice),
		RatingService:  optionalRating(form.RatingService),
		Comment:        form.Comment,
	}, session.Current(c).AccessToken())
	if err != nil {
		s.renderRoom(c, statusFor(err), room, roomPage{
			Form:        defaultBookingForm(time.Now()),
			ReviewError: apperrors.UserMessage(err, msgReviewFailed),
		})
		return
	}
	c.Redirect(http.StatusSeeOther, "/rooms/"+room.ID+"#reviews")
}

func (s *server) vnpayReturnHandler(c *gin.Context) {
	out := s.payments.Handle(c.Request.Context(), c.Request.URL.Query())
	title := "Thanh toán thất bại"
	if out.Success {
		title = "Thanh toán thành công!"
	}
	s.render(c, http.StatusOK, "vnpay_return.tmpl", gin.H{
		"Title":          title,
		"Outcome":        out,
		"RefreshURL":     out.RedirectTo,
		"RefreshSeconds": out.DelaySeconds(),
	})
}

func (s *server) paymentSuccessHandler(c *gin.Context) {
	bookingID := c.Query("bookingId")
	data := gin.H{
		"Title":     "Thanh toán thành công!",
		"Success":   true,
		"Message":   msgPaymentComplete,
		"BookingID": bookingID,
		"PaymentID": c.Query("paymentId"),
	}
	// A failed lookup leaves the confirmation without the booking card.
	if st := session.Current(c); bookingID != "" && st.IsAuthenticated() {
		booking, err := s.bookings.GetBookingByID(c.Request.Context(), bookingID, st.AccessToken())
		if err != nil {
			s.logger.Warn("booking lookup after payment failed",
				slog.String("booking_id", bookingID), slog.Any("error", err))
		} else {
			data["Booking"] = booking
		}
	}
	s.render(c, http.StatusOK, "payment_result.tmpl", data)
}

func (s *server) paymentFailedHandler(c *gin.Context) {
	s.render(c, http.StatusOK, "payment_result.tmpl", gin.H{
		"Title":   "Thanh toán thất bại",
		"Message": msgPaymentFailed,
		"Detail":  c.Query("message"),
	})
}

package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dormweb/pkg/api"
	"dormweb/pkg/apperrors"
	"dormweb/pkg/models"
	"dormweb/pkg/services"
	"dormweb/pkg/session"
	"dormweb/pkg/view"
)

const (
	buildingsPageSize = 9

	msgBuildingsFailed = "Không thể tải danh sách tòa nhà"
	msgBuildingMissing = "Không tìm thấy tòa nhà"
	msgRoomFailed      = "Không thể tải thông tin phòng"
	msgRoomMissing     = "Không tìm thấy phòng"
	msgReviewsFailed   = "Không thể tải đánh giá"
	msgNewsFailed      = "Không thể tải tin tức"
)

func (s *server) homeHandler(c *gin.Context) {
	ctx := c.Request.Context()
	data := gin.H{"Title": "Ký túc xá"}

	featured, err := s.buildings.GetFeaturedBuildings(ctx, services.DefaultFeaturedLimit)
	if err != nil {
		s.logger.Warn("featured buildings unavailable", slog.Any("error", err))
		data["BuildingsError"] = apperrors.UserMessage(err, msgBuildingsFailed)
	}
	data["Buildings"] = featured

	recent, err := s.posts.Recent(ctx)
	if err != nil {
		s.logger.Warn("recent posts unavailable", slog.Any("error", err))
		data["NewsError"] = apperrors.UserMessage(err, msgNewsFailed)
	}
	data["Posts"] = recent

	s.render(c, http.StatusOK, "home.tmpl", data)
}

func (s *server) buildingsHandler(c *gin.Context) {
	params := api.ListParams{
		Page:   queryInt(c, "page", 1),
		Limit:  buildingsPageSize,
		Search: c.Query("search"),
	}

	page, err := s.buildings.GetAllBuildings(c.Request.Context(), params)
	if err != nil {
		s.render(c, statusFor(err), "buildings.tmpl", gin.H{
			"Title":    "Danh sách tòa nhà",
			"Search":   params.Search,
			"Error":    apperrors.UserMessage(err, msgBuildingsFailed),
			"RetryURL": c.Request.URL.RequestURI(),
		})
		return
	}

	s.render(c, http.StatusOK, "buildings.tmpl", gin.H{
		"Title":      "Danh sách tòa nhà",
		"Search":     params.Search,
		"Buildings":  page.Buildings,
		"Total":      page.Meta.Total,
		"Pagination": view.Paginate("/buildings", page.Meta.Page, page.Meta.TotalPages, c.Request.URL.Query()),
	})
}

func (s *server) buildingHandler(c *gin.Context) {
	building, rooms, err := s.buildings.GetBuildingDetailWithRooms(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.renderError(c, statusFor(err), apperrors.UserMessage(err, msgBuildingsFailed), c.Request.URL.RequestURI())
		return
	}
	if building == nil {
		s.renderError(c, http.StatusNotFound, msgBuildingMissing, "")
		return
	}
	onlyAvailable := c.Query("available") == "1"
	if onlyAvailable {
		free, err := s.rooms.GetAvailableRooms(c.Request.Context(), building.ID)
		if err != nil {
			s.renderError(c, statusFor(err), apperrors.UserMessage(err, msgBuildingsFailed), c.Request.URL.RequestURI())
			return
		}
		rooms = free
	}
	s.render(c, http.StatusOK, "building.tmpl", gin.H{
		"Title":         building.Name,
		"Building":      building,
		"Rooms":         rooms,
		"OnlyAvailable": onlyAvailable,
	})
}

type bookingForm struct {
	MoveInDate       string `form:"moveInDate"`
	MoveOutDate      string `form:"moveOutDate"`
	Duration         int    `form:"duration"`
	PaymentMethod    string `form:"paymentMethod"`
	SpecialRequests  string `form:"specialRequests"`
	EmergencyContact string `form:"emergencyContact"`
	EmergencyPhone   string `form:"emergencyPhone"`
}

func defaultBookingForm(now time.Time) bookingForm {
	start := now.AddDate(0, 0, 1)
	return bookingForm{
		MoveInDate:    start.Format("2006-01-02"),
		MoveOutDate:   start.AddDate(0, 1, 0).Format("2006-01-02"),
		Duration:      1,
		PaymentMethod: string(models.PaymentVNPay),
	}
}

type roomPage struct {
	Room           *models.Room
	Reviews        *services.ReviewPage
	Summary        services.ReviewSummary
	ReviewsError   string
	Form           bookingForm
	BookingError   string
	ReviewError    string
	PaymentMethods []models.PaymentMethod
}

func (s *server) roomHandler(c *gin.Context) {
	room, ok := s.loadRoom(c)
	if !ok {
		return
	}
	s.renderRoom(c, http.StatusOK, room, roomPage{Form: defaultBookingForm(time.Now())})
}

// loadRoom fetches the room named in the path, rendering the error page on failure.
func (s *server) loadRoom(c *gin.Context) (*models.Room, bool) {
	room, err := s.rooms.GetRoomByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.renderError(c, http.StatusNotFound, msgRoomMissing, "")
		} else {
			s.renderError(c, statusFor(err), apperrors.UserMessage(err, msgRoomFailed), "/rooms/"+c.Param("id"))
		}
		return nil, false
	}
	return room, true
}

func (s *server) renderRoom(c *gin.Context, status int, room *models.Room, page roomPage) {
	page.Room = room
	page.PaymentMethods = models.PaymentMethods

	reviews, err := s.reviews.GetRoomReviews(c.Request.Context(), room.ID, services.DefaultReviewPageSize, c.Query("cursor"))
	if err != nil {
		page.ReviewsError = apperrors.UserMessage(err, msgReviewsFailed)
	} else {
		page.Reviews = reviews
		page.Summary = services.Summarize(reviews.Reviews)
	}

	title := room.RoomNumber
	if title == "" {
		title = "Phòng"
	}
	s.render(c, status, "room.tmpl", gin.H{"Title": title, "Page": page})
}

// apiRoomHandler backs the lazy room expansion on the bookings page.
func (s *server) apiRoomHandler(c *gin.Context) {
	room, err := s.rooms.GetRoomByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": apperrors.UserMessage(err, msgRoomFailed)})
		return
	}
	c.JSON(http.StatusOK, room)
}

func (s *server) apiUploadImageHandler(c *gin.Context) {
	st := session.Current(c)
	if !st.IsAuthenticated() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication token is required"})
		return
	}
	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read the upload"})
		return
	}
	defer f.Close()

	url, err := s.users.UploadImage(c.Request.Context(), st.AccessToken(), fh.Filename, fh.Header.Get("Content-Type"), f)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": apperrors.UserMessage(err, "Không thể tải ảnh lên")})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

package models

import (
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCheckedIn BookingStatus = "CHECKED_IN"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

// BookingStatuses lists every lifecycle state in display order.
var BookingStatuses = []BookingStatus{
	BookingPending, BookingConfirmed, BookingCheckedIn, BookingCancelled, BookingCompleted,
}

func (s BookingStatus) Valid() bool {
	for _, known := range BookingStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "PENDING"
	ReviewApproved ReviewStatus = "APPROVED"
	ReviewRejected ReviewStatus = "REJECTED"
	ReviewHidden   ReviewStatus = "HIDDEN"
)

type PaymentMethod string

const (
	PaymentVietQR PaymentMethod = "VIETQR"
	PaymentVNPay  PaymentMethod = "VNPAY"
	PaymentMoMo   PaymentMethod = "MOMO"
)

var PaymentMethods = []PaymentMethod{PaymentVietQR, PaymentVNPay, PaymentMoMo}

type Building struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	City           string   `json:"city,omitempty"`
	ImageURL       string   `json:"imageUrl,omitempty"`
	Images         []string `json:"images,omitempty"`
	Description    string   `json:"description"`
	TotalRooms     int      `json:"totalRooms"`
	AvailableRooms int      `json:"availableRooms"`
	AveragePrice   float64  `json:"averagePrice"`
	Rating         float64  `json:"rating"`
	TotalReviews   int      `json:"totalReviews"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	Amenities      []string `json:"amenities"`
}

type Contact struct {
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Manager string `json:"manager"`
}

type Room struct {
	ID              string   `json:"id"`
	RoomNumber      string   `json:"roomNumber"`
	BuildingID      string   `json:"buildingId"`
	BuildingName    string   `json:"buildingName"`
	BuildingAddress string   `json:"buildingAddress"`
	Type            string   `json:"type"`
	Price           float64  `json:"price"`
	Size            string   `json:"size"`
	Capacity        int      `json:"capacity"`
	Beds            string   `json:"beds"`
	Bathrooms       string   `json:"bathrooms"`
	Floor           int      `json:"floor"`
	Window          string   `json:"window"`
	Available       bool     `json:"available"`
	Status          string   `json:"status,omitempty"`
	Images          []string `json:"images"`
	Description     string   `json:"description"`
	Amenities       []string `json:"amenities"`
	Rules           []string `json:"rules"`
	Rating          float64  `json:"rating"`
	Reviews         int      `json:"reviews"`
	Contact         Contact  `json:"contact"`
}

// BookingSummary is the list projection of a booking shown on the bookings page.
type BookingSummary struct {
	ID           string        `json:"id"`
	RoomID       string        `json:"roomId,omitempty"`
	RoomName     string        `json:"roomName"`
	BuildingName string        `json:"buildingName"`
	Status       BookingStatus `json:"status"`
	MoveInDate   string        `json:"moveInDate,omitempty"`
	MoveOutDate  string        `json:"moveOutDate,omitempty"`
	Price        float64       `json:"price"`
	CreatedAt    string        `json:"createdAt,omitempty"`
	Room         *Room         `json:"room,omitempty"`
}

// BookingDetail is one line item of a booking submission.
type BookingDetail struct {
	RoomID string  `json:"roomId"`
	Price  float64 `json:"price"`
	Note   string  `json:"note,omitempty"`
	Time   int     `json:"time"`
}

// BookingPayload is the body sent to POST /bookings.
type BookingPayload struct {
	StartDate     string          `json:"startDate"`
	EndDate       string          `json:"endDate"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Note          string          `json:"note,omitempty"`
	Details       []BookingDetail `json:"details"`
}

type PaymentInfo struct {
	PaymentURL string  `json:"paymentUrl,omitempty"`
	QRImageURL string  `json:"qrImageUrl,omitempty"`
	Amount     float64 `json:"amount,omitempty"`
}

func (p PaymentInfo) HasRedirect() bool {
	return p.PaymentURL != ""
}

type UserSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

type Review struct {
	ID             string       `json:"id"`
	RoomID         string       `json:"roomId"`
	UserID         string       `json:"userId"`
	BookingID      string       `json:"bookingId"`
	RatingOverall  int          `json:"ratingOverall"`
	RatingClean    *int         `json:"ratingClean,omitempty"`
	RatingLocation *int         `json:"ratingLocation,omitempty"`
	RatingPrice    *int         `json:"ratingPrice,omitempty"`
	RatingService  *int         `json:"ratingService,omitempty"`
	Comment        string       `json:"comment,omitempty"`
	Status         ReviewStatus `json:"status"`
	CreatedAt      string       `json:"createdAt"`
	User           *UserSummary `json:"user,omitempty"`
}

type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      Role   `json:"role"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	StudentID string `json:"studentId,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

type Notification struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"createdAt"`
}

type PostCategory struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

type Post struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Slug         string         `json:"slug"`
	Summary      string         `json:"summary"`
	ThumbnailURL string         `json:"thumbnailUrl"`
	Status       string         `json:"status"`
	PublishedAt  string         `json:"publishedAt"`
	Content      string         `json:"content"`
	Categories   []PostCategory `json:"categories"`
}

type PageMeta struct {
	Total      int `json:"total"`
	Page       int `json:"pageNumber"`
	Limit      int `json:"limitNumber"`
	TotalPages int `json:"totalPages"`
}

// Session is the one row this application persists: the bearer token and the
// identity it was issued for.
type Session struct {
	ID          string    `gorm:"type:varchar(36);primaryKey"`
	AccessToken string    `gorm:"type:text;not null"`
	UserID      string    `gorm:"size:64;not null;index"`
	Email       string    `gorm:"size:255"`
	Name        string    `gorm:"size:255"`
	Role        string    `gorm:"size:32"`
	ExpiresAt   time.Time `gorm:"not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

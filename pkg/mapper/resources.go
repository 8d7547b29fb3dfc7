package mapper

import (
	"strings"

	"dormweb/pkg/models"
)

func MapReview(r Record) models.Review {
	rv := models.Review{
		ID:             r.Str("id"),
		RoomID:         r.Str("roomId"),
		UserID:         r.Str("userId"),
		BookingID:      r.Str("bookingId"),
		RatingOverall:  r.Int("ratingOverall", "rating"),
		RatingClean:    optionalInt(r, "ratingClean"),
		RatingLocation: optionalInt(r, "ratingLocation"),
		RatingPrice:    optionalInt(r, "ratingPrice"),
		RatingService:  optionalInt(r, "ratingService"),
		Comment:        r.Str("comment"),
		Status:         models.ReviewStatus(strings.ToUpper(r.Str("status"))),
		CreatedAt:      r.Str("createdAt"),
	}
	if rv.Status == "" {
		rv.Status = models.ReviewPending
	}
	if u := r.Obj("user"); u != nil {
		rv.User = &models.UserSummary{ID: u.Str("id"), Name: u.Str("name", "email"), Avatar: u.Str("avatar")}
	}
	return rv
}

func optionalInt(r Record, key string) *int {
	if r.Num(key) == 0 {
		return nil
	}
	v := r.Int(key)
	return &v
}

func MapReviews(env Envelope) []models.Review {
	items := env.Items()
	out := make([]models.Review, 0, len(items))
	for _, r := range items {
		out = append(out, MapReview(r))
	}
	return out
}

// MapUser reads a profile record. role arrives either as a plain name or as
// an {id, name} object.
func MapUser(r Record) *models.User {
	if r == nil {
		return nil
	}
	u := &models.User{
		ID:        r.Str("id", "userId", "sub"),
		Email:     r.Str("email"),
		Name:      r.Str("name", "fullName", "email"),
		Phone:     r.Str("phone", "phoneNumber"),
		Address:   r.Str("address"),
		StudentID: r.Str("studentId"),
		CreatedAt: r.Str("createdAt"),
	}
	if role := r.Obj("role"); role != nil {
		u.Role = models.Role{ID: role.Str("id"), Name: role.Str("name")}
	} else {
		u.Role = models.Role{Name: r.Str("role")}
	}
	if u.Role.Name == "" {
		u.Role.Name = "USER"
	}
	return u
}

// AccessToken pulls the bearer token out of a login response.
func AccessToken(env Envelope) string {
	if r := env.First(); r != nil {
		if tok := r.Str("accessToken", "token", "access_token"); tok != "" {
			return tok
		}
	}
	if tok, ok := env.Field("accessToken").(string); ok {
		return tok
	}
	return ""
}

// MapPaymentInfo reads the payment hand-off of a created booking. The redirect
// is taken from payment.paymentUrl, then paymentUrl, then payment.vnpUrl.
func MapPaymentInfo(r Record) models.PaymentInfo {
	if r == nil {
		return models.PaymentInfo{}
	}
	payment := r.Obj("payment")
	if payment == nil {
		payment = Record{}
	}
	info := models.PaymentInfo{
		PaymentURL: payment.Str("paymentUrl"),
		QRImageURL: payment.Str("qrImageUrl"),
		Amount:     payment.Num("amount"),
	}
	if info.PaymentURL == "" {
		info.PaymentURL = r.Str("paymentUrl")
	}
	if info.PaymentURL == "" {
		info.PaymentURL = payment.Str("vnpUrl")
	}
	if info.QRImageURL == "" {
		info.QRImageURL = r.Str("qrImageUrl")
	}
	if info.Amount == 0 {
		info.Amount = r.Num("totalPrice")
	}
	return info
}

func MapNotification(r Record) models.Notification {
	read, ok := r.Bool("read")
	if !ok {
		read, _ = r.Bool("isRead")
	}
	return models.Notification{
		ID:        r.Str("id"),
		Title:     r.Str("title"),
		Message:   r.Str("message", "content"),
		Read:      read,
		CreatedAt: r.Str("createdAt"),
	}
}

func MapNotifications(env Envelope) []models.Notification {
	items := env.Items()
	out := make([]models.Notification, 0, len(items))
	for _, r := range items {
		out = append(out, MapNotification(r))
	}
	return out
}

func MapPostCategory(r Record) models.PostCategory {
	// join rows wrap the category: {"category": {...}}
	if c := r.Obj("category"); c != nil {
		r = c
	}
	return models.PostCategory{
		ID:          r.Str("id"),
		Name:        r.Str("name"),
		Slug:        r.Str("slug"),
		Description: r.Str("description"),
	}
}

func MapPostCategories(env Envelope) []models.PostCategory {
	items := env.Items()
	out := make([]models.PostCategory, 0, len(items))
	for _, r := range items {
		out = append(out, MapPostCategory(r))
	}
	return out
}

func MapPost(r Record) models.Post {
	p := models.Post{
		ID:           r.Str("id"),
		Title:        r.Str("title"),
		Slug:         r.Str("slug"),
		Summary:      r.Str("summary"),
		ThumbnailURL: r.Str("thumbnailUrl"),
		Status:       r.Str("status"),
		PublishedAt:  r.Str("publishedAt", "createdAt"),
		Content:      r.Str("content"),
		Categories:   []models.PostCategory{},
	}
	for _, item := range r.List("categories") {
		if m, ok := item.(map[string]any); ok {
			p.Categories = append(p.Categories, MapPostCategory(m))
		}
	}
	return p
}

func MapPosts(env Envelope) []models.Post {
	items := env.Items()
	out := make([]models.Post, 0, len(items))
	for _, r := range items {
		out = append(out, MapPost(r))
	}
	return out
}

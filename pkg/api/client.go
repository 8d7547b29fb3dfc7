package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"dormweb/pkg/transport"
)

// ListParams are the paging and filtering options accepted by list endpoints.
type ListParams struct {
	Page    int
	Limit   int
	Search  string
	SortBy  string
	Order   string
	Filters map[string]string
}

func (p ListParams) Query() url.Values {
	params := map[string]any{
		"page":      p.Page,
		"limit":     p.Limit,
		"search":    p.Search,
		"sortBy":    p.SortBy,
		"sortOrder": p.Order,
	}
	if len(p.Filters) > 0 {
		params["filters"] = p.Filters
	}
	return transport.EncodeQuery(params)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
}

type ProfileUpdate struct {
	Name      string `json:"name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	StudentID string `json:"studentId,omitempty"`
}

type ReviewRequest struct {
	RoomID         string `json:"roomId"`
	BookingID      string `json:"bookingId"`
	RatingOverall  int    `json:"ratingOverall"`
	RatingClean    *int   `json:"ratingClean,omitempty"`
	RatingLocation *int   `json:"ratingLocation,omitempty"`
	RatingPrice    *int   `json:"ratingPrice,omitempty"`
	RatingService  *int   `json:"ratingService,omitempty"`
	Comment        string `json:"comment,omitempty"`
}

// Client exposes one method per backend endpoint. Responses are returned as
// raw JSON so the mappers can cope with the backend's inconsistent envelopes;
// errors are passed through untouched.
type Client struct {
	t *transport.Client
}

func New(t *transport.Client) *Client {
	return &Client{t: t}
}

func (c *Client) call(ctx context.Context, req transport.Request) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.t.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Login(ctx context.Context, body LoginRequest) (json.RawMessage, error) {
	return c.call(ctx, transport.Request{Method: http.MethodPost, Path: "/auth/login", Body: body})
}

func (c *Client) Register(ctx context.Context, body RegisterRequest) (json.RawMessage, error) {
	return c.call(ctx, transport.Request{Method: http.MethodPost, Path: "/auth/register", Body: body})
}

func (c *Client) GetProfile(ctx context.Context, token string) (json.RawMessage, error) {
	return c.call(ctx, transport.Request{Path: "/auth/user/profile", Token: token})
}

func (c *Client) UpdateProfile(ctx context.Context, token string, body ProfileUpdate) (json.RawMessage, error) {
	return c.call(ctx, transport.Request{Method: http.MethodPatch, Path: "/auth/user/profile", Token: token, Body: body})
}

func (c *Client) GetBuildings(ctx context.Context, params ListParams) (json.RawMessage, error) {
	return c.call(ctx, transport.Request{Path: "/buildings", Query: params.Query()})
}

func (c *Client) GetBuildingByID(ctx context.Context, id string) (json.RawMessage, error) {
	return c.call(ctx, transport.Request{Path: "/buildings/" + url.PathEscape(id)})
}

// GetBuildingDetail hits the singular /building/:id route, which returns the
// building together with its contact block.
func (c *Client) GetBuildingDetail(ctx context.Context, id string) (json.RawMessage, error) {
	return c.call(ctx, transport.Request{Path: "/building/" + url.PathEscape(id)})
}

func (c *Client) GetRoomsByBuilding(ctx context.Context, buildingID string, params ListParams) (json.RawMessage, error) {
	return c.call(ctx, transport.Request{Path: "/rooms/building/" + url.PathEscape(buildingID), Query: params.Query()})
}

func (c *Client) GetRoomByID(ctx context.Context, id string) (json.RawMessage, error) {
	return c.call(ctx, transport.Request{Path: "/rooms/" + url.PathEscape(id)})
}

func (c *Client) CreateBooking(ctx context.Context, token, userID string, body any) (json.RawMessage, error) {
	return c.call(ctx, transport.Request{
		Method:  http.MethodPost,
		Path:    "/bookings",
		Body:    body,
		Token:   token,
		Headers: map[string]string{"x-user-id": userID},
	})
}

func (c *Client) GetUserBookings(ctx context.Context, token string) (json.RawMessage, error) {
	return c.call(ctx, transport.Request{Path: "/bookings/my-bookings", Token: token})
}

func (c *Client) GetBookingByID(ctx context.Context, id, token string) (json.RawMessage, error) {
	return c.call(ctx, transport.Request{Path: "/bookings/" + url.PathEscape(id), Token: token})
}

func (c *Client) CreateReview(ctx context.Context, token string, body ReviewRequest) (json.RawMessage, error) {
	return c.call(ctx, transport.Request{Method: http.MethodPost, Path: "/reviews", Body: body, Token: token})
}

func (c *Client) GetRoomReviews(ctx context.Context, roomID string, limit int, cursor string) (json.RawMessage, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	return c.call(ctx, transport.Request{Path: "/rooms/" + url.PathEscape(roomID) + "/reviews", Query: q})
}

func (c *Client) GetNotifications(ctx context.Context, token string) (json.RawMessage, error) {
	return c.call(ctx, transport.Request{Path: "/notifications", Token: token})
}

func (c *Client) MarkNotificationRead(ctx context.Context, id, token string) (json.RawMessage, error) {
	return c.call(ctx, transport.Request{Method: http.MethodPatch, Path: "/notifications/" + url.PathEscape(id) + "/read", Token: token})
}

func (c *Client) UploadImage(ctx context.Context, token, fileName, contentType string, content io.Reader) (json.RawMessage, error) {
	return c.call(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/upload/image",
		Token:  token,
		File:   &transport.File{Field: "image", FileName: fileName, ContentType: contentType, Content: content},
	})
}

// VerifyVNPayReturn forwards the provider's callback parameters untouched so
// the backend can check the secure hash.
func (c *Client) VerifyVNPayReturn(ctx context.Context, params url.Values) (json.RawMessage, error) {
	return c.call(ctx, transport.Request{Path: "/payments/vnpay/return", Query: params})
}

func (c *Client) GetPostCategories(ctx context.Context) (json.RawMessage, error) {
	return c.call(ctx, transport.Request{Path: "/post-categories"})
}

func (c *Client) GetRecentPosts(ctx context.Context) (json.RawMessage, error) {
	q := url.Values{"status": {"PUBLISHED"}, "sortOrder": {"desc"}, "limit": {"5"}}
	return c.call(ctx, transport.Request{Path: "/posts", Query: q})
}

func (c *Client) GetPosts(ctx context.Context, page, limit int) (json.RawMessage, error) {
	q := url.Values{
		"page":      {strconv.Itoa(page)},
		"limit":     {strconv.Itoa(limit)},
		"status":    {"PUBLISHED"},
		"sortBy":    {"title"},
		"sortOrder": {"desc"},
	}
	return c.call(ctx, transport.Request{Path: "/posts", Query: q})
}

func (c *Client) GetPostBySlug(ctx context.Context, slug string) (json.RawMessage, error) {
	return c.call(ctx, transport.Request{Path: "/posts/slug/" + url.PathEscape(slug)})
}

package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dormweb/pkg/models"
)

func TestMapPaymentInfoPriority(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"nested paymentUrl", `{"data":{"data":{"payment":{"paymentUrl":"https://pay/1","vnpUrl":"https://vnp/1"},"paymentUrl":"https://flat/1"}}}`, "https://pay/1"},
		{"flat paymentUrl", `{"data":{"paymentUrl":"https://flat/1","payment":{"vnpUrl":"https://vnp/1"}}}`, "https://flat/1"},
		{"vnpUrl", `{"data":{"id":"bk1","payment":{"vnpUrl":"https://vnp/1"}}}`, "https://vnp/1"},
		{"none", `{"data":{"id":"bk1"}}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := MapPaymentInfo(DecodeEnvelope([]byte(tt.raw)).First())
			assert.Equal(t, tt.want, info.PaymentURL)
			assert.Equal(t, tt.want != "", info.HasRedirect())
		})
	}
}

func TestMapPaymentInfoQR(t *testing.T) {
	info := MapPaymentInfo(Record{"payment": map[string]any{"qrImageUrl": "https://qr/1.png", "amount": 2000000.0}})

	assert.Equal(t, "https://qr/1.png", info.QRImageURL)
	assert.Equal(t, 2000000.0, info.Amount)
	assert.False(t, info.HasRedirect())
}

func TestMapUserRoleShapes(t *testing.T) {
	u := MapUser(Record{"id": "u1", "email": "a@b.vn", "role": map[string]any{"id": "r1", "name": "STUDENT"}})
	require.NotNil(t, u)
	assert.Equal(t, "STUDENT", u.Role.Name)
	assert.Equal(t, "a@b.vn", u.Name)

	u = MapUser(Record{"id": "u2", "name": "An", "role": "ADMIN"})
	assert.Equal(t, "ADMIN", u.Role.Name)

	u = MapUser(Record{"id": "u3"})
	assert.Equal(t, "USER", u.Role.Name)

	assert.Nil(t, MapUser(nil))
}

func TestAccessToken(t *testing.T) {
	assert.Equal(t, "t1", AccessToken(DecodeEnvelope([]byte(`{"data":{"data":{"accessToken":"t1"}}}`))))
	assert.Equal(t, "t2", AccessToken(DecodeEnvelope([]byte(`{"data":{"token":"t2"}}`))))
	assert.Empty(t, AccessToken(DecodeEnvelope([]byte(`{"statusCode":201}`))))
}

func TestMapReview(t *testing.T) {
	r := MapReview(Record{
		"id":            "rv1",
		"bookingId":     "bk1",
		"ratingOverall": 4.0,
		"ratingClean":   5.0,
		"status":        "approved",
		"user":          map[string]any{"id": "u1", "name": "An"},
	})

	assert.Equal(t, 4, r.RatingOverall)
	require.NotNil(t, r.RatingClean)
	assert.Equal(t, 5, *r.RatingClean)
	assert.Nil(t, r.RatingPrice)
	assert.Equal(t, models.ReviewApproved, r.Status)
	assert.Equal(t, "An", r.User.Name)
}

func TestMapPostCategoriesJoinRows(t *testing.T) {
	p := MapPost(Record{
		"id":         "p1",
		"title":      "Thông báo",
		"categories": []any{map[string]any{"category": map[string]any{"id": "c1", "name": "Tin tức"}}, map[string]any{"id": "c2", "name": "Sự kiện"}},
	})

	require.Len(t, p.Categories, 2)
	assert.Equal(t, "Tin tức", p.Categories[0].Name)
	assert.Equal(t, "Sự kiện", p.Categories[1].Name)
}

func TestMapNotification(t *testing.T) {
	n := MapNotification(Record{"id": "n1", "content": "Đặt phòng đã được xác nhận", "isRead": true})

	assert.Equal(t, "Đặt phòng đã được xác nhận", n.Message)
	assert.True(t, n.Read)
}

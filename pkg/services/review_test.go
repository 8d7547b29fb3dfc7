package services

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dormweb/pkg/apperrors"
	"dormweb/pkg/models"
)

func intPtr(v int) *int { return &v }

func TestCreateReviewRequiresBooking(t *testing.T) {
	client, be := newBackend(t, respond(http.StatusCreated, `{}`))
	svc := NewReviewService(client, nil)

	_, err := svc.CreateReview(context.Background(), CreateReviewInput{RoomID: "r1", RatingOverall: 5}, "tok")

	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.EqualError(t, err, "Bạn chỉ có thể đánh giá phòng bạn đã đặt.")
	assert.EqualValues(t, 0, be.calls.Load())
}

func TestCreateReviewRatingBounds(t *testing.T) {
	client, be := newBackend(t, respond(http.StatusCreated, `{}`))
	svc := NewReviewService(client, nil)

	_, err := svc.CreateReview(context.Background(), CreateReviewInput{RoomID: "r1", BookingID: "bk1", RatingOverall: 0}, "tok")
	assert.EqualError(t, err, "Rating must be between 1 and 5")

	_, err = svc.CreateReview(context.Background(), CreateReviewInput{RoomID: "r1", BookingID: "bk1", RatingOverall: 4, RatingClean: intPtr(6)}, "tok")
	assert.EqualError(t, err, "Sub-ratings must be between 1 and 5")

	_, err = svc.CreateReview(context.Background(), CreateReviewInput{RoomID: "r1", BookingID: "bk1", RatingOverall: 4}, "")
	assert.EqualError(t, err, "Authentication token is required")

	assert.EqualValues(t, 0, be.calls.Load())
}

func TestCreateReviewSends(t *testing.T) {
	var body map[string]any
	client, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		respond(http.StatusCreated, `{"data":{"id":"rv1","bookingId":"bk1","ratingOverall":4,"status":"PENDING"}}`)(w, r)
	})

	rv, err := NewReviewService(client, nil).CreateReview(context.Background(), CreateReviewInput{
		RoomID: "r1", BookingID: "bk1", RatingOverall: 4, RatingService: intPtr(5), Comment: "  Sạch sẽ  ",
	}, "tok")

	require.NoError(t, err)
	assert.Equal(t, "rv1", rv.ID)
	assert.Equal(t, "r1", rv.RoomID)
	assert.Equal(t, models.ReviewPending, rv.Status)
	assert.Equal(t, "Sạch sẽ", body["comment"])
	assert.Equal(t, 5.0, body["ratingService"])
	assert.NotContains(t, body, "ratingClean")
}

func TestGetRoomReviewsCursorPage(t *testing.T) {
	var query string
	client, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		respond(http.StatusOK, `{"data":[{"id":"rv1","ratingOverall":5},{"id":"rv2","ratingOverall":3}],"nextCursor":"rv2","hasMore":true,"total":7}`)(w, r)
	})

	page, err := NewReviewService(client, nil).GetRoomReviews(context.Background(), "r1", 0, "")

	require.NoError(t, err)
	assert.Len(t, page.Reviews, 2)
	assert.Equal(t, "rv2", page.NextCursor)
	assert.True(t, page.HasMore)
	assert.Equal(t, 7, page.Total)
	assert.Equal(t, "limit=5", query)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]models.Review{{RatingOverall: 5}, {RatingOverall: 4}, {RatingOverall: 4}, {RatingOverall: 0}})

	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 4.3, s.Average)
	require.Len(t, s.Rows, 5)
	assert.Equal(t, RatingRow{Stars: 5, Count: 1, Percent: 33}, s.Rows[0])
	assert.Equal(t, RatingRow{Stars: 4, Count: 2, Percent: 67}, s.Rows[1])
	assert.Equal(t, RatingRow{Stars: 1}, s.Rows[4])

	empty := Summarize(nil)
	assert.Zero(t, empty.Average)
	assert.Len(t, empty.Rows, 5)
}

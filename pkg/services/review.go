package services

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"dormweb/pkg/api"
	"dormweb/pkg/apperrors"
	"dormweb/pkg/logging"
	"dormweb/pkg/mapper"
	"dormweb/pkg/models"
)

const DefaultReviewPageSize = 5

type CreateReviewInput struct {
	RoomID         string `validate:"required"`
	BookingID      string `validate:"required"`
	RatingOverall  int    `validate:"min=1,max=5"`
	RatingClean    *int   `validate:"omitempty,min=1,max=5"`
	RatingLocation *int   `validate:"omitempty,min=1,max=5"`
	RatingPrice    *int   `validate:"omitempty,min=1,max=5"`
	RatingService  *int   `validate:"omitempty,min=1,max=5"`
	Comment        string `validate:"max=2000"`
}

var reviewMessages = map[string]string{
	"RoomID":         "Room ID is required",
	"BookingID":      "Bạn chỉ có thể đánh giá phòng bạn đã đặt.",
	"RatingOverall":  "Rating must be between 1 and 5",
	"RatingClean":    "Sub-ratings must be between 1 and 5",
	"RatingLocation": "Sub-ratings must be between 1 and 5",
	"RatingPrice":    "Sub-ratings must be between 1 and 5",
	"RatingService":  "Sub-ratings must be between 1 and 5",
	"Comment":        "Comment must be at most 2000 characters",
}

type ReviewPage struct {
	Reviews    []models.Review
	NextCursor string
	HasMore    bool
	Total      int
}

type RatingRow struct {
	Stars   int
	Count   int
	Percent int
}

type ReviewSummary struct {
	Average float64
	Total   int
	Rows    []RatingRow
}

type ReviewService struct {
	client *api.Client
	logger *slog.Logger
}

func NewReviewService(client *api.Client, logger *slog.Logger) *ReviewService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &ReviewService{client: client, logger: logger.With(slog.String("component", "review"))}
}

func (s *ReviewService) CreateReview(ctx context.Context, in CreateReviewInput, token string) (*models.Review, error) {
	in.RoomID = strings.TrimSpace(in.RoomID)
	in.BookingID = strings.TrimSpace(in.BookingID)
	in.Comment = strings.TrimSpace(in.Comment)
	if err := validateStruct(in, reviewMessages); err != nil {
		return nil, err
	}
	if err := requireToken(token); err != nil {
		return nil, err
	}

	raw, err := s.client.CreateReview(ctx, token, api.ReviewRequest{
		RoomID:         in.RoomID,
		BookingID:      in.BookingID,
		RatingOverall:  in.RatingOverall,
		RatingClean:    in.RatingClean,
		RatingLocation: in.RatingLocation,
		RatingPrice:    in.RatingPrice,
		RatingService:  in.RatingService,
		Comment:        in.Comment,
	})
	if err != nil {
		return nil, apperrors.Translate(err, "Review", "creating review")
	}
	review := mapper.MapReview(mapper.DecodeEnvelope(raw).First())
	if review.RoomID == "" {
		review.RoomID = in.RoomID
	}
	return &review, nil
}

// GetRoomReviews returns one cursor page of reviews for a room.
func (s *ReviewService) GetRoomReviews(ctx context.Context, roomID string, limit int, cursor string) (*ReviewPage, error) {
	if err := requireID(roomID, "Room ID is required"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultReviewPageSize
	}
	raw, err := s.client.GetRoomReviews(ctx, roomID, limit, cursor)
	if err != nil {
		return nil, apperrors.Translate(err, "Review", "fetching reviews for room "+roomID)
	}

	env := mapper.DecodeEnvelope(raw)
	page := &ReviewPage{Reviews: mapper.MapReviews(env)}
	if c, ok := env.Field("nextCursor").(string); ok {
		page.NextCursor = c
	}
	if more, ok := env.Field("hasMore").(bool); ok {
		page.HasMore = more && page.NextCursor != ""
	}
	if total, ok := env.Field("total").(float64); ok {
		page.Total = int(total)
	}
	if m := env.Meta(); page.Total == 0 && m != nil {
		page.Total = m.Total
	}
	return page, nil
}

// Summarize computes the average rating and the 5..1 star breakdown.
func Summarize(reviews []models.Review) ReviewSummary {
	var counts [6]int
	sum := 0
	n := 0
	for _, r := range reviews {
		if r.RatingOverall < 1 || r.RatingOverall > 5 {
			continue
		}
		counts[r.RatingOverall]++
		sum += r.RatingOverall
		n++
	}

	out := ReviewSummary{Total: n, Rows: make([]RatingRow, 0, 5)}
	if n > 0 {
		out.Average = math.Round(float64(sum)/float64(n)*10) / 10
	}
	for stars := 5; stars >= 1; stars-- {
		row := RatingRow{Stars: stars, Count: counts[stars]}
		if n > 0 {
			row.Percent = int(math.Round(float64(counts[stars]) * 100 / float64(n)))
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

package mapper

import (
	"math"

	"dormweb/pkg/models"
)

// MapBuilding converts a record from the buildings endpoint. The backend
// spells longitude "longtitude"; both spellings are read.
func MapBuilding(r Record) models.Building {
	if r == nil {
		return models.Building{}
	}
	total := r.Int("roomsCount", "totalRooms")
	available := total
	if _, ok := r["availableRooms"]; ok {
		available = min(max(r.Int("availableRooms"), 0), total)
	}

	b := models.Building{
		ID:             r.Str("id"),
		Name:           r.Str("name"),
		Address:        r.Str("address"),
		City:           r.Str("city"),
		Description:    r.Str("description"),
		TotalRooms:     total,
		AvailableRooms: available,
		AveragePrice:   r.Num("averagePrice"),
		Rating:         r.Num("rating"),
		TotalReviews:   r.Int("totalReviews"),
		Latitude:       r.Num("latitude"),
		Longitude:      r.Num("longitude", "longtitude"),
		Amenities:      r.Strings("amenities", "name"),
	}
	// images is a single URL on this endpoint, a list elsewhere.
	if img := r.Str("images", "imageUrl"); img != "" {
		b.ImageURL = img
		b.Images = []string{img}
	} else if imgs := r.Strings("images", "imageUrl", "url"); len(imgs) > 0 {
		b.ImageURL = imgs[0]
		b.Images = imgs
	}
	if b.Amenities == nil {
		b.Amenities = []string{}
	}
	return b
}

func MapBuildings(env Envelope) []models.Building {
	items := env.Items()
	out := make([]models.Building, 0, len(items))
	for _, r := range items {
		out = append(out, MapBuilding(r))
	}
	return out
}

// BuildingFromRooms reconstructs a building when only the rooms-by-building
// endpoint is available. It returns nil for an empty room list.
func BuildingFromRooms(id string, rooms []models.Room) *models.Building {
	if len(rooms) == 0 {
		return nil
	}
	first := rooms[0]
	b := &models.Building{
		ID:         id,
		Name:       first.BuildingName,
		Address:    first.BuildingAddress,
		TotalRooms: len(rooms),
		Images:     first.Images,
		Amenities:  []string{},
	}
	if len(first.Images) > 0 {
		b.ImageURL = first.Images[0]
	}

	var (
		priceSum  float64
		ratingSum float64
		rated     int
		seen      = map[string]bool{}
	)
	for _, r := range rooms {
		if r.Available {
			b.AvailableRooms++
		}
		priceSum += r.Price
		if r.Rating > 0 {
			ratingSum += r.Rating
			rated++
		}
		b.TotalReviews += r.Reviews
		for _, a := range r.Amenities {
			if !seen[a] {
				seen[a] = true
				b.Amenities = append(b.Amenities, a)
			}
		}
	}
	b.AveragePrice = math.Round(priceSum / float64(len(rooms)))
	if rated > 0 {
		b.Rating = math.Round(ratingSum/float64(rated)*10) / 10
	}
	return b
}

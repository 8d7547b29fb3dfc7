package mapper

import (
	"fmt"
	"math"
	"strconv"

	"dormweb/pkg/models"
)

const (
	RoomTypeSingle = "Phòng đơn"
	RoomTypeDouble = "Phòng đôi"
	RoomTypeGroup  = "Phòng nhóm"

	StatusAvailable = "AVAILABLE"
)

func roomType(capacity int) string {
	switch capacity {
	case 1:
		return RoomTypeSingle
	case 2:
		return RoomTypeDouble
	default:
		return RoomTypeGroup
	}
}

// BuildingInfo extracts the display name and address of the building a room
// belongs to, from flat fields first and the nested building second.
func BuildingInfo(r Record) (name, address string) {
	if r == nil {
		return "", ""
	}
	b := r.Obj("building")
	name = r.Str("buildingName")
	if name == "" && b != nil {
		name = b.Str("name")
	}
	address = r.Str("buildingAddress")
	if address == "" && b != nil {
		address = b.Str("address")
	}
	return name, address
}

// MapRoom converts one backend room record. fallbackName and fallbackAddress
// are used when the record carries no building information of its own.
func MapRoom(r Record, fallbackName, fallbackAddress string) models.Room {
	if r == nil {
		return models.Room{}
	}

	capacity := r.Int("capacity")
	if capacity == 0 {
		capacity = 1
	}

	name, address := BuildingInfo(r)
	if name == "" {
		name = fallbackName
	}
	if address == "" {
		address = fallbackAddress
	}

	available, explicit := r.Bool("available")
	if !explicit {
		available = r.Str("status") == StatusAvailable
	}

	typ := r.Str("type")
	if typ == "" {
		typ = roomType(capacity)
	}

	room := models.Room{
		ID:              r.Str("id"),
		RoomNumber:      r.Str("roomNumber", "name"),
		BuildingID:      r.Str("buildingId"),
		BuildingName:    name,
		BuildingAddress: address,
		Type:            typ,
		Price:           r.Num("price"),
		Size:            r.Str("size"),
		Capacity:        capacity,
		Beds:            r.Str("beds"),
		Bathrooms:       r.Str("bathrooms"),
		Floor:           r.Int("floor"),
		Window:          r.Str("window"),
		Available:       available,
		Status:          r.Str("status"),
		Images:          r.Strings("images", "imageUrl", "url"),
		Description:     r.Str("description"),
		Amenities:       r.Strings("amenities", "name"),
		Rules:           r.Strings("rules"),
		Rating:          r.Num("rating"),
		Reviews:         r.Int("reviews", "reviewCount"),
	}
	if room.BuildingID == "" {
		if b := r.Obj("building"); b != nil {
			room.BuildingID = b.Str("id")
		}
	}
	if room.Size == "" {
		room.Size = fmt.Sprintf("%sm²", formatNumber(r.Num("squareMeter")))
	}
	if room.Beds == "" {
		room.Beds = fmt.Sprintf("%d giường", intOr(r.Int("bedCount"), 1))
	}
	if room.Bathrooms == "" {
		room.Bathrooms = fmt.Sprintf("%d phòng tắm", intOr(r.Int("bathroomCount"), 1))
	}
	if c := r.Obj("contact"); c != nil {
		room.Contact = models.Contact{Phone: c.Str("phone"), Email: c.Str("email"), Manager: c.Str("manager")}
	}
	return room
}

// MapRooms maps every record of env, using the first record's building
// information as the fallback for the rest.
func MapRooms(env Envelope) []models.Room {
	items := env.Items()
	name, address := BuildingInfo(env.First())
	rooms := make([]models.Room, 0, len(items))
	for _, r := range items {
		rooms = append(rooms, MapRoom(r, name, address))
	}
	return rooms
}

// FilterAvailable keeps records whose status is AVAILABLE.
func FilterAvailable(items []Record) []Record {
	out := make([]Record, 0, len(items))
	for _, r := range items {
		if r.Str("status") == StatusAvailable {
			out = append(out, r)
		}
	}
	return out
}

func intOr(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

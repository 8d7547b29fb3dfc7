package services

import (
	"context"
	"log/slog"

	"dormweb/pkg/api"
	"dormweb/pkg/apperrors"
	"dormweb/pkg/logging"
	"dormweb/pkg/mapper"
	"dormweb/pkg/models"
)

const errBuildingID = "Building ID is required and must be a non-empty string"

type RoomService struct {
	client *api.Client
	logger *slog.Logger
}

func NewRoomService(client *api.Client, logger *slog.Logger) *RoomService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &RoomService{client: client, logger: logger.With(slog.String("component", "room"))}
}

func validateListParams(p api.ListParams) error {
	if p.Page < 0 {
		return apperrors.Validation("Page number must be greater than 0")
	}
	if p.Limit < 0 {
		return apperrors.Validation("Limit must be greater than 0")
	}
	return nil
}

// listItems rejects single-object payloads where a list was asked for.
func listItems(env mapper.Envelope, what string) ([]mapper.Record, error) {
	switch env.Shape {
	case mapper.ShapeObject, mapper.ShapeDataObject:
		return nil, apperrors.Server("Invalid response format: expected array of "+what, 500)
	}
	return env.Items(), nil
}

func (s *RoomService) GetRoomsByBuildingID(ctx context.Context, buildingID string, params api.ListParams) ([]models.Room, error) {
	if err := requireID(buildingID, errBuildingID); err != nil {
		return nil, err
	}
	if err := validateListParams(params); err != nil {
		return nil, err
	}
	op := "fetching rooms for building " + buildingID

	raw, err := s.client.GetRoomsByBuilding(ctx, buildingID, params)
	if err != nil {
		return nil, apperrors.Translate(err, "Room", op)
	}
	env := mapper.DecodeEnvelope(raw)
	if _, err := listItems(env, "rooms"); err != nil {
		return nil, apperrors.Translate(err, "Room", op)
	}
	return mapper.MapRooms(env), nil
}

func (s *RoomService) GetRoomByID(ctx context.Context, id string) (*models.Room, error) {
	if err := requireID(id, "Room ID is required and must be a non-empty string"); err != nil {
		return nil, err
	}
	raw, err := s.client.GetRoomByID(ctx, id)
	if err != nil {
		return nil, apperrors.Translate(err, "Room", "fetching room "+id)
	}
	record := mapper.DecodeEnvelope(raw).First()
	if record == nil {
		return nil, apperrors.NotFound("Room", id)
	}
	name, address := mapper.BuildingInfo(record)
	room := mapper.MapRoom(record, name, address)
	return &room, nil
}

// GetAvailableRooms asks the backend for AVAILABLE rooms and filters again
// locally, since the filter is not always honoured.
func (s *RoomService) GetAvailableRooms(ctx context.Context, buildingID string) ([]models.Room, error) {
	if err := requireID(buildingID, errBuildingID); err != nil {
		return nil, err
	}
	op := "fetching available rooms for building " + buildingID

	raw, err := s.client.GetRoomsByBuilding(ctx, buildingID, api.ListParams{
		Filters: map[string]string{"status": mapper.StatusAvailable},
	})
	if err != nil {
		return nil, apperrors.Translate(err, "Room", op)
	}
	items, err := listItems(mapper.DecodeEnvelope(raw), "rooms")
	if err != nil {
		return nil, apperrors.Translate(err, "Room", op)
	}

	available := mapper.FilterAvailable(items)
	var first mapper.Record
	if len(available) > 0 {
		first = available[0]
	}
	name, address := mapper.BuildingInfo(first)
	rooms := make([]models.Room, 0, len(available))
	for _, r := range available {
		rooms = append(rooms, mapper.MapRoom(r, name, address))
	}
	return rooms, nil
}

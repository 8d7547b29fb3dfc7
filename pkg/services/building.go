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

const DefaultFeaturedLimit = 4

type BuildingPage struct {
	Buildings []models.Building
	Meta      models.PageMeta
}

type BuildingService struct {
	client *api.Client
	rooms  *RoomService
	logger *slog.Logger
}

func NewBuildingService(client *api.Client, rooms *RoomService, logger *slog.Logger) *BuildingService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &BuildingService{client: client, rooms: rooms, logger: logger.With(slog.String("component", "building"))}
}

// GetAllBuildings returns one page of buildings. Meta falls back to a single
// page holding everything when the backend sends none.
func (s *BuildingService) GetAllBuildings(ctx context.Context, params api.ListParams) (*BuildingPage, error) {
	if err := validateListParams(params); err != nil {
		return nil, err
	}
	raw, err := s.client.GetBuildings(ctx, params)
	if err != nil {
		return nil, apperrors.Translate(err, "Building", "fetching buildings")
	}
	env := mapper.DecodeEnvelope(raw)
	if _, err := listItems(env, "buildings"); err != nil {
		return nil, apperrors.Translate(err, "Building", "fetching buildings")
	}

	page := &BuildingPage{Buildings: mapper.MapBuildings(env)}
	if m := env.Meta(); m != nil {
		page.Meta = *m
	}
	if page.Meta.Page == 0 {
		page.Meta.Page = max(params.Page, 1)
	}
	if page.Meta.Total == 0 {
		page.Meta.Total = len(page.Buildings)
	}
	if page.Meta.TotalPages == 0 {
		page.Meta.TotalPages = 1
		if page.Meta.Limit > 0 {
			page.Meta.TotalPages = max((page.Meta.Total+page.Meta.Limit-1)/page.Meta.Limit, 1)
		}
	}
	return page, nil
}

func (s *BuildingService) GetBuildingByID(ctx context.Context, id string) (*models.Building, error) {
	if err := requireID(id, errBuildingID); err != nil {
		return nil, err
	}
	raw, err := s.client.GetBuildingByID(ctx, id)
	if err != nil {
		return nil, apperrors.Translate(err, "Building", "fetching building "+id)
	}
	record := mapper.DecodeEnvelope(raw).First()
	if record == nil {
		return nil, apperrors.NotFound("Building", id)
	}
	b := mapper.MapBuilding(record)
	return &b, nil
}

func (s *BuildingService) GetFeaturedBuildings(ctx context.Context, limit int) ([]models.Building, error) {
	if limit < 1 {
		return nil, apperrors.Validation("Limit must be greater than 0")
	}
	raw, err := s.client.GetBuildings(ctx, api.ListParams{Limit: limit})
	if err != nil {
		return nil, apperrors.Translate(err, "Building", "fetching featured buildings")
	}
	env := mapper.DecodeEnvelope(raw)
	if _, err := listItems(env, "buildings"); err != nil {
		return nil, apperrors.Translate(err, "Building", "fetching featured buildings")
	}
	buildings := mapper.MapBuildings(env)
	if len(buildings) > limit {
		buildings = buildings[:limit]
	}
	return buildings, nil
}

// GetBuildingDetailWithRooms derives the building from its rooms, since the
// rooms endpoint is the one that carries availability and prices. A building
// that cannot be found yields a nil building and no rooms, not an error.
// Descriptive fields are filled from the building endpoint when it answers.
func (s *BuildingService) GetBuildingDetailWithRooms(ctx context.Context, id string) (*models.Building, []models.Room, error) {
	if err := requireID(id, errBuildingID); err != nil {
		return nil, nil, err
	}
	rooms, err := s.rooms.GetRoomsByBuildingID(ctx, id, api.ListParams{})
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, []models.Room{}, nil
		}
		return nil, nil, err
	}
	building := mapper.BuildingFromRooms(id, rooms)
	if building == nil {
		return nil, []models.Room{}, nil
	}
	s.enrich(ctx, building)
	return building, rooms, nil
}

func (s *BuildingService) enrich(ctx context.Context, b *models.Building) {
	raw, err := s.client.GetBuildingDetail(ctx, b.ID)
	if err != nil {
		s.logger.Debug("building detail unavailable", slog.String("building_id", b.ID), slog.String("error", err.Error()))
		return
	}
	record := mapper.DecodeEnvelope(raw).First()
	if record == nil {
		return
	}
	detail := mapper.MapBuilding(record)
	if b.Name == "" {
		b.Name = detail.Name
	}
	if b.Address == "" {
		b.Address = detail.Address
	}
	if b.ImageURL == "" {
		b.ImageURL = detail.ImageURL
	}
	b.Description = detail.Description
	b.City = detail.City
	b.Latitude = detail.Latitude
	b.Longitude = detail.Longitude
}

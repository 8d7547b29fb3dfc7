package services

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dormweb/pkg/api"
	"dormweb/pkg/apperrors"
)

const roomsPayload = `{"data":{"data":[
	{"id":"r1","name":"A101","price":1000000,"capacity":1,"status":"AVAILABLE","building":{"id":"b1","name":"Tòa A","address":"1 Lê Lợi"}},
	{"id":"r2","name":"A102","price":2000000,"capacity":2,"status":"BOOKED"},
	{"id":"r3","name":"A103","price":3000000,"capacity":4,"status":"AVAILABLE"}
]}}`

func TestGetRoomsByBuildingID(t *testing.T) {
	client, _ := newBackend(t, respond(http.StatusOK, roomsPayload))

	rooms, err := NewRoomService(client, nil).GetRoomsByBuildingID(context.Background(), "b1", api.ListParams{})

	require.NoError(t, err)
	require.Len(t, rooms, 3)
	assert.Equal(t, "Tòa A", rooms[2].BuildingName)
	assert.False(t, rooms[1].Available)
}

func TestGetRoomsRejectsObjectPayload(t *testing.T) {
	client, _ := newBackend(t, respond(http.StatusOK, `{"data":{"data":{"id":"r1"}}}`))

	_, err := NewRoomService(client, nil).GetRoomsByBuildingID(context.Background(), "b1", api.ListParams{})

	assert.Equal(t, apperrors.KindServer, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "expected array of rooms")
}

func TestRoomServiceValidation(t *testing.T) {
	client, be := newBackend(t, respond(http.StatusOK, `[]`))
	svc := NewRoomService(client, nil)

	_, err := svc.GetRoomsByBuildingID(context.Background(), " ", api.ListParams{})
	assert.EqualError(t, err, "Building ID is required and must be a non-empty string")
	_, err = svc.GetRoomsByBuildingID(context.Background(), "b1", api.ListParams{Page: -1})
	assert.EqualError(t, err, "Page number must be greater than 0")
	_, err = svc.GetRoomByID(context.Background(), "")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.EqualValues(t, 0, be.calls.Load())
}

func TestGetRoomByID(t *testing.T) {
	client, _ := newBackend(t, respond(http.StatusOK, `{"data":{"id":"r1","roomNumber":"B201","available":true,"status":"MAINTENANCE","buildingName":"Tòa B"}}`))

	room, err := NewRoomService(client, nil).GetRoomByID(context.Background(), "r1")

	require.NoError(t, err)
	assert.Equal(t, "B201", room.RoomNumber)
	assert.True(t, room.Available)
	assert.Equal(t, "Tòa B", room.BuildingName)
}

func TestGetRoomByIDMissing(t *testing.T) {
	client, _ := newBackend(t, respond(http.StatusNotFound, `{"message":"Room not found"}`))

	_, err := NewRoomService(client, nil).GetRoomByID(context.Background(), "r404")

	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.True(t, apperrors.IsNotFound(err))
	assert.EqualError(t, err, "Room not found")
}

func TestGetAvailableRoomsFiltersLocally(t *testing.T) {
	var query string
	client, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		respond(http.StatusOK, roomsPayload)(w, r)
	})

	rooms, err := NewRoomService(client, nil).GetAvailableRooms(context.Background(), "b1")

	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "r1", rooms[0].ID)
	assert.Equal(t, "r3", rooms[1].ID)
	assert.Equal(t, "Tòa A", rooms[1].BuildingName)
	assert.Contains(t, query, "filters%5Bstatus%5D=AVAILABLE")
}

func TestGetBuildingDetailWithRooms(t *testing.T) {
	client, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/rooms/building/"):
			respond(http.StatusOK, roomsPayload)(w, r)
		case r.URL.Path == "/building/b1":
			respond(http.StatusOK, `{"data":{"id":"b1","name":"Tòa A","description":"Gần trường","latitude":10.85,"longtitude":106.77}}`)(w, r)
		default:
			respond(http.StatusNotFound, ``)(w, r)
		}
	})
	rooms := NewRoomService(client, nil)
	svc := NewBuildingService(client, rooms, nil)

	b, list, err := svc.GetBuildingDetailWithRooms(context.Background(), "b1")

	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Len(t, list, 3)
	assert.Equal(t, 3, b.TotalRooms)
	assert.Equal(t, 2, b.AvailableRooms)
	assert.Equal(t, 2000000.0, b.AveragePrice)
	assert.Equal(t, "Gần trường", b.Description)
	assert.Equal(t, 106.77, b.Longitude)
}

func TestGetBuildingDetailWithRoomsNotFound(t *testing.T) {
	client, _ := newBackend(t, respond(http.StatusNotFound, `{"message":"Building not found"}`))
	svc := NewBuildingService(client, NewRoomService(client, nil), nil)

	b, rooms, err := svc.GetBuildingDetailWithRooms(context.Background(), "missing")

	require.NoError(t, err)
	assert.Nil(t, b)
	assert.Empty(t, rooms)
}

func TestGetBuildingDetailWithNoRooms(t *testing.T) {
	client, _ := newBackend(t, respond(http.StatusOK, `{"data":{"data":[]}}`))
	svc := NewBuildingService(client, NewRoomService(client, nil), nil)

	b, rooms, err := svc.GetBuildingDetailWithRooms(context.Background(), "b1")

	require.NoError(t, err)
	assert.Nil(t, b)
	assert.Empty(t, rooms)
}

func TestGetAllBuildingsMeta(t *testing.T) {
	var query string
	client, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		respond(http.StatusOK, `{"data":{"data":[{"id":"b1","name":"Tòa A","roomsCount":10}],"meta":{"total":21,"pageNumber":2,"limitNumber":10,"totalPages":3}}}`)(w, r)
	})
	svc := NewBuildingService(client, NewRoomService(client, nil), nil)

	page, err := svc.GetAllBuildings(context.Background(), api.ListParams{Page: 2, Limit: 10, Search: "A"})

	require.NoError(t, err)
	require.Len(t, page.Buildings, 1)
	assert.Equal(t, 3, page.Meta.TotalPages)
	assert.Equal(t, 2, page.Meta.Page)
	assert.Contains(t, query, "search=A")
}

func TestGetFeaturedBuildings(t *testing.T) {
	client, be := newBackend(t, respond(http.StatusOK, `{"data":[{"id":"1"},{"id":"2"},{"id":"3"},{"id":"4"},{"id":"5"}]}`))
	svc := NewBuildingService(client, NewRoomService(client, nil), nil)

	_, err := svc.GetFeaturedBuildings(context.Background(), 0)
	assert.EqualError(t, err, "Limit must be greater than 0")
	assert.EqualValues(t, 0, be.calls.Load())

	list, err := svc.GetFeaturedBuildings(context.Background(), DefaultFeaturedLimit)
	require.NoError(t, err)
	assert.Len(t, list, 4)
}

func TestGetBuildingByIDServerError(t *testing.T) {
	client, _ := newBackend(t, respond(http.StatusBadGateway, ``))
	svc := NewBuildingService(client, NewRoomService(client, nil), nil)

	_, err := svc.GetBuildingByID(context.Background(), "b1")

	assert.Equal(t, apperrors.KindServer, apperrors.KindOf(err))
	assert.Equal(t, http.StatusBadGateway, apperrors.StatusOf(err))
	assert.EqualError(t, err, "Server error while fetching building b1: Server error: 502")
}

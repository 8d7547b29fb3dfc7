package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const roomJSON = `{"id":"r1","name":"A101","buildingId":"b1","price":1500000,"capacity":2,"status":"AVAILABLE"}`

func TestDecodeEnvelopeShapes(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		shape Shape
		count int
	}{
		{"bare array", `[` + roomJSON + `]`, ShapeArray, 1},
		{"bare object", roomJSON, ShapeObject, 1},
		{"data array", `{"data":[` + roomJSON + `,` + roomJSON + `]}`, ShapeDataArray, 2},
		{"data object", `{"data":` + roomJSON + `}`, ShapeDataObject, 1},
		{"nested data array", `{"data":{"data":[` + roomJSON + `],"meta":{"total":1}}}`, ShapeDataArray, 1},
		{"nested data object", `{"data":{"data":` + roomJSON + `}}`, ShapeDataObject, 1},
		{"nested null", `{"data":{"data":null}}`, ShapeEmpty, 0},
		{"data null", `{"data":null}`, ShapeEmpty, 0},
		{"message only", `{"statusCode":200,"message":"ok"}`, ShapeEmpty, 0},
		{"scalar", `42`, ShapeEmpty, 0},
		{"invalid json", `{"data":`, ShapeEmpty, 0},
		{"empty body", ``, ShapeEmpty, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := DecodeEnvelope([]byte(tt.raw))

			assert.Equal(t, tt.shape, env.Shape)
			assert.Len(t, env.Items(), tt.count)
			assert.NotNil(t, env.Items())
			if tt.count == 0 {
				assert.Nil(t, env.First())
			}
		})
	}
}

func TestMapperToleratesEveryShape(t *testing.T) {
	payloads := []string{
		`[` + roomJSON + `]`,
		roomJSON,
		`{"data":[` + roomJSON + `]}`,
		`{"data":` + roomJSON + `}`,
	}
	for _, raw := range payloads {
		rooms := MapRooms(DecodeEnvelope([]byte(raw)))
		require.Len(t, rooms, 1, raw)
		assert.Equal(t, "r1", rooms[0].ID)
		assert.Equal(t, "A101", rooms[0].RoomNumber)
		assert.True(t, rooms[0].Available)
	}

	for _, raw := range []string{`{}`, `null`, `"x"`, `{"data":"x"}`} {
		assert.NotPanics(t, func() {
			assert.Empty(t, MapRooms(DecodeEnvelope([]byte(raw))))
			assert.Empty(t, MapBuildings(DecodeEnvelope([]byte(raw))))
			assert.Empty(t, MapBookingSummaries(DecodeEnvelope([]byte(raw))))
		})
	}
}

func TestEnvelopeMetaAndField(t *testing.T) {
	env := DecodeEnvelope([]byte(`{"data":{"data":[],"meta":{"total":23,"pageNumber":2,"limitNumber":10,"totalPages":3}},"nextCursor":"c2","hasMore":true}`))

	require.NotNil(t, env.Meta())
	assert.Equal(t, 23, env.Meta().Total)
	assert.Equal(t, 2, env.Meta().Page)
	assert.Equal(t, 3, env.Meta().TotalPages)
	assert.Equal(t, "c2", env.Field("nextCursor"))
	assert.Equal(t, true, env.Field("hasMore"))
	assert.Nil(t, env.Field("missing"))
}

func TestRecordAccessors(t *testing.T) {
	r := Record{"price": "1500000.50", "zero": 0.0, "n": 3.0, "name": "", "alt": "x"}

	assert.Equal(t, 1500000.50, r.Num("price"))
	assert.Equal(t, 3, r.Int("zero", "n"))
	assert.Equal(t, "x", r.Str("name", "alt"))
	assert.Equal(t, "3", r.Str("n"))
	_, ok := r.Bool("missing")
	assert.False(t, ok)
}

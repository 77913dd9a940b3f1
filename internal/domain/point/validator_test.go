package point

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCreate() CreateRequest {
	return CreateRequest{
		Name:        "Arb 01",
		GeomType:    GeomPoint,
		Coordinates: []Coordinate{{Latitude: 48.8566, Longitude: 2.3522}},
	}
}

func TestValidateCreate(t *testing.T) {
	assert.NoError(t, ValidateCreate(validCreate()))

	t.Run("пустое имя", func(t *testing.T) {
		req := validCreate()
		req.Name = ""
		assert.Error(t, ValidateCreate(req))
	})

	t.Run("без координат", func(t *testing.T) {
		req := validCreate()
		req.Coordinates = nil
		assert.Error(t, ValidateCreate(req))
	})

	t.Run("широта вне диапазона", func(t *testing.T) {
		req := validCreate()
		req.Coordinates = []Coordinate{{Latitude: 91, Longitude: 2}}
		assert.Error(t, ValidateCreate(req))
	})

	t.Run("долгота вне диапазона", func(t *testing.T) {
		req := validCreate()
		req.Coordinates = []Coordinate{{Latitude: 48, Longitude: -181}}
		assert.Error(t, ValidateCreate(req))
	})

	t.Run("неизвестная геометрия", func(t *testing.T) {
		req := validCreate()
		req.GeomType = "CIRCLE"
		assert.Error(t, ValidateCreate(req))
	})

	t.Run("линия из одной координаты", func(t *testing.T) {
		req := validCreate()
		req.GeomType = GeomLineString
		assert.Error(t, ValidateCreate(req))
	})

	t.Run("полигон из двух координат", func(t *testing.T) {
		req := validCreate()
		req.GeomType = GeomPolygon
		req.Coordinates = []Coordinate{{Latitude: 1, Longitude: 1}, {Latitude: 2, Longitude: 2}}
		assert.Error(t, ValidateCreate(req))
	})

	t.Run("корректный полигон", func(t *testing.T) {
		req := validCreate()
		req.GeomType = GeomPolygon
		req.Coordinates = []Coordinate{
			{Latitude: 1, Longitude: 1},
			{Latitude: 2, Longitude: 2},
			{Latitude: 3, Longitude: 1},
		}
		assert.NoError(t, ValidateCreate(req))
	})
}

func TestValidateUpdate(t *testing.T) {
	assert.NoError(t, ValidateUpdate(UpdateRequest{}))

	comment := "комментарий"
	assert.NoError(t, ValidateUpdate(UpdateRequest{Comment: &comment}))

	assert.Error(t, ValidateUpdate(UpdateRequest{
		Coordinates: []Coordinate{{Latitude: 95, Longitude: 0}},
	}))
}

func TestApplyUpdate(t *testing.T) {
	p := &Point{
		Name:             "Arb 01",
		Comment:          "старый",
		CustomProperties: map[string]any{"essence": "Platane", "hauteur": 10},
	}

	name := "Arb 99"
	comment := "новый"
	ApplyUpdate(p, UpdateRequest{
		Name:             &name,
		Comment:          &comment,
		CustomProperties: map[string]any{"hauteur": 12},
	})

	assert.Equal(t, "Arb 99", p.Name)
	assert.Equal(t, "новый", p.Comment)

	// Свойства сливаются, а не замещаются целиком
	require.Contains(t, p.CustomProperties, "essence")
	assert.Equal(t, 12, p.CustomProperties["hauteur"])
}

func TestNewCreateRequest(t *testing.T) {
	p := Point{
		LocalID:     "local-1",
		Name:        "Arb 01",
		LexiqueCode: "EV-ARB",
		GeomType:    GeomPoint,
		Coordinates: []Coordinate{{Latitude: 48, Longitude: 2}},
	}

	req := NewCreateRequest(p)
	assert.Equal(t, "local-1", req.LocalID)
	assert.Equal(t, "Arb 01", req.Name)
	assert.Equal(t, "EV-ARB", req.LexiqueCode)
	require.Len(t, req.Coordinates, 1)
}

package emulator

import (
	"context"
	"net/http"
	"sort"

	"github.com/danielgtaylor/huma/v2"

	"geoclic/internal/domain/point"
)

func (e *Emulator) setupPointRoutes() {
	huma.Register(e.api, huma.Operation{
		OperationID: "point-create",
		Method:      http.MethodPost,
		Path:        "/api/points",
		Summary:     "Создать точку",
		Tags:        []string{"points"},
		Middlewares: huma.Middlewares{e.authMiddleware()},
	}, e.createPoint)

	huma.Register(e.api, huma.Operation{
		OperationID: "point-list",
		Method:      http.MethodGet,
		Path:        "/api/points",
		Summary:     "Список точек",
		Tags:        []string{"points"},
		Middlewares: huma.Middlewares{e.authMiddleware()},
	}, e.listPoints)

	huma.Register(e.api, huma.Operation{
		OperationID: "point-check-duplicate",
		Method:      http.MethodGet,
		Path:        "/api/points/check-duplicate",
		Summary:     "Проверить дубликаты рядом с координатой",
		Tags:        []string{"points"},
		Middlewares: huma.Middlewares{e.authMiddleware()},
	}, e.checkDuplicate)

	huma.Register(e.api, huma.Operation{
		OperationID: "point-get",
		Method:      http.MethodGet,
		Path:        "/api/points/{id}",
		Summary:     "Получить точку",
		Tags:        []string{"points"},
		Middlewares: huma.Middlewares{e.authMiddleware()},
	}, e.getPoint)

	huma.Register(e.api, huma.Operation{
		OperationID: "point-update",
		Method:      http.MethodPatch,
		Path:        "/api/points/{id}",
		Summary:     "Обновить точку",
		Tags:        []string{"points"},
		Middlewares: huma.Middlewares{e.authMiddleware()},
	}, e.updatePoint)

	huma.Register(e.api, huma.Operation{
		OperationID: "point-delete",
		Method:      http.MethodDelete,
		Path:        "/api/points/{id}",
		Summary:     "Удалить точку",
		Tags:        []string{"points"},
		Middlewares: huma.Middlewares{e.authMiddleware()},
	}, e.deletePoint)
}

type createPointInput struct {
	Body point.CreateRequest
}

type pointOutput struct {
	Body point.Point
}

func (e *Emulator) createPoint(_ context.Context, input *createPointInput) (*pointOutput, error) {
	req := input.Body
	if req.Name == "" {
		return nil, huma.Error422UnprocessableEntity("name обязательно")
	}
	if len(req.Coordinates) == 0 {
		return nil, huma.Error422UnprocessableEntity("coordinates обязательны")
	}
	if e.state.RejectName != "" && req.Name == e.state.RejectName {
		return nil, huma.Error422UnprocessableEntity("точка отклонена сервером: " + req.Name)
	}

	p := pointFromCreate(req)
	created := e.state.PutPoint(p)
	return &pointOutput{Body: *created}, nil
}

func pointFromCreate(req point.CreateRequest) *point.Point {
	return &point.Point{
		Name:             req.Name,
		Comment:          req.Comment,
		LexiqueCode:      req.LexiqueCode,
		ProjectID:        req.ProjectID,
		Type:             req.Type,
		Subtype:          req.Subtype,
		GeomType:         req.GeomType,
		Coordinates:      req.Coordinates,
		GPSPrecision:     req.GPSPrecision,
		GPSSource:        req.GPSSource,
		Altitude:         req.Altitude,
		CustomProperties: req.CustomProperties,
		Photos:           req.Photos,
		LocalID:          req.LocalID,
	}
}

type listPointsInput struct {
	ProjectID string `query:"project_id"`
	Page      int    `query:"page" default:"1" minimum:"1"`
	Size      int    `query:"size" default:"100" minimum:"1" maximum:"500"`
}

type listPointsOutput struct {
	Body point.Page
}

func (e *Emulator) listPoints(_ context.Context, input *listPointsInput) (*listPointsOutput, error) {
	all := e.state.Points(input.ProjectID)
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	page, size := input.Page, input.Size
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 100
	}

	start := (page - 1) * size
	if start > len(all) {
		start = len(all)
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}

	pages := (len(all) + size - 1) / size
	if pages == 0 {
		pages = 1
	}

	return &listPointsOutput{Body: point.Page{
		Items: all[start:end],
		Total: len(all),
		Page:  page,
		Pages: pages,
	}}, nil
}

type getPointInput struct {
	ID string `path:"id"`
}

func (e *Emulator) getPoint(_ context.Context, input *getPointInput) (*pointOutput, error) {
	p, ok := e.state.GetPoint(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("точка не найдена: " + input.ID)
	}
	return &pointOutput{Body: *p}, nil
}

type updatePointInput struct {
	ID   string `path:"id"`
	Body point.UpdateRequest
}

func (e *Emulator) updatePoint(_ context.Context, input *updatePointInput) (*pointOutput, error) {
	p, ok := e.state.GetPoint(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("точка не найдена: " + input.ID)
	}
	point.ApplyUpdate(p, input.Body)
	updated := e.state.PutPoint(p)
	return &pointOutput{Body: *updated}, nil
}

type deletePointInput struct {
	ID string `path:"id"`
}

type deletePointOutput struct {
	Body struct {
		Deleted bool `json:"deleted"`
	}
}

func (e *Emulator) deletePoint(_ context.Context, input *deletePointInput) (*deletePointOutput, error) {
	if !e.state.DeletePoint(input.ID) {
		return nil, huma.Error404NotFound("точка не найдена: " + input.ID)
	}
	out := &deletePointOutput{}
	out.Body.Deleted = true
	return out, nil
}

type checkDuplicateInput struct {
	Lat    float64 `query:"lat" required:"true" minimum:"-90" maximum:"90"`
	Lng    float64 `query:"lng" required:"true" minimum:"-180" maximum:"180"`
	Radius float64 `query:"radius" default:"10"`
}

type checkDuplicateOutput struct {
	Body point.DuplicateCheck
}

func (e *Emulator) checkDuplicate(_ context.Context, input *checkDuplicateInput) (*checkDuplicateOutput, error) {
	radius := input.Radius
	if radius <= 0 {
		radius = 10
	}
	if radius < 1 {
		radius = 1
	}
	if radius > 1000 {
		radius = 1000
	}

	var nearby []point.NearbyPoint
	for _, p := range e.state.Points("") {
		if len(p.Coordinates) == 0 {
			continue
		}
		d := point.Haversine(input.Lat, input.Lng, p.Coordinates[0].Latitude, p.Coordinates[0].Longitude)
		if d <= radius {
			nearby = append(nearby, point.NearbyPoint{
				ID:        p.ID,
				Name:      p.Name,
				Type:      p.Type,
				Distance:  d,
				Latitude:  p.Coordinates[0].Latitude,
				Longitude: p.Coordinates[0].Longitude,
			})
		}
	}
	sort.Slice(nearby, func(i, j int) bool { return nearby[i].Distance < nearby[j].Distance })

	check := point.DuplicateCheck{
		HasDuplicate: len(nearby) > 0,
		NearbyPoints: nearby,
		SearchRadius: radius,
	}
	if len(nearby) > 0 {
		check.MinDistance = &nearby[0].Distance
	}
	return &checkDuplicateOutput{Body: check}, nil
}

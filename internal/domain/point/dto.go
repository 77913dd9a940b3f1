package point

// CreateRequest тело запроса на создание точки.
// LocalID передается, чтобы сервер мог подтвердить конкретную запись
// очереди при пакетной синхронизации.
type CreateRequest struct {
	LocalID          string         `json:"_localId,omitempty"`
	Name             string         `json:"name" validate:"required,max=255"`
	Comment          string         `json:"comment,omitempty"`
	LexiqueCode      string         `json:"lexique_code,omitempty"`
	ProjectID        string         `json:"project_id,omitempty"`
	Type             string         `json:"type,omitempty"`
	Subtype          string         `json:"subtype,omitempty"`
	GeomType         GeomType       `json:"geom_type" validate:"required,oneof=POINT LINESTRING POLYGON"`
	Coordinates      []Coordinate   `json:"coordinates" validate:"required,min=1,dive"`
	GPSPrecision     *float64       `json:"gps_precision,omitempty"`
	GPSSource        string         `json:"gps_source,omitempty"`
	Altitude         *float64       `json:"altitude,omitempty"`
	CustomProperties map[string]any `json:"custom_properties,omitempty"`
	Photos           []PhotoMeta    `json:"photos,omitempty"`
}

// UpdateRequest частичное обновление точки: nil-поля не трогаются
type UpdateRequest struct {
	Name             *string        `json:"name,omitempty" validate:"omitempty,max=255"`
	Comment          *string        `json:"comment,omitempty"`
	LexiqueCode      *string        `json:"lexique_code,omitempty"`
	Coordinates      []Coordinate   `json:"coordinates,omitempty" validate:"omitempty,min=1,dive"`
	CustomProperties map[string]any `json:"custom_properties,omitempty"`
}

// NearbyPoint кандидат-дубликат из проверки по радиусу
type NearbyPoint struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Type      string  `json:"type,omitempty"`
	Distance  float64 `json:"distance"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DuplicateCheck результат проверки дубликатов. Это обычный успешный
// ответ, а не ошибка: решение (блокировать, предупредить, создать)
// принимает вызывающая сторона.
type DuplicateCheck struct {
	HasDuplicate bool          `json:"has_duplicate"`
	NearbyPoints []NearbyPoint `json:"nearby_points"`
	MinDistance  *float64      `json:"min_distance,omitempty"`
	SearchRadius float64       `json:"search_radius"`
}

// Page страница списка точек
type Page struct {
	Items []Point `json:"items"`
	Total int     `json:"total"`
	Page  int     `json:"page"`
	Pages int     `json:"pages"`
}

// NewCreateRequest собирает запрос создания из локальной точки
func NewCreateRequest(p Point) CreateRequest {
	return CreateRequest{
		LocalID:          p.LocalID,
		Name:             p.Name,
		Comment:          p.Comment,
		LexiqueCode:      p.LexiqueCode,
		ProjectID:        p.ProjectID,
		Type:             p.Type,
		Subtype:          p.Subtype,
		GeomType:         p.GeomType,
		Coordinates:      p.Coordinates,
		GPSPrecision:     p.GPSPrecision,
		GPSSource:        p.GPSSource,
		Altitude:         p.Altitude,
		CustomProperties: p.CustomProperties,
		Photos:           p.Photos,
	}
}

// ApplyUpdate накладывает частичное обновление на существующую точку
func ApplyUpdate(p *Point, upd UpdateRequest) {
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Comment != nil {
		p.Comment = *upd.Comment
	}
	if upd.LexiqueCode != nil {
		p.LexiqueCode = *upd.LexiqueCode
	}
	if len(upd.Coordinates) > 0 {
		p.Coordinates = upd.Coordinates
	}
	if upd.CustomProperties != nil {
		if p.CustomProperties == nil {
			p.CustomProperties = make(map[string]any, len(upd.CustomProperties))
		}
		for k, v := range upd.CustomProperties {
			p.CustomProperties[k] = v
		}
	}
}

package point

import (
	"time"
)

// GeomType тип геометрии объекта
type GeomType string

const (
	GeomPoint      GeomType = "POINT"
	GeomLineString GeomType = "LINESTRING"
	GeomPolygon    GeomType = "POLYGON"
)

// Статусы синхронизации точки
const (
	StatusSynced   = "synced"
	StatusPending  = "pending"
	StatusConflict = "conflict"
)

// Coordinate координата в WGS84
type Coordinate struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// PhotoMeta метаданные фотографии, привязанной к точке
type PhotoMeta struct {
	ID          string   `json:"id,omitempty"`
	URL         string   `json:"url,omitempty"`
	Filename    string   `json:"filename,omitempty"`
	GPSLat      *float64 `json:"gps_lat,omitempty"`
	GPSLng      *float64 `json:"gps_lng,omitempty"`
	GPSAccuracy *float64 `json:"gps_accuracy,omitempty"`
	TakenAt     string   `json:"taken_at,omitempty"`
	// LocalPath заполняется только для фото, ожидающих загрузки
	LocalPath string `json:"localPath,omitempty"`
}

// Point объект инвентаризации (точка, линия или полигон).
// Локально точка всегда адресуется по LocalID; серверный ID появляется
// только после подтверждения сервером — оба ключа могут сосуществовать.
type Point struct {
	ID               string         `json:"id,omitempty"`
	Name             string         `json:"name"`
	Comment          string         `json:"comment,omitempty"`
	LexiqueCode      string         `json:"lexique_code,omitempty"`
	ProjectID        string         `json:"project_id,omitempty"`
	Type             string         `json:"type,omitempty"`
	Subtype          string         `json:"subtype,omitempty"`
	GeomType         GeomType       `json:"geom_type,omitempty"`
	Coordinates      []Coordinate   `json:"coordinates"`
	GPSPrecision     *float64       `json:"gps_precision,omitempty"`
	GPSSource        string         `json:"gps_source,omitempty"`
	Altitude         *float64       `json:"altitude,omitempty"`
	SyncStatus       string         `json:"sync_status,omitempty"`
	CustomProperties map[string]any `json:"custom_properties,omitempty"`
	Photos           []PhotoMeta    `json:"photos,omitempty"`
	CreatedAt        string         `json:"created_at,omitempty"`
	UpdatedAt        string         `json:"updated_at,omitempty"`

	// Локальные поля для синхронизации
	LocalID      string `json:"_localId,omitempty"`
	PendingSync  bool   `json:"_pendingSync,omitempty"`
	LastModified int64  `json:"_lastModified,omitempty"`
}

// PendingPoint точка, созданная офлайн и еще не известная серверу.
// Удаляется только после подтверждения сервером; счетчик Attempts
// монотонно растет при каждой неудачной попытке и никогда не сбрасывается.
type PendingPoint struct {
	Point
	QueuedAt time.Time `json:"_createdAt"`
	Attempts int       `json:"_attempts"`
}

// PendingPhoto фотография, ожидающая загрузки на сервер.
// Создается при неудачной загрузке (онлайн) или при съемке офлайн;
// удаляется только после подтвержденной загрузки.
type PendingPhoto struct {
	ID          string    `json:"id"`
	PointID     string    `json:"pointId"`
	Data        []byte    `json:"-"`
	GPSLat      *float64  `json:"gps_lat,omitempty"`
	GPSLng      *float64  `json:"gps_lng,omitempty"`
	GPSAccuracy *float64  `json:"gps_accuracy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	Attempts    int       `json:"attempts"`
}

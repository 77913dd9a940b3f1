package client

import (
	"context"
	"time"

	"golang.org/x/exp/slog"

	"geoclic/internal/domain/point"
)

// PhotoQueue — загрузка фотографий с офлайн-очередью. Снятая без сети
// (или не загрузившаяся) фотография хранится локально вместе с
// координатами съемки и уходит на сервер при следующем дренаже очереди.
type PhotoQueue struct {
	storage *Storage
	api     *httpClient
	monitor *Monitor
	log     *slog.Logger
}

func NewPhotoQueue(storage *Storage, api *httpClient, monitor *Monitor, log *slog.Logger) *PhotoQueue {
	return &PhotoQueue{
		storage: storage,
		api:     api,
		monitor: monitor,
		log:     log,
	}
}

// Attach привязывает фотографию к точке. Онлайн — загружает сразу,
// офлайн или при сетевой ошибке — ставит в очередь.
// Второе возвращаемое значение сообщает, что фотография отложена.
func (q *PhotoQueue) Attach(ctx context.Context, pointID string, data []byte, pos *Position) (*point.PhotoMeta, bool, error) {
	ph := point.PendingPhoto{
		PointID:   pointID,
		Data:      data,
		CreatedAt: time.Now(),
	}
	if pos != nil {
		lat, lng, acc := pos.Latitude, pos.Longitude, pos.Accuracy
		ph.GPSLat, ph.GPSLng, ph.GPSAccuracy = &lat, &lng, &acc
	}

	if q.monitor.IsOnline() {
		meta, err := q.upload(ctx, &ph)
		if err == nil {
			return meta, false, nil
		}
		if !isNetworkError(err) {
			return nil, false, err
		}
		q.monitor.SetOnline(false)
		q.log.Warn("Фотография отложена до восстановления связи", "point_id", pointID)
	}

	if err := q.storage.SavePendingPhoto(&ph); err != nil {
		return nil, false, err
	}
	return nil, true, nil
}

// DrainPending загружает очередь фотографий. Каждая неудачная загрузка
// увеличивает счетчик попыток записи; сетевой сбой прерывает дренаж,
// остаток очереди будет повторен позже.
func (q *PhotoQueue) DrainPending(ctx context.Context) (uploaded, failed int, err error) {
	pending, err := q.storage.GetPendingPhotos()
	if err != nil {
		return 0, 0, err
	}
	return q.drain(ctx, pending)
}

// DrainForPoint загружает только фотографии одной точки
func (q *PhotoQueue) DrainForPoint(ctx context.Context, pointID string) (uploaded, failed int, err error) {
	pending, err := q.storage.GetPendingPhotosByPoint(pointID)
	if err != nil {
		return 0, 0, err
	}
	return q.drain(ctx, pending)
}

func (q *PhotoQueue) drain(ctx context.Context, pending []point.PendingPhoto) (uploaded, failed int, err error) {
	for _, ph := range pending {
		meta, uerr := q.upload(ctx, &ph)
		if uerr != nil {
			failed++
			if ierr := q.storage.IncrementPendingPhotoAttempts(ph.ID); ierr != nil {
				return uploaded, failed, ierr
			}
			if isNetworkError(uerr) {
				q.monitor.SetOnline(false)
				q.log.Warn("Дренаж очереди фотографий прерван: нет связи",
					"uploaded", uploaded,
					"remaining", len(pending)-uploaded,
				)
				return uploaded, failed, nil
			}
			q.log.Warn("Ошибка загрузки фотографии", "photo_id", ph.ID, "error", uerr)
			continue
		}

		if derr := q.storage.DeletePendingPhoto(ph.ID); derr != nil {
			return uploaded, failed, derr
		}
		if merr := q.attachMeta(ph.PointID, meta); merr != nil {
			return uploaded, failed, merr
		}
		uploaded++
	}
	return uploaded, failed, nil
}

func (q *PhotoQueue) upload(ctx context.Context, ph *point.PendingPhoto) (*point.PhotoMeta, error) {
	meta, err := q.api.UploadPhoto(ctx, *ph)
	if err != nil {
		return nil, err
	}
	if meta.GPSLat == nil {
		meta.GPSLat, meta.GPSLng, meta.GPSAccuracy = ph.GPSLat, ph.GPSLng, ph.GPSAccuracy
	}
	return meta, nil
}

// attachMeta дописывает метаданные загруженной фотографии в кэш точки
func (q *PhotoQueue) attachMeta(pointID string, meta *point.PhotoMeta) error {
	local, err := q.storage.GetPoint(pointID)
	if err != nil {
		// Точка могла быть удалена, пока фотография ждала в очереди
		return nil
	}
	local.Photos = append(local.Photos, *meta)
	return q.storage.SavePoint(local)
}

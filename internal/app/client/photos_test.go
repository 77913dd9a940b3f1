package client

import (
	"context"
	"testing"

	"geoclic/internal/domain/point"
)

func seedPhotoPoint(t *testing.T, env *testEnv) *point.Point {
	t.Helper()
	p := &point.Point{
		ID:          "pt-photo",
		Name:        "Arb 01",
		SyncStatus:  point.StatusSynced,
		Coordinates: []point.Coordinate{{Latitude: 48.0, Longitude: 2.0}},
	}
	env.state.PutPoint(p)
	if err := env.storage.SavePoint(p); err != nil {
		t.Fatalf("Ошибка сохранения точки: %v", err)
	}
	return p
}

func TestPhotoAttachOnline(t *testing.T) {
	env := newTestEnv(t)
	p := seedPhotoPoint(t, env)
	env.monitor.SetOnline(true)

	pos := &Position{Latitude: 48.0001, Longitude: 2.0001, Accuracy: 4.5}
	meta, queued, err := env.photos.Attach(context.Background(), p.ID, []byte{0xFF, 0xD8}, pos)
	if err != nil {
		t.Fatalf("Ошибка загрузки фотографии: %v", err)
	}
	if queued {
		t.Error("Онлайн-загрузка не должна откладываться")
	}
	if meta == nil || meta.ID == "" {
		t.Fatal("Сервер должен вернуть метаданные фотографии")
	}
	if meta.GPSLat == nil || *meta.GPSLat != pos.Latitude {
		t.Error("Координаты съемки потеряны в метаданных")
	}

	n, _ := env.storage.CountPendingPhotos()
	if n != 0 {
		t.Errorf("Очередь фотографий должна быть пуста, получено: %d", n)
	}
}

func TestPhotoAttachOffline(t *testing.T) {
	env := newTestEnv(t)
	p := seedPhotoPoint(t, env)
	env.monitor.SetOnline(false)

	meta, queued, err := env.photos.Attach(context.Background(), p.ID, []byte{0xFF, 0xD8}, nil)
	if err != nil {
		t.Fatalf("Ошибка постановки фотографии в очередь: %v", err)
	}
	if !queued || meta != nil {
		t.Error("Офлайн фотография должна уйти в очередь")
	}

	n, _ := env.storage.CountPendingPhotos()
	if n != 1 {
		t.Fatalf("Ожидалась 1 фотография в очереди, получено: %d", n)
	}

	// Дренаж после восстановления связи загружает очередь и дописывает
	// метаданные в кэш точки
	env.monitor.SetOnline(true)
	uploaded, failed, err := env.photos.DrainPending(context.Background())
	if err != nil {
		t.Fatalf("Ошибка дренажа очереди: %v", err)
	}
	if uploaded != 1 || failed != 0 {
		t.Errorf("Ожидалось uploaded=1 failed=0, получено: %d/%d", uploaded, failed)
	}

	n, _ = env.storage.CountPendingPhotos()
	if n != 0 {
		t.Errorf("Очередь должна опустеть, получено: %d", n)
	}

	local, err := env.storage.GetPoint(p.ID)
	if err != nil {
		t.Fatalf("Ошибка чтения точки: %v", err)
	}
	if len(local.Photos) != 1 {
		t.Errorf("Метаданные фотографии не дописаны в кэш точки: %+v", local.Photos)
	}
}

func TestPhotoDrainPartialFailure(t *testing.T) {
	env := newTestEnv(t)
	p := seedPhotoPoint(t, env)
	ctx := context.Background()

	// Две фотографии в очереди, сервер отказывает в загрузке
	env.monitor.SetOnline(false)
	for i := 0; i < 2; i++ {
		if _, _, err := env.photos.Attach(ctx, p.ID, []byte{0xFF, byte(i)}, nil); err != nil {
			t.Fatalf("Ошибка постановки в очередь: %v", err)
		}
	}

	env.state.FailUploads = true
	env.monitor.SetOnline(true)
	uploaded, failed, err := env.photos.DrainPending(ctx)
	if err != nil {
		t.Fatalf("Ошибка дренажа: %v", err)
	}
	if uploaded != 0 || failed != 2 {
		t.Errorf("Ожидалось uploaded=0 failed=2, получено: %d/%d", uploaded, failed)
	}

	// Неудачные загрузки остаются в очереди с наращенным счетчиком
	photos, _ := env.storage.GetPendingPhotos()
	if len(photos) != 2 {
		t.Fatalf("Очередь должна сохраниться, получено: %d", len(photos))
	}
	for _, ph := range photos {
		if ph.Attempts != 1 {
			t.Errorf("Ожидалась 1 попытка, получено: %d", ph.Attempts)
		}
	}

	// После восстановления хранилища очередь дренируется полностью
	env.state.FailUploads = false
	uploaded, failed, err = env.photos.DrainPending(ctx)
	if err != nil {
		t.Fatalf("Ошибка повторного дренажа: %v", err)
	}
	if uploaded != 2 || failed != 0 {
		t.Errorf("Ожидалось uploaded=2 failed=0, получено: %d/%d", uploaded, failed)
	}
}

func TestPhotoDrainForPoint(t *testing.T) {
	env := newTestEnv(t)
	p := seedPhotoPoint(t, env)
	other := &point.Point{
		ID:          "pt-other",
		Name:        "Ban 01",
		Coordinates: []point.Coordinate{{Latitude: 47.0, Longitude: 1.0}},
	}
	env.state.PutPoint(other)
	if err := env.storage.SavePoint(other); err != nil {
		t.Fatalf("Ошибка сохранения точки: %v", err)
	}

	ctx := context.Background()
	env.monitor.SetOnline(false)
	env.photos.Attach(ctx, p.ID, []byte{0x01}, nil)
	env.photos.Attach(ctx, other.ID, []byte{0x02}, nil)

	env.monitor.SetOnline(true)
	uploaded, _, err := env.photos.DrainForPoint(ctx, p.ID)
	if err != nil {
		t.Fatalf("Ошибка дренажа точки: %v", err)
	}
	if uploaded != 1 {
		t.Errorf("Ожидалась 1 загрузка, получено: %d", uploaded)
	}

	// Очередь другой точки не тронута
	rest, _ := env.storage.GetPendingPhotosByPoint(other.ID)
	if len(rest) != 1 {
		t.Errorf("Очередь другой точки должна сохраниться, получено: %d", len(rest))
	}
}

package client

import (
	"context"
	"errors"
	"testing"

	"geoclic/internal/domain/lexique"
	"geoclic/internal/domain/point"
)

func TestCategoryPrefix(t *testing.T) {
	cases := []struct {
		label string
		want  string
	}{
		{"Arbre", "Arb"},
		{"arbre", "Arb"},
		{"BANC", "Ban"},
		{"Point lumineux", "PoiL"},
		{"panneau signalisation", "PanS"},
		{"Ab", "Ab"},
		{"", "Elm"},
		{"   ", "Elm"},
	}

	for _, c := range cases {
		if got := CategoryPrefix(c.label); got != c.want {
			t.Errorf("CategoryPrefix(%q) = %q, ожидалось %q", c.label, got, c.want)
		}
	}
}

func TestNextFreeName(t *testing.T) {
	cases := []struct {
		name     string
		existing []string
		want     string
	}{
		{"пустой список", nil, "Arb 01"},
		{"последовательная нумерация", []string{"Arb 01", "Arb 02"}, "Arb 03"},
		{"переиспользование дыры", []string{"Arb 01", "Arb 03"}, "Arb 02"},
		{"без учета регистра", []string{"arb 01", "ARB 02"}, "Arb 03"},
		{"чужие имена игнорируются", []string{"Ban 01", "мой объект"}, "Arb 01"},
		{"номер без ведущего нуля", []string{"Arb 1", "Arb 2"}, "Arb 03"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := nextFreeName("Arb", c.existing); got != c.want {
				t.Errorf("nextFreeName = %q, ожидалось %q", got, c.want)
			}
		})
	}
}

func TestNameAllocator(t *testing.T) {
	s := newTestStorage(t)
	if err := s.SavePoint(&point.Point{Name: "Elm 01"}); err != nil {
		t.Fatalf("Ошибка сохранения точки: %v", err)
	}

	alloc := NewNameAllocator(s)

	// Категория без названия получает запасной префикс
	name, err := alloc.Next("", "")
	if err != nil {
		t.Fatalf("Ошибка выдачи имени: %v", err)
	}
	if name != "Elm 02" {
		t.Errorf("Ожидалось Elm 02, получено: %q", name)
	}

	// Выданное, но еще не сохраненное имя не выдается повторно
	name2, _ := alloc.Next("", "")
	if name2 != "Elm 03" {
		t.Errorf("Ожидалось Elm 03, получено: %q", name2)
	}

	// Возвращенное имя снова доступно
	alloc.Release(name)
	name3, _ := alloc.Next("", "")
	if name3 != "Elm 02" {
		t.Errorf("Ожидалось Elm 02 после возврата, получено: %q", name3)
	}
}

func TestCreatePointAutoName(t *testing.T) {
	env := newTestEnv(t)

	if err := env.storage.SaveLexique([]lexique.Item{
		{Code: "EV-ARB", Label: "Arbre", ParentCode: "EV", Level: 2},
	}); err != nil {
		t.Fatalf("Ошибка сохранения лексикона: %v", err)
	}

	env.monitor.SetOnline(false)
	for i, want := range []string{"Arb 01", "Arb 02"} {
		p, err := env.points.CreatePoint(context.Background(), point.CreateRequest{
			LexiqueCode: "EV-ARB",
			GeomType:    point.GeomPoint,
			Coordinates: []point.Coordinate{{Latitude: 48.0 + float64(i), Longitude: 2.0}},
		})
		if err != nil {
			t.Fatalf("Ошибка создания точки: %v", err)
		}
		if p.Name != want {
			t.Errorf("Ожидалось имя %q, получено: %q", want, p.Name)
		}
	}
}

func TestCheckDuplicateLocal(t *testing.T) {
	env := newTestEnv(t)
	env.monitor.SetOnline(false)
	ctx := context.Background()

	if err := env.storage.SavePoint(&point.Point{
		Name:        "Arb 01",
		Coordinates: []point.Coordinate{{Latitude: 48.8566, Longitude: 2.3522}},
	}); err != nil {
		t.Fatalf("Ошибка сохранения точки: %v", err)
	}

	// Точка в ~6 метрах попадает в радиус по умолчанию
	check, err := env.points.CheckDuplicate(ctx, 48.85664, 2.35226, 0)
	if err != nil {
		t.Fatalf("Ошибка проверки дубликатов: %v", err)
	}
	if !check.HasDuplicate {
		t.Fatal("Дубликат в 6 метрах не найден")
	}
	if check.SearchRadius != env.cfg.DuplicateRadius {
		t.Errorf("Нулевой радиус должен замениться радиусом из конфигурации, получено: %f", check.SearchRadius)
	}
	if check.MinDistance == nil {
		t.Fatal("MinDistance не заполнено")
	}
	if *check.MinDistance < 5.5 || *check.MinDistance > 7.0 {
		t.Errorf("Ожидалось расстояние около 6.2 м, получено: %f", *check.MinDistance)
	}

	// Вне радиуса дубликатов нет
	check, err = env.points.CheckDuplicate(ctx, 48.86, 2.36, 10)
	if err != nil {
		t.Fatalf("Ошибка проверки дубликатов: %v", err)
	}
	if check.HasDuplicate {
		t.Error("Точка в сотнях метров не должна считаться дубликатом")
	}
}

func TestCheckDuplicateOnline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.state.PutPoint(&point.Point{
		Name:        "Arb 01",
		Coordinates: []point.Coordinate{{Latitude: 48.8566, Longitude: 2.3522}},
	})

	env.monitor.SetOnline(true)
	check, err := env.points.CheckDuplicate(ctx, 48.85664, 2.35226, 10)
	if err != nil {
		t.Fatalf("Ошибка проверки дубликатов: %v", err)
	}
	if !check.HasDuplicate {
		t.Error("Сервер должен найти дубликат в 6 метрах")
	}
	if len(check.NearbyPoints) != 1 || check.NearbyPoints[0].Name != "Arb 01" {
		t.Errorf("Неверный список соседей: %+v", check.NearbyPoints)
	}

	// Радиус за пределами допуска ограничивается до 1000 м
	check, err = env.points.CheckDuplicate(ctx, 48.85, 2.35, 5000)
	if err != nil {
		t.Fatalf("Ошибка проверки дубликатов: %v", err)
	}
	if check.SearchRadius != 1000 {
		t.Errorf("Радиус должен быть ограничен 1000 м, получено: %f", check.SearchRadius)
	}
}

func TestDeletePointOffline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Точка из очереди удаляется офлайн вместе с записью очереди
	queued := env.queueOffline(t, "Arb 01", 48.0, 2.0)
	if err := env.points.DeletePoint(ctx, queued.ID); err != nil {
		t.Fatalf("Ошибка удаления отложенной точки: %v", err)
	}
	n, _ := env.storage.CountPendingPoints()
	if n != 0 {
		t.Errorf("Запись очереди должна быть удалена, осталось: %d", n)
	}

	// Серверная точка офлайн исчезает локально; серверная копия
	// вернется со следующей выгрузкой
	synced := &point.Point{
		Name:        "Arb 02",
		SyncStatus:  point.StatusSynced,
		Coordinates: []point.Coordinate{{Latitude: 48.1, Longitude: 2.1}},
	}
	if err := env.storage.SavePoint(synced); err != nil {
		t.Fatalf("Ошибка сохранения точки: %v", err)
	}
	if err := env.points.DeletePoint(ctx, synced.ID); err != nil {
		t.Fatalf("Офлайн-удаление должно удалять локально: %v", err)
	}
	if _, err := env.storage.GetPoint(synced.ID); !errors.Is(err, point.ErrNotFound) {
		t.Errorf("Точка должна исчезнуть из кэша, получено: %v", err)
	}
}

func TestDeletePointRemoteGone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Точка есть в кэше, но сервер ее уже не знает: 404 не мешает удалению
	stale := &point.Point{
		ID:          "pt-stale",
		Name:        "Ban 01",
		SyncStatus:  point.StatusSynced,
		Coordinates: []point.Coordinate{{Latitude: 48.2, Longitude: 2.2}},
	}
	if err := env.storage.SavePoint(stale); err != nil {
		t.Fatalf("Ошибка сохранения точки: %v", err)
	}

	env.monitor.SetOnline(true)
	if err := env.points.DeletePoint(ctx, stale.ID); err != nil {
		t.Fatalf("Удаление исчезнувшей на сервере точки: %v", err)
	}
	if _, err := env.storage.GetPoint(stale.ID); !errors.Is(err, point.ErrNotFound) {
		t.Errorf("Точка должна исчезнуть из кэша, получено: %v", err)
	}
}

func TestUpdatePointOffline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	synced := &point.Point{
		Name:        "Arb 01",
		SyncStatus:  point.StatusSynced,
		Coordinates: []point.Coordinate{{Latitude: 48.0, Longitude: 2.0}},
	}
	if err := env.storage.SavePoint(synced); err != nil {
		t.Fatalf("Ошибка сохранения точки: %v", err)
	}

	env.monitor.SetOnline(false)
	comment := "правка без сети"
	updated, err := env.points.UpdatePoint(ctx, synced.ID, point.UpdateRequest{Comment: &comment})
	if err != nil {
		t.Fatalf("Ошибка офлайн-правки: %v", err)
	}
	if updated.Comment != comment {
		t.Errorf("Правка не применена: %q", updated.Comment)
	}
	if !updated.PendingSync || updated.SyncStatus != point.StatusPending {
		t.Error("Офлайн-правка должна пометить точку ожидающей синхронизации")
	}

	n, _ := env.storage.CountPendingPoints()
	if n != 1 {
		t.Errorf("Правка должна попасть в очередь, получено: %d", n)
	}
}

func TestLexiquePath(t *testing.T) {
	env := newTestEnv(t)

	if err := env.storage.SaveLexique([]lexique.Item{
		{Code: "EV", Label: "Espaces verts", Level: 1},
		{Code: "EV-ARB", Label: "Arbre", ParentCode: "EV", Level: 2},
		{Code: "EV-ARB-PLT", Label: "Arbre planté", ParentCode: "EV-ARB", Level: 3},
	}); err != nil {
		t.Fatalf("Ошибка сохранения лексикона: %v", err)
	}

	if got := env.points.LexiquePath("EV-ARB-PLT"); got != "Espaces verts > Arbre > Arbre planté" {
		t.Errorf("Неверный путь категории: %q", got)
	}
	// Неизвестный код возвращается как есть
	if got := env.points.LexiquePath("XX"); got != "XX" {
		t.Errorf("Ожидался сам код, получено: %q", got)
	}
}

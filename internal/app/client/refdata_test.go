package client

import (
	"context"
	"errors"
	"testing"

	"geoclic/internal/domain/lexique"
)

func TestRefDataRefresh(t *testing.T) {
	env := newTestEnv(t)
	refdata := NewRefData(env.storage, env.api, env.monitor, env.log)
	ctx := context.Background()

	env.state.SeedRefData(
		[]lexique.Item{
			{Code: "EV", Label: "Espaces verts", Level: 1},
			{Code: "EV-ARB", Label: "Arbre", ParentCode: "EV", Level: 2},
		},
		[]lexique.Project{{ID: "prj-1", Name: "Inventaire"}},
		[]lexique.ChampDynamique{{ID: "ch-1", LexiqueCode: "EV-ARB", Nom: "Essence", Ordre: 1}},
	)

	// Без сети обновление недоступно
	env.monitor.SetOnline(false)
	if err := refdata.Refresh(ctx, false); !errors.Is(err, ErrOffline) {
		t.Errorf("Ожидалась ErrOffline, получено: %v", err)
	}

	env.monitor.SetOnline(true)
	if err := refdata.Refresh(ctx, false); err != nil {
		t.Fatalf("Ошибка обновления справочников: %v", err)
	}

	stats, _ := env.storage.Stats()
	if stats.Lexique != 2 || stats.Projects != 1 || stats.Champs != 1 {
		t.Errorf("Справочники загружены не полностью: %+v", stats)
	}

	version, _ := refdata.LexiqueVersion()
	if version != "emulator-1" {
		t.Errorf("Версия лексикона не сохранена: %q", version)
	}

	// Добавляющее обновление не удаляет локальные записи
	if err := env.storage.SaveLexique([]lexique.Item{{Code: "OLD", Label: "Устаревший", Level: 1}}); err != nil {
		t.Fatalf("Ошибка сохранения узла: %v", err)
	}
	if err := refdata.Refresh(ctx, false); err != nil {
		t.Fatalf("Ошибка обновления: %v", err)
	}
	if _, err := env.storage.GetLexiqueItem("OLD"); err != nil {
		t.Error("Добавляющее обновление не должно удалять локальные узлы")
	}

	// Полная замена удаляет отсутствующие на сервере записи
	if err := refdata.Refresh(ctx, true); err != nil {
		t.Fatalf("Ошибка полной замены: %v", err)
	}
	if _, err := env.storage.GetLexiqueItem("OLD"); err == nil {
		t.Error("Полная замена должна удалить устаревший узел")
	}
	stats, _ = env.storage.Stats()
	if stats.Lexique != 2 {
		t.Errorf("После замены ожидалось 2 узла, получено: %d", stats.Lexique)
	}
}

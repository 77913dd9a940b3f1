package client

import (
	"testing"

	"geoclic/internal/domain/lexique"
)

func TestChampsForLexique(t *testing.T) {
	env := newTestEnv(t)

	if err := env.storage.SaveLexique([]lexique.Item{
		{Code: "EV", Label: "Espaces verts", Level: 1},
		{Code: "EV-ARB", Label: "Arbre", ParentCode: "EV", Level: 2},
	}); err != nil {
		t.Fatalf("Ошибка сохранения лексикона: %v", err)
	}

	champs := []lexique.ChampDynamique{
		// Поле корня наследуется листом
		{ID: "ch-etat", LexiqueCode: "EV", Nom: "État général", Ordre: 3},
		// Поле листа
		{ID: "ch-essence", LexiqueCode: "EV-ARB", Nom: "Essence", Ordre: 1},
		// Переопределение: лист побеждает корень
		{ID: "ch-note", LexiqueCode: "EV-ARB", Nom: "Note (arbre)", Ordre: 2},
		{ID: "ch-note", LexiqueCode: "EV", Nom: "Note (générale)", Ordre: 5},
		// Поле чужого проекта отбрасывается
		{ID: "ch-autre", LexiqueCode: "EV-ARB", Nom: "Чужое", Ordre: 4, ProjectID: "prj-autre"},
	}
	if err := env.storage.SaveChamps(champs); err != nil {
		t.Fatalf("Ошибка сохранения полей: %v", err)
	}

	got, err := env.points.ChampsForLexique("EV-ARB", "prj-1")
	if err != nil {
		t.Fatalf("Ошибка сборки полей: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("Ожидалось 3 поля, получено: %d", len(got))
	}
	// Порядок по ordre: Essence (1), Note (2), État (3)
	wantOrder := []string{"ch-essence", "ch-note", "ch-etat"}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Errorf("Позиция %d: ожидалось %s, получено %s", i, id, got[i].ID)
		}
	}
	// Переопределение листа победило
	for _, ch := range got {
		if ch.ID == "ch-note" && ch.Nom != "Note (arbre)" {
			t.Errorf("Определение листа должно победить, получено: %q", ch.Nom)
		}
	}

	// Без фильтра проекта поле чужого проекта возвращается
	got, err = env.points.ChampsForLexique("EV-ARB", "")
	if err != nil {
		t.Fatalf("Ошибка сборки полей: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("Без фильтра ожидалось 4 поля, получено: %d", len(got))
	}
}

func TestChampsForLexiqueCycle(t *testing.T) {
	env := newTestEnv(t)

	// Цикл в справочнике не должен зацикливать обход
	if err := env.storage.SaveLexique([]lexique.Item{
		{Code: "A", Label: "A", ParentCode: "B", Level: 1},
		{Code: "B", Label: "B", ParentCode: "A", Level: 1},
	}); err != nil {
		t.Fatalf("Ошибка сохранения лексикона: %v", err)
	}
	if err := env.storage.SaveChamps([]lexique.ChampDynamique{
		{ID: "ch-a", LexiqueCode: "A", Nom: "A", Ordre: 1},
		{ID: "ch-b", LexiqueCode: "B", Nom: "B", Ordre: 2},
	}); err != nil {
		t.Fatalf("Ошибка сохранения полей: %v", err)
	}

	got, err := env.points.ChampsForLexique("A", "")
	if err != nil {
		t.Fatalf("Ошибка сборки полей: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Ожидалось 2 поля, получено: %d", len(got))
	}
}

// Эмулятор сервера Geoclic для локальной разработки клиента.
// Все данные держит в памяти; при старте засевает небольшой лексикон.
package main

import (
	"fmt"
	"net/http"
	"os"

	"geoclic/internal/app/emulator"
	"geoclic/internal/domain/lexique"
	"geoclic/internal/utils/logger"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	log := logger.New(env)

	addr := os.Getenv("EMULATOR_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	state := emulator.NewState()
	state.SeedRefData(demoLexique(), demoProjects(), demoChamps())

	mux := emulator.New(state, log)

	log.Info("Эмулятор Geoclic запущен", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка сервера: %v\n", err)
		os.Exit(1)
	}
}

func demoLexique() []lexique.Item {
	return []lexique.Item{
		{Code: "EV", Label: "Espaces verts", Level: 1, DisplayOrder: 1, IsActive: true},
		{Code: "EV-ARB", Label: "Arbre", ParentCode: "EV", Level: 2, DisplayOrder: 1, IsActive: true},
		{Code: "EV-ARB-PLT", Label: "Arbre planté", ParentCode: "EV-ARB", Level: 3, DisplayOrder: 1, IsActive: true},
		{Code: "VO", Label: "Voirie", Level: 1, DisplayOrder: 2, IsActive: true},
		{Code: "VO-PAN", Label: "Panneau", ParentCode: "VO", Level: 2, DisplayOrder: 1, IsActive: true},
		{Code: "EC", Label: "Éclairage public", Level: 1, DisplayOrder: 3, IsActive: true},
		{Code: "EC-POI", Label: "Point lumineux", ParentCode: "EC", Level: 2, DisplayOrder: 1, IsActive: true},
	}
}

func demoProjects() []lexique.Project {
	return []lexique.Project{
		{ID: "prj-centre", Name: "Inventaire centre-ville", CollectiviteName: "Mairie de Demo", Status: "active", IsActive: true},
		{ID: "prj-parcs", Name: "Inventaire des parcs", CollectiviteName: "Mairie de Demo", Status: "active", IsActive: true},
	}
}

func demoChamps() []lexique.ChampDynamique {
	min, max := 0.0, 50.0
	return []lexique.ChampDynamique{
		{ID: "ch-essence", LexiqueCode: "EV-ARB", Nom: "Essence", Type: lexique.TypeSelect, Obligatoire: true, Ordre: 1,
			Options: []string{"Platane", "Tilleul", "Chêne", "Érable"}},
		{ID: "ch-hauteur", LexiqueCode: "EV-ARB", Nom: "Hauteur (m)", Type: lexique.TypeNumber, Ordre: 2, Min: &min, Max: &max},
		{ID: "ch-etat", LexiqueCode: "EV", Nom: "État général", Type: lexique.TypeSelect, Ordre: 3,
			Options: []string{"Bon", "Moyen", "Mauvais"}},
		{ID: "ch-malade", LexiqueCode: "EV-ARB", Nom: "Maladie constatée", Type: lexique.TypeText, Ordre: 4,
			ConditionField: "ch-etat", ConditionOperator: "!=", ConditionValue: "Bon"},
	}
}

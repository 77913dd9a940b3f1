package lexique

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVisibleFor(t *testing.T) {
	values := map[string]any{
		"ch-etat":    "Mauvais",
		"ch-essence": "Platane",
		"ch-note":    "",
		"ch-nombre":  3,
	}

	tests := []struct {
		name  string
		champ ChampDynamique
		want  bool
	}{
		{
			name:  "без условия видимо всегда",
			champ: ChampDynamique{ID: "ch-1"},
			want:  true,
		},
		{
			name:  "равенство выполняется",
			champ: ChampDynamique{ConditionField: "ch-etat", ConditionOperator: "=", ConditionValue: "Mauvais"},
			want:  true,
		},
		{
			name:  "равенство не выполняется",
			champ: ChampDynamique{ConditionField: "ch-etat", ConditionOperator: "=", ConditionValue: "Bon"},
			want:  false,
		},
		{
			name:  "неравенство",
			champ: ChampDynamique{ConditionField: "ch-etat", ConditionOperator: "!=", ConditionValue: "Bon"},
			want:  true,
		},
		{
			name:  "contains",
			champ: ChampDynamique{ConditionField: "ch-essence", ConditionOperator: "contains", ConditionValue: "tan"},
			want:  true,
		},
		{
			name:  "not_empty с пустым значением",
			champ: ChampDynamique{ConditionField: "ch-note", ConditionOperator: "not_empty"},
			want:  false,
		},
		{
			name:  "not_empty с числом",
			champ: ChampDynamique{ConditionField: "ch-nombre", ConditionOperator: "not_empty"},
			want:  true,
		},
		{
			name:  "отсутствующее поле трактуется как пустое",
			champ: ChampDynamique{ConditionField: "ch-inconnu", ConditionOperator: "=", ConditionValue: "x"},
			want:  false,
		},
		{
			name:  "неизвестный оператор показывает поле",
			champ: ChampDynamique{ConditionField: "ch-etat", ConditionOperator: "regex", ConditionValue: ".*"},
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.champ.VisibleFor(values))
		})
	}
}

package lexique

import (
	"fmt"
	"strings"
)

// VisibleFor проверяет, должно ли условное поле показываться при текущих
// значениях формы. Поле без условия видимо всегда. Неизвестный оператор
// трактуется как видимое поле: лучше показать лишнее, чем потерять ввод.
func (c ChampDynamique) VisibleFor(values map[string]any) bool {
	if c.ConditionField == "" || c.ConditionOperator == "" {
		return true
	}

	raw, ok := values[c.ConditionField]
	actual := ""
	if ok && raw != nil {
		actual = fmt.Sprintf("%v", raw)
	}

	switch c.ConditionOperator {
	case "=":
		return actual == c.ConditionValue
	case "!=":
		return actual != c.ConditionValue
	case "contains":
		return strings.Contains(actual, c.ConditionValue)
	case "not_empty":
		return actual != ""
	default:
		return true
	}
}

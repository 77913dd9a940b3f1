// Package lexique содержит справочные данные клиента: иерархический
// лексикон категорий, проекты и динамические поля. Все три сущности —
// read-only зеркала серверных данных: они загружаются целиком при наличии
// сети и никогда не изменяются локально, только заменяются.
package lexique

import (
	"fmt"
	"sort"
)

// Item узел классификации (семья → тип → подтип ...)
type Item struct {
	Code         string `json:"code"`
	Label        string `json:"label"`
	ParentCode   string `json:"parent_code,omitempty"`
	Level        int    `json:"level"`
	IconName     string `json:"icon_name,omitempty"`
	ColorValue   any    `json:"color_value,omitempty"` // int ARGB из БД либо hex-строка из sync
	DisplayOrder int    `json:"display_order,omitempty"`
	IsActive     bool   `json:"is_active,omitempty"`
	ProjectID    string `json:"project_id,omitempty"`
	FullPath     string `json:"full_path,omitempty"`
}

// Project проект инвентаризации
type Project struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	CollectiviteName string `json:"collectivite_name,omitempty"`
	Status           string `json:"status,omitempty"`
	IsActive         bool   `json:"is_active,omitempty"`
}

// ChampDynamique определение динамического поля, привязанного к коду
// лексикона. Поле может показываться условно, в зависимости от значения
// другого поля (ConditionField/Operator/Value).
type ChampDynamique struct {
	ID           string   `json:"id"`
	LexiqueCode  string   `json:"lexique_code"`
	Nom          string   `json:"nom"`
	Type         string   `json:"type"`
	Obligatoire  bool     `json:"obligatoire"`
	Ordre        int      `json:"ordre"`
	Options      []string `json:"options,omitempty"`
	Min          *float64 `json:"min,omitempty"`
	Max          *float64 `json:"max,omitempty"`
	DefaultValue string   `json:"default_value,omitempty"`
	ProjectID    string   `json:"project_id,omitempty"`

	ConditionField    string `json:"condition_field,omitempty"`
	ConditionOperator string `json:"condition_operator,omitempty"` // '=', '!=', 'contains', 'not_empty'
	ConditionValue    string `json:"condition_value,omitempty"`
}

// Известные типы динамических полей
const (
	TypeText        = "text"
	TypeNumber      = "number"
	TypeDate        = "date"
	TypeSelect      = "select"
	TypeMultiselect = "multiselect"
	TypePhoto       = "photo"
	TypeCheckbox    = "checkbox"
	TypeSlider      = "slider"
)

// NormalizeColor приводит color_value (int ARGB из GET /lexique либо
// hex-строка из sync) к CSS-строке #rrggbb.
func NormalizeColor(color any) string {
	switch c := color.(type) {
	case nil:
		return ""
	case string:
		if c == "" {
			return ""
		}
		if c[0] == '#' {
			return c
		}
		return "#" + c
	case float64:
		return argbToHex(int64(c))
	case int:
		return argbToHex(int64(c))
	case int64:
		return argbToHex(c)
	default:
		return ""
	}
}

func argbToHex(v int64) string {
	r := (v >> 16) & 0xFF
	g := (v >> 8) & 0xFF
	b := v & 0xFF
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// Node узел иерархического дерева лексикона
type Node struct {
	Item
	Children []*Node `json:"children"`
}

// BuildTree строит дерево из плоского списка. Узлы без известного
// родителя (или первого уровня) становятся корнями; порядок — по
// display_order, затем по label.
func BuildTree(items []Item) []*Node {
	nodes := make(map[string]*Node, len(items))
	for _, it := range items {
		nodes[it.Code] = &Node{Item: it, Children: []*Node{}}
	}

	var roots []*Node
	for _, it := range items {
		node := nodes[it.Code]
		if parent, ok := nodes[it.ParentCode]; ok && it.ParentCode != "" {
			parent.Children = append(parent.Children, node)
		} else if it.ParentCode == "" || it.Level == 1 {
			roots = append(roots, node)
		}
	}

	var sortNodes func([]*Node)
	sortNodes = func(ns []*Node) {
		sort.SliceStable(ns, func(i, j int) bool {
			if ns[i].DisplayOrder != ns[j].DisplayOrder {
				return ns[i].DisplayOrder < ns[j].DisplayOrder
			}
			return ns[i].Label < ns[j].Label
		})
		for _, n := range ns {
			sortNodes(n.Children)
		}
	}
	sortNodes(roots)

	return roots
}

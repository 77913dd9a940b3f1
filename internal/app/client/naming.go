package client

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"geoclic/internal/domain/point"
)

// fallbackPrefix используется для категорий без названия
const fallbackPrefix = "Elm"

// CategoryPrefix строит короткий префикс имени из названия категории:
// одно слово дает первые три буквы, два и более — три буквы первого
// слова плюс инициал второго.
func CategoryPrefix(label string) string {
	words := strings.Fields(strings.TrimSpace(label))
	if len(words) == 0 {
		return fallbackPrefix
	}

	first := []rune(words[0])
	if len(first) > 3 {
		first = first[:3]
	}
	prefix := capitalize(string(first))

	if len(words) > 1 {
		second := []rune(words[1])
		prefix += strings.ToUpper(string(second[0]))
	}
	return prefix
}

func capitalize(s string) string {
	r := []rune(strings.ToLower(s))
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// NameAllocator выдает имена вида "Префикс NN", переиспользуя наименьший
// свободный номер среди существующих точек. Защищен мьютексом: два
// конкурентных вызова никогда не вернут одно имя.
type NameAllocator struct {
	mu      sync.Mutex
	storage *Storage

	// Имена, выданные в текущей сессии, но еще не сохраненные
	reserved map[string]struct{}
}

func NewNameAllocator(storage *Storage) *NameAllocator {
	return &NameAllocator{
		storage:  storage,
		reserved: make(map[string]struct{}),
	}
}

// Next выдает следующее свободное имя для категории в рамках проекта
// (projectID пустой — по всем точкам)
func (a *NameAllocator) Next(categoryLabel, projectID string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var (
		pts []point.Point
		err error
	)
	if projectID != "" {
		pts, err = a.storage.GetPointsByProject(projectID)
	} else {
		pts, err = a.storage.GetAllPoints()
	}
	if err != nil {
		return "", fmt.Errorf("ошибка чтения точек для нумерации: %w", err)
	}

	names := make([]string, 0, len(pts)+len(a.reserved))
	for _, p := range pts {
		names = append(names, p.Name)
	}
	for n := range a.reserved {
		names = append(names, n)
	}

	name := nextFreeName(CategoryPrefix(categoryLabel), names)
	a.reserved[name] = struct{}{}
	return name, nil
}

// Release возвращает зарезервированное имя, если точка не была создана
func (a *NameAllocator) Release(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.reserved, name)
}

// Reset сбрасывает резервы текущей сессии
func (a *NameAllocator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reserved = make(map[string]struct{})
}

// nextFreeName находит наименьший свободный номер для префикса.
// Сравнение без учета регистра: "arb 01" занимает номер у префикса "Arb".
func nextFreeName(prefix string, existing []string) string {
	re := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(prefix) + `\s+(\d+)$`)

	used := make(map[int]bool)
	for _, name := range existing {
		m := re.FindStringSubmatch(strings.TrimSpace(name))
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			used[n] = true
		}
	}

	n := 1
	for used[n] {
		n++
	}
	return fmt.Sprintf("%s %02d", prefix, n)
}

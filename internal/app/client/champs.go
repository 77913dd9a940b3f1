package client

import (
	"context"
	"sort"

	"geoclic/internal/domain/lexique"
)

// ChampsForLexique возвращает динамические поля категории с учетом
// наследования: поля собираются по цепочке от листа к корню, при
// совпадении id побеждает определение ближе к листу. Поля, привязанные
// к другому проекту, отбрасываются; глобальные остаются.
func (ps *PointsStore) ChampsForLexique(code, projectID string) ([]lexique.ChampDynamique, error) {
	var result []lexique.ChampDynamique
	seen := make(map[string]bool)
	visited := make(map[string]bool)

	for code != "" && !visited[code] {
		visited[code] = true

		champs, err := ps.storage.GetChampsByLexique(code)
		if err != nil {
			return nil, err
		}
		for _, ch := range champs {
			if seen[ch.ID] {
				continue
			}
			if projectID != "" && ch.ProjectID != "" && ch.ProjectID != projectID {
				continue
			}
			seen[ch.ID] = true
			result = append(result, ch)
		}

		item, err := ps.storage.GetLexiqueItem(code)
		if err != nil {
			break
		}
		code = item.ParentCode
	}

	sort.SliceStable(result, func(i, j int) bool { return result[i].Ordre < result[j].Ordre })
	return result, nil
}

// LoadChampsForLexique обновляет поля категории с сервера (при наличии
// сети) и возвращает разрешенный список с наследованием
func (ps *PointsStore) LoadChampsForLexique(ctx context.Context, code, projectID string) ([]lexique.ChampDynamique, error) {
	if ps.monitor.IsOnline() {
		champs, err := ps.api.GetChampsForLexique(ctx, code)
		if err == nil {
			if err := ps.storage.SaveChamps(champs); err != nil {
				return nil, err
			}
		} else if isNetworkError(err) {
			ps.monitor.SetOnline(false)
		} else {
			return nil, err
		}
	}
	return ps.ChampsForLexique(code, projectID)
}

package point

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Валидация выполняется на границе API: полезные нагрузки не доверяются
// неявно, а проверяются при разборе.
var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateCreate валидирует запрос создания точки
func ValidateCreate(req CreateRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("невалидный запрос создания точки: %w", err)
	}
	if req.GeomType == GeomPolygon && len(req.Coordinates) < 3 {
		return fmt.Errorf("полигон требует минимум 3 координаты, получено %d", len(req.Coordinates))
	}
	if req.GeomType == GeomLineString && len(req.Coordinates) < 2 {
		return fmt.Errorf("линия требует минимум 2 координаты, получено %d", len(req.Coordinates))
	}
	return nil
}

// ValidateUpdate валидирует частичное обновление
func ValidateUpdate(req UpdateRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("невалидный запрос обновления точки: %w", err)
	}
	return nil
}

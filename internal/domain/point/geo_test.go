package point

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversine(t *testing.T) {
	// Совпадающие координаты
	assert.Equal(t, 0.0, Haversine(48.8566, 2.3522, 48.8566, 2.3522))

	// Две съемки одного объекта в нескольких метрах друг от друга
	d := Haversine(48.8566, 2.3522, 48.85664, 2.35226)
	assert.InDelta(t, 6.2, d, 0.5)

	// Париж — Лондон, порядок 340 км
	d = Haversine(48.8566, 2.3522, 51.5074, -0.1278)
	assert.InDelta(t, 344000, d, 5000)

	// Симметрия
	assert.InDelta(t,
		Haversine(48.0, 2.0, 47.0, 1.0),
		Haversine(47.0, 1.0, 48.0, 2.0),
		1e-9,
	)
}

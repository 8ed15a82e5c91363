package world

// LODState уровень детализации чанка
type LODState uint8

const (
	Detailed   LODState = iota // Отдельные живые блоки
	Simplified                 // Объединённая геометрия вместо блоков
)

// String возвращает имя состояния
func (s LODState) String() string {
	if s == Simplified {
		return "simplified"
	}
	return "detailed"
}

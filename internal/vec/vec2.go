package vec

import "math"

// Vec2 представляет координаты колонки в горизонтальной плоскости XZ.
// Используется как ключ чанка (cx, cz).
type Vec2 struct {
	X, Z int
}

// Origin возвращает мировую позицию угла чанка с этими координатами
func (v Vec2) Origin(chunkSize int) Vec3 {
	return Vec3{X: v.X * chunkSize, Y: 0, Z: v.Z * chunkSize}
}

// DistanceTo вычисляет расстояние до другой точки
func (v Vec2) DistanceTo(other Vec2) float64 {
	dx := float64(v.X - other.X)
	dz := float64(v.Z - other.Z)
	return math.Sqrt(dx*dx + dz*dz)
}

// Less задаёт порядок обхода чанков: сначала по X, затем по Z
func (v Vec2) Less(other Vec2) bool {
	if v.X != other.X {
		return v.X < other.X
	}
	return v.Z < other.Z
}

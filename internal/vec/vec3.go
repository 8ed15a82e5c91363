package vec

// Vec3 представляет трехмерный вектор с целочисленными координатами.
// Это позиция блока или дерева в мире.
type Vec3 struct {
	X int
	Y int
	Z int
}

// Column возвращает проекцию позиции на плоскость XZ
func (v Vec3) Column() Vec2 {
	return Vec2{X: v.X, Z: v.Z}
}

// ChunkCoords возвращает координаты чанка, которому принадлежит позиция.
// Деление с округлением вниз, чтобы отрицательные позиции попадали в отрицательные чанки.
func (v Vec3) ChunkCoords(chunkSize int) Vec2 {
	return Vec2{X: floorDiv(v.X, chunkSize), Z: floorDiv(v.Z, chunkSize)}
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Less задаёт лексикографический порядок (X, Y, Z)
func (v Vec3) Less(other Vec3) bool {
	if v.X != other.X {
		return v.X < other.X
	}
	if v.Y != other.Y {
		return v.Y < other.Y
	}
	return v.Z < other.Z
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

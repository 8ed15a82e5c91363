package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// ColliderKind флаг столкновений объекта мира
type ColliderKind uint8

const (
	ColliderNone ColliderKind = iota // Объект не участвует в столкновениях
	ColliderBox                      // Прямоугольный коллайдер отдельного блока или дерева
	ColliderMesh                     // Коллайдер по объединённой геометрии упрощённого чанка
)

// String возвращает имя флага
func (k ColliderKind) String() string {
	switch k {
	case ColliderBox:
		return "box"
	case ColliderMesh:
		return "mesh"
	default:
		return "none"
	}
}

// AABB выровненный по осям параллелепипед
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// ContainsPoint проверяет, находится ли точка внутри (граница Max не включается)
func (b AABB) ContainsPoint(p mgl64.Vec3) bool {
	return p.X() >= b.Min.X() && p.X() < b.Max.X() &&
		p.Y() >= b.Min.Y() && p.Y() < b.Max.Y() &&
		p.Z() >= b.Min.Z() && p.Z() < b.Max.Z()
}

// Intersects проверяет пересечение двух параллелепипедов
func (b AABB) Intersects(o AABB) bool {
	return b.Min.X() < o.Max.X() && b.Max.X() > o.Min.X() &&
		b.Min.Y() < o.Max.Y() && b.Max.Y() > o.Min.Y() &&
		b.Min.Z() < o.Max.Z() && b.Max.Z() > o.Min.Z()
}

// Union возвращает наименьший параллелепипед, содержащий оба
func (b AABB) Union(o AABB) AABB {
	return AABB{
		Min: mgl64.Vec3{min(b.Min.X(), o.Min.X()), min(b.Min.Y(), o.Min.Y()), min(b.Min.Z(), o.Min.Z())},
		Max: mgl64.Vec3{max(b.Max.X(), o.Max.X()), max(b.Max.Y(), o.Max.Y()), max(b.Max.Z(), o.Max.Z())},
	}
}

// BoxCollider прямоугольный коллайдер, привязанный к центру нижней грани
type BoxCollider struct {
	Width  float64 // Размер по X
	Height float64 // Размер по Y
	Depth  float64 // Размер по Z
}

// NewBoxCollider создаёт новый коллайдер с указанными размерами
func NewBoxCollider(width, height, depth float64) *BoxCollider {
	return &BoxCollider{
		Width:  width,
		Height: height,
		Depth:  depth,
	}
}

// BlockCollider единичный куб блока
var BlockCollider = NewBoxCollider(1, 1, 1)

// PlayerCollider коллайдер игрока, якорь в ногах
var PlayerCollider = NewBoxCollider(0.6, 1.8, 0.6)

// Bounds возвращает границы коллайдера, установленного в точку anchor
func (bc *BoxCollider) Bounds(anchor mgl64.Vec3) AABB {
	hw := bc.Width / 2
	hd := bc.Depth / 2
	return AABB{
		Min: mgl64.Vec3{anchor.X() - hw, anchor.Y(), anchor.Z() - hd},
		Max: mgl64.Vec3{anchor.X() + hw, anchor.Y() + bc.Height, anchor.Z() + hd},
	}
}

// IsPointInside проверяет, находится ли точка внутри коллайдера
func (bc *BoxCollider) IsPointInside(anchor, point mgl64.Vec3) bool {
	return bc.Bounds(anchor).ContainsPoint(point)
}

// CheckBoxCollision проверяет столкновение двух коллайдеров
func CheckBoxCollision(pos1 mgl64.Vec3, collider1 *BoxCollider, pos2 mgl64.Vec3, collider2 *BoxCollider) bool {
	return collider1.Bounds(pos1).Intersects(collider2.Bounds(pos2))
}

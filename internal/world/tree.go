package world

import (
	"github.com/annel0/voxel-sandbox/internal/physics"
	"github.com/annel0/voxel-sandbox/internal/vec"
)

// Границы масштаба дерева
const (
	MinTreeScale = 3
	MaxTreeScale = 5
)

// Tree декоративное дерево; принадлежит глобальному индексу мира, а не чанку
type Tree struct {
	Position vec.Vec3
	Scale    float32
}

// clampScale приводит масштаб к [MinTreeScale, MaxTreeScale]
func clampScale(s float32) float32 {
	if s < MinTreeScale {
		return MinTreeScale
	}
	if s > MaxTreeScale {
		return MaxTreeScale
	}
	return s
}

// Bounds возвращает границы коллайдера дерева: ствол в один блок высотой Scale
func (t Tree) Bounds() physics.AABB {
	return physics.NewBoxCollider(1, float64(t.Scale), 1).Bounds(anchorOf(t.Position))
}

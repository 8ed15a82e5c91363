package world

import (
	"math"

	"github.com/annel0/voxel-sandbox/internal/vec"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	maxPickSteps  = 1000 // ограничение числа клеток, которые проходит луч
	HoverDistance = 10   // дальность луча для объекта под курсором
)

// GridPicker пикинг лучом по сетке мира без рендер-движка.
// Блок с позицией P занимает клетку [P.X-0.5, P.X+0.5) x [P.Y, P.Y+1) x [P.Z-0.5, P.Z+0.5).
// Проходит клетки вдоль луча по порядку и возвращает первый блок или ствол дерева.
type GridPicker struct {
	world     *World
	aimOrigin mgl64.Vec3
	aimDir    mgl64.Vec3
}

// NewGridPicker создаёт пикинг для мира w
func NewGridPicker(w *World) *GridPicker {
	return &GridPicker{world: w}
}

// Raycast реализует Picker
func (p *GridPicker) Raycast(origin, direction mgl64.Vec3, maxDistance float64) Hit {
	if direction.Len() == 0 || maxDistance <= 0 {
		return Hit{}
	}
	dir := direction.Normalize()

	// Сдвигаем пространство так, чтобы клетки начинались в целых координатах
	start := mgl64.Vec3{origin.X() + 0.5, origin.Y(), origin.Z() + 0.5}
	cell := [3]int{
		int(math.Floor(start.X())),
		int(math.Floor(start.Y())),
		int(math.Floor(start.Z())),
	}

	var step [3]int
	var tMax, tDelta [3]float64
	for i := 0; i < 3; i++ {
		switch {
		case dir[i] > 0:
			step[i] = 1
			tMax[i] = (float64(cell[i]+1) - start[i]) / dir[i]
			tDelta[i] = 1 / dir[i]
		case dir[i] < 0:
			step[i] = -1
			tMax[i] = (float64(cell[i]) - start[i]) / dir[i]
			tDelta[i] = -1 / dir[i]
		default:
			tMax[i] = math.Inf(1)
			tDelta[i] = math.Inf(1)
		}
	}

	var normal mgl64.Vec3
	t := 0.0
	for n := 0; n < maxPickSteps && t <= maxDistance; n++ {
		pos := vec.Vec3{X: cell[0], Y: cell[1], Z: cell[2]}
		if ref, ok := p.occupant(pos); ok {
			return Hit{
				Hit:      true,
				Target:   ref,
				Position: origin.Add(dir.Mul(t)),
				Normal:   normal,
			}
		}

		axis := 0
		if tMax[1] < tMax[axis] {
			axis = 1
		}
		if tMax[2] < tMax[axis] {
			axis = 2
		}
		t = tMax[axis]
		cell[axis] += step[axis]
		tMax[axis] += tDelta[axis]

		normal = mgl64.Vec3{}
		normal[axis] = float64(-step[axis])
	}
	return Hit{}
}

// occupant возвращает объект, занимающий клетку pos
func (p *GridPicker) occupant(pos vec.Vec3) (EntityRef, bool) {
	if _, ok := p.world.BlockAt(pos); ok {
		return BlockRef(pos), true
	}
	// Ствол дерева занимает клетки от основания вверх на Scale блоков
	for dy := 0; dy < MaxTreeScale; dy++ {
		base := vec.Vec3{X: pos.X, Y: pos.Y - dy, Z: pos.Z}
		if t, ok := p.world.Tree(base); ok && float64(dy) < float64(t.Scale) {
			return TreeRef(base), true
		}
	}
	return EntityRef{}, false
}

// Aim задаёт луч взгляда для Hovered
func (p *GridPicker) Aim(origin, direction mgl64.Vec3) {
	p.aimOrigin = origin
	p.aimDir = direction
}

// Hovered реализует Hover: первый объект на луче взгляда в пределах HoverDistance
func (p *GridPicker) Hovered() EntityRef {
	return p.Raycast(p.aimOrigin, p.aimDir, HoverDistance).Target
}

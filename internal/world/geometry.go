package world

import (
	"sort"

	"github.com/annel0/voxel-sandbox/internal/physics"
	"github.com/annel0/voxel-sandbox/internal/vec"
	"github.com/annel0/voxel-sandbox/internal/world/block"
	"github.com/go-gl/mathgl/mgl64"
)

// MergedGeometry объединённое представление упрощённого чанка.
// Рендер строит из него одну сетку; ядро использует его как mesh-коллайдер.
type MergedGeometry struct {
	Coords   vec.Vec2     // Координаты чанка
	Cubes    []Block      // Кубы, отсортированные по позиции
	Texture  block.Kind   // Преобладающий материал, им текстурируется сетка
	Bounds   physics.AABB // Общие границы
	Collider physics.ColliderKind
}

// mergeBlocks строит объединённую геометрию из записей чанка
func mergeBlocks(coords vec.Vec2, records map[vec.Vec3]block.Kind) *MergedGeometry {
	g := &MergedGeometry{
		Coords:   coords,
		Cubes:    make([]Block, 0, len(records)),
		Texture:  block.DefaultKind,
		Collider: physics.ColliderMesh,
	}

	counts := make(map[block.Kind]int)
	for pos, kind := range records {
		g.Cubes = append(g.Cubes, Block{Position: pos, Kind: kind})
		counts[kind]++
	}
	sort.Slice(g.Cubes, func(i, j int) bool {
		return g.Cubes[i].Position.Less(g.Cubes[j].Position)
	})

	best := -1
	for kind, n := range counts {
		if n > best || (n == best && kind < g.Texture) {
			g.Texture, best = kind, n
		}
	}

	for i, c := range g.Cubes {
		if i == 0 {
			g.Bounds = c.Bounds()
			continue
		}
		g.Bounds = g.Bounds.Union(c.Bounds())
	}
	return g
}

// Solid проверяет, попадает ли точка в один из кубов геометрии
func (g *MergedGeometry) Solid(p mgl64.Vec3) bool {
	if len(g.Cubes) == 0 || !g.Bounds.ContainsPoint(p) {
		return false
	}
	for _, c := range g.Cubes {
		if c.Bounds().ContainsPoint(p) {
			return true
		}
	}
	return false
}

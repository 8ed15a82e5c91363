package world

import (
	"github.com/annel0/voxel-sandbox/internal/physics"
	"github.com/annel0/voxel-sandbox/internal/vec"
	"github.com/annel0/voxel-sandbox/internal/world/block"
	"github.com/go-gl/mathgl/mgl64"
)

// Block представляет собой блок в игровом мире: позиция и материал
type Block struct {
	Position vec.Vec3   // Позиция блока
	Kind     block.Kind // Материал блока
}

// BlockInstance живой экземпляр блока, существует только в детальном чанке
type BlockInstance struct {
	Block
	Collider physics.ColliderKind
}

// newInstance создаёт живой экземпляр по записи блока
func newInstance(pos vec.Vec3, kind block.Kind) *BlockInstance {
	return &BlockInstance{
		Block:    Block{Position: pos, Kind: kind},
		Collider: physics.ColliderBox,
	}
}

// Bounds возвращает границы куба блока
func (b Block) Bounds() physics.AABB {
	return physics.BlockCollider.Bounds(anchorOf(b.Position))
}

// anchorOf переводит целочисленную позицию в точку привязки коллайдера (центр нижней грани)
func anchorOf(p vec.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{float64(p.X), float64(p.Y), float64(p.Z)}
}

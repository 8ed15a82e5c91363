package world

import (
	"math/rand"
	"sort"

	"github.com/annel0/voxel-sandbox/internal/vec"
	"github.com/annel0/voxel-sandbox/internal/world/block"
)

// TreeChanceDenominator вероятность дерева в колонке равна 1/TreeChanceDenominator
const TreeChanceDenominator = 201

// treeRoll значение броска, при котором в колонке появляется дерево
const treeRoll = 52

// HeightSource источник высоты поверхности (util.NoiseField)
type HeightSource interface {
	Height(blockX, blockZ int) int
}

// Chunk представляет колонну мира размером size x size блоков.
//
// records - авторитетные данные (позиция -> материал), хранятся в любом состоянии LOD.
// live - живые экземпляры блоков, существуют только в состоянии Detailed.
// Чанк не синхронизирован: им владеет одна горутина симуляции.
type Chunk struct {
	coords   vec.Vec2
	size     int
	records  map[vec.Vec3]block.Kind
	live     map[vec.Vec3]*BlockInstance
	lod      LODState
	geometry *MergedGeometry
}

// NewChunk создаёт пустой детальный чанк
func NewChunk(coords vec.Vec2, size int) *Chunk {
	return &Chunk{
		coords:  coords,
		size:    size,
		records: make(map[vec.Vec3]block.Kind),
		live:    make(map[vec.Vec3]*BlockInstance),
		lod:     Detailed,
	}
}

// Coords возвращает координаты чанка
func (c *Chunk) Coords() vec.Vec2 { return c.coords }

// Size возвращает длину ребра чанка в блоках
func (c *Chunk) Size() int { return c.size }

// LOD возвращает текущий уровень детализации
func (c *Chunk) LOD() LODState { return c.lod }

// Geometry возвращает объединённую геометрию (nil в детальном состоянии)
func (c *Chunk) Geometry() *MergedGeometry { return c.geometry }

// Len возвращает количество блоков чанка
func (c *Chunk) Len() int { return len(c.records) }

// LiveCount возвращает количество живых экземпляров блоков
func (c *Chunk) LiveCount() int { return len(c.live) }

// Origin возвращает мировую позицию угла чанка (y = 0)
func (c *Chunk) Origin() vec.Vec3 { return c.coords.Origin(c.size) }

// Contains проверяет, лежит ли позиция в колонне чанка
func (c *Chunk) Contains(pos vec.Vec3) bool {
	return pos.ChunkCoords(c.size) == c.coords
}

// KindAt возвращает материал блока в позиции
func (c *Chunk) KindAt(pos vec.Vec3) (block.Kind, bool) {
	kind, ok := c.records[pos]
	return kind, ok
}

// Live возвращает живой экземпляр блока (только в детальном состоянии)
func (c *Chunk) Live(pos vec.Vec3) (*BlockInstance, bool) {
	inst, ok := c.live[pos]
	return inst, ok
}

// Blocks возвращает копию записей чанка, отсортированную по позиции
func (c *Chunk) Blocks() []Block {
	out := make([]Block, 0, len(c.records))
	for pos, kind := range c.records {
		out = append(out, Block{Position: pos, Kind: kind})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position.Less(out[j].Position) })
	return out
}

// Generate заполняет чанк по полю высот: один блок материала по умолчанию на колонку.
// С вероятностью 1/TreeChanceDenominator над блоком вызывается spawnTree.
// Повторная генерация заполненного чанка ничего не делает и возвращает false.
func (c *Chunk) Generate(noise HeightSource, rng *rand.Rand, spawnTree func(pos vec.Vec3)) bool {
	if len(c.records) > 0 {
		return false
	}

	origin := c.Origin()
	for x := 0; x < c.size; x++ {
		for z := 0; z < c.size; z++ {
			blockX := origin.X + x
			blockZ := origin.Z + z
			y := noise.Height(blockX, blockZ)
			c.set(vec.Vec3{X: blockX, Y: y, Z: blockZ}, block.DefaultKind)

			if rng.Intn(TreeChanceDenominator) == treeRoll && spawnTree != nil {
				spawnTree(vec.Vec3{X: blockX, Y: y + 1, Z: blockZ})
			}
		}
	}
	return true
}

// Simplify переводит чанк в упрощённое состояние: строит объединённую геометрию
// и освобождает живые блоки. Записи сохраняются. Возвращает nil, если чанк уже упрощён.
func (c *Chunk) Simplify() *MergedGeometry {
	if c.lod == Simplified {
		return nil
	}

	c.geometry = mergeBlocks(c.coords, c.records)
	c.live = make(map[vec.Vec3]*BlockInstance)
	c.lod = Simplified
	return c.geometry
}

// Detail восстанавливает живые блоки по записям. Возвращает false, если чанк уже детальный.
func (c *Chunk) Detail() bool {
	if c.lod == Detailed {
		return false
	}

	c.geometry = nil
	c.live = make(map[vec.Vec3]*BlockInstance, len(c.records))
	for pos, kind := range c.records {
		c.live[pos] = newInstance(pos, kind)
	}
	c.lod = Detailed
	return true
}

// set записывает блок (последняя запись побеждает)
func (c *Chunk) set(pos vec.Vec3, kind block.Kind) {
	c.records[pos] = kind
	if c.lod == Detailed {
		c.live[pos] = newInstance(pos, kind)
		return
	}
	c.geometry = mergeBlocks(c.coords, c.records)
}

// remove удаляет блок; отсутствующая позиция - не ошибка
func (c *Chunk) remove(pos vec.Vec3) bool {
	if _, ok := c.records[pos]; !ok {
		return false
	}
	delete(c.records, pos)
	delete(c.live, pos)
	if c.lod == Simplified {
		c.geometry = mergeBlocks(c.coords, c.records)
	}
	return true
}

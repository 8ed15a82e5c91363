package world

import (
	"math/rand"
	"testing"

	"github.com/annel0/voxel-sandbox/internal/util"
	"github.com/annel0/voxel-sandbox/internal/vec"
	"github.com/annel0/voxel-sandbox/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flatHeight поле высот без рельефа
type flatHeight int

func (h flatHeight) Height(int, int) int { return int(h) }

func TestChunkGenerate_OneBlockPerColumn(t *testing.T) {
	noise := util.NewNoiseField(util.DefaultNoiseSeed)
	chunk := NewChunk(vec.Vec2{X: 1, Z: 2}, 4)

	ok := chunk.Generate(noise, rand.New(rand.NewSource(1)), nil)
	require.True(t, ok)
	require.Equal(t, 16, chunk.Len())
	assert.Equal(t, 16, chunk.LiveCount(), "детальный чанк держит живой экземпляр на каждый блок")

	columns := make(map[vec.Vec2]bool)
	for _, b := range chunk.Blocks() {
		assert.True(t, chunk.Contains(b.Position), "блок %v вне колонны чанка", b.Position)
		assert.Equal(t, noise.Height(b.Position.X, b.Position.Z), b.Position.Y)
		assert.Equal(t, block.DefaultKind, b.Kind)
		assert.False(t, columns[b.Position.Column()], "в колонке должен быть один блок")
		columns[b.Position.Column()] = true
	}
}

func TestChunkGenerate_Guarded(t *testing.T) {
	chunk := NewChunk(vec.Vec2{}, 4)
	require.True(t, chunk.Generate(flatHeight(2), rand.New(rand.NewSource(1)), nil))

	assert.False(t, chunk.Generate(flatHeight(7), rand.New(rand.NewSource(1)), nil),
		"повторная генерация заполненного чанка не выполняется")
	for _, b := range chunk.Blocks() {
		assert.Equal(t, 2, b.Position.Y)
	}
}

func TestChunkGenerate_Deterministic(t *testing.T) {
	g := NewWorldGenerator(util.DefaultNoiseSeed, 8)
	coords := vec.Vec2{X: 3, Z: 5}

	first := g.GenerateChunk(coords)
	second := NewWorldGenerator(util.DefaultNoiseSeed, 8).GenerateChunk(coords)

	assert.Equal(t, first.Chunk.Blocks(), second.Chunk.Blocks())
	assert.Equal(t, first.Trees, second.Trees)
}

func TestChunkGenerate_TreesAboveSurface(t *testing.T) {
	g := NewWorldGenerator(7, 64)
	gen := g.GenerateChunk(vec.Vec2{})

	require.NotEmpty(t, gen.Trees, "на 4096 колонках деревья появляются почти наверняка")
	for _, tree := range gen.Trees {
		below := vec.Vec3{X: tree.Position.X, Y: tree.Position.Y - 1, Z: tree.Position.Z}
		_, ok := gen.Chunk.KindAt(below)
		assert.True(t, ok, "под деревом %v должен быть блок поверхности", tree.Position)
		assert.GreaterOrEqual(t, tree.Scale, float32(MinTreeScale))
		assert.LessOrEqual(t, tree.Scale, float32(MaxTreeScale))
	}
}

func TestChunkSimplifyDetail_RoundTrip(t *testing.T) {
	chunk := NewChunk(vec.Vec2{}, 4)
	chunk.Generate(flatHeight(0), rand.New(rand.NewSource(1)), nil)
	chunk.set(vec.Vec3{X: 1, Y: 1, Z: 1}, block.StoneKind)
	chunk.set(vec.Vec3{X: 2, Y: 0, Z: 2}, block.BrickKind)
	chunk.remove(vec.Vec3{X: 3, Y: 0, Z: 3})
	before := chunk.Blocks()

	g := chunk.Simplify()
	require.NotNil(t, g)
	assert.Equal(t, Simplified, chunk.LOD())
	assert.Zero(t, chunk.LiveCount(), "в упрощённом чанке нет живых блоков")
	assert.Equal(t, len(before), chunk.Len(), "записи блоков сохраняются")
	assert.Len(t, g.Cubes, len(before))
	assert.Equal(t, block.DefaultKind, g.Texture)
	assert.Nil(t, chunk.Simplify(), "повторное упрощение ничего не делает")

	assert.True(t, chunk.Detail())
	assert.False(t, chunk.Detail(), "повторная детализация ничего не делает")
	assert.Nil(t, chunk.Geometry())
	assert.Equal(t, before, chunk.Blocks())
	assert.Equal(t, chunk.Len(), chunk.LiveCount())

	inst, ok := chunk.Live(vec.Vec3{X: 2, Y: 0, Z: 2})
	require.True(t, ok)
	assert.Equal(t, block.BrickKind, inst.Kind)
}

func TestChunk_EditWhileSimplifiedKeepsGeometry(t *testing.T) {
	chunk := NewChunk(vec.Vec2{}, 4)
	chunk.Generate(flatHeight(0), rand.New(rand.NewSource(1)), nil)
	chunk.Simplify()

	chunk.set(vec.Vec3{X: 0, Y: 1, Z: 0}, block.WoodKind)
	assert.Len(t, chunk.Geometry().Cubes, 17)
	assert.True(t, chunk.remove(vec.Vec3{X: 0, Y: 1, Z: 0}))
	assert.Len(t, chunk.Geometry().Cubes, 16)
	assert.False(t, chunk.remove(vec.Vec3{X: 0, Y: 9, Z: 0}))
}

func TestChunk_Contains(t *testing.T) {
	chunk := NewChunk(vec.Vec2{X: 1, Z: 0}, 4)

	assert.True(t, chunk.Contains(vec.Vec3{X: 4, Y: -3, Z: 0}))
	assert.True(t, chunk.Contains(vec.Vec3{X: 7, Y: 10, Z: 3}))
	assert.False(t, chunk.Contains(vec.Vec3{X: 8, Y: 0, Z: 0}))
	assert.False(t, chunk.Contains(vec.Vec3{X: 4, Y: 0, Z: -1}))
	assert.Equal(t, vec.Vec3{X: 4, Y: 0, Z: 0}, chunk.Origin())
}

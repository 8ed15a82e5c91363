package world

import (
	"math/rand"
	"sync"

	"github.com/annel0/voxel-sandbox/internal/util"
	"github.com/annel0/voxel-sandbox/internal/vec"
)

// WorldGenerator генерирует содержимое чанков
type WorldGenerator struct {
	Seed      int64 // Сид для генерации шума и деревьев
	ChunkSize int   // Длина ребра чанка
	noise     *util.NoiseField
}

// GeneratedChunk результат генерации: чанк и деревья над ним.
// До передачи миру принадлежит только создавшей его горутине.
type GeneratedChunk struct {
	Chunk *Chunk
	Trees []Tree
}

// NewWorldGenerator создаёт новый генератор мира
func NewWorldGenerator(seed int64, chunkSize int) *WorldGenerator {
	return &WorldGenerator{
		Seed:      seed,
		ChunkSize: chunkSize,
		noise:     util.NewNoiseField(seed),
	}
}

// Noise возвращает поле высот генератора
func (wg *WorldGenerator) Noise() *util.NoiseField {
	return wg.noise
}

// chunkRand создаёт генератор случайных чисел чанка.
// Для каждого чанка свой сид на основе глобального сида и координат.
func (wg *WorldGenerator) chunkRand(coords vec.Vec2) *rand.Rand {
	chunkSeed := wg.Seed + int64(coords.X*31) + int64(coords.Z*17)
	return rand.New(rand.NewSource(chunkSeed))
}

// GenerateChunk генерирует чанк по его координатам
func (wg *WorldGenerator) GenerateChunk(coords vec.Vec2) GeneratedChunk {
	chunk := NewChunk(coords, wg.ChunkSize)
	rng := wg.chunkRand(coords)

	var trees []Tree
	chunk.Generate(wg.noise, rng, func(pos vec.Vec3) {
		// Масштаб дерева 3-5
		scale := float32(MinTreeScale + rng.Intn(MaxTreeScale-MinTreeScale+1))
		trees = append(trees, Tree{Position: pos, Scale: scale})
	})

	return GeneratedChunk{Chunk: chunk, Trees: trees}
}

// GenerateArea генерирует чанки параллельно на workers горутинах.
// Результат идёт в том же порядке, что и coords, и не зависит от числа горутин.
func (wg *WorldGenerator) GenerateArea(coords []vec.Vec2, workers int) []GeneratedChunk {
	out := make([]GeneratedChunk, len(coords))
	if workers < 1 {
		workers = 1
	}
	if workers > len(coords) {
		workers = len(coords)
	}

	jobs := make(chan int)
	var wait sync.WaitGroup
	for i := 0; i < workers; i++ {
		wait.Add(1)
		go func() {
			defer wait.Done()
			for idx := range jobs {
				out[idx] = wg.GenerateChunk(coords[idx])
			}
		}()
	}

	for idx := range coords {
		jobs <- idx
	}
	close(jobs)
	wait.Wait()

	return out
}

package world

import (
	"fmt"

	"github.com/annel0/voxel-sandbox/internal/vec"
	"github.com/go-gl/mathgl/mgl64"
)

// ChunkState сохраняемое содержимое чанка
type ChunkState struct {
	Coords vec.Vec2
	Blocks []Block
}

// State сохраняемое состояние мира: игрок, чанки и деревья
type State struct {
	Player mgl64.Vec3
	Chunks []ChunkState
	Trees  []Tree
}

// BlockCount возвращает общее количество блоков в состоянии
func (s State) BlockCount() int {
	n := 0
	for _, c := range s.Chunks {
		n += len(c.Blocks)
	}
	return n
}

// Validate проверяет структуру состояния для чанков с ребром chunkSize:
// координаты чанков не повторяются, каждый блок лежит в колонках своего чанка.
func (s State) Validate(chunkSize int) error {
	if chunkSize <= 0 {
		return fmt.Errorf("некорректный размер чанка %d", chunkSize)
	}
	seen := make(map[vec.Vec2]struct{}, len(s.Chunks))
	for _, cs := range s.Chunks {
		if _, dup := seen[cs.Coords]; dup {
			return fmt.Errorf("чанк (%d,%d) встречается дважды", cs.Coords.X, cs.Coords.Z)
		}
		seen[cs.Coords] = struct{}{}

		for _, b := range cs.Blocks {
			if owner := b.Position.ChunkCoords(chunkSize); owner != cs.Coords {
				return fmt.Errorf("блок %v принадлежит чанку (%d,%d), а сохранён в (%d,%d)",
					b.Position, owner.X, owner.Z, cs.Coords.X, cs.Coords.Z)
			}
		}
	}
	return nil
}

// Capture снимает состояние мира. Записи блоков берутся и из упрощённых чанков.
func (w *World) Capture() State {
	chunks := w.Chunks()
	s := State{
		Player: w.player,
		Chunks: make([]ChunkState, 0, len(chunks)),
		Trees:  w.Trees(),
	}
	for _, c := range chunks {
		s.Chunks = append(s.Chunks, ChunkState{Coords: c.Coords(), Blocks: c.Blocks()})
	}
	return s
}

// Restore очищает мир и восстанавливает его из состояния без обращения к шуму.
// Чанки создаются детальными; следующий Update упростит дальние.
func (w *World) Restore(s State) {
	w.ClearWorld()
	w.player = s.Player

	for _, cs := range s.Chunks {
		c := NewChunk(cs.Coords, w.cfg.ChunkSize)
		for _, b := range cs.Blocks {
			c.set(b.Position, w.palette.Normalize(b.Kind))
		}
		w.chunks[cs.Coords] = c
	}

	for _, t := range s.Trees {
		tree := Tree{Position: t.Position, Scale: clampScale(t.Scale)}
		w.trees[tree.Position] = &tree
	}

	w.refreshPopulation()
	w.logger.Info("Мир восстановлен: %d чанков, %d блоков, %d деревьев",
		len(w.chunks), s.BlockCount(), len(w.trees))
}

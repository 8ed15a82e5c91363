package api

import (
	"github.com/annel0/voxel-sandbox/internal/vec"
	"github.com/annel0/voxel-sandbox/internal/world"
	"github.com/annel0/voxel-sandbox/internal/world/block"
)

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	TraceID string      `json:"trace_id,omitempty"` // только в ответах с ошибкой
}

// BlockRequest запрос на установку блока. Без Kind ставится выбранный материал.
type BlockRequest struct {
	X    int         `json:"x"`
	Y    int         `json:"y"`
	Z    int         `json:"z"`
	Kind *block.Kind `json:"kind,omitempty"`
}

// PlayerRequest новая позиция игрока
type PlayerRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ScrollRequest сдвиг выбора материала
type ScrollRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// InputRequest событие ввода: place, remove, scroll_up, scroll_down, save, load, new_game, menu.
// Origin и Direction задают луч камеры.
type InputRequest struct {
	Kind      string     `json:"kind" binding:"required"`
	Origin    [3]float64 `json:"origin"`
	Direction [3]float64 `json:"direction"`
}

// BlockDTO блок в ответах API
type BlockDTO struct {
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Z       int    `json:"z"`
	Kind    uint8  `json:"kind"`
	Texture string `json:"texture"`
}

// GeometryDTO объединённая геометрия упрощённого чанка
type GeometryDTO struct {
	Cubes   int        `json:"cubes"`
	Texture string     `json:"texture"`
	Min     [3]float64 `json:"min"`
	Max     [3]float64 `json:"max"`
}

// ChunkDTO состояние чанка
type ChunkDTO struct {
	CX       int          `json:"cx"`
	CZ       int          `json:"cz"`
	LOD      string       `json:"lod"`
	Live     int          `json:"live"`
	Blocks   []BlockDTO   `json:"blocks"`
	Geometry *GeometryDTO `json:"geometry,omitempty"`
}

// SaveDTO сведения о сохранении
type SaveDTO struct {
	SaveID    string `json:"save_id"`
	CreatedAt string `json:"created_at"`
}

func toBlockDTO(b world.Block, palette *block.Palette) BlockDTO {
	return BlockDTO{
		X:       b.Position.X,
		Y:       b.Position.Y,
		Z:       b.Position.Z,
		Kind:    uint8(b.Kind),
		Texture: palette.Texture(b.Kind),
	}
}

func toChunkDTO(c *world.Chunk, palette *block.Palette) ChunkDTO {
	coords := c.Coords()
	dto := ChunkDTO{
		CX:   coords.X,
		CZ:   coords.Z,
		LOD:  c.LOD().String(),
		Live: c.LiveCount(),
	}

	blocks := c.Blocks()
	dto.Blocks = make([]BlockDTO, 0, len(blocks))
	for _, b := range blocks {
		dto.Blocks = append(dto.Blocks, toBlockDTO(b, palette))
	}

	if g := c.Geometry(); g != nil {
		dto.Geometry = &GeometryDTO{
			Cubes:   len(g.Cubes),
			Texture: palette.Texture(g.Texture),
			Min:     [3]float64(g.Bounds.Min),
			Max:     [3]float64(g.Bounds.Max),
		}
	}
	return dto
}

func (r BlockRequest) position() vec.Vec3 {
	return vec.Vec3{X: r.X, Y: r.Y, Z: r.Z}
}

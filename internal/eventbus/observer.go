package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/annel0/voxel-sandbox/internal/logging"
	"github.com/annel0/voxel-sandbox/internal/vec"
	"github.com/annel0/voxel-sandbox/internal/world"
	"github.com/annel0/voxel-sandbox/internal/world/block"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Типы событий мира
const (
	EventBlockPlaced      = "block_placed"
	EventBlockRemoved     = "block_removed"
	EventTreeRemoved      = "tree_removed"
	EventChunkSimplified  = "chunk_simplified"
	EventChunkDetailed    = "chunk_detailed"
	EventSelectionChanged = "selection_changed"
	EventPlayerRespawned  = "player_respawned"
	EventGameSaved        = "game_saved"
	EventGameLoaded       = "game_loaded"
	EventMessage          = "message"
)

// publishTimeout сколько хук ждёт места в очереди
const publishTimeout = time.Second

// Приоритеты: при переполнении теряются только LOD-переходы (PriorityLow)
const (
	PriorityLow    = 1
	PriorityNormal = 4
	PriorityHigh   = 7
)

// SourceWorld источник событий ядра мира
const SourceWorld = "world"

// BlockPayload полезная нагрузка событий блоков
type BlockPayload struct {
	Position vec.Vec3   `json:"position"`
	Kind     block.Kind `json:"kind"`
}

// TreePayload полезная нагрузка удаления дерева
type TreePayload struct {
	Position vec.Vec3 `json:"position"`
	Scale    float32  `json:"scale"`
}

// ChunkPayload полезная нагрузка LOD-переходов
type ChunkPayload struct {
	Coords  vec.Vec2    `json:"coords"`
	Cubes   int         `json:"cubes,omitempty"`
	Texture *block.Kind `json:"texture,omitempty"`
}

// SelectionPayload выбранный материал
type SelectionPayload struct {
	Kind block.Kind `json:"kind"`
}

// PlayerPayload позиция игрока
type PlayerPayload struct {
	Position [3]float64 `json:"position"`
}

// MessagePayload сообщение для пользователя
type MessagePayload struct {
	Text string `json:"text"`
}

// WorldPublisher реализует world.Observer и публикует хуки мира в шину.
// Хуки вызываются из игрового цикла. При полной очереди LOD-переходы теряются,
// а остальные события задерживают цикл до publishTimeout.
type WorldPublisher struct {
	bus    EventBus
	logger *logging.Logger
	now    func() time.Time
}

var _ world.Observer = (*WorldPublisher)(nil)

// NewWorldPublisher создаёт издателя событий мира
func NewWorldPublisher(bus EventBus, logger *logging.Logger) *WorldPublisher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &WorldPublisher{bus: bus, logger: logger, now: time.Now}
}

func (p *WorldPublisher) publish(eventType string, priority int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("Не удалось сериализовать событие %s: %v", eventType, err)
		return
	}
	ev := &Envelope{
		ID:        uuid.NewString(),
		Timestamp: p.now().UTC(),
		Source:    SourceWorld,
		EventType: eventType,
		Priority:  priority,
		Payload:   data,
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.bus.Publish(ctx, ev); err != nil {
		p.logger.Warn("Событие %s не опубликовано: %v", eventType, err)
	}
}

func (p *WorldPublisher) BlockPlaced(b world.Block) {
	p.publish(EventBlockPlaced, PriorityNormal, BlockPayload{Position: b.Position, Kind: b.Kind})
}

func (p *WorldPublisher) BlockRemoved(b world.Block) {
	p.publish(EventBlockRemoved, PriorityNormal, BlockPayload{Position: b.Position, Kind: b.Kind})
}

func (p *WorldPublisher) TreeRemoved(t world.Tree) {
	p.publish(EventTreeRemoved, PriorityNormal, TreePayload{Position: t.Position, Scale: t.Scale})
}

func (p *WorldPublisher) ChunkSimplified(coords vec.Vec2, g *world.MergedGeometry) {
	payload := ChunkPayload{Coords: coords}
	if g != nil {
		texture := g.Texture
		payload.Cubes = len(g.Cubes)
		payload.Texture = &texture
	}
	p.publish(EventChunkSimplified, PriorityLow, payload)
}

func (p *WorldPublisher) ChunkDetailed(coords vec.Vec2) {
	p.publish(EventChunkDetailed, PriorityLow, ChunkPayload{Coords: coords})
}

func (p *WorldPublisher) SelectionChanged(kind block.Kind) {
	p.publish(EventSelectionChanged, PriorityNormal, SelectionPayload{Kind: kind})
}

func (p *WorldPublisher) PlayerRespawned(pos mgl64.Vec3) {
	p.publish(EventPlayerRespawned, PriorityNormal, PlayerPayload{Position: [3]float64(pos)})
}

func (p *WorldPublisher) GameSaved() {
	p.publish(EventGameSaved, PriorityHigh, struct{}{})
}

func (p *WorldPublisher) GameLoaded() {
	p.publish(EventGameLoaded, PriorityHigh, struct{}{})
}

func (p *WorldPublisher) Message(text string) {
	p.publish(EventMessage, PriorityHigh, MessagePayload{Text: text})
}

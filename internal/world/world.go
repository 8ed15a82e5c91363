package world

import (
	"math"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/annel0/voxel-sandbox/internal/logging"
	"github.com/annel0/voxel-sandbox/internal/metrics"
	"github.com/annel0/voxel-sandbox/internal/physics"
	"github.com/annel0/voxel-sandbox/internal/util"
	"github.com/annel0/voxel-sandbox/internal/vec"
	"github.com/annel0/voxel-sandbox/internal/world/block"
	"github.com/go-gl/mathgl/mgl64"
)

// Config параметры мира
type Config struct {
	ChunkSize       int        // Блоков на ребро чанка
	WorldSize       int        // Чанков на ребро мира
	DetailDistance  float64    // Радиус детальных чанков
	Seed            int64      // Сид шума и деревьев
	FallFloor       float64    // Ниже этой высоты игрок считается выпавшим из мира
	SpawnPosition   mgl64.Vec3 // Точка возрождения после падения
	GenerateWorkers int        // Горутин для генерации; 0 - по числу CPU
	Textures        []string   // Таблица материал -> текстура
}

// DefaultConfig возвращает параметры по умолчанию
func DefaultConfig() Config {
	return Config{
		ChunkSize:      4,
		WorldSize:      10,
		DetailDistance: 16,
		Seed:           util.DefaultNoiseSeed,
		FallFloor:      -30,
		SpawnPosition:  mgl64.Vec3{0, 30, 0},
		Textures:       block.DefaultTextures,
	}
}

// Stats сводка состояния мира
type Stats struct {
	Chunks     int        `json:"chunks"`
	Detailed   int        `json:"detailed"`
	Simplified int        `json:"simplified"`
	Blocks     int        `json:"blocks"`
	Trees      int        `json:"trees"`
	Player     mgl64.Vec3 `json:"player"`
	Selected   block.Kind `json:"selected"`
}

// Option настраивает World при создании
type Option func(*World)

// WithObserver подключает хуки рендера/звука/интерфейса
func WithObserver(o Observer) Option {
	return func(w *World) { w.observer = o }
}

// WithMetrics подключает Prometheus-метрики
func WithMetrics(m *metrics.WorldMetrics) Option {
	return func(w *World) { w.metrics = m }
}

// WithLogger задаёт логгер мира
func WithLogger(l *logging.Logger) Option {
	return func(w *World) { w.logger = l }
}

// World корневой владелец чанков и деревьев; точка редактирования мира.
// Все методы вызываются из одной горутины симуляции.
type World struct {
	cfg       Config
	generator *WorldGenerator
	palette   *block.Palette
	chunks    map[vec.Vec2]*Chunk
	trees     map[vec.Vec3]*Tree
	player    mgl64.Vec3
	selected  block.Kind
	observer  Observer
	metrics   *metrics.WorldMetrics
	logger    *logging.Logger
}

// New создаёт пустой, ещё не сгенерированный мир
func New(cfg Config, opts ...Option) *World {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultConfig().ChunkSize
	}
	if cfg.GenerateWorkers <= 0 {
		cfg.GenerateWorkers = runtime.NumCPU()
	}

	w := &World{
		cfg:       cfg,
		generator: NewWorldGenerator(cfg.Seed, cfg.ChunkSize),
		palette:   block.NewPalette(cfg.Textures),
		chunks:    make(map[vec.Vec2]*Chunk),
		trees:     make(map[vec.Vec3]*Tree),
		observer:  NopObserver{},
		logger:    logging.NewWriterLogger("world", os.Stdout, logging.INFO),
	}
	w.selected = w.palette.Normalize(block.DefaultKind)

	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Config возвращает параметры мира
func (w *World) Config() Config { return w.cfg }

// Palette возвращает таблицу материалов
func (w *World) Palette() *block.Palette { return w.palette }

// Observer возвращает подключённые хуки
func (w *World) Observer() Observer { return w.observer }

// Noise возвращает поле высот мира
func (w *World) Noise() *util.NoiseField { return w.generator.Noise() }

// GenerateWorld очищает мир и генерирует все чанки [0,WorldSize) x [0,WorldSize).
// Содержимое считается параллельно, а в мир устанавливается здесь, в порядке координат.
func (w *World) GenerateWorld() {
	start := time.Now()
	w.ClearWorld()

	coords := make([]vec.Vec2, 0, w.cfg.WorldSize*w.cfg.WorldSize)
	for x := 0; x < w.cfg.WorldSize; x++ {
		for z := 0; z < w.cfg.WorldSize; z++ {
			coords = append(coords, vec.Vec2{X: x, Z: z})
		}
	}

	for _, gen := range w.generator.GenerateArea(coords, w.cfg.GenerateWorkers) {
		w.chunks[gen.Chunk.Coords()] = gen.Chunk
		for _, t := range gen.Trees {
			tree := t
			w.trees[tree.Position] = &tree
		}
	}

	w.metrics.ObserveGeneration(time.Since(start))
	w.refreshPopulation()
	w.logger.Info("Мир сгенерирован: %d чанков, %d деревьев за %s",
		len(w.chunks), len(w.trees), time.Since(start).Round(time.Microsecond))
}

// ClearWorld удаляет все блоки, чанки и деревья
func (w *World) ClearWorld() {
	w.chunks = make(map[vec.Vec2]*Chunk)
	w.trees = make(map[vec.Vec3]*Tree)
	w.refreshPopulation()
}

// Chunk возвращает чанк по координатам
func (w *World) Chunk(coords vec.Vec2) (*Chunk, bool) {
	c, ok := w.chunks[coords]
	return c, ok
}

// ChunkAt возвращает чанк, которому принадлежит позиция
func (w *World) ChunkAt(pos vec.Vec3) (*Chunk, bool) {
	return w.Chunk(pos.ChunkCoords(w.cfg.ChunkSize))
}

// Chunks возвращает чанки, отсортированные по координатам
func (w *World) Chunks() []*Chunk {
	out := make([]*Chunk, 0, len(w.chunks))
	for _, c := range w.chunks {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].coords.Less(out[j].coords) })
	return out
}

// ChunkCount возвращает количество чанков
func (w *World) ChunkCount() int { return len(w.chunks) }

// BlockCount возвращает количество блоков во всех чанках
func (w *World) BlockCount() int {
	n := 0
	for _, c := range w.chunks {
		n += c.Len()
	}
	return n
}

// BlockAt возвращает материал блока в позиции
func (w *World) BlockAt(pos vec.Vec3) (block.Kind, bool) {
	c, ok := w.ChunkAt(pos)
	if !ok {
		return 0, false
	}
	return c.KindAt(pos)
}

// Tree возвращает дерево в позиции
func (w *World) Tree(pos vec.Vec3) (Tree, bool) {
	t, ok := w.trees[pos]
	if !ok {
		return Tree{}, false
	}
	return *t, true
}

// Trees возвращает деревья, отсортированные по позиции
func (w *World) Trees() []Tree {
	out := make([]Tree, 0, len(w.trees))
	for _, t := range w.trees {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position.Less(out[j].Position) })
	return out
}

// TreeCount возвращает количество деревьев
func (w *World) TreeCount() int { return len(w.trees) }

// Player возвращает позицию игрока
func (w *World) Player() mgl64.Vec3 { return w.player }

// SetPlayer перемещает игрока без прохода LOD
func (w *World) SetPlayer(pos mgl64.Vec3) { w.player = pos }

// SelectedKind возвращает выбранный для установки материал
func (w *World) SelectedKind() block.Kind { return w.selected }

// SetSelectedKind выбирает материал; значение приводится к диапазону палитры
func (w *World) SetSelectedKind(kind block.Kind) {
	w.selected = w.palette.Normalize(kind)
	w.observer.SelectionChanged(w.selected)
}

// ScrollSelection сдвигает выбор на delta позиций с переходом через край палитры
func (w *World) ScrollSelection(delta int) block.Kind {
	w.selected = w.palette.Step(w.selected, delta)
	w.observer.SelectionChanged(w.selected)
	return w.selected
}

// Stats возвращает сводку состояния мира
func (w *World) Stats() Stats {
	s := Stats{
		Chunks:   len(w.chunks),
		Trees:    len(w.trees),
		Player:   w.player,
		Selected: w.selected,
	}
	for _, c := range w.chunks {
		s.Blocks += c.Len()
		if c.LOD() == Detailed {
			s.Detailed++
		} else {
			s.Simplified++
		}
	}
	return s
}

// PlaceBlock устанавливает блок в позицию target. Чанк-владелец определяется по позиции;
// вне мира установка не выполняется. Упрощённый чанк сначала становится детальным.
// Занятая позиция перезаписывается.
func (w *World) PlaceBlock(target vec.Vec3, kind block.Kind) bool {
	c, ok := w.ChunkAt(target)
	if !ok {
		w.logger.Debug("Установка блока вне мира: %v", target)
		return false
	}
	w.ensureDetailed(c)

	b := Block{Position: target, Kind: w.palette.Normalize(kind)}
	c.set(b.Position, b.Kind)

	w.metrics.Edit("place")
	w.observer.BlockPlaced(b)
	w.refreshPopulation()
	return true
}

// PlaceAt устанавливает выбранный материал рядом с поверхностью, в которую попал луч.
// Позиция, пересекающая коллайдер игрока, отклоняется.
func (w *World) PlaceAt(hit Hit) bool {
	if !hit.Hit {
		return false
	}

	target := placementTarget(hit)
	if physics.CheckBoxCollision(w.player, physics.PlayerCollider, anchorOf(target), physics.BlockCollider) {
		w.logger.Debug("Блок %v пересекает игрока, установка отклонена", target)
		return false
	}
	return w.PlaceBlock(target, w.selected)
}

// placementTarget вычисляет позицию нового блока: позиция задетого объекта плюс нормаль
func placementTarget(hit Hit) vec.Vec3 {
	normal := vec.Vec3{X: roundInt(hit.Normal.X()), Y: roundInt(hit.Normal.Y()), Z: roundInt(hit.Normal.Z())}
	if hit.Target.Kind != RefNone {
		return hit.Target.Position.Add(normal)
	}
	base := vec.Vec3{X: roundInt(hit.Position.X()), Y: roundInt(hit.Position.Y()), Z: roundInt(hit.Position.Z())}
	return base.Add(normal)
}

// RemoveBlock удаляет блок; отсутствующая позиция - не ошибка
func (w *World) RemoveBlock(pos vec.Vec3) bool {
	c, ok := w.ChunkAt(pos)
	if !ok {
		return false
	}
	kind, ok := c.KindAt(pos)
	if !ok {
		return false
	}
	w.ensureDetailed(c)
	c.remove(pos)

	w.metrics.Edit("remove_block")
	w.observer.BlockRemoved(Block{Position: pos, Kind: kind})
	w.refreshPopulation()
	return true
}

// RemoveTree удаляет дерево; отсутствующая позиция - не ошибка
func (w *World) RemoveTree(pos vec.Vec3) bool {
	t, ok := w.trees[pos]
	if !ok {
		return false
	}
	delete(w.trees, pos)

	w.metrics.Edit("remove_tree")
	w.observer.TreeRemoved(*t)
	w.refreshPopulation()
	return true
}

// RemoveTarget удаляет объект по ссылке от пикинга или наведения
func (w *World) RemoveTarget(ref EntityRef) bool {
	switch ref.Kind {
	case RefBlock:
		return w.RemoveBlock(ref.Position)
	case RefTree:
		return w.RemoveTree(ref.Position)
	default:
		return false
	}
}

// Update выполняется раз в тик. Запоминает позицию игрока, при падении ниже FallFloor
// пересоздаёт мир и возвращает игрока на точку возрождения, затем переключает LOD чанков
// по горизонтальному расстоянию до их угла. Возвращает актуальную позицию игрока.
func (w *World) Update(player mgl64.Vec3) mgl64.Vec3 {
	start := time.Now()
	w.player = player

	if player.Y() < w.cfg.FallFloor {
		w.logger.Warn("Игрок выпал из мира (y=%.1f), мир пересоздаётся", player.Y())
		w.GenerateWorld()
		w.player = w.cfg.SpawnPosition
		w.metrics.Respawn()
		w.observer.PlayerRespawned(w.player)
	}

	flat := mgl64.Vec2{w.player.X(), w.player.Z()}
	changed := false
	for coords, c := range w.chunks {
		origin := c.Origin()
		d := flat.Sub(mgl64.Vec2{float64(origin.X), float64(origin.Z)}).Len()

		if d < w.cfg.DetailDistance && c.LOD() == Simplified {
			c.Detail()
			w.metrics.LODTransition(Detailed.String())
			w.observer.ChunkDetailed(coords)
			changed = true
		} else if d >= w.cfg.DetailDistance && c.LOD() == Detailed {
			g := c.Simplify()
			w.metrics.LODTransition(Simplified.String())
			w.observer.ChunkSimplified(coords, g)
			changed = true
		}
	}

	if changed {
		w.refreshPopulation()
	}
	w.metrics.ObserveUpdate(time.Since(start))
	return w.player
}

// SolidAt проверяет флаги столкновений в точке: живые блоки, геометрия упрощённых чанков, деревья
func (w *World) SolidAt(p mgl64.Vec3) bool {
	pos := vec.Vec3{
		X: int(math.Floor(p.X() + 0.5)),
		Y: int(math.Floor(p.Y())),
		Z: int(math.Floor(p.Z() + 0.5)),
	}
	if c, ok := w.ChunkAt(pos); ok {
		switch c.LOD() {
		case Detailed:
			if inst, ok := c.Live(pos); ok && inst.Collider == physics.ColliderBox {
				return true
			}
		case Simplified:
			if c.Geometry().Solid(p) {
				return true
			}
		}
	}

	for _, t := range w.trees {
		if t.Bounds().ContainsPoint(p) {
			return true
		}
	}
	return false
}

// ensureDetailed переводит чанк в детальное состояние перед редактированием
func (w *World) ensureDetailed(c *Chunk) {
	if c.Detail() {
		w.metrics.LODTransition(Detailed.String())
		w.observer.ChunkDetailed(c.Coords())
	}
}

// refreshPopulation обновляет gauge-метрики
func (w *World) refreshPopulation() {
	if w.metrics == nil {
		return
	}
	s := w.Stats()
	w.metrics.SetPopulation(s.Chunks, s.Detailed, s.Blocks, s.Trees)
}

func roundInt(f float64) int {
	return int(math.Round(f))
}

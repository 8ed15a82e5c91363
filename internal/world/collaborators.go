package world

import (
	"github.com/annel0/voxel-sandbox/internal/vec"
	"github.com/annel0/voxel-sandbox/internal/world/block"
	"github.com/go-gl/mathgl/mgl64"
)

// RefKind тег варианта ссылки на объект мира
type RefKind uint8

const (
	RefNone  RefKind = iota // Ничего не выбрано
	RefBlock                // Блок
	RefTree                 // Дерево
)

// EntityRef ссылка на объект мира, возвращаемая пикингом и наведением.
// Вместо проверки типа во время выполнения удаление переключается по Kind.
type EntityRef struct {
	Kind     RefKind
	Position vec.Vec3
}

// BlockRef создаёт ссылку на блок
func BlockRef(pos vec.Vec3) EntityRef { return EntityRef{Kind: RefBlock, Position: pos} }

// TreeRef создаёт ссылку на дерево
func TreeRef(pos vec.Vec3) EntityRef { return EntityRef{Kind: RefTree, Position: pos} }

// Hit результат пересечения луча с миром
type Hit struct {
	Hit      bool       // Было ли пересечение
	Target   EntityRef  // Объект, в который попал луч
	Position mgl64.Vec3 // Точка попадания
	Normal   mgl64.Vec3 // Нормаль поверхности в точке попадания
}

// Picker внешний пикинг лучом (рендер-движок)
type Picker interface {
	Raycast(origin, direction mgl64.Vec3, maxDistance float64) Hit
}

// Hover внешний источник объекта под курсором
type Hover interface {
	Hovered() EntityRef
}

// Observer хуки рендера, звука и интерфейса. Ядро только вызывает их.
type Observer interface {
	BlockPlaced(b Block)
	BlockRemoved(b Block)
	TreeRemoved(t Tree)
	ChunkSimplified(coords vec.Vec2, geometry *MergedGeometry)
	ChunkDetailed(coords vec.Vec2)
	SelectionChanged(kind block.Kind)
	PlayerRespawned(pos mgl64.Vec3)
	GameSaved()
	GameLoaded()
	// Message видимое пользователю сообщение (например, об ошибке загрузки)
	Message(text string)
}

// NopObserver пустая реализация Observer; удобно встраивать
type NopObserver struct{}

func (NopObserver) BlockPlaced(Block)                         {}
func (NopObserver) BlockRemoved(Block)                        {}
func (NopObserver) TreeRemoved(Tree)                          {}
func (NopObserver) ChunkSimplified(vec.Vec2, *MergedGeometry) {}
func (NopObserver) ChunkDetailed(vec.Vec2)                    {}
func (NopObserver) SelectionChanged(block.Kind)               {}
func (NopObserver) PlayerRespawned(mgl64.Vec3)                {}
func (NopObserver) GameSaved()                                {}
func (NopObserver) GameLoaded()                               {}
func (NopObserver) Message(string)                            {}

// MultiObserver рассылает каждый хук всем наблюдателям по порядку
type MultiObserver []Observer

func (m MultiObserver) BlockPlaced(b Block) {
	for _, o := range m {
		o.BlockPlaced(b)
	}
}

func (m MultiObserver) BlockRemoved(b Block) {
	for _, o := range m {
		o.BlockRemoved(b)
	}
}

func (m MultiObserver) TreeRemoved(t Tree) {
	for _, o := range m {
		o.TreeRemoved(t)
	}
}

func (m MultiObserver) ChunkSimplified(coords vec.Vec2, g *MergedGeometry) {
	for _, o := range m {
		o.ChunkSimplified(coords, g)
	}
}

func (m MultiObserver) ChunkDetailed(coords vec.Vec2) {
	for _, o := range m {
		o.ChunkDetailed(coords)
	}
}

func (m MultiObserver) SelectionChanged(kind block.Kind) {
	for _, o := range m {
		o.SelectionChanged(kind)
	}
}

func (m MultiObserver) PlayerRespawned(pos mgl64.Vec3) {
	for _, o := range m {
		o.PlayerRespawned(pos)
	}
}

func (m MultiObserver) GameSaved() {
	for _, o := range m {
		o.GameSaved()
	}
}

func (m MultiObserver) GameLoaded() {
	for _, o := range m {
		o.GameLoaded()
	}
}

func (m MultiObserver) Message(text string) {
	for _, o := range m {
		o.Message(text)
	}
}

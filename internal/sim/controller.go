package sim

import (
	"context"
	"errors"

	"github.com/annel0/voxel-sandbox/internal/logging"
	"github.com/annel0/voxel-sandbox/internal/storage"
	"github.com/annel0/voxel-sandbox/internal/world"
	"github.com/go-gl/mathgl/mgl64"
)

// PickDistance дальность луча установки блока
const PickDistance = 10

// InputKind тип события ввода
type InputKind uint8

const (
	InputPlace      InputKind = iota // Установить выбранный блок по лучу камеры
	InputRemove                      // Удалить объект под курсором
	InputScrollUp                    // Следующий материал
	InputScrollDown                  // Предыдущий материал
	InputSave                        // Сохранить игру
	InputLoad                        // Загрузить игру
	InputNewGame                     // Сгенерировать новый мир
	InputMenu                        // Открыть/закрыть меню (пауза)
)

var inputNames = map[InputKind]string{
	InputPlace:      "place",
	InputRemove:     "remove",
	InputScrollUp:   "scroll_up",
	InputScrollDown: "scroll_down",
	InputSave:       "save",
	InputLoad:       "load",
	InputNewGame:    "new_game",
	InputMenu:       "menu",
}

func (k InputKind) String() string {
	if name, ok := inputNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseInputKind разбирает имя события ввода
func ParseInputKind(s string) (InputKind, bool) {
	for k, name := range inputNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Input событие ввода. Origin и Direction задают луч камеры для InputPlace и InputRemove.
type Input struct {
	Kind      InputKind
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
}

// Aimer источник наведения, которому нужен текущий луч камеры
type Aimer interface {
	Aim(origin, direction mgl64.Vec3)
}

// Controller переводит события ввода в операции над миром.
// Вызывается только из горутины цикла.
type Controller struct {
	world  *world.World
	picker world.Picker
	hover  world.Hover
	saves  *storage.Manager
	loop   *Loop
	logger *logging.Logger
}

// ControllerOption настраивает Controller
type ControllerOption func(*Controller)

// WithPicker подключает пикинг лучом
func WithPicker(p world.Picker) ControllerOption { return func(c *Controller) { c.picker = p } }

// WithHover подключает источник объекта под курсором
func WithHover(h world.Hover) ControllerOption { return func(c *Controller) { c.hover = h } }

// WithSaves подключает менеджер сохранений
func WithSaves(m *storage.Manager) ControllerOption { return func(c *Controller) { c.saves = m } }

// WithLoop позволяет меню ставить цикл на паузу
func WithLoop(l *Loop) ControllerOption { return func(c *Controller) { c.loop = l } }

// WithControllerLogger задаёт логгер
func WithControllerLogger(l *logging.Logger) ControllerOption {
	return func(c *Controller) { c.logger = l }
}

// NewController создаёт контроллер ввода
func NewController(w *world.World, opts ...ControllerOption) *Controller {
	c := &Controller{world: w, logger: logging.Discard()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Handle обрабатывает событие. Возвращает true, если мир или выбор изменились.
// Ошибки сохранения и загрузки не возвращаются: они пишутся в лог и показываются через Observer.Message.
func (c *Controller) Handle(ctx context.Context, in Input) bool {
	c.logger.Debug("Ввод: %s", in.Kind)

	switch in.Kind {
	case InputPlace:
		if c.picker == nil {
			return false
		}
		hit := c.picker.Raycast(in.Origin, in.Direction, PickDistance)
		return c.world.PlaceAt(hit)

	case InputRemove:
		if c.hover == nil {
			return false
		}
		if a, ok := c.hover.(Aimer); ok {
			a.Aim(in.Origin, in.Direction)
		}
		return c.world.RemoveTarget(c.hover.Hovered())

	case InputScrollUp:
		c.world.ScrollSelection(1)
		return true

	case InputScrollDown:
		c.world.ScrollSelection(-1)
		return true

	case InputSave:
		return c.save(ctx)

	case InputLoad:
		return c.load(ctx)

	case InputNewGame:
		c.world.GenerateWorld()
		c.world.SetPlayer(c.world.Config().SpawnPosition)
		c.setPaused(false)
		return true

	case InputMenu:
		if c.loop == nil {
			return false
		}
		c.setPaused(!c.loop.Paused())
		return true
	}

	c.logger.Warn("Неизвестное событие ввода: %d", in.Kind)
	return false
}

func (c *Controller) save(ctx context.Context) bool {
	if c.saves == nil {
		c.report("Сохранение недоступно")
		return false
	}
	if _, err := c.saves.Save(ctx, c.world); err != nil {
		c.logger.Error("Ошибка сохранения: %v", err)
		c.report("Не удалось сохранить игру")
		return false
	}
	return true
}

func (c *Controller) load(ctx context.Context) bool {
	if c.saves == nil {
		c.report("Сохранение недоступно")
		return false
	}
	if _, err := c.saves.Load(ctx, c.world); err != nil {
		c.logger.Error("Ошибка загрузки: %v", err)
		switch {
		case errors.Is(err, storage.ErrNoSnapshot):
			c.report("Сохранение не найдено")
		case storage.IsCorrupt(err):
			c.report("Сохранение повреждено")
		default:
			c.report("Не удалось загрузить игру")
		}
		return false
	}
	c.setPaused(false)
	return true
}

func (c *Controller) report(text string) {
	c.world.Observer().Message(text)
}

func (c *Controller) setPaused(p bool) {
	if c.loop != nil {
		c.loop.SetPaused(p)
	}
}

package sim

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/annel0/voxel-sandbox/internal/logging"
	"github.com/annel0/voxel-sandbox/internal/world"
)

// DefaultTickRate тиков в секунду
const DefaultTickRate = 60

// ErrStopped цикл симуляции остановлен
var ErrStopped = errors.New("цикл симуляции остановлен")

// command замыкание, выполняемое в горутине цикла
type command struct {
	fn   func(w *world.World) error
	done chan error
}

// Loop владеет миром и выполняет все его изменения в одной горутине.
// Другие горутины (HTTP, сигналы) работают с миром только через Do.
type Loop struct {
	world    *world.World
	interval time.Duration
	commands chan command
	stopped  chan struct{}
	tickID   atomic.Uint64
	paused   atomic.Bool
	logger   *logging.Logger
}

// NewLoop создаёт цикл с частотой tickRate; tickRate <= 0 означает DefaultTickRate
func NewLoop(w *world.World, tickRate int, logger *logging.Logger) *Loop {
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Loop{
		world:    w,
		interval: time.Second / time.Duration(tickRate),
		commands: make(chan command, 64),
		stopped:  make(chan struct{}),
		logger:   logger,
	}
}

// Interval возвращает длительность тика
func (l *Loop) Interval() time.Duration { return l.interval }

// TickID возвращает номер последнего выполненного тика
func (l *Loop) TickID() uint64 { return l.tickID.Load() }

// Paused сообщает, приостановлена ли симуляция (открыто меню)
func (l *Loop) Paused() bool { return l.paused.Load() }

// SetPaused приостанавливает или возобновляет тики. Команды выполняются и на паузе.
func (l *Loop) SetPaused(p bool) { l.paused.Store(p) }

// Run выполняет тики до отмены ctx. Вызывается один раз.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.stopped)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.logger.Info("Цикл симуляции запущен: тик %s", l.interval)
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Цикл симуляции остановлен на тике %d", l.TickID())
			return ctx.Err()
		case cmd := <-l.commands:
			cmd.done <- cmd.fn(l.world)
		case <-ticker.C:
			l.Step()
			l.drain()
		}
	}
}

// Step выполняет один тик синхронно: проход Update по позиции игрока.
// Используется циклом, тестами и инструментами без запущенного Run.
func (l *Loop) Step() {
	if l.paused.Load() {
		return
	}
	l.world.Update(l.world.Player())
	l.tickID.Add(1)
}

// drain выполняет накопившиеся команды, не блокируясь
func (l *Loop) drain() {
	for {
		select {
		case cmd := <-l.commands:
			cmd.done <- cmd.fn(l.world)
		default:
			return
		}
	}
}

// Do ставит fn в очередь цикла и ждёт результата
func (l *Loop) Do(ctx context.Context, fn func(w *world.World) error) error {
	cmd := command{fn: fn, done: make(chan error, 1)}

	select {
	case l.commands <- cmd:
	case <-l.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.done:
		return err
	case <-l.stopped:
		// Команда могла выполниться перед остановкой
		select {
		case err := <-cmd.done:
			return err
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
)

// LoggerManager выдаёт логгеры компонентов (world, storage, server, events)
// с общим уровнем и общим приёмником: консоль или файлы в LogDir.
type LoggerManager struct {
	mu      sync.Mutex
	loggers map[string]*Logger
	level   LogLevel
	toFile  bool
	console io.Writer
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// NewLoggerManager создаёт менеджер, пишущий в console с уровнем INFO
func NewLoggerManager(console io.Writer) *LoggerManager {
	return &LoggerManager{
		loggers: make(map[string]*Logger),
		level:   INFO,
		console: console,
	}
}

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = NewLoggerManager(os.Stdout)
	})
	return globalManager
}

// Configure задаёт уровень консоли и запись в файлы; уже выданные логгеры получают новый уровень
func (lm *LoggerManager) Configure(level LogLevel, toFile bool) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	lm.level = level
	lm.toFile = toFile
	for _, l := range lm.loggers {
		l.SetLevels(level, DEBUG)
	}
}

// Component возвращает логгер компонента, создавая его при первом обращении.
// Если файл логов не открылся, компонент пишет только в консоль.
func (lm *LoggerManager) Component(component string) *Logger {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if l, ok := lm.loggers[component]; ok {
		return l
	}

	var l *Logger
	if lm.toFile {
		fl, err := NewLogger(component)
		if err != nil {
			Warn("Логгер %s без файла: %v", component, err)
		} else {
			fl.SetLevels(lm.level, DEBUG)
			l = fl
		}
	}
	if l == nil {
		l = NewWriterLogger(component, lm.console, lm.level)
	}
	lm.loggers[component] = l
	return l
}

// Components возвращает имена выданных логгеров по алфавиту
func (lm *LoggerManager) Components() []string {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	names := make([]string, 0, len(lm.loggers))
	for name := range lm.loggers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CloseAll закрывает файлы всех логгеров и забывает их
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var errs []error
	for name, l := range lm.loggers {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("логгер %s: %w", name, err))
		}
	}
	lm.loggers = make(map[string]*Logger)
	return errors.Join(errs...)
}

// GetComponentLogger возвращает логгер компонента из глобального менеджера
func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().Component(component)
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v3"
)

const slotPrefix = "save:"

// DefaultSlot слот сохранения по умолчанию
const DefaultSlot = "default"

// BadgerStore хранит слоты сохранений в BadgerDB
type BadgerStore struct {
	db      *badger.DB
	dbPath  string
	slot    string
	mutex   sync.RWMutex
	isReady bool
}

// NewBadgerStore открывает базу в dataPath/saves; slot задаёт текущий слот
func NewBadgerStore(dataPath, slot string) (*BadgerStore, error) {
	dbPath := filepath.Join(dataPath, "saves")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	if slot == "" {
		slot = DefaultSlot
	}
	return &BadgerStore{
		db:      db,
		dbPath:  dbPath,
		slot:    slot,
		isReady: true,
	}, nil
}

// Slot возвращает текущий слот
func (bs *BadgerStore) Slot() string {
	bs.mutex.RLock()
	defer bs.mutex.RUnlock()
	return bs.slot
}

// UseSlot переключает текущий слот
func (bs *BadgerStore) UseSlot(slot string) {
	bs.mutex.Lock()
	defer bs.mutex.Unlock()
	bs.slot = slot
}

// Close закрывает хранилище данных
func (bs *BadgerStore) Close() error {
	bs.mutex.Lock()
	defer bs.mutex.Unlock()

	if !bs.isReady {
		return nil
	}

	bs.isReady = false
	return bs.db.Close()
}

// WriteSnapshot записывает сохранение в текущий слот
func (bs *BadgerStore) WriteSnapshot(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bs.mutex.RLock()
	defer bs.mutex.RUnlock()

	if !bs.isReady {
		return fmt.Errorf("хранилище не готово")
	}

	key := slotPrefix + bs.slot
	err := bs.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return nil
}

// ReadSnapshot читает сохранение из текущего слота
func (bs *BadgerStore) ReadSnapshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bs.mutex.RLock()
	defer bs.mutex.RUnlock()

	if !bs.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}

	key := slotPrefix + bs.slot
	var data []byte

	// Читаем данные из BadgerDB
	err := bs.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...)
			return nil
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: слот %q", ErrNoSnapshot, bs.slot)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	return data, nil
}

// SetAside переносит текущий слот в слот <slot>.<suffix> одной транзакцией
func (bs *BadgerStore) SetAside(ctx context.Context, suffix string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	bs.mutex.RLock()
	defer bs.mutex.RUnlock()

	if !bs.isReady {
		return "", fmt.Errorf("хранилище не готово")
	}

	target := bs.slot + "." + suffix
	err := bs.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(slotPrefix + bs.slot))
		if err != nil {
			return err
		}
		data, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := txn.Set([]byte(slotPrefix+target), data); err != nil {
			return err
		}
		return txn.Delete([]byte(slotPrefix + bs.slot))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", fmt.Errorf("%w: слот %q", ErrNoSnapshot, bs.slot)
	}
	if err != nil {
		return "", fmt.Errorf("ошибка переноса слота %q: %w", bs.slot, err)
	}
	return target, nil
}

// DeleteSlot удаляет слот; отсутствующий слот - не ошибка
func (bs *BadgerStore) DeleteSlot(slot string) error {
	bs.mutex.RLock()
	defer bs.mutex.RUnlock()

	if !bs.isReady {
		return fmt.Errorf("хранилище не готово")
	}
	return bs.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(slotPrefix + slot))
	})
}

// Slots возвращает отсортированные имена сохранённых слотов
func (bs *BadgerStore) Slots() ([]string, error) {
	bs.mutex.RLock()
	defer bs.mutex.RUnlock()

	if !bs.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}

	var slots []string
	err := bs.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(slotPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			slots = append(slots, strings.TrimPrefix(string(it.Item().Key()), slotPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка перечисления слотов: %w", err)
	}

	sort.Strings(slots)
	return slots, nil
}

var _ SnapshotStore = (*BadgerStore)(nil)

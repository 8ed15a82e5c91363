package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// SnapshotStore хранилище закодированных снимков
type SnapshotStore interface {
	// WriteSnapshot полностью заменяет сохранение
	WriteSnapshot(ctx context.Context, data []byte) error
	// ReadSnapshot читает сохранение; ErrNoSnapshot, если его нет
	ReadSnapshot(ctx context.Context) ([]byte, error)
	// SetAside переносит текущее сохранение под новое имя и возвращает его.
	// После этого ReadSnapshot возвращает ErrNoSnapshot.
	SetAside(ctx context.Context, suffix string) (string, error)
	Close() error
}

// FileStore хранит одно сохранение в файле по фиксированному пути
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore создаёт файловое хранилище; каталог создаётся при необходимости
func NewFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("не удалось создать директорию %s: %w", dir, err)
		}
	}
	return &FileStore{path: path}, nil
}

// Path возвращает путь к файлу сохранения
func (s *FileStore) Path() string { return s.path }

// WriteSnapshot записывает данные во временный файл и переименовывает его поверх сохранения
func (s *FileStore) WriteSnapshot(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("ошибка установки прав сохранения: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("ошибка записи сохранения: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("ошибка синхронизации сохранения: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ошибка закрытия сохранения: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ошибка замены файла %s: %w", s.path, err)
	}
	return nil
}

// ReadSnapshot читает файл сохранения целиком
func (s *FileStore) ReadSnapshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoSnapshot, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла %s: %w", s.path, err)
	}
	return data, nil
}

// SetAside переименовывает файл сохранения в <path>.<suffix>
func (s *FileStore) SetAside(ctx context.Context, suffix string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.path + "." + suffix
	if err := os.Rename(s.path, target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNoSnapshot, s.path)
		}
		return "", fmt.Errorf("ошибка переименования %s: %w", s.path, err)
	}
	return target, nil
}

// Remove удаляет файл сохранения; отсутствующий файл - не ошибка
func (s *FileStore) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Close ничего не держит открытым
func (s *FileStore) Close() error { return nil }

var _ SnapshotStore = (*FileStore)(nil)

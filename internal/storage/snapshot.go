package storage

import (
	"errors"
	"time"

	"github.com/annel0/voxel-sandbox/internal/world"
	"github.com/google/uuid"
)

// FormatVersion текущая версия формата файла сохранения
const FormatVersion uint8 = 1

var (
	// ErrNoSnapshot сохранение отсутствует (файл или слот не найден)
	ErrNoSnapshot = errors.New("сохранение не найдено")
	// ErrCorrupt данные сохранения повреждены или имеют неизвестный формат
	ErrCorrupt = errors.New("сохранение повреждено")
)

// Header заголовок сохранения
type Header struct {
	Version   uint8
	SaveID    uuid.UUID
	CreatedAt time.Time
}

// Snapshot снимок состояния мира с заголовком
type Snapshot struct {
	Header Header
	State  world.State
}

// NewSnapshot оборачивает состояние в снимок с новым идентификатором
func NewSnapshot(state world.State) *Snapshot {
	return &Snapshot{
		Header: Header{
			Version:   FormatVersion,
			SaveID:    uuid.New(),
			CreatedAt: time.Now().UTC(),
		},
		State: state,
	}
}

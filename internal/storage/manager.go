package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/annel0/voxel-sandbox/internal/logging"
	"github.com/annel0/voxel-sandbox/internal/metrics"
	"github.com/annel0/voxel-sandbox/internal/world"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/annel0/voxel-sandbox/internal/storage"

// Manager сохраняет и загружает мир через SnapshotStore
type Manager struct {
	store   SnapshotStore
	metrics *metrics.PersistenceMetrics
	tracer  trace.Tracer
	logger  *logging.Logger
}

// ManagerOption настраивает Manager
type ManagerOption func(*Manager)

// WithPersistenceMetrics подключает метрики сохранений
func WithPersistenceMetrics(m *metrics.PersistenceMetrics) ManagerOption {
	return func(mgr *Manager) { mgr.metrics = m }
}

// WithManagerLogger задаёт логгер
func WithManagerLogger(l *logging.Logger) ManagerOption {
	return func(mgr *Manager) { mgr.logger = l }
}

// NewManager создаёт менеджер сохранений поверх store
func NewManager(store SnapshotStore, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:  store,
		tracer: otel.Tracer(tracerName),
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store возвращает хранилище
func (m *Manager) Store() SnapshotStore { return m.store }

// Save снимает состояние мира, кодирует его и записывает в хранилище.
// Возвращает заголовок записанного сохранения.
func (m *Manager) Save(ctx context.Context, w *world.World) (Header, error) {
	ctx, span := m.tracer.Start(ctx, "storage.Save")
	defer span.End()
	start := time.Now()

	snap := NewSnapshot(w.Capture())
	span.SetAttributes(
		attribute.String("save.id", snap.Header.SaveID.String()),
		attribute.Int("save.chunks", len(snap.State.Chunks)),
		attribute.Int("save.blocks", snap.State.BlockCount()),
		attribute.Int("save.trees", len(snap.State.Trees)),
	)

	var buf bytes.Buffer
	if err := Encode(&buf, snap); err != nil {
		return Header{}, m.fail(span, "save", start, fmt.Errorf("ошибка кодирования сохранения: %w", err))
	}
	if err := m.store.WriteSnapshot(ctx, buf.Bytes()); err != nil {
		return Header{}, m.fail(span, "save", start, fmt.Errorf("ошибка записи сохранения: %w", err))
	}

	m.metrics.Observe("save", time.Since(start), buf.Len(), nil)
	w.Observer().GameSaved()
	m.logger.Info("Игра сохранена: %s (%d чанков, %d блоков, %d деревьев, %d байт)",
		snap.Header.SaveID, len(snap.State.Chunks), snap.State.BlockCount(), len(snap.State.Trees), buf.Len())
	return snap.Header, nil
}

// Load читает и декодирует сохранение, затем восстанавливает мир.
// При любой ошибке мир остаётся нетронутым.
func (m *Manager) Load(ctx context.Context, w *world.World) (Header, error) {
	ctx, span := m.tracer.Start(ctx, "storage.Load")
	defer span.End()
	start := time.Now()

	snap, size, err := m.Read(ctx)
	if err != nil {
		return Header{}, m.fail(span, "load", start, err)
	}
	span.SetAttributes(
		attribute.String("save.id", snap.Header.SaveID.String()),
		attribute.Int("save.chunks", len(snap.State.Chunks)),
		attribute.Int("save.trees", len(snap.State.Trees)),
	)
	if err := snap.State.Validate(w.Config().ChunkSize); err != nil {
		return Header{}, m.fail(span, "load", start, corrupt("%v", err))
	}

	w.Restore(snap.State)

	m.metrics.Observe("load", time.Since(start), size, nil)
	w.Observer().GameLoaded()
	m.logger.Info("Игра загружена: %s от %s", snap.Header.SaveID, snap.Header.CreatedAt.Format(time.RFC3339))
	return snap.Header, nil
}

// Read читает и декодирует сохранение, не трогая мир. Возвращает размер данных.
func (m *Manager) Read(ctx context.Context) (*Snapshot, int, error) {
	data, err := m.store.ReadSnapshot(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка чтения сохранения: %w", err)
	}
	snap, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, len(data), err
	}
	return snap, len(data), nil
}

// Quarantine убирает повреждённое сохранение в сторону, чтобы следующий Save
// его не затёр. Возвращает новое имя файла или слота.
func (m *Manager) Quarantine(ctx context.Context) (string, error) {
	suffix := "corrupt-" + time.Now().UTC().Format("20060102T150405")
	name, err := m.store.SetAside(ctx, suffix)
	if err != nil {
		return "", fmt.Errorf("не удалось отложить сохранение: %w", err)
	}
	m.logger.Warn("Повреждённое сохранение перенесено в %s", name)
	return name, nil
}

func (m *Manager) fail(span trace.Span, op string, start time.Time, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	m.metrics.Observe(op, time.Since(start), 0, err)
	m.logger.Error("Операция %s не выполнена: %v", op, err)
	return err
}

// Close закрывает хранилище
func (m *Manager) Close() error {
	return m.store.Close()
}

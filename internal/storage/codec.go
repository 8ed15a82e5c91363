package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/annel0/voxel-sandbox/internal/vec"
	"github.com/annel0/voxel-sandbox/internal/world"
	"github.com/annel0/voxel-sandbox/internal/world/block"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

const saveMagic = 0xB10C

// maxBodySize ограничивает размер распакованного тела
const maxBodySize = 256 << 20

// Размеры записей тела в байтах
const (
	blockRecordSize = 13
	treeRecordSize  = 16
	chunkHeaderSize = 12
)

type fileHeader struct {
	Magic     uint16
	Version   uint8
	SaveID    [16]byte
	CreatedAt int64
}

type blockRecord struct {
	X, Y, Z int32
	Kind    uint8
}

type treeRecord struct {
	X, Y, Z int32
	Scale   float32
}

type chunkHeader struct {
	CX, CZ int32
	Count  uint32
}

func corrupt(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...))
}

// Encode записывает снимок в w: заголовок, затем тело, сжатое zstd
func Encode(w io.Writer, snap *Snapshot) (err error) {
	header := fileHeader{
		Magic:     saveMagic,
		Version:   FormatVersion,
		SaveID:    snap.Header.SaveID,
		CreatedAt: snap.Header.CreatedAt.UnixNano(),
	}
	if err = binary.Write(w, binary.BigEndian, header); err != nil {
		return
	}

	var body bytes.Buffer
	if err = writeBody(&body, snap.State); err != nil {
		return
	}
	return writeZstdCompressed(w, &body)
}

func writeBody(out *bytes.Buffer, s world.State) (err error) {
	player := [3]float64{s.Player.X(), s.Player.Y(), s.Player.Z()}
	if err = binary.Write(out, binary.BigEndian, player); err != nil {
		return
	}

	if err = binary.Write(out, binary.BigEndian, uint32(len(s.Chunks))); err != nil {
		return
	}
	for _, c := range s.Chunks {
		if !fitsInt32(c.Coords.X, c.Coords.Z) {
			return fmt.Errorf("координаты чанка (%d,%d) вне диапазона int32", c.Coords.X, c.Coords.Z)
		}
		h := chunkHeader{CX: int32(c.Coords.X), CZ: int32(c.Coords.Z), Count: uint32(len(c.Blocks))}
		if err = binary.Write(out, binary.BigEndian, h); err != nil {
			return
		}
		for _, b := range c.Blocks {
			if !fitsInt32(b.Position.X, b.Position.Y, b.Position.Z) {
				return fmt.Errorf("позиция блока %v вне диапазона int32", b.Position)
			}
			rec := blockRecord{
				X:    int32(b.Position.X),
				Y:    int32(b.Position.Y),
				Z:    int32(b.Position.Z),
				Kind: uint8(b.Kind),
			}
			if err = binary.Write(out, binary.BigEndian, rec); err != nil {
				return
			}
		}
	}

	if err = binary.Write(out, binary.BigEndian, uint32(len(s.Trees))); err != nil {
		return
	}
	for _, t := range s.Trees {
		if !fitsInt32(t.Position.X, t.Position.Y, t.Position.Z) {
			return fmt.Errorf("позиция дерева %v вне диапазона int32", t.Position)
		}
		rec := treeRecord{
			X:     int32(t.Position.X),
			Y:     int32(t.Position.Y),
			Z:     int32(t.Position.Z),
			Scale: t.Scale,
		}
		if err = binary.Write(out, binary.BigEndian, rec); err != nil {
			return
		}
	}
	return
}

func fitsInt32(values ...int) bool {
	for _, v := range values {
		if v < math.MinInt32 || v > math.MaxInt32 {
			return false
		}
	}
	return true
}

func writeZstdCompressed(w io.Writer, buf *bytes.Buffer) (err error) {
	uncompressedSize := buf.Len()

	var compressed bytes.Buffer
	enc, err := zstd.NewWriter(&compressed)
	if err != nil {
		return
	}
	if _, err = buf.WriteTo(enc); err != nil {
		enc.Close()
		return
	}
	if err = enc.Close(); err != nil {
		return
	}

	if err = binary.Write(w, binary.BigEndian, uint32(compressed.Len())); err != nil {
		return
	}
	if err = binary.Write(w, binary.BigEndian, uint32(uncompressedSize)); err != nil {
		return
	}
	_, err = compressed.WriteTo(w)
	return
}

// Decode читает снимок из r. Любое нарушение формата возвращает ошибку ErrCorrupt.
func Decode(r io.Reader) (*Snapshot, error) {
	var header fileHeader
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, corrupt("заголовок: %v", err)
	}
	if header.Magic != saveMagic {
		return nil, corrupt("неверная сигнатура 0x%04X", header.Magic)
	}
	if header.Version != FormatVersion {
		return nil, corrupt("неизвестная версия формата %d", header.Version)
	}

	var sizes [2]uint32
	if err := binary.Read(r, binary.BigEndian, &sizes); err != nil {
		return nil, corrupt("размеры тела: %v", err)
	}
	compressedSize, uncompressedSize := sizes[0], sizes[1]
	if uncompressedSize > maxBodySize || compressedSize > maxBodySize {
		return nil, corrupt("слишком большое тело: %d байт", uncompressedSize)
	}

	// буфер растёт по мере чтения, заголовку на слово не верим
	compressed, err := io.ReadAll(io.LimitReader(r, int64(compressedSize)))
	if err != nil {
		return nil, corrupt("тело: %v", err)
	}
	if len(compressed) != int(compressedSize) {
		return nil, corrupt("тело обрезано: %d байт из %d", len(compressed), compressedSize)
	}
	if n, _ := r.Read(make([]byte, 1)); n > 0 {
		return nil, corrupt("лишние данные после тела")
	}

	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("не удалось создать zstd-декодер: %w", err)
	}
	defer dec.Close()

	body, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, corrupt("распаковка: %v", err)
	}
	if len(body) != int(uncompressedSize) {
		return nil, corrupt("размер тела %d, ожидался %d", len(body), uncompressedSize)
	}

	state, err := readBody(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Header: Header{
			Version:   header.Version,
			SaveID:    uuid.UUID(header.SaveID),
			CreatedAt: time.Unix(0, header.CreatedAt).UTC(),
		},
		State: state,
	}, nil
}

func readBody(in *bytes.Reader) (world.State, error) {
	var s world.State

	var player [3]float64
	if err := binary.Read(in, binary.BigEndian, &player); err != nil {
		return s, corrupt("позиция игрока: %v", err)
	}
	s.Player = mgl64.Vec3{player[0], player[1], player[2]}

	var chunkCount uint32
	if err := binary.Read(in, binary.BigEndian, &chunkCount); err != nil {
		return s, corrupt("количество чанков: %v", err)
	}
	if int64(chunkCount)*chunkHeaderSize > int64(in.Len()) {
		return s, corrupt("количество чанков %d превышает размер тела", chunkCount)
	}

	s.Chunks = make([]world.ChunkState, 0, chunkCount)
	for i := uint32(0); i < chunkCount; i++ {
		var h chunkHeader
		if err := binary.Read(in, binary.BigEndian, &h); err != nil {
			return s, corrupt("чанк %d: %v", i, err)
		}
		if int64(h.Count)*blockRecordSize > int64(in.Len()) {
			return s, corrupt("чанк (%d,%d): %d блоков превышает размер тела", h.CX, h.CZ, h.Count)
		}

		cs := world.ChunkState{
			Coords: vec.Vec2{X: int(h.CX), Z: int(h.CZ)},
			Blocks: make([]world.Block, 0, h.Count),
		}
		for j := uint32(0); j < h.Count; j++ {
			var rec blockRecord
			if err := binary.Read(in, binary.BigEndian, &rec); err != nil {
				return s, corrupt("блок %d чанка (%d,%d): %v", j, h.CX, h.CZ, err)
			}
			cs.Blocks = append(cs.Blocks, world.Block{
				Position: vec.Vec3{X: int(rec.X), Y: int(rec.Y), Z: int(rec.Z)},
				Kind:     block.Kind(rec.Kind),
			})
		}
		s.Chunks = append(s.Chunks, cs)
	}

	var treeCount uint32
	if err := binary.Read(in, binary.BigEndian, &treeCount); err != nil {
		return s, corrupt("количество деревьев: %v", err)
	}
	if int64(treeCount)*treeRecordSize > int64(in.Len()) {
		return s, corrupt("количество деревьев %d превышает размер тела", treeCount)
	}

	s.Trees = make([]world.Tree, 0, treeCount)
	for i := uint32(0); i < treeCount; i++ {
		var rec treeRecord
		if err := binary.Read(in, binary.BigEndian, &rec); err != nil {
			return s, corrupt("дерево %d: %v", i, err)
		}
		s.Trees = append(s.Trees, world.Tree{
			Position: vec.Vec3{X: int(rec.X), Y: int(rec.Y), Z: int(rec.Z)},
			Scale:    rec.Scale,
		})
	}

	if in.Len() != 0 {
		return s, corrupt("лишние %d байт в теле", in.Len())
	}
	return s, nil
}

// IsCorrupt сообщает, что ошибка вызвана повреждёнными данными
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorrupt)
}

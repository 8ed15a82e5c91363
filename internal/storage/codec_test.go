package storage

import (
	"bytes"
	"encoding/binary"
	"math"
	"runtime"
	"testing"
	"time"

	"github.com/annel0/voxel-sandbox/internal/vec"
	"github.com/annel0/voxel-sandbox/internal/world"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState() world.State {
	return world.State{
		Player: mgl64.Vec3{1.5, -2.25, 1e6},
		Chunks: []world.ChunkState{
			{Coords: vec.Vec2{X: 0, Z: 0}, Blocks: []world.Block{
				{Position: vec.Vec3{X: 0, Y: 1, Z: 2}, Kind: 3},
				{Position: vec.Vec3{X: 3, Y: -4, Z: 1}, Kind: 0},
			}},
			{Coords: vec.Vec2{X: -1, Z: 7}, Blocks: []world.Block{
				{Position: vec.Vec3{X: -4, Y: 100, Z: 28}, Kind: 5},
			}},
		},
		Trees: []world.Tree{
			{Position: vec.Vec3{X: 0, Y: 2, Z: 2}, Scale: 4},
			{Position: vec.Vec3{X: -3, Y: 101, Z: 29}, Scale: 3},
		},
	}
}

func encodeSample(t *testing.T) (*Snapshot, []byte) {
	t.Helper()
	snap := NewSnapshot(sampleState())
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, snap))
	return snap, buf.Bytes()
}

func TestCodec_RoundTrip(t *testing.T) {
	snap, data := encodeSample(t)

	got, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, FormatVersion, got.Header.Version)
	assert.Equal(t, snap.Header.SaveID, got.Header.SaveID)
	assert.True(t, snap.Header.CreatedAt.Equal(got.Header.CreatedAt))
	assert.Equal(t, snap.State, got.State)
}

func TestCodec_EmptyWorld(t *testing.T) {
	snap := &Snapshot{
		Header: Header{Version: FormatVersion, SaveID: uuid.New(), CreatedAt: time.Unix(0, 42).UTC()},
	}
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, snap))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Empty(t, got.State.Chunks)
	assert.Empty(t, got.State.Trees)
	assert.Equal(t, int64(42), got.Header.CreatedAt.UnixNano())
}

func TestCodec_HeaderLayout(t *testing.T) {
	snap, data := encodeSample(t)

	assert.Equal(t, uint16(0xB10C), binary.BigEndian.Uint16(data[0:2]))
	assert.Equal(t, FormatVersion, data[2])
	assert.Equal(t, snap.Header.SaveID[:], data[3:19])
	assert.Equal(t, snap.Header.CreatedAt.UnixNano(), int64(binary.BigEndian.Uint64(data[19:27])))

	compressed := binary.BigEndian.Uint32(data[27:31])
	assert.Equal(t, len(data)-35, int(compressed))
}

func TestCodec_Corrupt(t *testing.T) {
	_, data := encodeSample(t)

	mutate := func(f func(b []byte) []byte) []byte {
		b := append([]byte(nil), data...)
		return f(b)
	}

	cases := map[string][]byte{
		"empty":          {},
		"bad magic":      mutate(func(b []byte) []byte { b[0] = 0xFF; return b }),
		"bad version":    mutate(func(b []byte) []byte { b[2] = 9; return b }),
		"short header":   data[:10],
		"truncated body": data[:len(data)-3],
		"trailing data":  append(append([]byte(nil), data...), 0x00),
		"size mismatch": mutate(func(b []byte) []byte {
			binary.BigEndian.PutUint32(b[31:35], binary.BigEndian.Uint32(b[31:35])+1)
			return b
		}),
		"garbage body": mutate(func(b []byte) []byte {
			for i := 35; i < len(b); i++ {
				b[i] ^= 0x5A
			}
			return b
		}),
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCorrupt)
			assert.True(t, IsCorrupt(err))
		})
	}
}

func TestCodec_BodyTrailingBytes(t *testing.T) {
	snap := NewSnapshot(sampleState())

	var body bytes.Buffer
	require.NoError(t, writeBody(&body, snap.State))
	body.WriteByte(0x01)

	var out bytes.Buffer
	require.NoError(t, binary.Write(&out, binary.BigEndian, fileHeader{
		Magic: saveMagic, Version: FormatVersion, SaveID: snap.Header.SaveID,
	}))
	require.NoError(t, writeZstdCompressed(&out, &body))

	_, err := Decode(&out)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestCodec_HugeDeclaredSizeOnShortFile(t *testing.T) {
	_, data := encodeSample(t)
	short := append([]byte(nil), data[:35]...)
	binary.BigEndian.PutUint32(short[27:31], maxBodySize)
	short = append(short, 0x01, 0x02, 0x03)

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	_, err := Decode(bytes.NewReader(short))
	runtime.ReadMemStats(&after)

	assert.ErrorIs(t, err, ErrCorrupt)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20),
		"размер из заголовка не выделяется заранее")
}

func TestCodec_EncodeRejectsOutOfRangePositions(t *testing.T) {
	far := math.MaxInt32
	far++

	cases := map[string]world.State{
		"чанк": {Chunks: []world.ChunkState{{Coords: vec.Vec2{X: far, Z: 0}}}},
		"блок": {Chunks: []world.ChunkState{{Blocks: []world.Block{
			{Position: vec.Vec3{X: 0, Y: -far - 1, Z: 0}},
		}}}},
		"дерево": {Trees: []world.Tree{{Position: vec.Vec3{X: 0, Y: 0, Z: far}, Scale: 3}}},
	}

	for name, state := range cases {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			err := Encode(&buf, NewSnapshot(state))
			assert.ErrorContains(t, err, "вне диапазона int32")
		})
	}
}

package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3_ChunkCoords(t *testing.T) {
	cases := []struct {
		pos  Vec3
		want Vec2
	}{
		{Vec3{X: 0, Y: 5, Z: 0}, Vec2{X: 0, Z: 0}},
		{Vec3{X: 3, Y: 0, Z: 4}, Vec2{X: 0, Z: 1}},
		{Vec3{X: -1, Y: 0, Z: -4}, Vec2{X: -1, Z: -1}},
		{Vec3{X: -5, Y: 0, Z: 8}, Vec2{X: -2, Z: 2}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.pos.ChunkCoords(4), "позиция %v", c.pos)
	}
}

func TestVec3_Less(t *testing.T) {
	a := Vec3{X: 1, Y: 2, Z: 3}
	assert.True(t, a.Less(Vec3{X: 1, Y: 2, Z: 4}))
	assert.True(t, a.Less(Vec3{X: 2, Y: 0, Z: 0}))
	assert.False(t, a.Less(a))
}

func TestVec2_Origin(t *testing.T) {
	assert.Equal(t, Vec3{X: 8, Y: 0, Z: 12}, Vec2{X: 2, Z: 3}.Origin(4))
	assert.InDelta(t, 5.0, Vec2{X: 0, Z: 0}.DistanceTo(Vec2{X: 3, Z: 4}), 1e-9)
}

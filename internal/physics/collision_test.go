package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestBoxCollider_IsPointInside(t *testing.T) {
	anchor := mgl64.Vec3{2, 5, 2}

	assert.True(t, BlockCollider.IsPointInside(anchor, mgl64.Vec3{2, 5.5, 2}))
	assert.True(t, BlockCollider.IsPointInside(anchor, mgl64.Vec3{1.6, 5, 2.4}))
	assert.False(t, BlockCollider.IsPointInside(anchor, mgl64.Vec3{2, 6, 2}), "верхняя грань не включается")
	assert.False(t, BlockCollider.IsPointInside(anchor, mgl64.Vec3{3, 5.5, 2}))
}

func TestCheckBoxCollision(t *testing.T) {
	player := mgl64.Vec3{0, 1, 0}

	assert.True(t, CheckBoxCollision(player, PlayerCollider, mgl64.Vec3{0, 2, 0}, BlockCollider), "блок на уровне головы")
	assert.False(t, CheckBoxCollision(player, PlayerCollider, mgl64.Vec3{0, 0, 0}, BlockCollider), "блок под ногами касается, но не пересекает")
	assert.False(t, CheckBoxCollision(player, PlayerCollider, mgl64.Vec3{2, 1, 0}, BlockCollider))
}

func TestAABB_Union(t *testing.T) {
	a := BlockCollider.Bounds(mgl64.Vec3{0, 0, 0})
	b := BlockCollider.Bounds(mgl64.Vec3{3, 2, -1})
	u := a.Union(b)

	assert.Equal(t, mgl64.Vec3{-0.5, 0, -1.5}, u.Min)
	assert.Equal(t, mgl64.Vec3{3.5, 3, 0.5}, u.Max)
	assert.Equal(t, "mesh", ColliderMesh.String())
}

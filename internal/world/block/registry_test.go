package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPalette_StepWraps(t *testing.T) {
	p := NewPalette(nil)
	last := Kind(p.Len() - 1)

	assert.Equal(t, StoneKind, p.Step(last, 1), "после последнего материала идёт первый")
	assert.Equal(t, last, p.Step(StoneKind, -1), "перед первым материалом идёт последний")
	assert.Equal(t, GrassKind, p.Step(DirtKind, 1))
	assert.Equal(t, StoneKind, p.Step(StoneKind, p.Len()*3))
}

func TestPalette_Normalize(t *testing.T) {
	p := NewPalette([]string{"a.png", "b.png", "c.png"})

	assert.True(t, p.IsValid(2))
	assert.False(t, p.IsValid(3))
	assert.Equal(t, Kind(1), p.Normalize(4))
	assert.Equal(t, "b.png", p.Texture(4))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "grass", DefaultKind.String())
	assert.Equal(t, "kind(42)", Kind(42).String())
}

package util

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoiseField_Deterministic(t *testing.T) {
	a := NewNoiseField(DefaultNoiseSeed)
	b := NewNoiseField(DefaultNoiseSeed)

	for x := -20; x < 20; x += 3 {
		for z := -20; z < 20; z += 7 {
			assert.Equal(t, a.Height(x, z), b.Height(x, z), "высота (%d,%d) должна совпадать", x, z)
		}
	}
}

func TestNoiseField_HeightBounded(t *testing.T) {
	n := NewNoiseField(DefaultNoiseSeed)
	for x := 0; x < 64; x++ {
		for z := 0; z < 64; z++ {
			h := n.Height(x, z)
			assert.GreaterOrEqual(t, h, -int(NoiseAmplitude)*2)
			assert.LessOrEqual(t, h, int(NoiseAmplitude)*2)
		}
	}
}

func TestNoiseField_ConcurrentReads(t *testing.T) {
	n := NewNoiseField(42)
	want := make([]int, 32)
	for i := range want {
		want[i] = n.Height(i*5, i*3)
	}

	var wg sync.WaitGroup
	errs := make(chan int, 8*len(want))
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range want {
				if n.Height(i*5, i*3) != want[i] {
					errs <- i
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	require.Empty(t, errs, "конкурентные чтения должны давать те же значения")
}

package util

import (
	"math"

	"github.com/aquilax/go-perlin"
)

// Параметры рельефа
const (
	DefaultNoiseSeed = 3504 // Сид по умолчанию, мир воспроизводим между запусками
	NoiseOctaves     = 2    // Количество октав
	NoiseFrequency   = 24.0 // Делитель мировых координат перед выборкой
	NoiseAmplitude   = 6.0  // Множитель высоты колонки

	noiseAlpha = 2.0 // Сглаживание шума
	noiseBeta  = 2.0 // Частота шума
)

// NoiseField детерминированная функция высоты рельефа.
// После создания только читается, поэтому безопасна для конкурентного вызова.
type NoiseField struct {
	seed   int64
	perlin *perlin.Perlin
}

// NewNoiseField создаёт поле высот с указанным сидом
func NewNoiseField(seed int64) *NoiseField {
	return &NoiseField{
		seed:   seed,
		perlin: perlin.NewPerlin(noiseAlpha, noiseBeta, NoiseOctaves, seed),
	}
}

// Seed возвращает сид генератора
func (n *NoiseField) Seed() int64 {
	return n.seed
}

// Sample возвращает сырое значение шума Перлина (примерно от -1 до 1)
func (n *NoiseField) Sample(x, z float64) float64 {
	return n.perlin.Noise2D(x, z)
}

// Height возвращает высоту поверхности для колонки блоков (x, z)
func (n *NoiseField) Height(blockX, blockZ int) int {
	v := n.Sample(float64(blockX)/NoiseFrequency, float64(blockZ)/NoiseFrequency)
	return int(math.Floor(v * NoiseAmplitude))
}

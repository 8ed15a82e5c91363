package block

import "fmt"

// Kind представляет материал блока (индекс в таблице текстур)
type Kind uint8

// Константы материалов в порядке стандартной таблицы текстур
const (
	StoneKind Kind = iota // 0
	BrickKind             // 1
	DirtKind              // 2
	GrassKind             // 3 - материал по умолчанию
	WoodKind              // 4
	SandKind              // 5
)

// DefaultKind материал, которым заполняется поверхность при генерации
const DefaultKind = GrassKind

// DefaultTextures стандартная таблица материал -> текстура
var DefaultTextures = []string{
	"assets/block_textures/stone.png",
	"assets/block_textures/brick.png",
	"assets/block_textures/dirt.png",
	"assets/block_textures/grass.png",
	"assets/block_textures/wood.png",
	"assets/block_textures/sand.png",
}

// Palette таблица текстур, размер которой задаёт допустимый диапазон Kind
type Palette struct {
	textures []string
}

// NewPalette создаёт палитру из таблицы текстур.
// Пустая таблица заменяется стандартной.
func NewPalette(textures []string) *Palette {
	if len(textures) == 0 {
		textures = DefaultTextures
	}
	copied := make([]string, len(textures))
	copy(copied, textures)
	return &Palette{textures: copied}
}

// Len возвращает количество материалов
func (p *Palette) Len() int {
	return len(p.textures)
}

// IsValid проверяет, входит ли материал в палитру
func (p *Palette) IsValid(k Kind) bool {
	return int(k) < len(p.textures)
}

// Texture возвращает путь к текстуре материала
func (p *Palette) Texture(k Kind) string {
	return p.textures[p.Normalize(k)]
}

// Normalize приводит материал к диапазону [0, Len())
func (p *Palette) Normalize(k Kind) Kind {
	return Kind(int(k) % len(p.textures))
}

// Step сдвигает выбор на delta позиций с переходом через край палитры
func (p *Palette) Step(k Kind, delta int) Kind {
	n := len(p.textures)
	i := (int(p.Normalize(k)) + delta) % n
	if i < 0 {
		i += n
	}
	return Kind(i)
}

// String возвращает имя материала
func (k Kind) String() string {
	switch k {
	case StoneKind:
		return "stone"
	case BrickKind:
		return "brick"
	case DirtKind:
		return "dirt"
	case GrassKind:
		return "grass"
	case WoodKind:
		return "wood"
	case SandKind:
		return "sand"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

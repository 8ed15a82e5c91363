package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/annel0/voxel-sandbox/internal/logging"
	"github.com/annel0/voxel-sandbox/internal/util"
	"github.com/annel0/voxel-sandbox/internal/world"
	"github.com/annel0/voxel-sandbox/internal/world/block"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// Переменные окружения
const (
	EnvConfigPath = "VOXEL_CONFIG"
	EnvWorldSize  = "VOXEL_WORLD_SIZE"
	EnvChunkSize  = "VOXEL_CHUNK_SIZE"
	EnvSeed       = "VOXEL_SEED"
	EnvAdminPort  = "VOXEL_ADMIN_PORT"
	EnvSavePath   = "VOXEL_SAVE_PATH"
	EnvLogLevel   = "VOXEL_LOG_LEVEL"
	EnvAdminToken = "VOXEL_ADMIN_SECRET"
)

// Бэкенды сохранений
const (
	SaveBackendFile   = "file"
	SaveBackendBadger = "badger"
)

// Config корневая структура конфигурации приложения
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Blocks    BlocksConfig    `yaml:"blocks"`
	Save      SaveConfig      `yaml:"save"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
	Events    EventsConfig    `yaml:"events"`
}

type WorldConfig struct {
	ChunkSize       int        `yaml:"chunk_size"`
	WorldSize       int        `yaml:"world_size"`
	DetailDistance  float64    `yaml:"detail_distance"`
	Seed            int64      `yaml:"seed"`
	FallFloor       float64    `yaml:"fall_floor"`
	Spawn           [3]float64 `yaml:"spawn"`
	GenerateWorkers int        `yaml:"generate_workers"`
}

type BlocksConfig struct {
	Textures []string `yaml:"textures"`
}

type SaveConfig struct {
	Backend string `yaml:"backend"` // file | badger
	Path    string `yaml:"path"`
	Slot    string `yaml:"slot"`
}

type ServerConfig struct {
	AdminPort   int    `yaml:"admin_port"`
	TickRate    int    `yaml:"tick_rate"`
	AdminSecret string `yaml:"admin_secret"` // base64; пусто - изменения через API без токена
}

type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// EventsConfig шина событий мира и лента /api/events
type EventsConfig struct {
	Buffer  int `yaml:"buffer"`  // очередь шины; при переполнении теряются LOD-события
	History int `yaml:"history"` // сколько последних событий отдаёт админ-API
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  bool   `yaml:"file"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		World: WorldConfig{
			ChunkSize:      4,
			WorldSize:      10,
			DetailDistance: 16,
			Seed:           util.DefaultNoiseSeed,
			FallFloor:      -30,
			Spawn:          [3]float64{0, 30, 0},
		},
		Blocks: BlocksConfig{Textures: append([]string(nil), block.DefaultTextures...)},
		Save: SaveConfig{
			Backend: SaveBackendFile,
			Path:    "data/world.sav",
			Slot:    "default",
		},
		Server: ServerConfig{
			AdminPort: 8088,
			TickRate:  60,
		},
		Telemetry: TelemetryConfig{ServiceName: "voxel-sandbox"},
		Logging:   LoggingConfig{Level: "INFO"},
		Events:    EventsConfig{Buffer: 1024, History: 256},
	}
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пробует ENV VOXEL_CONFIG; без файла возвращает Default.
// Затем применяются переопределения из окружения.
func Load(path string) (*Config, error) {
	cfg := Default()
	// Поля с fallback на окружение: ноль означает "не задано в файле"
	cfg.World.WorldSize = 0
	cfg.World.ChunkSize = 0
	cfg.Server.AdminPort = 0

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения конфигурации %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("ошибка разбора конфигурации %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv применяет переменные окружения: числовые поля только если они не заданы в файле,
// остальные переопределяются всегда
func (c *Config) applyEnv() {
	c.World.WorldSize = intWithEnvFallback(c.World.WorldSize, EnvWorldSize, 10)
	c.World.ChunkSize = intWithEnvFallback(c.World.ChunkSize, EnvChunkSize, 4)
	c.Server.AdminPort = intWithEnvFallback(c.Server.AdminPort, EnvAdminPort, 8088)

	if v := os.Getenv(EnvSeed); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.World.Seed = seed
		} else {
			logging.Warn("Некорректное значение %s=%q: %v", EnvSeed, v, err)
		}
	}
	if v := os.Getenv(EnvSavePath); v != "" {
		c.Save.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvAdminToken); v != "" {
		c.Server.AdminSecret = v
	}
}

// intWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func intWithEnvFallback(configValue int, envVar string, defaultValue int) int {
	// Если значение задано в конфиге и больше 0, используем его
	if configValue > 0 {
		return configValue
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if v, err := strconv.Atoi(envVal); err == nil && v > 0 {
			return v
		}
	}

	return defaultValue
}

// Validate проверяет согласованность параметров
func (c *Config) Validate() error {
	var errs []error
	if c.World.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("world.chunk_size должен быть > 0, получено %d", c.World.ChunkSize))
	}
	if c.World.WorldSize < 0 {
		errs = append(errs, fmt.Errorf("world.world_size не может быть отрицательным, получено %d", c.World.WorldSize))
	}
	if c.World.DetailDistance < 0 {
		errs = append(errs, fmt.Errorf("world.detail_distance не может быть отрицательным"))
	}
	if len(c.Blocks.Textures) == 0 || len(c.Blocks.Textures) > 256 {
		errs = append(errs, fmt.Errorf("blocks.textures должен содержать от 1 до 256 текстур, получено %d", len(c.Blocks.Textures)))
	}
	switch c.Save.Backend {
	case SaveBackendFile, SaveBackendBadger:
	default:
		errs = append(errs, fmt.Errorf("неизвестный save.backend %q", c.Save.Backend))
	}
	if c.Save.Path == "" {
		errs = append(errs, errors.New("save.path не задан"))
	}
	if c.Server.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("server.tick_rate должен быть > 0, получено %d", c.Server.TickRate))
	}
	if c.Events.Buffer <= 0 || c.Events.History <= 0 {
		errs = append(errs, fmt.Errorf("events.buffer и events.history должны быть > 0"))
	}
	return errors.Join(errs...)
}

// WorldConfig возвращает параметры мира
func (c *Config) WorldConfig() world.Config {
	return world.Config{
		ChunkSize:       c.World.ChunkSize,
		WorldSize:       c.World.WorldSize,
		DetailDistance:  c.World.DetailDistance,
		Seed:            c.World.Seed,
		FallFloor:       c.World.FallFloor,
		SpawnPosition:   mgl64.Vec3(c.World.Spawn),
		GenerateWorkers: c.World.GenerateWorkers,
		Textures:        c.Blocks.Textures,
	}
}

// TickInterval возвращает длительность одного тика симуляции
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.Server.TickRate)
}

// LogLevel возвращает уровень логирования
func (c *Config) LogLevel() logging.LogLevel {
	return logging.ParseLevel(c.Logging.Level)
}

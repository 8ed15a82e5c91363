package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/voxel-sandbox/internal/api"
	"github.com/annel0/voxel-sandbox/internal/auth"
	"github.com/annel0/voxel-sandbox/internal/config"
	"github.com/annel0/voxel-sandbox/internal/eventbus"
	"github.com/annel0/voxel-sandbox/internal/logging"
	"github.com/annel0/voxel-sandbox/internal/metrics"
	"github.com/annel0/voxel-sandbox/internal/observability"
	"github.com/annel0/voxel-sandbox/internal/sim"
	"github.com/annel0/voxel-sandbox/internal/storage"
	"github.com/annel0/voxel-sandbox/internal/world"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// logObserver выводит события мира в лог; рендера и звука у сервера нет
type logObserver struct {
	world.NopObserver
	logger *logging.Logger
}

func (o logObserver) PlayerRespawned(pos mgl64.Vec3) {
	o.logger.Info("🔄 Игрок возрождён в %v", pos)
}

func (o logObserver) GameSaved()  { o.logger.Info("💾 Игра сохранена") }
func (o logObserver) GameLoaded() { o.logger.Info("📂 Игра загружена") }

func (o logObserver) Message(text string) { o.logger.Warn("💬 %s", text) }

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию $VOXEL_CONFIG)")
	flag.Parse()

	// Инициализируем систему логирования
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	loggers := logging.GetLoggerManager()
	loggers.Configure(cfg.LogLevel(), cfg.Logging.File)
	defer loggers.CloseAll()
	worldLogger := loggers.Component("world")
	storageLogger := loggers.Component("storage")
	serverLogger := loggers.Component("server")

	logging.Info("🎮 Запуск voxel-sandbox: мир %dx%d чанков по %d блоков, seed=%d",
		cfg.World.WorldSize, cfg.World.WorldSize, cfg.World.ChunkSize, cfg.World.Seed)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === ТЕЛЕМЕТРИЯ ===
	shutdownTelemetry, err := observability.InitTelemetry(ctx, observability.Options{
		Enabled:     cfg.Telemetry.Enabled,
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		log.Fatalf("❌ Ошибка инициализации OpenTelemetry: %v", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logging.Error("Ошибка остановки телеметрии: %v", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// === ШИНА СОБЫТИЙ ===
	bus := eventbus.NewMemoryBus(cfg.Events.Buffer)
	defer bus.Close()
	if err := eventbus.RegisterMetrics(registry, bus); err != nil {
		log.Fatalf("❌ Ошибка регистрации метрик шины: %v", err)
	}
	history := eventbus.NewHistory(cfg.Events.History)
	if _, err := history.Attach(ctx, bus, eventbus.Filter{}); err != nil {
		log.Fatalf("❌ Ошибка подписки ленты событий: %v", err)
	}
	if _, err := eventbus.StartLoggingListener(ctx, bus, loggers.Component("events")); err != nil {
		log.Fatalf("❌ Ошибка подписки логгера событий: %v", err)
	}

	// === МИР ===
	w := world.New(cfg.WorldConfig(),
		world.WithMetrics(metrics.NewWorldMetrics(registry)),
		world.WithLogger(worldLogger),
		world.WithObserver(world.MultiObserver{
			logObserver{logger: worldLogger},
			eventbus.NewWorldPublisher(bus, worldLogger),
		}),
	)

	// === СОХРАНЕНИЯ ===
	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("❌ Ошибка открытия хранилища сохранений: %v", err)
	}
	saves := storage.NewManager(store,
		storage.WithPersistenceMetrics(metrics.NewPersistenceMetrics(registry)),
		storage.WithManagerLogger(storageLogger),
	)
	defer func() {
		if err := saves.Close(); err != nil {
			logging.Error("Ошибка закрытия хранилища: %v", err)
		}
	}()

	// Продолжаем сохранённую игру, иначе генерируем новый мир
	saveOnExit := true
	if _, err := saves.Load(ctx, w); err != nil {
		if !storage.IsCorrupt(err) {
			logging.Info("Сохранение не загружено (%v), генерируем новый мир", err)
		} else {
			logging.Warn("⚠️ Сохранение повреждено, генерируем новый мир: %v", err)
			if _, qerr := saves.Quarantine(ctx); qerr != nil {
				logging.Error("❌ %v; сохранение при выходе отключено", qerr)
				saveOnExit = false
			}
		}
		w.GenerateWorld()
		w.SetPlayer(cfg.WorldConfig().SpawnPosition)
	}

	// === СИМУЛЯЦИЯ ===
	loop := sim.NewLoop(w, cfg.Server.TickRate, worldLogger)
	picker := world.NewGridPicker(w)
	controller := sim.NewController(w,
		sim.WithPicker(picker),
		sim.WithHover(picker),
		sim.WithSaves(saves),
		sim.WithLoop(loop),
		sim.WithControllerLogger(worldLogger),
	)

	// === АДМИН-API ===
	var tokens *auth.TokenIssuer
	if cfg.Server.AdminSecret != "" {
		tokens, err = auth.NewTokenIssuer(cfg.Server.AdminSecret)
		if err != nil {
			log.Fatalf("❌ Неверный server.admin_secret: %v", err)
		}
		logging.Info("🔐 Изменения через API требуют JWT администратора")
	} else {
		logging.Warn("⚠️ server.admin_secret не задан: изменения через API доступны без токена")
	}

	restServer := api.NewRestServer(api.Config{
		Port:       fmt.Sprintf(":%d", cfg.Server.AdminPort),
		Loop:       loop,
		Controller: controller,
		Saves:      saves,
		Tokens:     tokens,
		Events:     history,
		Registry:   registry,
		Logger:     serverLogger,
	})

	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(ctx) }()

	apiDone := make(chan error, 1)
	go func() { apiDone <- restServer.Start() }()

	logging.Info("✅ Сервер запущен")
	logging.Info("   🌐 Админ-API: http://localhost:%d/api/world", cfg.Server.AdminPort)
	logging.Info("   📈 Метрики: http://localhost:%d/metrics", cfg.Server.AdminPort)

	loopRunning := true
	select {
	case <-ctx.Done():
		logging.Info("📡 Получен сигнал завершения, остановка...")
	case err := <-apiDone:
		logging.Error("❌ Админ-API остановлен: %v", err)
		stop()
	case err := <-loopDone:
		logging.Error("❌ Цикл симуляции остановлен: %v", err)
		loopRunning = false
		stop()
	}

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := restServer.Stop(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки админ-API: %v", err)
	}
	if loopRunning {
		<-loopDone
	}

	// Цикл остановлен, миром владеет только эта горутина
	if saveOnExit {
		if _, err := saves.Save(shutdownCtx, w); err != nil {
			logging.Error("❌ Не удалось сохранить мир при выходе: %v", err)
		}
	}

	logging.Info("👋 Сервер успешно остановлен")
}

// openStore открывает хранилище сохранений согласно save.backend
func openStore(cfg *config.Config) (storage.SnapshotStore, error) {
	if cfg.Save.Backend == config.SaveBackendBadger {
		bs, err := storage.NewBadgerStore(cfg.Save.Path, cfg.Save.Slot)
		if err != nil {
			return nil, err
		}
		logging.Info("💾 Сохранения в BadgerDB: %s (слот %s)", cfg.Save.Path, bs.Slot())
		return bs, nil
	}

	fs, err := storage.NewFileStore(cfg.Save.Path)
	if err != nil {
		return nil, err
	}
	logging.Info("💾 Сохранения в файле: %s", fs.Path())
	return fs, nil
}

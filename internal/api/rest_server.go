package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/voxel-sandbox/internal/auth"
	"github.com/annel0/voxel-sandbox/internal/eventbus"
	"github.com/annel0/voxel-sandbox/internal/logging"
	"github.com/annel0/voxel-sandbox/internal/middleware"
	"github.com/annel0/voxel-sandbox/internal/sim"
	"github.com/annel0/voxel-sandbox/internal/storage"
	"github.com/annel0/voxel-sandbox/internal/vec"
	"github.com/annel0/voxel-sandbox/internal/world"
	"github.com/gin-gonic/gin"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RestServer административный REST API мира.
// Все обращения к миру выполняются через sim.Loop.Do в горутине симуляции.
type RestServer struct {
	router     *gin.Engine
	loop       *sim.Loop
	controller *sim.Controller
	saves      *storage.Manager
	tokens     *auth.TokenIssuer
	events     *eventbus.History
	port       string
	metrics    *ServerMetrics
	logger     *logging.Logger
	httpServer *http.Server
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port       string               // адрес для запуска сервера
	Loop       *sim.Loop            // цикл симуляции, владеющий миром
	Controller *sim.Controller      // обработчик ввода; nil отключает /api/input
	Saves      *storage.Manager     // менеджер сохранений; nil отключает save/load
	Tokens     *auth.TokenIssuer    // издатель токенов; nil отключает авторизацию
	Events     *eventbus.History    // лента событий мира; nil отключает /api/events
	Registry   *prometheus.Registry // реестр метрик; nil означает новый реестр
	Logger     *logging.Logger      // логгер; nil означает компонент "server"
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}
	if config.Logger == nil {
		config.Logger = logging.GetComponentLogger("server")
	}

	// Устанавливаем режим релиза для gin
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware("admin_api"))

	loggerMw := middleware.NewRequestLogger(config.Logger)
	router.Use(loggerMw.Handler())

	promMw := middleware.NewPrometheusMiddleware("admin_api", config.Registry)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, config.Registry)

	server := &RestServer{
		router:     router,
		loop:       config.Loop,
		controller: config.Controller,
		saves:      config.Saves,
		tokens:     config.Tokens,
		events:     config.Events,
		port:       config.Port,
		metrics:    NewServerMetrics(),
		logger:     config.Logger,
	}

	server.setupRoutes()
	return server
}

// Router возвращает gin.Engine (для тестов и встраивания)
func (rs *RestServer) Router() *gin.Engine { return rs.router }

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	{
		api.GET("/server", rs.handleServerInfo)
		api.GET("/world", rs.handleWorld)
		api.GET("/chunks/:cx/:cz", rs.handleChunk)
		api.GET("/saves", rs.handleSaves)
		api.GET("/events", rs.handleEvents)
	}

	// Изменяющие мир эндпоинты (требуют токен, если он настроен)
	edit := api.Group("/")
	edit.Use(rs.tokenMiddleware())
	{
		edit.PUT("/blocks", rs.handlePlaceBlock)
		edit.DELETE("/blocks", rs.handleRemoveBlock)
		edit.DELETE("/trees", rs.handleRemoveTree)
		edit.PUT("/player", rs.handleMovePlayer)
		edit.POST("/selection/scroll", rs.handleScroll)
		edit.POST("/world/generate", rs.handleGenerate)
		edit.POST("/world/save", rs.handleSave)
		edit.POST("/world/load", rs.handleLoad)
		edit.POST("/input", rs.handleInput)
	}
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
		"tick":   rs.loop.TickID(),
	})
}

// handleServerInfo возвращает информацию о процессе и цикле симуляции
func (rs *RestServer) handleServerInfo(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Информация о сервере",
		Data:    rs.metrics.Snapshot(rs.loop.TickID(), rs.loop.Paused()),
	})
}

// handleWorld возвращает сводку мира
func (rs *RestServer) handleWorld(c *gin.Context) {
	var stats world.Stats
	err := rs.loop.Do(c.Request.Context(), func(w *world.World) error {
		stats = w.Stats()
		return nil
	})
	if err != nil {
		rs.fail(c, http.StatusServiceUnavailable, "Симуляция недоступна", err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Состояние мира", Data: stats})
}

// handleChunk возвращает содержимое чанка
func (rs *RestServer) handleChunk(c *gin.Context) {
	cx, errX := strconv.Atoi(c.Param("cx"))
	cz, errZ := strconv.Atoi(c.Param("cz"))
	if errX != nil || errZ != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверные координаты чанка"})
		return
	}

	var dto ChunkDTO
	found := false
	err := rs.loop.Do(c.Request.Context(), func(w *world.World) error {
		chunk, ok := w.Chunk(vec.Vec2{X: cx, Z: cz})
		if ok {
			dto, found = toChunkDTO(chunk, w.Palette()), true
		}
		return nil
	})
	if err != nil {
		rs.fail(c, http.StatusServiceUnavailable, "Симуляция недоступна", err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, GenericResponse{Success: false, Message: "Чанк не найден"})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Чанк", Data: dto})
}

// handleEvents возвращает последние события мира: ?limit=N&type=block_placed
func (rs *RestServer) handleEvents(c *gin.Context) {
	if rs.events == nil {
		c.JSON(http.StatusNotImplemented, GenericResponse{Success: false, Message: "Лента событий отключена"})
		return
	}
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Некорректный limit"})
			return
		}
		limit = n
	}
	events := rs.events.Recent(limit, c.Query("type"))
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: fmt.Sprintf("Событий: %d", len(events)),
		Data:    events,
	})
}

// handleSaves возвращает список слотов сохранений (только BadgerDB)
func (rs *RestServer) handleSaves(c *gin.Context) {
	if rs.saves == nil {
		c.JSON(http.StatusNotImplemented, GenericResponse{Success: false, Message: "Сохранения отключены"})
		return
	}
	bs, ok := rs.saves.Store().(*storage.BadgerStore)
	if !ok {
		c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Одиночный файл сохранения", Data: []string{}})
		return
	}
	slots, err := bs.Slots()
	if err != nil {
		rs.fail(c, http.StatusInternalServerError, "Ошибка чтения слотов", err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Слоты сохранений",
		Data:    gin.H{"current": bs.Slot(), "slots": slots},
	})
}

// handlePlaceBlock устанавливает блок
func (rs *RestServer) handlePlaceBlock(c *gin.Context) {
	var req BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверный формат запроса"})
		return
	}

	var placed BlockDTO
	ok := false
	err := rs.loop.Do(c.Request.Context(), func(w *world.World) error {
		kind := w.SelectedKind()
		if req.Kind != nil {
			kind = *req.Kind
		}
		if ok = w.PlaceBlock(req.position(), kind); ok {
			got, _ := w.BlockAt(req.position())
			placed = toBlockDTO(world.Block{Position: req.position(), Kind: got}, w.Palette())
		}
		return nil
	})
	if err != nil {
		rs.fail(c, http.StatusServiceUnavailable, "Симуляция недоступна", err)
		return
	}
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, GenericResponse{Success: false, Message: "Позиция вне мира"})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Блок установлен", Data: placed})
}

// handleRemoveBlock удаляет блок по ?x=&y=&z=
func (rs *RestServer) handleRemoveBlock(c *gin.Context) {
	rs.handleRemove(c, "Блок не найден", func(w *world.World, pos vec.Vec3) bool { return w.RemoveBlock(pos) })
}

// handleRemoveTree удаляет дерево по ?x=&y=&z=
func (rs *RestServer) handleRemoveTree(c *gin.Context) {
	rs.handleRemove(c, "Дерево не найдено", func(w *world.World, pos vec.Vec3) bool { return w.RemoveTree(pos) })
}

func (rs *RestServer) handleRemove(c *gin.Context, notFound string, remove func(*world.World, vec.Vec3) bool) {
	pos, err := queryPosition(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: err.Error()})
		return
	}

	removed := false
	if err := rs.loop.Do(c.Request.Context(), func(w *world.World) error {
		removed = remove(w, pos)
		return nil
	}); err != nil {
		rs.fail(c, http.StatusServiceUnavailable, "Симуляция недоступна", err)
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, GenericResponse{Success: false, Message: notFound})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: what + " удалён"})
}

// handleMovePlayer перемещает игрока и сразу выполняет проход LOD
func (rs *RestServer) handleMovePlayer(c *gin.Context) {
	var req PlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверный формат запроса"})
		return
	}

	var stats world.Stats
	err := rs.loop.Do(c.Request.Context(), func(w *world.World) error {
		w.Update(mgl64.Vec3{req.X, req.Y, req.Z})
		stats = w.Stats()
		return nil
	})
	if err != nil {
		rs.fail(c, http.StatusServiceUnavailable, "Симуляция недоступна", err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Игрок перемещён", Data: stats})
}

// handleScroll сдвигает выбор материала
func (rs *RestServer) handleScroll(c *gin.Context) {
	var req ScrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверный формат запроса"})
		return
	}

	var selected BlockDTO
	err := rs.loop.Do(c.Request.Context(), func(w *world.World) error {
		kind := w.ScrollSelection(req.Delta)
		selected = BlockDTO{Kind: uint8(kind), Texture: w.Palette().Texture(kind)}
		return nil
	})
	if err != nil {
		rs.fail(c, http.StatusServiceUnavailable, "Симуляция недоступна", err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Материал выбран", Data: selected})
}

// handleGenerate пересоздаёт мир
func (rs *RestServer) handleGenerate(c *gin.Context) {
	var stats world.Stats
	err := rs.loop.Do(c.Request.Context(), func(w *world.World) error {
		w.GenerateWorld()
		w.SetPlayer(w.Config().SpawnPosition)
		stats = w.Stats()
		return nil
	})
	if err != nil {
		rs.fail(c, http.StatusServiceUnavailable, "Симуляция недоступна", err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Мир сгенерирован", Data: stats})
}

// handleSave сохраняет мир
func (rs *RestServer) handleSave(c *gin.Context) {
	rs.handlePersistence(c, "Игра сохранена", func(ctx context.Context, w *world.World) (storage.Header, error) {
		return rs.saves.Save(ctx, w)
	})
}

// handleLoad загружает мир
func (rs *RestServer) handleLoad(c *gin.Context) {
	rs.handlePersistence(c, "Игра загружена", func(ctx context.Context, w *world.World) (storage.Header, error) {
		return rs.saves.Load(ctx, w)
	})
}

func (rs *RestServer) handlePersistence(c *gin.Context, message string, op func(context.Context, *world.World) (storage.Header, error)) {
	if rs.saves == nil {
		c.JSON(http.StatusNotImplemented, GenericResponse{Success: false, Message: "Сохранения отключены"})
		return
	}

	ctx := c.Request.Context()
	var header storage.Header
	err := rs.loop.Do(ctx, func(w *world.World) error {
		var err error
		header, err = op(ctx, w)
		return err
	})

	switch {
	case err == nil:
		c.JSON(http.StatusOK, GenericResponse{
			Success: true,
			Message: message,
			Data: SaveDTO{
				SaveID:    header.SaveID.String(),
				CreatedAt: header.CreatedAt.Format(time.RFC3339Nano),
			},
		})
	case errors.Is(err, storage.ErrNoSnapshot):
		c.JSON(http.StatusNotFound, GenericResponse{Success: false, Message: "Сохранение не найдено"})
	case errors.Is(err, storage.ErrCorrupt):
		c.JSON(http.StatusUnprocessableEntity, GenericResponse{Success: false, Message: "Сохранение повреждено"})
	default:
		rs.fail(c, http.StatusInternalServerError, "Ошибка сохранения", err)
	}
}

// handleInput передаёт событие ввода контроллеру
func (rs *RestServer) handleInput(c *gin.Context) {
	if rs.controller == nil {
		c.JSON(http.StatusNotImplemented, GenericResponse{Success: false, Message: "Ввод отключён"})
		return
	}

	var req InputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверный формат запроса"})
		return
	}
	kind, ok := sim.ParseInputKind(req.Kind)
	if !ok {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неизвестное событие ввода: " + req.Kind})
		return
	}

	in := sim.Input{
		Kind:      kind,
		Origin:    mgl64.Vec3(req.Origin),
		Direction: mgl64.Vec3(req.Direction),
	}
	var changed bool
	var stats world.Stats
	ctx := c.Request.Context()
	err := rs.loop.Do(ctx, func(w *world.World) error {
		changed = rs.controller.Handle(ctx, in)
		stats = w.Stats()
		return nil
	})
	if err != nil {
		rs.fail(c, http.StatusServiceUnavailable, "Симуляция недоступна", err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: changed,
		Message: kind.String(),
		Data:    gin.H{"changed": changed, "paused": rs.loop.Paused(), "world": stats},
	})
}

func (rs *RestServer) fail(c *gin.Context, status int, message string, err error) {
	traceID := middleware.TraceID(c)
	rs.logger.Error("%s %s: %s: %v trace=%s", c.Request.Method, c.FullPath(), message, err, traceID)
	if err != nil {
		_ = c.Error(err)
	}
	c.JSON(status, GenericResponse{Success: false, Message: message, TraceID: traceID})
}

func queryPosition(c *gin.Context) (vec.Vec3, error) {
	var coords [3]int
	for i, name := range []string{"x", "y", "z"} {
		raw, ok := c.GetQuery(name)
		if !ok {
			return vec.Vec3{}, fmt.Errorf("не задан параметр %s", name)
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return vec.Vec3{}, fmt.Errorf("неверный параметр %s: %q", name, raw)
		}
		coords[i] = v
	}
	return vec.Vec3{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}

// Start запускает REST сервер и блокируется до его остановки
func (rs *RestServer) Start() error {
	rs.httpServer = &http.Server{
		Addr:              rs.port,
		Handler:           rs.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	rs.logger.Info("✅ Админ-API запущен на http://localhost%s", rs.port)
	if err := rs.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop останавливает REST сервер
func (rs *RestServer) Stop(ctx context.Context) error {
	if rs.httpServer == nil {
		return nil
	}
	rs.logger.Info("🛑 Остановка админ-API...")
	return rs.httpServer.Shutdown(ctx)
}

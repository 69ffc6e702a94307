// Пакет inlinetext предоставляет HTTP-сервис строчного редактора форматированного текста: реестр полей,
// очистку вставленного HTML, команды форматирования, конвертацию HTML<->Markdown и хранение значений.
//
// Основные возможности:
//   - API полей: список, панель инструментов, очистка, команды форматирования, активные форматы.
//   - API конвертации между HTML и Markdown.
//   - Хранение значений полей вместе с режимом и приведение к режиму поля при чтении.
//   - Страница предпросмотра сохраненного значения.
//   - Метрики Prometheus на отдельном порту и фоновая миграция значений по расписанию.
package inlinetext

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aisa-it/inline-text/internal/inlinetext/config"
	"github.com/aisa-it/inline-text/internal/inlinetext/cronmanager"
	"github.com/aisa-it/inline-text/internal/inlinetext/dao"
	"github.com/aisa-it/inline-text/internal/inlinetext/maintenance"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type Services struct {
	cfg       *config.Config
	fields    *config.Registry
	store     *dao.Store
	metrics   *metrics
	validator *RequestValidator
	version   string
}

// ServerOptions - зависимости HTTP-сервера.
type ServerOptions struct {
	Config  *config.Config
	Fields  *config.Registry
	Store   *dao.Store
	Version string
	// Registerer для метрик, по умолчанию prometheus.DefaultRegisterer
	Registerer prometheus.Registerer
}

// ServerHeader middleware adds a `Server` header to the response.
func ServerHeader(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderServer, "InlineText")
		return next(c)
	}
}

// NewServer собирает echo-сервер со всеми маршрутами API.
//
// Параметры:
//   - opts: конфигурация, реестр полей, хранилище и регистратор метрик.
//
// Возвращает:
//   - *echo.Echo: сервер, готовый к запуску.
//   - error: ошибка регистрации метрик.
func NewServer(opts ServerOptions) (*echo.Echo, error) {
	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m, err := newMetrics(reg)
	if err != nil {
		return nil, err
	}

	s := &Services{
		cfg:       opts.Config,
		fields:    opts.Fields,
		store:     opts.Store,
		metrics:   m,
		validator: NewRequestValidator(),
		version:   opts.Version,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
		}

		if code == http.StatusNotFound {
			c.NoContent(http.StatusNotFound)
			return
		}
		slog.Error("Unhandled error in endpoint", "url", c.Request().URL, "err", err)
		EErrorMsgStatus(c, nil, code)
	}
	e.Validator = s.validator

	e.Use(ServerHeader)
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit(s.cfg.BodyLimit))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level:     5,
		MinLength: 2048,
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:                 metricsNamespace,
		Registerer:                reg,
		DoNotUseRequestPathFor404: true,
	}))
	e.Pre(middleware.AddTrailingSlash())

	apiGroup := e.Group("/api/")

	s.AddFieldServices(apiGroup)
	s.AddConvertServices(apiGroup)
	s.AddValueServices(apiGroup)

	apiGroup.GET("version/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"version": s.version,
			"fields":  len(s.fields.Names()),
		})
	})

	apiGroup.GET("_health/", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	e.GET("/preview/:field/:key/", s.previewValue)

	return e, nil
}

// Server запускает HTTP-сервер, сервер метрик и фоновую миграцию значений. Блокируется до сигнала остановки.
func Server(db *gorm.DB, cfg *config.Config, fields *config.Registry, version string) {
	store := dao.NewStore(db)

	e, err := NewServer(ServerOptions{
		Config:  cfg,
		Fields:  fields,
		Store:   store,
		Version: version,
	})
	if err != nil {
		slog.Error("Init server", "err", err)
		os.Exit(1)
	}

	jobRegistry := cronmanager.JobRegistry{}
	if !cfg.MigrateDisabled {
		jobRegistry["values_migrate"] = cronmanager.Job{
			Func:     maintenance.NewValuesMigrator(store, fields).Migrate,
			Schedule: cfg.MigrateSchedule,
		}
	}

	cronManager := cronmanager.NewCronManager(jobRegistry)
	if err := cronManager.LoadJobs(); err != nil {
		slog.Error("Failed to load cron jobs", "err", err)
		os.Exit(1)
	}
	cronManager.Start()

	metricsServer := echo.New()
	metricsServer.HideBanner = true
	metricsServer.HidePort = true
	metricsServer.GET("/metrics", echoprometheus.NewHandler())
	go func() {
		if err := metricsServer.Start(cfg.MetricsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server fail", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		slog.Info("Shutting down gracefully, press Ctrl+C again to force")
		stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		cronManager.Stop()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("Metrics server shutdown", "err", err)
		}
		if err := e.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown", "err", err)
		}
	}()

	slog.Info("Server start", "addr", cfg.ListenAddr, "metrics", cfg.MetricsAddr, "fields", fields.Names())
	if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server fail", "err", err)
	}
}

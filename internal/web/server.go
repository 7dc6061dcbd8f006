package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"sync/atomic"

	"github.com/KNICEX/perp-sentinel/internal/schedule"
	"github.com/KNICEX/perp-sentinel/internal/service/monitor"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Report 可手动触发并可查询最近一次周期状态的任务
type Report interface {
	schedule.Task
	Status() monitor.Status
}

type Trigger interface {
	Trigger(task schedule.Task)
}

// Server 管理端口: 健康检查, 指标, 手动触发
type Server struct {
	echo    *echo.Echo
	addr    string
	reports map[string]Report
	trigger Trigger
	ready   atomic.Bool
}

func NewServer(addr string, reports []Report, trigger Trigger, gatherer prometheus.Gatherer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = sonicSerializer{}
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				slog.Warn("admin request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			slog.Debug("admin request", attrs...)
			return nil
		},
	}))

	s := &Server{
		echo:    e,
		addr:    addr,
		reports: make(map[string]Report, len(reports)),
		trigger: trigger,
	}
	for _, r := range reports {
		s.reports[r.Name()] = r
	}

	e.GET("/livez", s.livez)
	e.GET("/readyz", s.readyz)
	e.GET("/healthz", s.healthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	e.POST("/reports/:name/run", s.run)
	return s
}

// SetReady 调度器启动后置为 true
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) Start() {
	go func() {
		slog.Info("admin server listening", "addr", s.addr)
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("admin server error", "error", err)
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) livez(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (s *Server) readyz(c echo.Context) error {
	if !s.ready.Load() {
		return c.String(http.StatusServiceUnavailable, "not ready")
	}
	return c.String(http.StatusOK, "ok")
}

func (s *Server) healthz(c echo.Context) error {
	statuses := make([]monitor.Status, 0, len(s.reports))
	for _, r := range s.reports {
		statuses = append(statuses, r.Status())
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Report < statuses[j].Report
	})
	return c.JSON(http.StatusOK, map[string]any{
		"ready":   s.ready.Load(),
		"reports": statuses,
	})
}

func (s *Server) run(c echo.Context) error {
	name := c.Param("name")
	r, ok := s.reports[name]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown report: "+name)
	}
	s.trigger.Trigger(r)
	return c.JSON(http.StatusAccepted, map[string]string{
		"report": name,
		"status": "triggered",
	})
}

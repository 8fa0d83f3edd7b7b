package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"haritsattva/internal/config"
	"haritsattva/internal/handler"
	"haritsattva/internal/validator"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	slogecho "github.com/samber/slog-echo"
	"go.uber.org/fx"
)

const (
	defaultShutdownTimeout = 10 * time.Second
	maxRequestBody         = "1M"
)

type Params struct {
	fx.In
	fx.Lifecycle

	Config       *config.Config
	Logger       *slog.Logger
	Validator    *validator.Validator
	ErrorHandler *handler.ErrorHandler
	RouterParams RouterParams
}

type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	echo   *echo.Echo
}

func New(params Params) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = params.Config.HTTP.Timeouts.ReadTimeout
	e.Server.WriteTimeout = params.Config.HTTP.Timeouts.WriteTimeout

	//Recover -> アクセスログ -> CORS -> ボディ上限
	e.Use(echomiddleware.Recover())
	e.Use(slogecho.New(params.Logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     corsOrigins(params.Config.HTTP.CORSOrigins),
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization, "X-Cart-Session", "X-Idempotency-Key"},
		ExposeHeaders:    []string{"X-Cart-Session"},
		AllowCredentials: true,
	}))
	e.Use(echomiddleware.BodyLimit(maxRequestBody))

	e.HTTPErrorHandler = params.ErrorHandler.Handle
	e.Validator = params.Validator

	RegisterRoutes(e, params.RouterParams)

	s := &Server{cfg: params.Config, logger: params.Logger, echo: e}
	params.Append(fx.Hook{
		OnStart: s.start,
		OnStop:  s.stop,
	})
	return s
}

// テストからルートを叩くため
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) start(ctx context.Context) error {
	hostPort := net.JoinHostPort("0.0.0.0", strconv.Itoa(s.cfg.HTTP.Port))
	ln, err := net.Listen("tcp", hostPort)
	if err != nil {
		return errors.Wrap(err, "listen")
	}
	s.echo.Listener = ln

	s.logger.Info("starting HTTP server", slog.String("hostPort", hostPort))
	go func() {
		if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped", slog.Any("error", err))
		}
	}()
	return nil
}

func (s *Server) stop(ctx context.Context) error {
	timeout := s.cfg.HTTP.Timeouts.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.logger.Info("shutting down HTTP server")
	return errors.WithStack(s.echo.Shutdown(shutdownCtx))
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

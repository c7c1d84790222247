// Package config assembles and runs an OracleProxy server.
package config

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/Egham-7/oracle-proxy/internal/api"
	"github.com/Egham-7/oracle-proxy/internal/config"
	"github.com/Egham-7/oracle-proxy/internal/services/attemptlog"
	"github.com/Egham-7/oracle-proxy/internal/services/credentials"
	"github.com/Egham-7/oracle-proxy/internal/services/dispatcher"
	"github.com/Egham-7/oracle-proxy/internal/services/downstream"
	"github.com/Egham-7/oracle-proxy/internal/services/request"
	"github.com/Egham-7/oracle-proxy/internal/services/response"
	"github.com/Egham-7/oracle-proxy/pkg/builder"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout   = 30 * time.Second
	attemptLogBufSize = 256
)

// Proxy represents an OracleProxy server instance.
type Proxy struct {
	config  *config.Config
	builder *builder.Builder

	once       sync.Once
	app        *fiber.App
	dispatcher *dispatcher.Dispatcher
	client     *downstream.Client
	attempts   *attemptlog.AsyncLogger
	initErr    error
}

// NewProxy creates a new Proxy instance with the given configuration.
// The cfg parameter is required and must not be nil.
func NewProxy(cfg *config.Config) *Proxy {
	if cfg == nil {
		panic("config cannot be nil - use config.Load() or the builder to create config")
	}
	return &Proxy{config: cfg}
}

// NewProxyWithBuilder creates a new Proxy instance from a configuration builder,
// picking up its middlewares, rate limit and attempt observer.
func NewProxyWithBuilder(b *builder.Builder) *Proxy {
	return &Proxy{
		config:  b.Build(),
		builder: b,
	}
}

// App validates the configuration and returns the fully wired fiber app.
// It is built once; later calls return the same app.
func (p *Proxy) App() (*fiber.App, error) {
	p.once.Do(func() {
		p.initErr = p.init()
	})
	return p.app, p.initErr
}

// Dispatcher returns the dispatcher behind /api/generate. App must have succeeded.
func (p *Proxy) Dispatcher() *dispatcher.Dispatcher {
	return p.dispatcher
}

func (p *Proxy) init() error {
	if err := p.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	creds := credentials.Parse(p.config.Dispatch.Tokens)
	if creds.IsEmpty() {
		fiberlog.Warn("No API tokens configured - every generate request will fail with 500")
	} else {
		fiberlog.Infof("Loaded %d API tokens", creds.Len())
		for i, token := range creds.Values() {
			fiberlog.Debugf("Token #%d: %s", i+1, credentials.Mask(token))
		}
	}

	var observer attemptlog.Observer
	if p.builder != nil {
		observer = p.builder.GetAttemptObserver()
	}
	if observer == nil {
		p.attempts = attemptlog.NewAsyncLogger(attemptLogBufSize)
		p.attempts.Start()
		observer = p.attempts
	}

	p.client = downstream.NewClient(p.config.Dispatch.Endpoint)
	p.dispatcher = dispatcher.New(creds, p.client, dispatcher.Config{
		Timeout:    p.config.DispatchTimeout(),
		Parameters: p.config.Dispatch.Parameters(),
	}, observer)

	respSvc := response.NewService()
	p.app = createFiberApp(p.config, respSvc)
	setupMiddleware(p.app, p.config, p.builder)
	setupRoutes(p.app, p.config, p.dispatcher, respSvc)
	return nil
}

// Run starts the proxy server and blocks until SIGINT or SIGTERM.
func (p *Proxy) Run() error {
	setupLogLevel(p.config)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port := p.config.Server.Port
	if port == "" {
		port = "8080"
	}
	listenAddr := ":" + port

	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", listenAddr, err)
	}

	fmt.Printf("🚀 OracleProxy starting on %s\n", listenAddr)
	fmt.Printf("   Environment: %s\n", p.config.Server.Environment)
	fmt.Printf("   Go version: %s\n", runtime.Version())
	fmt.Printf("   GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))

	return p.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully and releases the proxy's resources.
func (p *Proxy) Serve(ctx context.Context, ln net.Listener) error {
	app, err := p.App()
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer p.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := app.Listener(ln); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		fiberlog.Info("Server shutting down gracefully...")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		fiberlog.Info("Server shutdown completed successfully")
		return nil
	})

	return g.Wait()
}

// Close flushes the attempt log and releases pooled downstream connections.
func (p *Proxy) Close() {
	if p.attempts != nil {
		p.attempts.Close()
	}
	if p.client != nil {
		p.client.Close()
	}
}

func createFiberApp(cfg *config.Config, respSvc *response.Service) *fiber.App {
	isProd := cfg.IsProduction()

	return fiber.New(fiber.Config{
		AppName:               "OracleProxy v" + api.Version,
		EnablePrintRoutes:     !isProd,
		DisableStartupMessage: isProd,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           2 * time.Minute,
		BodyLimit:             1 << 20,
		CaseSensitive:         true,
		StrictRouting:         false,
		Network:               "tcp",
		ServerHeader:          "OracleProxy",
		ErrorHandler:          api.ErrorHandler(respSvc),
	})
}

func setupMiddleware(app *fiber.App, cfg *config.Config, b *builder.Builder) {
	isProd := cfg.IsProduction()

	// Recover middleware (must be first)
	app.Use(recover.New(recover.Config{
		EnableStackTrace: !isProd,
	}))

	// Before the limiter: rejected requests need the allow-origin header too.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     "GET, POST, OPTIONS",
		AllowHeaders:     "Content-Type, Authorization",
		AllowCredentials: false,
		MaxAge:           86400,
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
	}))

	if b != nil && b.GetRateLimitConfig() != nil {
		rlCfg := b.GetRateLimitConfig()
		keyFunc := rlCfg.KeyFunc
		if keyFunc == nil {
			keyFunc = func(c *fiber.Ctx) string {
				return c.IP()
			}
		}
		app.Use(limiter.New(limiter.Config{
			Max:               rlCfg.Max,
			Expiration:        rlCfg.Expiration,
			LimiterMiddleware: limiter.SlidingWindow{},
			KeyGenerator:      keyFunc,
			LimitReached: func(c *fiber.Ctx) error {
				return fiber.NewError(fiber.StatusTooManyRequests,
					fmt.Sprintf("Rate limit of %d requests per %v exceeded.", rlCfg.Max, rlCfg.Expiration))
			},
		}))
	}

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	if isProd {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${status} ${method} ${path} ${latency} ${bytesSent}b\n",
			Output: os.Stdout,
		}))
	} else {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path} ${error}\n",
			Output: os.Stdout,
		}))
	}

	if b != nil {
		for _, middleware := range b.GetMiddlewares() {
			app.Use(middleware)
		}
	}
}

func setupRoutes(app *fiber.App, cfg *config.Config, d *dispatcher.Dispatcher, respSvc *response.Service) {
	generateHandler := api.NewGenerateHandler(d, request.NewService(), respSvc)
	healthHandler := api.NewHealthHandler(cfg, d.Credentials())

	app.Get("/health", healthHandler.HealthCheck)
	app.Post("/api/generate", generateHandler.Generate)
	app.Get("/", api.WelcomeHandler())

	// Bare OPTIONS requests without preflight headers fall through cors.
	app.Options("/*", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func setupLogLevel(cfg *config.Config) {
	logLevel := cfg.GetNormalizedLogLevel()

	switch logLevel {
	case "trace":
		fiberlog.SetLevel(fiberlog.LevelTrace)
	case "debug":
		fiberlog.SetLevel(fiberlog.LevelDebug)
	case "info":
		fiberlog.SetLevel(fiberlog.LevelInfo)
	case "warn", "warning":
		fiberlog.SetLevel(fiberlog.LevelWarn)
	case "error":
		fiberlog.SetLevel(fiberlog.LevelError)
	case "fatal":
		fiberlog.SetLevel(fiberlog.LevelFatal)
	case "panic":
		fiberlog.SetLevel(fiberlog.LevelPanic)
	default:
		fiberlog.SetLevel(fiberlog.LevelInfo)
		fiberlog.Warnf("Unknown log level '%s', defaulting to 'info'", logLevel)
	}

	fiberlog.Infof("Log level set to: %s", logLevel)
}

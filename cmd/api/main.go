package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/zhouzirui/investor-interview/backend/internal/config"
	"github.com/zhouzirui/investor-interview/backend/internal/handler"
	"github.com/zhouzirui/investor-interview/backend/internal/metrics"
	portfolioModel "github.com/zhouzirui/investor-interview/backend/internal/model/portfolio"
	"github.com/zhouzirui/investor-interview/backend/internal/service/interpreter"
	interviewService "github.com/zhouzirui/investor-interview/backend/internal/service/interview"
	portfolioService "github.com/zhouzirui/investor-interview/backend/internal/service/portfolio"
	"github.com/zhouzirui/investor-interview/backend/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	portfolios, err := portfolioModel.Seed()
	if err != nil {
		log.Fatalf("failed to load portfolio catalog: %v", err)
	}
	catalog := portfolioModel.NewMemoryCatalog(portfolios)
	selector, err := portfolioService.NewSelector(catalog)
	if err != nil {
		log.Fatalf("failed to initialize portfolio selector: %v", err)
	}

	// 解释器不可用时服务仍然启动，/interview/health 返回 503
	var interp interpreter.Interpreter
	backend, err := interpreter.NewBackend(ctx, cfg.AI, cfg.Interpreter)
	if err != nil {
		log.Printf("warning: failed to initialize interpreter: %v", err)
		log.Println("continuing without interpretation - 请检查 ARK_* / ANTHROPIC_API_KEY / OPENAI_API_KEY 环境变量")
	} else {
		interp = interpreter.NewAdapter(backend, interpreter.WithRepair(cfg.Interpreter.RepairJSON))
		log.Printf("interpreter initialized with backend %s", backend.Name())
	}

	var (
		recorder *metrics.Recorder
		registry *prometheus.Registry
	)
	engineOpts := []interviewService.Option{}
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder, err = metrics.NewRecorder("", registry)
		if err != nil {
			log.Fatalf("failed to register metrics: %v", err)
		}
		engineOpts = append(engineOpts, interviewService.WithRecorder(recorder))
	}

	engine := interviewService.NewEngine(interp, selector, engineOpts...)

	store, err := session.New(ctx, cfg.Store)
	if err != nil {
		log.Printf("warning: failed to open %s session store: %v", cfg.Store.Backend, err)
		log.Println("continuing without server-side session persistence")
		store = nil
	} else {
		defer store.Close()
		log.Printf("session store backend: %s", cfg.Store.Backend)
	}

	deps := handler.Deps{
		Engine:         engine,
		Portfolios:     catalog,
		Store:          store,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		TurnTimeout:    cfg.Interpreter.Timeout,
	}
	if recorder != nil {
		deps.Connections = recorder
		deps.Metrics = registry
	}

	router := handler.NewRouter(deps)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("investor interview backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

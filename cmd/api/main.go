package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/auth"
	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/config"
	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/customers"
	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/dialog"
	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/handoff"
	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/interactions"
	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/llm"
	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/messaging"
	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/observability"
	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/otp"
	"github.com/Kushalsharma0702/financial-voice-chatbot/pkg/logger"
	"github.com/Kushalsharma0702/financial-voice-chatbot/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// sessionBackend is the per-call state plus its lock; both stores implement both.
type sessionBackend interface {
	dialog.Store
	dialog.Locker
}

type app struct {
	cfg      config.Config
	log      *slog.Logger
	registry *prometheus.Registry
	db       *sql.DB
	auth     *auth.Manager
	sessions sessionBackend
	memory   *dialog.MemoryStore
	ledger   *handoff.MemoryLedger
	codes    *otp.Service
	machine  *dialog.Machine
	router   *handoff.Router
	history  *interactions.Service
}

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(rootCtx, cfg, log); err != nil {
		log.Error("api exited", "err", err)
		os.Exit(1)
	}
}

func run(rootCtx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	tracer, shutdownTracer := observability.NewTracer(rootCtx, observability.TraceConfig{
		ServiceName:  cfg.Observability.ServiceName,
		Environment:  cfg.App.Env,
		Endpoint:     cfg.Observability.OTLPEndpoint,
		Insecure:     cfg.Observability.OTLPInsecure,
		SamplingRate: cfg.Observability.SampleRatio,
	})

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		return fmt.Errorf("auth init: %w", err)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), cfg.PostgresPool())
	if err != nil {
		return fmt.Errorf("postgres init: %w", err)
	}
	defer db.Close()

	a := &app{cfg: cfg, log: log, registry: reg, auth: authManager, db: db}

	var ledger handoff.AssignmentLedger
	switch cfg.Dialog.SessionStore {
	case config.SessionStoreMemory:
		a.memory = dialog.NewMemoryStore(cfg.Dialog.SessionTTL, metrics)
		a.sessions = a.memory
		a.ledger = handoff.NewMemoryLedger(cfg.Dialog.SessionTTL)
		ledger = a.ledger
	default:
		var rdb *redis.Client
		rdb, err = utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			return fmt.Errorf("redis init: %w", err)
		}
		defer rdb.Close()
		a.sessions = dialog.NewRedisStore(rdb, cfg.Dialog.SessionTTL, cfg.Dialog.LockTimeout)
		ledger = handoff.NewRedisLedger(rdb, cfg.Dialog.SessionTTL)
	}

	invoker, err := llm.NewInvoker(rootCtx, cfg.LLM, metrics)
	if err != nil {
		return fmt.Errorf("llm init: %w", err)
	}

	sms, err := messaging.NewTwilioSMS(messaging.TwilioConfig{
		AccountSID:          cfg.Twilio.AccountSID,
		AuthToken:           cfg.Twilio.AuthToken,
		MessagingServiceSID: cfg.Twilio.MessagingServiceSID,
		Timeout:             cfg.Dialog.ExternalCallTimeout,
	})
	if err != nil {
		return fmt.Errorf("sms init: %w", err)
	}
	a.codes = otp.NewService(otp.NewPostgresStore(db), sms, otp.WithTTL(cfg.Dialog.OTPTTL), otp.WithMetrics(metrics))
	a.history = interactions.NewService(interactions.NewPostgresRepo(db))

	taskRouter, err := handoff.NewTaskRouterClient(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Dialog.ExternalCallTimeout)
	if err != nil {
		return fmt.Errorf("taskrouter init: %w", err)
	}
	loadCtx, cancel := context.WithTimeout(rootCtx, 15*time.Second)
	ws, err := handoff.LoadWorkspace(loadCtx, taskRouter, cfg.Routing.WorkspaceName)
	cancel()
	if err != nil {
		// Handoffs answer with an apology until the workspace is provisioned.
		log.Warn("taskrouter workspace unavailable", "workspace", cfg.Routing.WorkspaceName, "err", err)
		ws = handoff.Workspace{}
	} else {
		log.Info("taskrouter workspace loaded", "workspace_sid", ws.SID, "workflow_sid", ws.WorkflowSID)
	}
	a.router = handoff.NewRouter(taskRouter, ws, ledger, nil, handoff.WithMetrics(metrics))

	a.machine = dialog.NewMachine(dialog.Deps{
		Store:        a.sessions,
		Locker:       a.sessions,
		Classifier:   llm.Classifier{Invoker: invoker, Model: cfg.LLM.IntentModel},
		Directory:    customers.NewPostgresDirectory(db),
		Codes:        a.codes,
		Responder:    llm.Responder{Invoker: invoker, Model: cfg.LLM.ResponseModel},
		Handoffs:     a.router,
		Interactions: a.history,
	},
		dialog.WithTimeouts(cfg.Dialog.ExternalCallTimeout, cfg.Dialog.LockTimeout),
		dialog.WithMetrics(metrics),
		dialog.WithTracer(tracer),
	)
	a.router.SetBridger(a.machine)

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	registerRoutes(r, a)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	jobs, err := startJobs(rootCtx, a)
	if err != nil {
		return fmt.Errorf("jobs init: %w", err)
	}

	g, gctx := errgroup.WithContext(rootCtx)
	g.Go(func() error {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "session_store", cfg.Dialog.SessionStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown failed", "err", err)
		}
		<-jobs.Stop().Done()
		if err := shutdownTracer(shutdownCtx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
		_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
		return nil
	})
	return g.Wait()
}

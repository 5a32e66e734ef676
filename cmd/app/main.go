// File: cmd/app/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"course-commerce/internal/config"
	"course-commerce/internal/domain/ports/adapter"
	contentAdapters "course-commerce/internal/infra/adapters/content"
	"course-commerce/internal/infra/api"
	"course-commerce/internal/infra/api/apiv1"
	pg "course-commerce/internal/infra/db/postgres"
	"course-commerce/internal/infra/logging"
	"course-commerce/internal/infra/metrics"
	payAdapters "course-commerce/internal/infra/payment"
	red "course-commerce/internal/infra/redis"
	"course-commerce/internal/infra/sched"
	"course-commerce/internal/infra/security"
	"course-commerce/internal/infra/web"
	"course-commerce/internal/infra/worker"
	"course-commerce/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	if err := pg.Migrate(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}
	txManager := pg.NewTxManager(pool)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	searchIndex := red.NewSearchIndex(redisClient)

	// ---- Repositories ----
	userRepo := pg.NewUserRepo(pool)
	groupRepo := pg.NewGroupRepo(pool)
	tokenRepo := pg.NewTokenRepo(pool)
	courseRepo := red.NewCachedCourseRepo(pg.NewCourseRepo(pool), redisClient, cfg.Redis.TTL)
	lessonRepo := pg.NewLessonRepo(pool)
	completionRepo := pg.NewCompletionRepo(pool)
	planRepo := red.NewCachedPlanRepo(pg.NewPlanRepo(pool), redisClient, cfg.Redis.TTL)
	subRepo := pg.NewSubscriptionRepo(pool)
	payRepo := pg.NewPaymentRepo(pool)
	enrollRepo := pg.NewEnrollmentRepo(pool)
	quizRepo := pg.NewQuizRepo(pool)
	attemptRepo := pg.NewQuizAttemptRepo(pool)
	progressRepo := pg.NewProgressRepo(pool)

	// ---- Background pool ----
	jobPool := worker.NewPool(cfg.Worker.Count, logger)
	jobPool.Start(ctx)
	defer jobPool.Stop()

	// ---- Content generator (OpenAI -> Gemini fallback) ----
	var providers []adapter.ContentGenerator
	if cfg.AI.OpenAIKey != "" {
		gen, err := contentAdapters.NewOpenAIGenerator(cfg.AI.OpenAIKey, cfg.AI.DefaultModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai generator")
		}
		providers = append(providers, gen)
	}
	if cfg.AI.GeminiKey != "" {
		gen, err := contentAdapters.NewGeminiGenerator(ctx, cfg.AI.GeminiKey, "", 0)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini generator")
		}
		providers = append(providers, gen)
	}
	var generator adapter.ContentGenerator
	switch len(providers) {
	case 0:
		logger.Warn().Msg("no content provider configured, using placeholder generator")
		generator = contentAdapters.NewNoopGenerator()
	case 1:
		generator = providers[0]
	default:
		generator = contentAdapters.NewMultiGenerator(*logger, providers...)
	}
	generator = contentAdapters.NewLimitedGenerator(generator, cfg.AI.ConcurrentLimit)

	// ---- Payment gateway ----
	var gateway adapter.PaymentGateway
	if cfg.Payment.Paystack.SecretKey != "" {
		gateway = payAdapters.NewPaystackGateway(cfg.Payment.Paystack.SecretKey, cfg.Payment.Paystack.Timeout)
	} else {
		logger.Warn().Msg("no gateway secret configured, using noop gateway")
		gateway = payAdapters.NewNoOpGateway()
	}

	// ---- Security primitives ----
	hasher := security.NewBcryptHasher(cfg.Security.BcryptCost)
	tokenSource := security.NewTokenSource(cfg.Security.TokenBytes)

	// ---- Use cases ----
	tokenUC := usecase.NewTokenUseCase(tokenRepo, tokenSource, logger)
	userUC := usecase.NewUserUseCase(userRepo, hasher, tokenUC, logger)
	enrollUC := usecase.NewEnrollmentUseCase(enrollRepo, courseRepo, groupRepo, txManager, logger)
	subUC := usecase.NewSubscriptionUseCase(subRepo, planRepo, logger)
	progressUC := usecase.NewProgressUseCase(userRepo, courseRepo, lessonRepo, completionRepo, quizRepo, attemptRepo, progressRepo, logger)
	quizUC := usecase.NewQuizUseCase(quizRepo, attemptRepo, progressUC, logger)
	lessonUC := usecase.NewLessonUseCase(courseRepo, lessonRepo, completionRepo, quizRepo, generator, searchIndex, jobPool, progressUC, txManager, logger)
	paymentUC := usecase.NewPaymentUseCase(payRepo, userRepo, courseRepo, planRepo, enrollUC, subUC, gateway, txManager, cfg.Payment.Paystack.CallbackURL, logger)

	// ---- Workers ----
	reconciler := sched.NewPaymentReconciler(paymentUC, payRepo, cfg.Scheduler.ReconcileInterval, cfg.Scheduler.ReconcileMinAge, logger)
	go reconciler.Start(ctx)
	expiry := sched.NewExpiryWorker(cfg.Scheduler.ExpiryInterval, subUC, logger)
	go func() { _ = expiry.Run(ctx) }()
	purge := sched.NewTokenPurgeWorker(cfg.Scheduler.TokenPurgeInterval, tokenUC, logger)
	go func() { _ = purge.Run(ctx) }()

	// ---- HTTP ----
	authMgr := web.NewAuthManager(cfg.API.JWTSecret, !cfg.Runtime.Dev, "", cfg.API.JWTTTL)
	apiServer := apiv1.NewServer(paymentUC, enrollUC, subUC, quizUC, progressUC, lessonUC, userUC, authMgr, logger)

	router := chi.NewRouter()
	apiv1.RegisterAPIV1(router, apiServer)

	cbPath := "/api/v1/payments/callback"
	if u := strings.TrimSpace(cfg.Payment.Paystack.CallbackURL); u != "" {
		if parsed, err := url.Parse(u); err == nil && parsed.Path != "" {
			cbPath = parsed.Path
		}
	}
	cbServer := api.NewServer(paymentUC, cbPath)
	mux := http.NewServeMux()
	cbServer.Register(mux)
	mux.Handle("/", router)

	handler := api.Chain(mux,
		api.Recover(logger),
		api.TraceID(logger),
		api.RequestLog(logger),
		api.RateLimit(rateLimiter, cfg.API.RateLimit, logger),
		api.Timeout(30*time.Second),
	)

	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.API.Port), Handler: handler}
	go func() {
		logger.Info().Str("addr", server.Addr).Str("callback_path", cbPath).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
}

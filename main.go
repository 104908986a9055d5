package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/medperplexity/clinical-api/agents"
	"github.com/medperplexity/clinical-api/auth"
	"github.com/medperplexity/clinical-api/config"
	"github.com/medperplexity/clinical-api/data"
	"github.com/medperplexity/clinical-api/gemini"
	"github.com/medperplexity/clinical-api/handlers"
	"github.com/medperplexity/clinical-api/health"
	"github.com/medperplexity/clinical-api/interfaces"
	"github.com/medperplexity/clinical-api/janaushadhi"
	"github.com/medperplexity/clinical-api/logging"
	"github.com/medperplexity/clinical-api/pubmed"
	"github.com/medperplexity/clinical-api/scheduler"
	"github.com/medperplexity/clinical-api/server"
	"github.com/medperplexity/clinical-api/validation"
)

// Compile-time checks that every concrete component satisfies the contract
// it is wired against below.
var (
	_ interfaces.PatientStore      = (*data.PatientFileStore)(nil)
	_ interfaces.RoundStore        = (*data.RoundFileStore)(nil)
	_ interfaces.CatalogStore      = (*janaushadhi.Store)(nil)
	_ interfaces.SubstituteMatcher = (*janaushadhi.Matcher)(nil)
	_ interfaces.EvidenceRetriever = (*pubmed.Client)(nil)
	_ interfaces.DecisionEngine    = (*agents.Workflow)(nil)
	_ interfaces.DoctorStore       = (*auth.DoctorStore)(nil)
	_ interfaces.SessionManager    = (*auth.SessionManager)(nil)
	_ agents.Generator             = (*gemini.Client)(nil)
)

func main() {
	// The env file is optional; deployments can configure through real
	// environment variables instead.
	if err := godotenv.Load(); err != nil {
		logging.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logging.InitLoggerWithOptions(cfg.LogDir, logging.ParseLevel(cfg.LogLevel), cfg.LogRetentionWeeks, cfg.MaxLogFileSize)

	patients := data.NewPatientFileStore(cfg.DataDir)
	rounds := data.NewRoundFileStore(cfg.DataDir)
	catalog := janaushadhi.NewStore(cfg.DataDir)
	matcher := janaushadhi.NewMatcher(cfg.MatchThreshold)
	doctors := auth.NewDoctorStore(cfg.DataDir)
	sessions := auth.NewSessionManager(time.Duration(cfg.SessionTTLMinutes) * time.Minute)

	retriever := pubmed.NewClient(cfg.EntrezEmail)

	// A nil Generator keeps the pipeline running; the assembler answers
	// with manual-review verdicts until a key is configured.
	var generator agents.Generator
	if cfg.GeminiAPIKey != "" {
		generator = gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel)
	} else {
		logging.Warn("GEMINI_API_KEY is not set, verdicts fall back to manual review text")
	}

	engine := agents.NewWorkflow(patients, catalog, matcher, retriever, generator)
	validator := validation.NewDataValidator()
	checker := health.NewHealthChecker(patients, rounds, catalog, generator != nil)

	handler := handlers.NewHTTPHandler(handlers.HandlerDeps{
		Patients:    patients,
		Rounds:      rounds,
		Catalog:     catalog,
		Matcher:     matcher,
		Retriever:   retriever,
		Engine:      engine,
		Doctors:     doctors,
		Sessions:    sessions,
		Validator:   validator,
		Health:      checker,
		StreamDelay: time.Duration(cfg.StreamDelayMS) * time.Millisecond,
	})

	sched := scheduler.NewScheduler(sessions, catalog, validator)
	if err := sched.Start(); err != nil {
		logging.Error("Failed to start background jobs", "error", err)
		os.Exit(1)
	}

	srv := server.NewServer(cfg, handler, auth.Middleware(sessions, doctors))

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Block until a signal is received
	<-quit

	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		os.Exit(1)
	}
}

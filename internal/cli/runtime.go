package cli

import (
	"fmt"
	"net/http"

	"toolflow/internal/config"
	"toolflow/internal/logger"
	"toolflow/internal/telemetry"
	"toolflow/pkg/approval"
	"toolflow/pkg/batch"
	"toolflow/pkg/coretools"
	"toolflow/pkg/factstore"
	"toolflow/pkg/fsys"
	"toolflow/pkg/reconcile"
	"toolflow/pkg/tool"
	"toolflow/pkg/workspace"
)

// runtime is the fully wired tool stack for one CLI process.
type runtime struct {
	cfg      *config.Config
	log      *logger.Logger
	registry *tool.Registry
	gate     *approval.Gate
	session  *approval.Session
	watcher  *factstore.Watcher
}

// newRuntime builds the stack from configuration: logger, workspace
// boundary, reconciler, batch executor, tool registry, approval gate.
func newRuntime() (*runtime, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	lg, err := logger.New(logger.Config{
		Level:  level,
		File:   cfg.Logging.File,
		Pretty: cfg.Logging.Pretty,
	})
	if err != nil {
		return nil, err
	}

	boundary, err := workspace.NewBoundary(cfg.Workspace)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}

	fs := fsys.NewService()
	corrector, err := buildCorrector(cfg)
	if err != nil {
		return nil, err
	}

	registry := tool.NewRegistry()
	collector := telemetry.Default()
	if err := coretools.RegisterCoreTools(registry, coretools.Options{
		Boundary:   boundary,
		FS:         fs,
		Reconciler: reconcile.NewReconciler(fs, corrector),
		Batch:      batch.NewExecutor(cfg.Batch.Width),
		Telemetry:  collector,
	}); err != nil {
		return nil, err
	}

	store := factstore.NewStore(cfg.FactStore.Path, fs)
	if err := factstore.RegisterTool(registry, store, collector); err != nil {
		return nil, err
	}

	var watcher *factstore.Watcher
	if cfg.FactStore.Watch {
		watcher, err = factstore.NewWatcher(lg.Zerolog(), store)
		if err != nil {
			zl := lg.Zerolog()
			zl.Warn().Err(err).Msg("fact store watcher unavailable")
			watcher = nil
		}
	}

	if cfg.Metrics.Enabled {
		serveMetrics(lg, cfg.Metrics.Addr)
	}

	return &runtime{
		cfg:      cfg,
		log:      lg,
		registry: registry,
		gate:     approval.NewGate(boundary, nil),
		session:  approval.NewSession(approval.Mode(cfg.Approval.Mode)),
		watcher:  watcher,
	}, nil
}

func buildCorrector(cfg *config.Config) (reconcile.Corrector, error) {
	switch cfg.Corrector.Provider {
	case "off":
		return reconcile.Passthrough{}, nil
	case "anthropic":
		key := cfg.CorrectorAPIKey()
		if key == "" {
			return nil, fmt.Errorf("corrector enabled but %s is not set", cfg.Corrector.APIKeyEnv)
		}
		return reconcile.NewAnthropicCorrector(key, cfg.Corrector.Model), nil
	case "openai":
		key := cfg.CorrectorAPIKey()
		if key == "" {
			return nil, fmt.Errorf("corrector enabled but %s is not set", cfg.Corrector.APIKeyEnv)
		}
		return reconcile.NewOpenAICorrector(key, cfg.Corrector.Model), nil
	}
	return nil, fmt.Errorf("unknown corrector provider %q", cfg.Corrector.Provider)
}

// serveMetrics exposes the Prometheus endpoint for the lifetime of the
// process.
func serveMetrics(lg *logger.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			zl := lg.Zerolog()
			zl.Warn().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
}

func (r *runtime) close() {
	if r.watcher != nil {
		_ = r.watcher.Stop()
	}
	if r.log != nil {
		_ = r.log.Close()
	}
}

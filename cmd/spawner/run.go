package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/fyerfyer/fyer-pool/logger"
	"github.com/fyerfyer/fyer-pool/middleware/accesslog"
	poolmetrics "github.com/fyerfyer/fyer-pool/middleware/prometheus"
	"github.com/fyerfyer/fyer-pool/middleware/opentracing"
	"github.com/fyerfyer/fyer-pool/pooling"
	"github.com/fyerfyer/fyer-pool/scene"
	"github.com/fyerfyer/fyer-pool/spawner"
)

type runOptions struct {
	configFile    string
	instances     int
	speed         float64
	frames        int
	fps           int
	realtime      bool
	metricsAddr   string
	logLevel      string
	watch         bool
	accessLog     bool
	traceRate     float64
	statsInterval time.Duration
}

func sampleConfig() spawner.Config {
	cfg := spawner.DefaultConfig()
	cfg.Instances = 10
	cfg.Speed = 5
	cfg.Locations = []scene.Vec3{
		{X: -5, Z: -5},
		{X: 5, Z: -5},
		{X: -5, Z: 5},
		{X: 5, Z: 5},
	}
	return cfg
}

// loadConfig 读取配置文件，再用显式设置的命令行参数覆盖
func loadConfig(cmd *cobra.Command, opts *runOptions) (spawner.Config, error) {
	cfg := sampleConfig()
	if opts.configFile != "" {
		loaded, err := spawner.LoadConfig(opts.configFile)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("instances") {
		cfg.Instances = opts.instances
	}
	if cmd.Flags().Changed("speed") {
		cfg.Speed = opts.speed
	}
	return cfg, cfg.Validate()
}

func run(cmd *cobra.Command, opts *runOptions) error {
	level, err := logger.ParseLevel(opts.logLevel)
	if err != nil {
		return err
	}
	log := logger.NewLogger(logger.WithLevel(level), logger.WithConsole(true))
	logger.SetDefaultLogger(log)

	if opts.fps < 1 {
		return fmt.Errorf("fps must be at least 1, got %d", opts.fps)
	}
	if opts.watch && opts.configFile == "" {
		return errors.New("--watch requires --config")
	}

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	shutdownTracing, err := initTracing(os.Stderr, opts.traceRate)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := (&poolmetrics.ObserverBuilder{NameSpace: "spawner", Registerer: reg}).Build()
	if err != nil {
		return err
	}

	observers := []pooling.Observer{metrics, (&opentracing.ObserverBuilder{}).Build()}
	if opts.accessLog {
		events := log.WithField("component", "pool-events")
		observers = append(observers, accesslog.NewObserverBuilder().SetLogger(func(content string) {
			events.Info(content)
		}).Build())
	}

	sys := pooling.NewSystem(
		pooling.WithLogger(log.WithField("component", "pooling")),
		pooling.WithObserver(observers...),
		pooling.WithWarnInterval(cfg.WarnInterval),
	)
	defer sys.DestroyAll()

	world := scene.NewScene()
	if err := pooling.Register[*scene.Node](sys, scene.NewNodeProcessor(world)); err != nil {
		return err
	}

	source := world.NewNode("Cube")
	if err := world.NewNode("Mesh").SetParent(source); err != nil {
		return err
	}
	source.SetActive(false)

	sp, err := spawner.New(sys, source, spawner.WithConfig(cfg), spawner.WithLogger(log))
	if err != nil {
		return err
	}
	if err := sp.Start(); err != nil {
		return err
	}

	var configs <-chan spawner.Config
	if opts.watch {
		w, err := spawner.NewWatcher(opts.configFile, spawner.WithWatcherLogger(log))
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return err
		}
		defer w.Stop()
		configs = w.Configs()
	}

	if opts.metricsAddr != "" {
		srv := serveMetrics(opts.metricsAddr, reg, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	frames := loop(ctx, sp, configs, opts, log)

	stats, _ := sp.Stats()
	log.Info("spawner finished",
		logger.Int("frames", frames),
		logger.Int("spawned", int(sp.Spawned())),
		logger.Int("size", stats.Size),
		logger.Int("active", stats.Active),
		logger.Int("recycles", int(stats.Recycles)),
		logger.Int("nodes", world.Len()),
	)
	return sp.Stop()
}

// loop 以固定步长推进，返回实际运行的帧数
func loop(ctx context.Context, sp *spawner.Spawner, configs <-chan spawner.Config, opts *runOptions, log logger.Logger) int {
	dt := time.Second / time.Duration(opts.fps)

	var tick <-chan time.Time
	if opts.realtime {
		ticker := time.NewTicker(dt)
		defer ticker.Stop()
		tick = ticker.C
	}

	var statsTick <-chan time.Time
	if opts.statsInterval > 0 {
		ticker := time.NewTicker(opts.statsInterval)
		defer ticker.Stop()
		statsTick = ticker.C
	}

	frames := 0
	for opts.frames == 0 || frames < opts.frames {
		select {
		case <-ctx.Done():
			return frames
		case cfg, ok := <-configs:
			if !ok {
				configs = nil
				continue
			}
			if err := sp.Apply(cfg); err != nil {
				log.Warn("apply config failed", logger.FieldError(err))
			}
			continue
		case <-statsTick:
			if stats, ok := sp.Stats(); ok {
				log.Info("pool stats",
					logger.Int("active", stats.Active),
					logger.Int("size", stats.Size),
					logger.Int("gets", int(stats.Gets)),
					logger.Int("recycles", int(stats.Recycles)),
				)
			}
			continue
		default:
		}

		if tick != nil {
			select {
			case <-ctx.Done():
				return frames
			case <-tick:
			}
		}

		if node, ok := sp.Update(dt); ok {
			log.Debug("spawned", logger.String("node", node.String()), logger.Any("position", node.Transform.Position))
		}
		frames++
	}
	return frames
}

func serveMetrics(addr string, reg *prometheus.Registry, log logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("serving metrics", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", logger.FieldError(err))
		}
	}()
	return srv
}

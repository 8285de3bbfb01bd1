package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdelNorberg/ecsy/internal/domain/ecs"
	"github.com/AdelNorberg/ecsy/internal/domain/event"
	"github.com/AdelNorberg/ecsy/internal/infrastructure/introspect"
	"github.com/AdelNorberg/ecsy/internal/infrastructure/logging"
	"github.com/AdelNorberg/ecsy/internal/infrastructure/memory"
	"github.com/AdelNorberg/ecsy/internal/infrastructure/monitoring"
	"github.com/AdelNorberg/ecsy/internal/infrastructure/profiling"
)

var (
	port        = flag.String("port", "8080", "Introspection server port")
	metricsPort = flag.String("metrics-port", "9090", "Metrics port for Prometheus")
	tickRate    = flag.Duration("tick-rate", 50*time.Millisecond, "Fixed tick interval driving World.Execute")
	logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	env         = flag.String("env", "development", "Environment (development, production)")
)

func main() {
	flag.Parse()

	logConfig := &logging.LoggerConfig{
		Level:      parseLogLevel(*logLevel),
		Console:    true,
		JSON:       *env == "production",
		TimeFormat: time.RFC3339,
		Context: map[string]interface{}{
			"environment": *env,
			"service":     "ecsy-server",
		},
	}

	logManagerConfig := &logging.LogManagerConfig{
		LogDir:          "./logs",
		MaxFileSize:     100 * 1024 * 1024,
		MaxBackups:      10,
		MaxAge:          30,
		Compress:        true,
		BufferSize:      1000,
		FlushInterval:   time.Second,
		RotationTime:    24 * time.Hour,
		FileNamePattern: "ecsy-%s.log",
	}

	if err := logging.Initialize(logConfig, logManagerConfig); err != nil {
		log.Fatalf("failed to initialize logging: %v", err)
	}
	defer logging.Close()

	logging.Info("Starting ecsy runtime")
	logging.WithFields(map[string]interface{}{
		"port":         *port,
		"metrics_port": *metricsPort,
		"tick_rate":    tickRate.String(),
		"environment":  *env,
	}).Info("Runtime configuration")

	metricsCollector := monitoring.NewMetricsCollector()
	metricsPortInt := 9090
	if _, err := fmt.Sscanf(*metricsPort, "%d", &metricsPortInt); err != nil {
		log.Printf("invalid metrics port, using default 9090: %v", err)
	}
	if err := metricsCollector.StartServer(metricsPortInt); err != nil {
		logging.WithError(err).Error("failed to start metrics server")
	}
	logging.Infof("Metrics server started on port %d", metricsPortInt)

	runtimeCollector := monitoring.NewRuntimeCollector(metricsCollector)
	runtimeCollector.Start(10 * time.Second)

	optimizer := memory.NewOptimizer()
	optimizer.Start()
	defer optimizer.Stop()

	profiler := profiling.NewMemoryProfiler()
	profiler.Start()
	defer profiler.Stop()

	bus := event.NewEventBus()
	bus.Subscribe("world.created", func(e event.Event) error {
		logging.LogEvent(e.EventName(), map[string]interface{}{"occurred_at": e.OccurredAt()})
		return nil
	})

	world := ecs.NewWorld(
		ecs.WithLogger(logging.Get()),
		ecs.WithSink(bus),
	)
	logging.LogEntityCreated(world.ID().String(), 0)

	if err := registerDemoComponents(world); err != nil {
		log.Fatalf("failed to register components: %v", err)
	}
	if err := registerDemoSystems(world); err != nil {
		log.Fatalf("failed to register systems: %v", err)
	}
	spawnDemoEntities(world, 64)

	sampler := monitoring.NewWorldSampler(metricsCollector, world)
	sampler.Start(5 * time.Second)
	defer sampler.Stop()

	introspectSvc := introspect.NewService(world)
	introspectPath, introspectHandler := introspect.NewHandler(introspectSvc)

	addr := fmt.Sprintf(":%s", *port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      createHandler(introspectPath, introspectHandler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logging.Infof("Starting introspection server on %s (env: %s)", addr, *env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.WithError(err).Fatal("introspection server failed to start")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runTickLoop(ctx, world)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.WithError(err).Error("introspection server forced to shutdown")
	}
	if err := metricsCollector.StopServer(); err != nil {
		logging.WithError(err).Error("error stopping metrics server")
	}
	logging.Info("Shutdown complete")
}

// runTickLoop drives World.Execute on a fixed wall-clock interval until
// ctx is cancelled -- the externally-driven tick loop the runtime
// itself never owns (see World.Execute's delta/simTime contract).
func runTickLoop(ctx context.Context, world *ecs.World) {
	ticker := time.NewTicker(*tickRate)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			if err := world.Execute(ctx, nil, nil); err != nil {
				logging.LogError(err, "world.execute", nil)
			}
			logging.LogPerformance("world.execute", time.Since(start), nil)
		}
	}
}

func registerDemoComponents(w *ecs.World) error {
	if err := ecs.RegisterComponent[*ecs.TransformComponent](w, ecs.ComponentTypeTransform, &ecs.TransformComponent{Scale: 1}); err != nil {
		return err
	}
	if err := ecs.RegisterComponent[*ecs.RenderComponent](w, ecs.ComponentTypeRender, &ecs.RenderComponent{Visible: true, Alpha: 1}); err != nil {
		return err
	}
	if err := ecs.RegisterComponent[*ecs.PhysicsComponent](w, ecs.ComponentTypePhysics, &ecs.PhysicsComponent{Mass: 1}); err != nil {
		return err
	}
	if err := ecs.RegisterComponent[*ecs.HealthComponent](w, ecs.ComponentTypeHealth, &ecs.HealthComponent{Max: 100}); err != nil {
		return err
	}
	if err := ecs.RegisterComponent[*ecs.AIComponent](w, ecs.ComponentTypeAI, &ecs.AIComponent{State: "idle"}); err != nil {
		return err
	}
	return ecs.RegisterComponent[ecs.DisposingTag](w, ecs.ComponentTypeDisposing, ecs.DisposingTag{}, ecs.Tag(), ecs.SystemStateComponent())
}

func registerDemoSystems(w *ecs.World) error {
	if err := w.RegisterSystem("physics.integrate", &physicsSystem{}, 0); err != nil {
		return err
	}
	return w.RegisterSystem("health.cull", &healthCullSystem{}, 10)
}

func spawnDemoEntities(w *ecs.World, count int) {
	for i := 0; i < count; i++ {
		e := w.CreateEntity()
		e.SetName(fmt.Sprintf("demo-%d", i))
		_ = e.AddComponent(ecs.ComponentTypeTransform, &ecs.TransformComponent{
			X: rand.Float64() * 100, Y: rand.Float64() * 100, Scale: 1,
		})
		_ = e.AddComponent(ecs.ComponentTypeRender, &ecs.RenderComponent{Visible: true, Alpha: 1})
		_ = e.AddComponent(ecs.ComponentTypePhysics, &ecs.PhysicsComponent{
			VelocityX: rand.Float64()*2 - 1, VelocityY: rand.Float64()*2 - 1, Mass: 1,
		})
		_ = e.AddComponent(ecs.ComponentTypeHealth, &ecs.HealthComponent{Current: 100, Max: 100})
	}
}

// physicsSystem integrates PhysicsComponent velocity into TransformComponent
// position every tick, the simplest possible demonstration of the query
// and mutation path a real simulation system follows.
type physicsSystem struct{}

func (s *physicsSystem) QueryDeclarations() []ecs.QuerySpec {
	return []ecs.QuerySpec{
		{Name: "moving", Components: []ecs.QueryTerm{
			ecs.In(ecs.ComponentTypeTransform),
			ecs.In(ecs.ComponentTypePhysics),
		}},
	}
}

func (s *physicsSystem) Execute(ctx context.Context, sc *ecs.SystemContext) error {
	dt := sc.Delta.Seconds()
	for _, e := range sc.Query("moving").Query.Entities() {
		transform := e.GetMutableComponent(ecs.ComponentTypeTransform).(*ecs.TransformComponent)
		physics := e.GetComponent(ecs.ComponentTypePhysics, false).(ecs.ReadOnlyView).Component.(*ecs.PhysicsComponent)
		transform.X += physics.VelocityX * dt
		transform.Y += physics.VelocityY * dt
	}
	return nil
}

// healthCullSystem disposes any entity whose HealthComponent has reached
// zero, demonstrating the deferred-removal path driven by a scheduled
// system rather than direct caller code.
type healthCullSystem struct{}

func (s *healthCullSystem) QueryDeclarations() []ecs.QuerySpec {
	return []ecs.QuerySpec{
		{Name: "alive", Components: []ecs.QueryTerm{ecs.In(ecs.ComponentTypeHealth)}},
	}
}

func (s *healthCullSystem) Execute(ctx context.Context, sc *ecs.SystemContext) error {
	for _, e := range sc.Query("alive").Query.Entities() {
		health := e.GetComponent(ecs.ComponentTypeHealth, false).(ecs.ReadOnlyView).Component.(*ecs.HealthComponent)
		if health.Current <= 0 {
			if err := e.Dispose(false); err != nil {
				return err
			}
		}
	}
	return nil
}

func createHandler(introspectPath string, introspectHandler http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
	})

	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":%q,"build_time":"%s"}`, ecs.Version, time.Now().Format(time.RFC3339))
	})

	mux.Handle(introspectPath, introspectHandler)
	mux.Handle("/debug/stats", introspectHandler)

	if *env == "development" {
		return corsMiddleware(mux)
	}
	return mux
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func parseLogLevel(level string) logging.LogLevel {
	switch level {
	case "debug":
		return logging.DebugLevel
	case "info":
		return logging.InfoLevel
	case "warn":
		return logging.WarnLevel
	case "error":
		return logging.ErrorLevel
	default:
		return logging.InfoLevel
	}
}

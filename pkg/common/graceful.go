package common

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
)

// ShutdownHook runs after a termination signal and before the http server shuts
// down. Errors are logged and do not stop the shutdown.
type ShutdownHook func(ctx context.Context) error

// TimeoutConfig holds server and shutdown timeouts.
type TimeoutConfig struct {
	ReadHeader time.Duration
	Read       time.Duration
	Write      time.Duration
	Idle       time.Duration
	Shutdown   time.Duration
	Hook       time.Duration
}

var DefaultTimeouts = TimeoutConfig{
	ReadHeader: 5 * time.Second,
	Read:       15 * time.Second,
	Write:      30 * time.Second,
	Idle:       60 * time.Second,
	Shutdown:   15 * time.Second,
	Hook:       5 * time.Second,
}

// LoadTimeoutConfig overrides defaults with env variables holding whole seconds:
// READ_HEADER_TIMEOUT, READ_TIMEOUT, WRITE_TIMEOUT, IDLE_TIMEOUT,
// SHUTDOWN_TIMEOUT and HOOK_TIMEOUT. Invalid or non positive values are ignored.
func LoadTimeoutConfig(defaults TimeoutConfig) TimeoutConfig {
	for env, curr := range map[string]*time.Duration{
		"READ_HEADER_TIMEOUT": &defaults.ReadHeader,
		"READ_TIMEOUT":        &defaults.Read,
		"WRITE_TIMEOUT":       &defaults.Write,
		"IDLE_TIMEOUT":        &defaults.Idle,
		"SHUTDOWN_TIMEOUT":    &defaults.Shutdown,
		"HOOK_TIMEOUT":        &defaults.Hook,
	} {
		v, ok := os.LookupEnv(env)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*curr = time.Duration(n) * time.Second
		}
	}
	return defaults
}

func NewServer(addr string, handler http.Handler, cfg TimeoutConfig) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeader,
		ReadTimeout:       cfg.Read,
		WriteTimeout:      cfg.Write,
		IdleTimeout:       cfg.Idle,
	}
}

// RunServerWithShutdown serves until SIGINT or SIGTERM, then runs hooks in order
// and shuts the server down within cfg.Shutdown.
func RunServerWithShutdown(server *http.Server, name string, cfg TimeoutConfig, hooks ...ShutdownHook) {
	if cfg.Hook <= 0 {
		cfg.Hook = DefaultTimeouts.Hook
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("starting %s on %s", name, server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("%s listen error: %v", name, err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutdown signal received for %s", name)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown)
	defer cancel()
	for i, hook := range hooks {
		if hook == nil {
			continue
		}
		hookCtx, hookCancel := context.WithTimeout(shutdownCtx, cfg.Hook)
		if err := hook(hookCtx); err != nil {
			log.Printf("shutdown hook %d failed: %v", i, err)
		}
		hookCancel()
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		return
	}
	log.Printf("%s shutdown complete", name)
}

// Package main is the entry point for the taskpad CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"taskpad/internal/backend"
	"taskpad/internal/backend/firestore"
	"taskpad/internal/backend/localstore"
	"taskpad/internal/cli"
	"taskpad/internal/commands"
	"taskpad/internal/config"
	"taskpad/internal/session"
	"taskpad/internal/session/firebaseauth"
	"taskpad/internal/store"

	// Import all command packages to register them via init()
	_ "taskpad/internal/commands"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, buildEnv)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}

// buildEnv assembles the command environment: logger, session gateway
// and, for commands that operate on the task list, a started store.
func buildEnv(ctx context.Context, cfg *config.Config, needsStore bool) (*commands.Env, func(), error) {
	if err := cfg.EnsureDir(); err != nil {
		return nil, nil, fmt.Errorf("create config dir: %w", err)
	}

	log, err := openLogger(cfg)
	if err != nil {
		return nil, nil, err
	}

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	cleanups = append(cleanups, func() { _ = log.Sync() })

	gateway, remotes, err := buildRemote(ctx, cfg, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	env := &commands.Env{Cfg: cfg, Log: log, Gateway: gateway}
	if !needsStore {
		return env, cleanup, nil
	}

	local, err := localstore.Open(ctx, cfg.DBPath())
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("open local store: %w", err)
	}
	cleanups = append(cleanups, func() { _ = local.Close() })

	st := store.New(log, gateway, local, remotes)
	st.Start(ctx)
	cleanups = append(cleanups, st.Stop)

	env.Store = st
	return env, cleanup, nil
}

// buildRemote selects the session gateway and remote adapter factory.
// Without firebase.json (or with --local) everything stays on this
// machine and the gateway permanently reports no identity.
func buildRemote(ctx context.Context, cfg *config.Config, log *zap.Logger) (session.Gateway, store.RemoteFactory, error) {
	if !cfg.RemoteEnabled() {
		return session.LocalOnly{}, nil, nil
	}

	fb, err := cfg.LoadFirebase()
	if err != nil {
		return nil, nil, err
	}

	gateway, err := firebaseauth.New(ctx, fb.APIKey, cfg.SessionPath(), log)
	if err != nil {
		return nil, nil, err
	}

	remotes := func(ctx context.Context, id session.Identity) (backend.Remote, error) {
		return firestore.New(ctx, fb.ProjectID, gateway.TokenSource(ctx), log)
	}
	return gateway, remotes, nil
}

// openLogger writes diagnostics to taskpad.log in the config directory,
// keeping the terminal free for command output and the TUI.
func openLogger(cfg *config.Config) (*zap.Logger, error) {
	level := zap.InfoLevel
	if cfg.Debug {
		level = zap.DebugLevel
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{cfg.LogPath()}
	zcfg.ErrorOutputPaths = []string{cfg.LogPath()}
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	log, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	return log, nil
}

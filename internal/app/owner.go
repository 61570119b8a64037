package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"github.com/rbright/warden/internal/clock"
	"github.com/rbright/warden/internal/config"
	"github.com/rbright/warden/internal/console"
	"github.com/rbright/warden/internal/events"
	"github.com/rbright/warden/internal/ipc"
	"github.com/rbright/warden/internal/random"
	"github.com/rbright/warden/internal/router"
	"github.com/rbright/warden/internal/rpc"
	"github.com/rbright/warden/internal/session"
	"github.com/rbright/warden/internal/speech"
	"github.com/rbright/warden/internal/synthesis"
	"github.com/rbright/warden/internal/vad"
	"google.golang.org/grpc"
)

// commandRun owns the voice pipeline until ctx ends: it binds the control socket,
// serves gRPC when enabled, and prints every controller event.
func (r Runner) commandRun(ctx context.Context, cfg config.Config, verbose bool, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	controller := r.newController(cfg, logger)

	subs := []*events.Subscription{controller.Subscribe(console.New(r.Stdout, verbose))}
	if cfg.Responses.Enable {
		subs = append(subs, controller.Subscribe(router.New(controller, logger)))
	}
	defer func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}()

	if err := controller.Initialize(ctx); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer controller.Destroy()

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	ipcErrCh := make(chan error, 1)
	go func() {
		ipcErrCh <- ipc.Serve(serverCtx, listener, controller)
	}()

	rpcErrCh := make(chan error, 1)
	if listen := strings.TrimSpace(cfg.RPC.Listen); listen != "" {
		rpcListener, err := net.Listen("tcp", listen)
		if err != nil {
			serverCancel()
			<-ipcErrCh
			fmt.Fprintf(r.Stderr, "error: listen rpc %s: %v\n", listen, err)
			return 1
		}

		rpcServer := rpc.NewServer(controller, logger)
		grpcServer := rpc.NewGRPCServer(rpcServer)
		go func() {
			if err := grpcServer.Serve(rpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				rpcErrCh <- err
			}
		}()
		defer func() {
			rpcServer.Shutdown()
			grpcServer.GracefulStop()
		}()
		logger.Info("rpc listening", "addr", rpcListener.Addr().String())
	}

	logger.Info("owner started", "socket", socketPath)

	exitCode := 0
	select {
	case <-ctx.Done():
	case err := <-rpcErrCh:
		fmt.Fprintf(r.Stderr, "error: rpc server failed: %v\n", err)
		exitCode = 1
	case err := <-ipcErrCh:
		ipcErrCh <- err
	}

	serverCancel()
	if err := <-ipcErrCh; err != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", err)
		exitCode = 1
	}

	logger.Info("owner stopping", "state", controller.State())
	return exitCode
}

func (r Runner) newController(cfg config.Config, logger *slog.Logger) *session.Controller {
	clk := r.Clock
	if clk == nil {
		clk = clock.Real()
	}
	src := r.Random
	if src == nil {
		src = random.New()
	}

	var detector session.Detector
	if cfg.Detector.Enable {
		detector = vad.New(cfg.DetectorEngine(), clk)
	}

	return session.NewController(
		logger,
		clk,
		speech.New(cfg.SpeechEngine(), clk, src),
		synthesis.New(cfg.SynthesisEngine(), clk, src),
		detector,
		cfg.SessionOptions(),
	)
}

// commandWatch streams owner events over gRPC until ctx ends.
func (r Runner) commandWatch(ctx context.Context, cfg config.Config, verbose bool) int {
	target, err := dialTarget(cfg.RPC.Listen)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	client, err := rpc.Dial(ctx, target, 2*time.Second)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() { _ = client.Close() }()

	status, err := client.Status(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintf(r.Stdout, "connected to %s (%s)\n", target, status.State)

	renderer := console.New(r.Stdout, verbose)
	if err := client.Subscribe(ctx, renderer.HandleEvent); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// dialTarget turns a listen address into one a local client can reach.
func dialTarget(listen string) (string, error) {
	listen = strings.TrimSpace(listen)
	if listen == "" {
		return "", errors.New("rpc.listen is empty; enable it in config to watch")
	}
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "", fmt.Errorf("rpc.listen: %w", err)
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port), nil
}

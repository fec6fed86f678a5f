package utils

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	defaultReadTimeout   = 30 * time.Second
	defaultWriteTimeout  = defaultReadTimeout
	shutdownTimeout      = 30 * time.Second
	gracefulEnvKey       = "IS_GRACEFUL"
	gracefulEnvValue     = gracefulEnvKey + "=1"
	gracefulListenerFile = 3
)

// Server wraps http.Server to support graceful shutdown and restart.
// SIGTERM and SIGINT drain in-flight requests; SIGUSR2 hands the listener to
// a fresh process first.
type Server struct {
	*http.Server

	listener     net.Listener
	isGraceful   bool
	onShutdown   []func()
	signalChan   chan os.Signal
	shutdownChan chan struct{}
}

// NewServer creates a Server with timeouts and handler. Hooks run once after
// the HTTP server stopped accepting requests.
func NewServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration, hooks ...func()) *Server {
	return &Server{
		Server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: readTimeout,
			WriteTimeout:      writeTimeout,
		},
		isGraceful:   os.Getenv(gracefulEnvKey) != "",
		onShutdown:   hooks,
		signalChan:   make(chan os.Signal, 1),
		shutdownChan: make(chan struct{}),
	}
}

// ListenAndServe starts serving on tcp and handles signals.
func (srv *Server) ListenAndServe() error {
	addr := srv.Addr
	if addr == "" {
		addr = ":http"
	}
	ln, err := srv.getNetListener(addr)
	if err != nil {
		return err
	}
	srv.listener = ln
	go srv.handleSignals()
	if err := srv.Server.Serve(ln); err != http.ErrServerClosed {
		return err
	}
	<-srv.shutdownChan
	return nil
}

func (srv *Server) getNetListener(addr string) (net.Listener, error) {
	if srv.isGraceful {
		file := os.NewFile(gracefulListenerFile, "")
		ln, err := net.FileListener(file)
		if err != nil {
			return nil, fmt.Errorf("net.FileListener error: %w", err)
		}
		return ln, nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("net.Listen error: %w", err)
	}
	return ln, nil
}

func (srv *Server) handleSignals() {
	signal.Notify(srv.signalChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGUSR2)

	for sig := range srv.signalChan {
		switch sig {
		case syscall.SIGTERM, syscall.SIGINT:
			Sugar.Infof("received %s, shutting down HTTP server", sig)
			srv.shutdown()
			return
		case syscall.SIGUSR2:
			Sugar.Info("received SIGUSR2, restarting HTTP server")
			pid, err := srv.startNewProcess()
			if err != nil {
				Sugar.Errorf("start new process failed: %v, continue serving", err)
				continue
			}
			Sugar.Infof("new process started pid=%d, closing old HTTP server", pid)
			srv.shutdown()
			return
		}
	}
}

func (srv *Server) shutdown() {
	signal.Stop(srv.signalChan)
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		Sugar.Errorf("HTTP server shutdown error: %v", err)
	} else {
		Sugar.Info("HTTP server shutdown success")
	}
	for _, hook := range srv.onShutdown {
		hook()
	}
	close(srv.shutdownChan)
}

// startNewProcess re-executes the binary with the listener passed as fd 3.
func (srv *Server) startNewProcess() (int, error) {
	tcpLn, ok := srv.listener.(*net.TCPListener)
	if !ok {
		return 0, fmt.Errorf("listener is not *net.TCPListener")
	}
	file, err := tcpLn.File()
	if err != nil {
		return 0, fmt.Errorf("get listener file: %w", err)
	}

	envs := []string{}
	for _, e := range os.Environ() {
		if e != gracefulEnvValue {
			envs = append(envs, e)
		}
	}
	envs = append(envs, gracefulEnvValue)

	attr := &syscall.ProcAttr{
		Env:   envs,
		Files: []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd(), file.Fd()},
	}
	pid, err := syscall.ForkExec(os.Args[0], os.Args, attr)
	if err != nil {
		return 0, fmt.Errorf("forkexec: %w", err)
	}
	return pid, nil
}

// GraceServer starts an HTTP server with graceful capabilities.
func GraceServer(addr string, handler http.Handler, hooks ...func()) error {
	return NewServer(addr, handler, defaultReadTimeout, defaultWriteTimeout, hooks...).ListenAndServe()
}

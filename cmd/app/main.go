package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"

	"terminuscore/internal/server"
)

func main() {
	if err := run(); err != nil {
		logs.Errorf("fatal: %v", err)
		os.Exit(1)
	}
}

func run() error {
	if stop := maybeStartProfiler(); stop != nil {
		defer stop()
	}

	srv, err := server.New()
	if err != nil {
		return err
	}
	defer srv.Close()

	addr := "127.0.0.1:0"
	if p := os.Getenv("PORT"); p != "" {
		addr = fmt.Sprintf("127.0.0.1:%s", p)
	} else if p := os.Getenv("APP_PORT"); p != "" {
		addr = fmt.Sprintf("127.0.0.1:%s", p)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	url := fmt.Sprintf("http://%s", ln.Addr().String())
	logs.Infof("serving on %s", url)

	httpServer := &http.Server{
		Handler: loggingMiddleware(srv),
	}

	go func() {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logs.Errorf("http server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	sig := <-sigCh

	logs.Infof("received signal: %v; shutting down...", sig)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}

type loggingResponseWriter struct {
	http.ResponseWriter
	status int
}

func (lw *loggingResponseWriter) WriteHeader(status int) {
	lw.status = status
	lw.ResponseWriter.WriteHeader(status)
}

func (lw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lw.status == 0 {
		lw.status = http.StatusOK
	}
	return lw.ResponseWriter.Write(b)
}

func (lw *loggingResponseWriter) Flush() {
	if fl, ok := lw.ResponseWriter.(http.Flusher); ok {
		fl.Flush()
	}
}

func (lw *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hj, ok := lw.ResponseWriter.(http.Hijacker); ok {
		return hj.Hijack()
	}
	return nil, nil, fmt.Errorf("hijacker not supported")
}

func (lw *loggingResponseWriter) Push(target string, opts *http.PushOptions) error {
	if pusher, ok := lw.ResponseWriter.(http.Pusher); ok {
		return pusher.Push(target, opts)
	}
	return http.ErrNotSupported
}

// maybeStartProfiler starts continuous profiling against a Pyroscope
// server when PYROSCOPE_SERVER_ADDRESS is set, and returns a func to stop
// it. It returns nil when unset, since the aggregation core's hot paths
// are expected to run in microseconds and most runs don't want a
// profiler attached.
func maybeStartProfiler() func() {
	addr := os.Getenv("PYROSCOPE_SERVER_ADDRESS")
	if addr == "" {
		return nil
	}
	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: "terminuscore",
		ServerAddress:   addr,
		Tags: map[string]string{
			"env": envOr("APP_ENV", "local"),
		},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
		},
	})
	if err != nil {
		logs.Warnf("pyroscope: start failed, continuing unprofiled: %v", err)
		return nil
	}
	logs.Infof("pyroscope: profiling to %s", addr)
	return func() { _ = profiler.Stop() }
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w}
		next.ServeHTTP(lrw, r)
		logs.Infof("%s %s %d %s", r.Method, r.URL.Path, lrw.status, time.Since(start).Round(time.Millisecond))
	})
}

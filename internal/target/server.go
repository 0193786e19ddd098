package target

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phayes/freeport"
	"go.uber.org/zap"
)

const (
	DefaultHost    = "127.0.0.1"
	DefaultPort    = 8080
	DefaultMaxSize = 100000000

	// Body of the root endpoint
	HelloBody = "Hello, world\r\n"
)

//go:embed static
var staticFiles embed.FS

type ServerConfig struct {
	Host string
	Port int // 0 picks a free port

	// Directory served under /static/; the embedded index.html when empty
	StaticDir string

	CacheEntries int
	MaxSize      int
}

// Server is the HTTP service under test.
type Server struct {
	cfg    ServerConfig
	log    *zap.Logger
	cache  *SizeCache
	static fs.FS

	mu   sync.Mutex
	srv  *http.Server
	done chan error
}

func NewServer(cfg ServerConfig, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	if cfg.Port == 0 {
		port, err := freeport.GetFreePort()
		if err != nil {
			return nil, fmt.Errorf("failed to pick a free port: %w", err)
		}
		cfg.Port = port
	}

	cache, err := NewSizeCache(cfg.CacheEntries)
	if err != nil {
		return nil, err
	}
	static, err := staticFS(cfg.StaticDir)
	if err != nil {
		return nil, err
	}

	return &Server{cfg: cfg, log: log, cache: cache, static: static}, nil
}

func (s *Server) Port() int {
	return s.cfg.Port
}

func (s *Server) Host() string {
	return s.cfg.Host
}

func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

func (s *Server) Cache() *SizeCache {
	return s.cache
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// 1. Minimal endpoint
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(HelloBody))
	})

	// 2. Body of the requested length
	r.Get("/sizer", s.handleSizer)

	// 3. Static files
	r.Get("/static/*", s.handleStatic)

	return r
}

func (s *Server) handleSizer(w http.ResponseWriter, r *http.Request) {
	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil || size < 0 {
		http.Error(w, "size must be a non-negative integer", http.StatusBadRequest)
		return
	}
	if size > s.cfg.MaxSize {
		http.Error(w, fmt.Sprintf("size must not exceed %d", s.cfg.MaxSize), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("Content-Length", strconv.Itoa(size))
	w.Write(s.cache.Body(size))
}

// handleStatic serves files directly; http.FileServer would redirect
// index.html to the directory.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if name == "" {
		name = "index.html"
	}
	if !fs.ValidPath(name) {
		http.NotFound(w, r)
		return
	}

	f, err := s.static.Open(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	rs, ok := f.(io.ReadSeeker)
	if !ok {
		b, err := io.ReadAll(f)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		rs = bytes.NewReader(b)
	}
	http.ServeContent(w, r, name, info.ModTime(), rs)
}

func staticFS(dir string) (fs.FS, error) {
	if dir != "" {
		return os.DirFS(dir), nil
	}
	return fs.Sub(staticFiles, "static")
}

// Start listens and serves in the background. It returns once the
// listener is bound.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return errors.New("target server already started")
	}

	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr(), err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	done := make(chan error, 1)
	go func() {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		done <- err
	}()

	s.srv = srv
	s.done = done
	s.log.Info("target server started", zap.String("addr", "http://"+s.Addr()))
	return nil
}

// Ready blocks until the server accepts TCP connections.
func (s *Server) Ready(ctx context.Context) error {
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(50*time.Millisecond), 200),
		ctx,
	)
	return backoff.Retry(func() error {
		conn, err := net.DialTimeout("tcp", s.Addr(), 500*time.Millisecond)
		if err != nil {
			return err
		}
		return conn.Close()
	}, b)
}

// Stop shuts the server down and waits for it to exit. Stopping a server
// that is not running is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv, done := s.srv, s.done
	s.srv, s.done = nil, nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	err := srv.Shutdown(ctx)
	if serveErr := <-done; err == nil {
		err = serveErr
	}
	s.log.Info("target server stopped", zap.String("addr", s.Addr()))
	return err
}

// StartWithCallback starts the server, calls fn once it is ready and
// stops the server on every exit path, including a panic in fn.
func (s *Server) StartWithCallback(ctx context.Context, fn func(context.Context) error) (err error) {
	if err := s.Start(); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if stopErr := s.Stop(stopCtx); stopErr != nil && err == nil {
			err = fmt.Errorf("failed to stop target server: %w", stopErr)
		}
	}()

	if err := s.Ready(ctx); err != nil {
		return fmt.Errorf("target server never became ready: %w", err)
	}
	return fn(ctx)
}

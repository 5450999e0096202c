// Package api exposes the client actions over a loopback HTTP API
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ZentaChain/zentalk-client/pkg/client"
	"github.com/ZentaChain/zentalk-client/pkg/session"
	"github.com/ZentaChain/zentalk-client/pkg/storage"
)

// Dispatcher is the set of client actions the API serves
type Dispatcher interface {
	Identity() *session.Identity
	Peers() []session.Peer
	Register(ctx context.Context, name string) (*session.Identity, error)
	ListPeers(ctx context.Context) ([]session.Peer, error)
	GetPublicKey(ctx context.Context, name string) (*client.PublicKeyResult, error)
	GetUnread(ctx context.Context) ([]client.ReceivedMessage, error)
	SendText(ctx context.Context, name, text string) (*client.SendResult, error)
	SendFile(ctx context.Context, name, path string) (*client.SendResult, error)
	RequestSymmetricKey(ctx context.Context, name string) (*client.SendResult, error)
	SendSymmetricKey(ctx context.Context, name string) ([]byte, *client.SendResult, error)
	LoadSymmetricKey(ctx context.Context, name, hexKey string) error
	History(limit int) ([]*storage.StoredMessage, error)
	PeerHistory(peer string, limit, offset int) ([]*storage.StoredMessage, error)
}

// Server represents the HTTP API server
type Server struct {
	dispatcher Dispatcher
	router     *gin.Engine
	address    string
	httpServer *http.Server
	limiter    *RateLimiter
	log        *zap.Logger

	// mu serializes actions so the dispatcher sees one request at a time
	mu sync.Mutex
}

// Config holds server configuration
type Config struct {
	Address      string
	RateLimit    int // Requests per minute
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Gatherer backs /metrics; the default registry when nil
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Address:      "127.0.0.1:8090",
		RateLimit:    120,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// NewServer creates a new HTTP API server
func NewServer(d Dispatcher, config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	gatherer := config.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		dispatcher: d,
		router:     gin.New(),
		address:    config.Address,
		limiter:    NewRateLimiter(config.RateLimit),
		log:        logger.Named("api"),
	}
	server.httpServer = &http.Server{
		Handler:      server.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	server.setupMiddleware()
	server.setupRoutes(gatherer)

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(LoggingMiddleware(s.log))
	s.router.Use(RateLimitMiddleware(s.limiter))
	s.router.Use(gin.Recovery())
}

func (s *Server) setupRoutes(gatherer prometheus.Gatherer) {
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/register", s.handleRegister)
		v1.GET("/identity", s.handleIdentity)
		v1.GET("/version", s.handleVersion)

		peers := v1.Group("/peers")
		{
			peers.GET("", s.handleListPeers)
			peers.GET("/cached", s.handleCachedPeers)
			peers.GET("/:name/public-key", s.handlePublicKey)
		}

		messages := v1.Group("/messages")
		{
			messages.GET("/unread", s.handleUnread)
			messages.POST("/text", s.handleSendText)
			messages.POST("/file", s.handleSendFile)
			messages.GET("/history", s.handleHistory)
		}

		keys := v1.Group("/keys")
		{
			keys.POST("/request", s.handleRequestKey)
			keys.POST("/send", s.handleSendKey)
			keys.POST("/load", s.handleLoadKey)
		}
	}

	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	s.log.Info("api listening", zap.String("address", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.limiter.Stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("api shutting down")
	return s.Stop()
}

// Stop stops the HTTP server
func (s *Server) Stop() error {
	defer s.limiter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

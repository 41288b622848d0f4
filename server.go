// Package hapticnote composes the note highlighting service: the HTTP API and
// UI, the remote device bridge and the lexicon hot reloader.
package hapticnote

import (
	"context"
	"errors"
	"io"
	"sync"

	"pkt.systems/hapticnote/core"
	"pkt.systems/hapticnote/httpapi"
	"pkt.systems/hapticnote/internal/devicegrpc"
	"pkt.systems/hapticnote/internal/haptic"
	"pkt.systems/hapticnote/internal/lexicon"
	"pkt.systems/pslog"
)

// Server composes the HTTP, device bridge and lexicon watch services.
type Server interface {
	Start(ctx context.Context) error
	Wait() error
	Stop(ctx context.Context) error
}

// ServerConfig configures the compositor.
type ServerConfig struct {
	Service core.ServiceConfig
	HTTP    httpapi.Config
	// Haptic configures the sequencer built when ServiceDeps carries none.
	// Its Observer, if set, receives events alongside the stream hub.
	Haptic  haptic.Config
	Bridge  devicegrpc.Config
	Lexicon lexicon.Source
}

// ServerDeps captures dependencies required to build the server.
type ServerDeps struct {
	ServiceDeps core.ServiceDeps
	// Lexicon is reloaded in place when lexicon watching is enabled.
	Lexicon *lexicon.Gateway
	// Devices is closed on Stop, typically a remote bridge connection.
	Devices io.Closer
}

// ServerOption toggles compositor components.
type ServerOption func(*serverOptions)

type serverOptions struct {
	enableHTTP         bool
	enableBridge       bool
	enableLexiconWatch bool
}

// WithHTTP enables the HTTP API/UI server.
func WithHTTP() ServerOption {
	return func(o *serverOptions) { o.enableHTTP = true }
}

// WithBridge serves the configured discoverer's devices over gRPC.
func WithBridge() ServerOption {
	return func(o *serverOptions) { o.enableBridge = true }
}

// WithLexiconWatch reloads the lexicon gateway when its files change.
func WithLexiconWatch() ServerOption {
	return func(o *serverOptions) { o.enableLexiconWatch = true }
}

// New constructs a composable hapticnote server.
func New(cfg ServerConfig, deps ServerDeps, opts ...ServerOption) (Server, error) {
	options := serverOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if !options.enableHTTP && !options.enableBridge {
		return nil, errors.New("no services enabled")
	}
	if deps.ServiceDeps.Discoverer == nil {
		return nil, errors.New("device discoverer is required")
	}
	if options.enableLexiconWatch && deps.Lexicon == nil {
		return nil, errors.New("lexicon gateway is required for watching")
	}

	var httpSrv *httpapi.Server
	if options.enableHTTP {
		hub := httpapi.NewHub(cfg.HTTP.HubHistory)
		serviceDeps := deps.ServiceDeps
		serviceDeps.EventSink = eventFanout{sinks: []core.EventSink{serviceDeps.EventSink, hub}}
		if serviceDeps.Sequencer == nil {
			seqCfg := cfg.Haptic
			seqCfg.Observer = eventFanout{observers: []haptic.Observer{cfg.Haptic.Observer, hub}}
			serviceDeps.Sequencer = haptic.NewSequencer(seqCfg)
		}
		service, err := core.NewService(cfg.Service, serviceDeps)
		if err != nil {
			return nil, err
		}
		httpSrv = httpapi.NewServer(cfg.HTTP, service, hub)
	}

	var bridge *devicegrpc.Server
	if options.enableBridge {
		bridge = devicegrpc.NewServer(cfg.Bridge, deps.ServiceDeps.Discoverer)
	}

	return &compositeServer{
		cfg:     cfg,
		options: options,
		httpSrv: httpSrv,
		bridge:  bridge,
		lexicon: deps.Lexicon,
		devices: deps.Devices,
	}, nil
}

type compositeServer struct {
	cfg     ServerConfig
	options serverOptions
	httpSrv *httpapi.Server
	bridge  *devicegrpc.Server
	lexicon *lexicon.Gateway
	devices io.Closer
	logger  pslog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	errCh   chan error
	started bool
}

func (s *compositeServer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		pslog.Ctx(ctx).Warn("server start rejected", "reason", "already started")
		return errors.New("server already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.errCh = make(chan error, 3)
	s.started = true
	s.logger = pslog.Ctx(s.ctx)
	s.mu.Unlock()

	log := s.logger
	log.Info(
		"server start",
		"http", s.options.enableHTTP,
		"bridge", s.options.enableBridge,
		"lexicon_watch", s.options.enableLexiconWatch,
		"http_addr", s.cfg.HTTP.Addr,
		"http_base_path", s.cfg.HTTP.BasePath,
		"bridge_addr", s.cfg.Bridge.Addr,
	)
	if s.options.enableHTTP && s.httpSrv != nil {
		go func() {
			if err := httpapi.ListenAndServe(s.ctx, s.cfg.HTTP.Addr, s.httpSrv.Handler()); err != nil {
				log.Error("http server failed", "err", err)
				s.errCh <- err
			}
		}()
	}
	if s.options.enableBridge && s.bridge != nil {
		go func() {
			if err := s.bridge.ListenAndServe(s.ctx); err != nil {
				log.Error("device bridge failed", "err", err)
				s.errCh <- err
			}
		}()
	}
	if s.options.enableLexiconWatch && s.lexicon != nil {
		go func() {
			if err := s.lexicon.Watch(s.ctx, s.cfg.Lexicon, nil); err != nil {
				log.Error("lexicon watch failed", "err", err)
				s.errCh <- err
			}
		}()
	}
	return nil
}

func (s *compositeServer) Wait() error {
	s.mu.Lock()
	ctx := s.ctx
	errCh := s.errCh
	started := s.started
	s.mu.Unlock()
	if !started {
		return errors.New("server not started")
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			pslog.Ctx(ctx).Error("server stopped", "err", err)
			_ = s.Stop(context.Background())
			return err
		}
		return nil
	}
}

func (s *compositeServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	started := s.started
	log := s.logger
	serverCtx := s.ctx
	s.mu.Unlock()
	if !started {
		return nil
	}
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	log.Info("server stop requested")
	if cancel != nil {
		cancel()
	}
	if s.devices != nil {
		if err := s.devices.Close(); err != nil {
			log.Warn("server device close failed", "err", err)
		} else {
			log.Info("server device close ok")
		}
	}
	if ctx == nil {
		log.Info("server stop completed")
		return nil
	}
	select {
	case <-ctx.Done():
		log.Warn("server stop timed out", "err", ctx.Err())
		return ctx.Err()
	case <-serverCtx.Done():
		log.Info("server stopped")
		return nil
	}
}

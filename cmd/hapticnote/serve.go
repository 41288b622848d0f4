package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/hapticnote"
	"pkt.systems/hapticnote/core"
	"pkt.systems/hapticnote/httpapi"
	"pkt.systems/hapticnote/internal/appconfig"
	"pkt.systems/pslog"
)

func newServeCmd() *cobra.Command {
	var cfgPath string
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the hapticnote HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTP.Addr = addr
			}
			gateway, err := loadLexicon(cmd.Context(), cfg.Lexicon)
			if err != nil {
				return err
			}
			discoverer, devices, err := openDevices(cmd.Context(), cfg.Devices)
			if err != nil {
				return err
			}

			serverCfg := hapticnote.ServerConfig{
				Service: core.ServiceConfig{DeviceCount: cfg.Devices.Count},
				HTTP:    toHTTPConfig(cfg.HTTP),
				Haptic:  toHapticConfig(cfg),
				Lexicon: lexiconSource(cfg.Lexicon),
			}
			serverDeps := hapticnote.ServerDeps{
				ServiceDeps: core.ServiceDeps{
					Classifier: newClassifier(gateway, cfg.Lexicon),
					Discoverer: discoverer,
					Logger:     logger,
				},
				Lexicon: gateway,
				Devices: devices,
			}
			opts := []hapticnote.ServerOption{hapticnote.WithHTTP()}
			if cfg.Lexicon.Watch {
				opts = append(opts, hapticnote.WithLexiconWatch())
			}
			server, err := hapticnote.New(serverCfg, serverDeps, opts...)
			if err != nil {
				if devices != nil {
					_ = devices.Close()
				}
				return err
			}
			return runServer(cmd.Context(), server)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&addr, "addr", "", "override http.addr")
	return cmd
}

func runServer(parent context.Context, server hapticnote.Server) error {
	logger := pslog.Ctx(parent)
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Stop(stopCtx); err != nil {
			logger.Warn("server stop failed", "err", err)
		}
	}()
	if err := server.Start(ctx); err != nil {
		return err
	}
	return server.Wait()
}

func toHTTPConfig(cfg appconfig.HTTPConfig) httpapi.Config {
	return httpapi.Config{
		Addr:       cfg.Addr,
		BaseURL:    cfg.BaseURL,
		BasePath:   cfg.BasePath,
		HubHistory: cfg.HubHistory,
	}
}

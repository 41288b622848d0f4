package main

import (
	"github.com/spf13/cobra"

	"pkt.systems/hapticnote"
	"pkt.systems/hapticnote/core"
	"pkt.systems/hapticnote/internal/appconfig"
	"pkt.systems/hapticnote/internal/devicegrpc"
)

func newBridgeCmd() *cobra.Command {
	var cfgPath string
	var addr string
	var count int
	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "Serve a simulated device pool over the gRPC device bridge",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Devices.BridgeAddr = addr
			}
			if count > 0 {
				cfg.Devices.Count = count
			}
			pool := newSimPool(cfg.Devices)
			server, err := hapticnote.New(hapticnote.ServerConfig{
				Bridge: devicegrpc.Config{Addr: cfg.Devices.BridgeAddr},
			}, hapticnote.ServerDeps{
				ServiceDeps: core.ServiceDeps{Discoverer: pool},
			}, hapticnote.WithBridge())
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), server)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&addr, "addr", "", "override devices.bridge_addr")
	cmd.Flags().IntVar(&count, "devices", 0, "number of simulated devices (default devices.count)")
	return cmd
}

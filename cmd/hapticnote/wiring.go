package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"pkt.systems/hapticnote/internal/appconfig"
	"pkt.systems/hapticnote/internal/devicegrpc"
	"pkt.systems/hapticnote/internal/devicesim"
	"pkt.systems/hapticnote/internal/emotion"
	"pkt.systems/hapticnote/internal/haptic"
	"pkt.systems/hapticnote/internal/lexicon"
	"pkt.systems/pslog"
)

func lexiconSource(cfg appconfig.LexiconConfig) lexicon.Source {
	return lexicon.Source{LexiconPath: cfg.Path, ThesaurusPath: cfg.ThesaurusPath}
}

func loadLexicon(ctx context.Context, cfg appconfig.LexiconConfig) (*lexicon.Gateway, error) {
	data, err := lexicon.Load(lexiconSource(cfg))
	if err != nil {
		return nil, err
	}
	gateway := lexicon.New(data)
	words, heads := gateway.Size()
	pslog.Ctx(ctx).Info("lexicon loaded", "words", words, "thesaurus", heads, "path", cfg.Path)
	return gateway, nil
}

func newClassifier(gateway *lexicon.Gateway, cfg appconfig.LexiconConfig) *emotion.Classifier {
	return emotion.New(gateway,
		emotion.WithLookupTimeout(time.Duration(cfg.LookupTimeoutMS)*time.Millisecond),
		emotion.WithParallelism(cfg.Parallelism),
	)
}

func newSimPool(cfg appconfig.DevicesConfig) *devicesim.Pool {
	return devicesim.NewPool(cfg.Count, devicesim.WithLatency(time.Duration(cfg.SimLatencyMS)*time.Millisecond))
}

// openDevices returns the configured discoverer and, for remote backends,
// the connection to close on shutdown.
func openDevices(ctx context.Context, cfg appconfig.DevicesConfig) (haptic.Discoverer, io.Closer, error) {
	log := pslog.Ctx(ctx)
	switch cfg.Backend {
	case appconfig.BackendSim:
		log.Info("devices simulated", "count", cfg.Count, "latency_ms", cfg.SimLatencyMS)
		return newSimPool(cfg), nil, nil
	case appconfig.BackendGRPC:
		client, err := devicegrpc.Dial(ctx, devicegrpc.Config{Addr: cfg.BridgeAddr})
		if err != nil {
			return nil, nil, err
		}
		log.Info("devices remote", "addr", cfg.BridgeAddr, "count", cfg.Count)
		return client, client, nil
	default:
		return nil, nil, fmt.Errorf("unsupported devices.backend %q", cfg.Backend)
	}
}

func toHapticConfig(cfg appconfig.Config) haptic.Config {
	return haptic.Config{
		Dwell:          time.Duration(cfg.Haptics.DwellMS) * time.Millisecond,
		CommandTimeout: time.Duration(cfg.Devices.CommandTimeoutMS) * time.Millisecond,
	}
}

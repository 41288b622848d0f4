package lexicon

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"pkt.systems/pslog"
)

const defaultDebounce = 200 * time.Millisecond

// Watch reloads g from src whenever one of its files changes, until ctx
// ends. Parent directories are watched so editors that replace files by
// rename are picked up. A failed reload keeps the previous generation.
// The ready channel, when non-nil, is closed once the watches are in place.
func (g *Gateway) Watch(ctx context.Context, src Source, ready chan<- struct{}) error {
	targets := make(map[string]struct{})
	for _, p := range []string{src.LexiconPath, src.ThesaurusPath} {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		targets[abs] = struct{}{}
	}
	if len(targets) == 0 {
		return errors.New("lexicon watch: no files configured")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	dirs := make(map[string]struct{})
	for target := range targets {
		dir := filepath.Dir(target)
		if _, ok := dirs[dir]; ok {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return err
		}
		dirs[dir] = struct{}{}
	}
	if ready != nil {
		close(ready)
	}

	log := pslog.Ctx(ctx)
	log.Info("lexicon watch started", "files", len(targets))
	var (
		debounce *time.Timer
		fire     <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if _, watched := targets[filepath.Clean(event.Name)]; !watched {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(defaultDebounce)
			} else {
				debounce.Reset(defaultDebounce)
			}
			fire = debounce.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("lexicon watch error", "err", err)
		case <-fire:
			fire = nil
			data, err := Load(src)
			if err != nil {
				log.Warn("lexicon reload failed", "err", err)
				continue
			}
			g.Swap(data)
			words, heads := g.Size()
			log.Info("lexicon reloaded", "words", words, "thesaurus", heads)
		}
	}
}

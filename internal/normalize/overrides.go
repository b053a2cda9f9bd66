package normalize

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// overridesFile is the YAML layout for operator-tuned gram constants.
type overridesFile struct {
	Units map[string]float64 `yaml:"units"`
	Foods map[string]float64 `yaml:"foods"`
}

// Overrides holds optional replacements for the built-in unit and food gram
// tables, reloaded when the backing file changes.
type Overrides struct {
	path string

	mu    sync.RWMutex
	units map[string]float64
	foods map[string]float64
}

// LoadOverrides reads the override table at path. A missing file yields an
// empty, still-usable table.
func LoadOverrides(path string) (*Overrides, error) {
	o := &Overrides{path: path}
	if path == "" {
		return o, nil
	}
	if err := o.reload(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return o, nil
}

func (o *Overrides) reload() error {
	data, err := os.ReadFile(o.path)
	if err != nil {
		return err
	}
	var f overridesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}
	o.mu.Lock()
	o.units = f.Units
	o.foods = f.Foods
	o.mu.Unlock()
	log.Info().Str("path", o.path).Int("units", len(f.Units)).Int("foods", len(f.Foods)).
		Msg("normalizer overrides loaded")
	return nil
}

// Units returns the override unit table (may be empty).
func (o *Overrides) Units() map[string]float64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.units
}

// Food returns the override grams for a food name.
func (o *Overrides) Food(name string) (float64, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	g, ok := o.foods[name]
	return g, ok
}

// Watch reloads the override file whenever it is written. It watches the
// parent directory since editors replace files rather than writing in place.
// Blocks until ctx is done.
func (o *Overrides) Watch(ctx context.Context) error {
	if o.path == "" {
		<-ctx.Done()
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(o.path)); err != nil {
		return err
	}

	target := filepath.Clean(o.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := o.reload(); err != nil {
				log.Warn().Err(err).Str("path", o.path).Msg("override reload failed")
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("override watcher error")
		}
	}
}

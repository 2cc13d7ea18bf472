package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/galaxy/internal/shared/types"
	"github.com/GriffinCanCode/galaxy/internal/shared/utils"
)

// DefaultSeedPattern matches YAML and TOML manifests at any depth
const DefaultSeedPattern = "**/*.{yaml,yml,toml}"

// Manifest is a seed file listing layers to register
type Manifest struct {
	Layers []ManifestLayer `yaml:"layers" toml:"layers"`
}

// ManifestLayer is one seed entry
type ManifestLayer struct {
	Name string `yaml:"name" toml:"name"`
	Link string `yaml:"link" toml:"link"`
}

// SeedResult summarizes a seeding run
type SeedResult struct {
	Files   int `json:"files"`
	Loaded  int `json:"loaded"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Seeder registers layers from manifest files at startup.
// Every entry is created with owner as the caller, so seeding goes through
// the same uniqueness check as any other create_layer call.
type Seeder struct {
	manager *Manager
	dir     string
	pattern string
	owner   types.UserID
	logger  *zap.Logger
}

// NewSeeder creates a new layer seeder
func NewSeeder(manager *Manager, dir string, owner types.UserID) *Seeder {
	return &Seeder{
		manager: manager,
		dir:     dir,
		pattern: DefaultSeedPattern,
		owner:   owner,
		logger:  zap.NewNop(),
	}
}

// WithPattern overrides the manifest glob (doublestar syntax, relative to dir)
func (s *Seeder) WithPattern(pattern string) *Seeder {
	if pattern != "" {
		s.pattern = pattern
	}
	return s
}

// WithLogger sets the seeder's logger
func (s *Seeder) WithLogger(logger *zap.Logger) *Seeder {
	if logger != nil {
		s.logger = logger.Named("seeder")
	}
	return s
}

// Seed loads every matching manifest in lexical path order.
// Names the owner already has are skipped, so re-seeding is harmless.
func (s *Seeder) Seed(ctx context.Context) (SeedResult, error) {
	var result SeedResult

	if _, err := os.Stat(s.dir); errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("Seed directory not found", zap.String("dir", s.dir))
		return result, nil
	}

	files, err := s.discover()
	if err != nil {
		return result, err
	}
	result.Files = len(files)

	for _, path := range files {
		manifest, err := LoadManifest(path)
		if err != nil {
			s.logger.Warn("Failed to load manifest", zap.String("path", path), zap.Error(err))
			result.Failed++
			continue
		}

		for _, entry := range manifest.Layers {
			if err := utils.ValidateLayerName(entry.Name); err != nil {
				s.logger.Warn("Invalid seed entry", zap.String("path", path), zap.Error(err))
				result.Failed++
				continue
			}

			err := s.manager.CreateLayer(ctx, s.owner, entry.Name, entry.Link)
			switch {
			case err == nil:
				result.Loaded++
			case errors.Is(err, ErrLayerAlreadyExists):
				result.Skipped++
			default:
				return result, fmt.Errorf("failed to seed %q from %s: %w", entry.Name, path, err)
			}
		}
	}

	s.logger.Info("Seeding complete",
		zap.Int("files", result.Files),
		zap.Int("loaded", result.Loaded),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// discover walks dir and returns manifests matching the pattern, sorted
func (s *Seeder) discover() ([]string, error) {
	if !doublestar.ValidatePattern(s.pattern) {
		return nil, fmt.Errorf("invalid seed pattern %q", s.pattern)
	}

	var (
		mu    sync.Mutex
		files []string
	)

	// fastwalk invokes the callback from several goroutines
	err := fastwalk.Walk(&fastwalk.Config{Follow: false}, s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		ok, err := doublestar.Match(s.pattern, filepath.ToSlash(rel))
		if err != nil || !ok {
			return err
		}

		mu.Lock()
		files = append(files, path)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk seed directory %s: %w", s.dir, err)
	}

	sort.Strings(files)
	return files, nil
}

// LoadManifest parses a YAML or TOML manifest based on its extension
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &manifest)
	case ".toml":
		err = toml.Unmarshal(data, &manifest)
	default:
		return nil, fmt.Errorf("unsupported manifest format: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", filepath.Base(path), err)
	}

	return &manifest, nil
}

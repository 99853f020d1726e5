// Package config loads the layered TOML settings that feed the revset front
// end: revset aliases, the color mode, the user's email and a pinned commit
// timestamp.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/odvcencio/revplan/pkg/logging"
	"github.com/odvcencio/revplan/pkg/render"
	"github.com/odvcencio/revplan/pkg/revset"
)

//go:embed default.toml
var defaultConfig string

// DefaultUserEmail is substituted for mine() when no user.email is set.
const DefaultUserEmail = "<user-email>"

// layer is the subset of a config file revplan reads. Unknown keys are
// ignored so jj's own config files can be loaded unchanged.
type layer struct {
	RevsetAliases map[string]string `toml:"revset-aliases"`
	UI            struct {
		Color string `toml:"color"`
	} `toml:"ui"`
	User struct {
		Email string `toml:"email"`
	} `toml:"user"`
	Debug struct {
		CommitTimestamp string `toml:"commit-timestamp"`
	} `toml:"debug"`
}

// Config is the merged result of every loaded layer.
type Config struct {
	// Aliases maps alias declarations to their bodies.
	Aliases   map[string]string
	Color     string
	UserEmail string
	// CommitTimestamp is zero unless debug.commit-timestamp is set.
	CommitTimestamp time.Time
	// Sources lists the files that were merged, in order. The built-in
	// defaults appear as "<builtin>".
	Sources []string
}

// Options selects which layers Load reads.
type Options struct {
	// WorkspaceDir is the workspace whose repository config is read. Empty
	// skips the repository layers.
	WorkspaceDir string
	// NoUserConfig skips the user and repository layers.
	NoUserConfig bool
	Logger       log.Logger
}

// Load merges the built-in defaults, the user config and the repository
// config, later layers overriding earlier ones key by key.
func Load(opts Options) (*Config, error) {
	logger := logging.OrNop(opts.Logger)
	cfg := &Config{Aliases: make(map[string]string)}

	var builtin layer
	if _, err := toml.Decode(defaultConfig, &builtin); err != nil {
		return nil, fmt.Errorf("load config: builtin: %w", err)
	}
	if err := cfg.merge(builtin); err != nil {
		return nil, fmt.Errorf("load config: builtin: %w", err)
	}
	cfg.Sources = append(cfg.Sources, "<builtin>")

	if opts.NoUserConfig {
		return cfg, nil
	}

	paths := make([]string, 0, 3)
	userPath, err := UserConfigPath()
	if err != nil {
		level.Warn(logger).Log("msg", "no user config location", "err", err)
	} else {
		paths = append(paths, userPath)
	}
	if opts.WorkspaceDir != "" {
		paths = append(paths, RepoConfigPaths(opts.WorkspaceDir)...)
	}
	for _, path := range paths {
		l, ok, err := readLayer(path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		if !ok {
			level.Debug(logger).Log("msg", "config layer not found", "path", path)
			continue
		}
		if err := cfg.merge(l); err != nil {
			return nil, fmt.Errorf("load config: %s: %w", path, err)
		}
		cfg.Sources = append(cfg.Sources, path)
		level.Debug(logger).Log("msg", "loaded config layer", "path", path, "aliases", len(l.RevsetAliases))
	}
	return cfg, nil
}

// readLayer decodes the file at path. A missing file is not an error.
func readLayer(path string) (layer, bool, error) {
	var l layer
	if _, err := toml.DecodeFile(path, &l); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return layer{}, false, nil
		}
		return layer{}, false, fmt.Errorf("read %s: %w", path, err)
	}
	return l, true, nil
}

func (c *Config) merge(l layer) error {
	for decl, body := range l.RevsetAliases {
		c.Aliases[decl] = body
	}
	if l.UI.Color != "" {
		if _, err := render.ParseColorMode(l.UI.Color); err != nil {
			return fmt.Errorf("ui.color: %w", err)
		}
		c.Color = l.UI.Color
	}
	if l.User.Email != "" {
		c.UserEmail = l.User.Email
	}
	if l.Debug.CommitTimestamp != "" {
		ts, err := time.Parse(time.RFC3339, l.Debug.CommitTimestamp)
		if err != nil {
			return fmt.Errorf("debug.commit-timestamp: %w", err)
		}
		c.CommitTimestamp = ts
	}
	return nil
}

// ColorMode returns the configured ui.color, defaulting to auto.
func (c *Config) ColorMode() render.ColorMode {
	mode, err := render.ParseColorMode(c.Color)
	if err != nil {
		return render.ColorAuto
	}
	return mode
}

// Email returns user.email or DefaultUserEmail.
func (c *Config) Email() string {
	if c.UserEmail == "" {
		return DefaultUserEmail
	}
	return c.UserEmail
}

// AliasMap builds the alias map from the merged aliases. Declarations that
// don't parse are logged and skipped.
func (c *Config) AliasMap(logger log.Logger) *revset.AliasMap {
	logger = logging.OrNop(logger)
	decls := make([]string, 0, len(c.Aliases))
	for decl := range c.Aliases {
		decls = append(decls, decl)
	}
	sort.Strings(decls)

	m := revset.NewAliasMap()
	for _, decl := range decls {
		if err := m.Insert(decl, c.Aliases[decl]); err != nil {
			level.Warn(logger).Log("msg", "skipping revset alias", "alias", decl, "err", err)
		}
	}
	return m
}

// UserConfigPath returns $REVPLAN_CONFIG, or revplan/config.toml under
// $XDG_CONFIG_HOME (falling back to ~/.config).
func UserConfigPath() (string, error) {
	if p := os.Getenv("REVPLAN_CONFIG"); p != "" {
		return p, nil
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("user config: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "revplan", "config.toml"), nil
}

// RepoConfigPaths returns the repository layers of workspace, lowest
// precedence first.
func RepoConfigPaths(workspace string) []string {
	return []string{
		filepath.Join(workspace, ".jj", "repo", "config.toml"),
		filepath.Join(workspace, ".revplan.toml"),
	}
}

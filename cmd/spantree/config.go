package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	core "spantree/internal/spantree"
	"spantree/internal/trace"
)

const defaultConfigName = "spantree.toml"

// fileConfig mirrors spantree.toml:
//
//	[profile]
//	aggregate = true
//	color = "auto"
//	level = "debug"
//	max_name_width = 40
//
//	[log]
//	level = "spantree=DEBUG"
type fileConfig struct {
	Profile profileSection `toml:"profile"`
	Log     logSection     `toml:"log"`
}

type profileSection struct {
	Aggregate    bool   `toml:"aggregate"`
	Color        string `toml:"color"`
	Level        string `toml:"level"`
	MaxNameWidth int64  `toml:"max_name_width"`
}

type logSection struct {
	Level string `toml:"level"`
}

// settings is the resolved configuration after merging file and flags.
type settings struct {
	Aggregate    bool
	Color        core.ColorMode
	Level        trace.Level
	MaxNameWidth int
	LogSpec      string
}

// loadFileConfig reads path. A missing default config is not an error;
// a missing explicitly named one is.
func loadFileConfig(path string, explicit bool) (fileConfig, error) {
	var cfg fileConfig
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to stat %q: %w", path, err)
	}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return fileConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fileConfig{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// resolveSettings layers explicitly set flags over the config file.
func resolveSettings(cmd *cobra.Command) (settings, error) {
	flags := cmd.Root().PersistentFlags()

	path, err := flags.GetString("config")
	if err != nil {
		return settings{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	explicit := flags.Changed("config")
	if path == "" {
		path = defaultConfigName
	}
	file, err := loadFileConfig(path, explicit)
	if err != nil {
		return settings{}, err
	}

	colorStr := file.Profile.Color
	if flags.Changed("color") || colorStr == "" {
		if colorStr, err = flags.GetString("color"); err != nil {
			return settings{}, fmt.Errorf("failed to get color flag: %w", err)
		}
	}
	levelStr := file.Profile.Level
	if flags.Changed("level") || levelStr == "" {
		if levelStr, err = flags.GetString("level"); err != nil {
			return settings{}, fmt.Errorf("failed to get level flag: %w", err)
		}
	}
	aggregate := file.Profile.Aggregate
	if flags.Changed("aggregate") {
		if aggregate, err = flags.GetBool("aggregate"); err != nil {
			return settings{}, fmt.Errorf("failed to get aggregate flag: %w", err)
		}
	}
	width := file.Profile.MaxNameWidth
	if flags.Changed("max-name-width") {
		if width, err = flags.GetInt64("max-name-width"); err != nil {
			return settings{}, fmt.Errorf("failed to get max-name-width flag: %w", err)
		}
	}
	logSpec := file.Log.Level
	if flags.Changed("log-level") || logSpec == "" {
		if logSpec, err = flags.GetString("log-level"); err != nil {
			return settings{}, fmt.Errorf("failed to get log-level flag: %w", err)
		}
	}

	mode, err := core.ParseColorMode(colorStr)
	if err != nil {
		return settings{}, err
	}
	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return settings{}, err
	}
	if level == trace.LevelOff {
		return settings{}, fmt.Errorf("level %q would hide every span", levelStr)
	}
	maxWidth, err := safecast.Conv[int](width)
	if err != nil || maxWidth < 0 {
		return settings{}, fmt.Errorf("invalid max name width %d", width)
	}

	return settings{
		Aggregate:    aggregate,
		Color:        mode,
		Level:        level,
		MaxNameWidth: maxWidth,
		LogSpec:      logSpec,
	}, nil
}

// treeConfig builds the profile configuration for output going to sink.
func (s settings) treeConfig(sink core.Sink) core.Config {
	return core.Config{
		Aggregate:    s.Aggregate,
		Sink:         sink,
		Color:        s.Color,
		MaxLevel:     s.Level,
		MaxNameWidth: s.MaxNameWidth,
	}
}

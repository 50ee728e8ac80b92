// Package options holds the :set-able configuration the engine reads,
// modeled on the teacher's internal/config package: a flat struct with
// mapstructure tags, a Defaults() constructor, and a viper-backed Load
// for layered config-file + env-var resolution.
package options

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/govim/vimcore/internal/log"
)

// Options mirrors the engine's Configuration Options table. Most fields
// are hints surfaced to the host via events; shiftwidth/expandtab/
// autoindent/ignorecase/smartcase/hlsearch/incsearch/wrapscan/history
// are read by the dispatcher and motion/search/excmd packages.
type Options struct {
	Number         bool `mapstructure:"number"`
	RelativeNumber bool `mapstructure:"relativenumber"`
	CursorLine     bool `mapstructure:"cursorline"`
	Wrap           bool `mapstructure:"wrap"`
	ShowMode       bool `mapstructure:"showmode"`
	ShowCmd        bool `mapstructure:"showcmd"`
	Ruler          bool `mapstructure:"ruler"`

	TabStop    int  `mapstructure:"tabstop"`
	ShiftWidth int  `mapstructure:"shiftwidth"`
	ExpandTab  bool `mapstructure:"expandtab"`
	AutoIndent bool `mapstructure:"autoindent"`

	IgnoreCase bool `mapstructure:"ignorecase"`
	SmartCase  bool `mapstructure:"smartcase"`
	HLSearch   bool `mapstructure:"hlsearch"`
	IncSearch  bool `mapstructure:"incsearch"`
	WrapScan   bool `mapstructure:"wrapscan"`

	History int `mapstructure:"history"`

	ColorScheme string `mapstructure:"colorscheme"`
	Syntax      bool   `mapstructure:"syntax"`
}

// Defaults returns the option values from the engine's Configuration
// Options table.
func Defaults() Options {
	return Options{
		Number:         false,
		RelativeNumber: false,
		CursorLine:     false,
		Wrap:           true,
		ShowMode:       true,
		ShowCmd:        true,
		Ruler:          true,

		TabStop:    4,
		ShiftWidth: 4,
		ExpandTab:  true,
		AutoIndent: true,

		IgnoreCase: true,
		SmartCase:  true,
		HLSearch:   true,
		IncSearch:  true,
		WrapScan:   true,

		History: 1000,

		ColorScheme: "default",
		Syntax:      true,
	}
}

// Load reads a YAML option file at path layered over Defaults(). A
// missing file is not an error; it just yields the defaults.
func Load(path string) (Options, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	opts := Defaults()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
			return opts, nil
		}
		return opts, fmt.Errorf("reading options file: %w", err)
	}
	if err := v.Unmarshal(&opts); err != nil {
		return opts, fmt.Errorf("parsing options file: %w", err)
	}
	log.Info(log.CatConfig, "config loaded", "path", path)
	return opts, nil
}

// DefaultConfigTemplate is the commented YAML written by WriteDefaultConfig
// when the host finds no config file at startup.
func DefaultConfigTemplate() string {
	return `# vimcore configuration

# Line numbers
number: false
relativenumber: false
cursorline: false
wrap: true

# Status line
showmode: true
showcmd: true
ruler: true

# Indentation
tabstop: 4
shiftwidth: 4
expandtab: true
autoindent: true

# Search
ignorecase: true
smartcase: true
hlsearch: true
incsearch: true
wrapscan: true

# Command-line history depth
history: 1000

# colorscheme: default
syntax: true
`
}

// WriteDefaultConfig creates the parent directory (if needed) and writes
// DefaultConfigTemplate to path.
func WriteDefaultConfig(path string) error {
	log.Debug(log.CatConfig, "writing default config", "path", path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "failed to write config file", err, "path", path)
		return fmt.Errorf("writing config file: %w", err)
	}
	log.Info(log.CatConfig, "created default config", "path", path)
	return nil
}

// boolOptions maps a :set option name to a setter/getter pair.
type boolField struct {
	get func(*Options) bool
	set func(*Options, bool)
}

var boolOptions = map[string]boolField{
	"number":         {func(o *Options) bool { return o.Number }, func(o *Options, v bool) { o.Number = v }},
	"relativenumber": {func(o *Options) bool { return o.RelativeNumber }, func(o *Options, v bool) { o.RelativeNumber = v }},
	"cursorline":     {func(o *Options) bool { return o.CursorLine }, func(o *Options, v bool) { o.CursorLine = v }},
	"wrap":           {func(o *Options) bool { return o.Wrap }, func(o *Options, v bool) { o.Wrap = v }},
	"showmode":       {func(o *Options) bool { return o.ShowMode }, func(o *Options, v bool) { o.ShowMode = v }},
	"showcmd":        {func(o *Options) bool { return o.ShowCmd }, func(o *Options, v bool) { o.ShowCmd = v }},
	"ruler":          {func(o *Options) bool { return o.Ruler }, func(o *Options, v bool) { o.Ruler = v }},
	"expandtab":      {func(o *Options) bool { return o.ExpandTab }, func(o *Options, v bool) { o.ExpandTab = v }},
	"autoindent":     {func(o *Options) bool { return o.AutoIndent }, func(o *Options, v bool) { o.AutoIndent = v }},
	"ignorecase":     {func(o *Options) bool { return o.IgnoreCase }, func(o *Options, v bool) { o.IgnoreCase = v }},
	"smartcase":      {func(o *Options) bool { return o.SmartCase }, func(o *Options, v bool) { o.SmartCase = v }},
	"hlsearch":       {func(o *Options) bool { return o.HLSearch }, func(o *Options, v bool) { o.HLSearch = v }},
	"incsearch":      {func(o *Options) bool { return o.IncSearch }, func(o *Options, v bool) { o.IncSearch = v }},
	"wrapscan":       {func(o *Options) bool { return o.WrapScan }, func(o *Options, v bool) { o.WrapScan = v }},
	"syntax":         {func(o *Options) bool { return o.Syntax }, func(o *Options, v bool) { o.Syntax = v }},
}

var intOptions = map[string]func(*Options) *int{
	"tabstop":    func(o *Options) *int { return &o.TabStop },
	"shiftwidth": func(o *Options) *int { return &o.ShiftWidth },
	"history":    func(o *Options) *int { return &o.History },
}

// Set applies a single :set argument (e.g. "number", "nonumber", "ignorecase!",
// "shiftwidth=2", "colorscheme=dracula"). Unknown option names are
// silently ignored, matching real Vim's :set behavior, and return nil.
// Known options with invalid values return an error.
func Set(o *Options, arg string) error {
	if arg == "" {
		return nil
	}

	if name, val, ok := strings.Cut(arg, "="); ok {
		if name == "colorscheme" {
			o.ColorScheme = val
			return nil
		}
		if field, known := intOptions[name]; known {
			n, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid number for %q: %q", name, val)
			}
			*field(o) = n
			return nil
		}
		// Unknown option name: ignored.
		return nil
	}

	name := arg
	want := true
	switch {
	case strings.HasPrefix(name, "no"):
		name = strings.TrimPrefix(name, "no")
		want = false
	case strings.HasSuffix(name, "!"):
		name = strings.TrimSuffix(name, "!")
		if field, known := boolOptions[name]; known {
			field.set(o, !field.get(o))
			return nil
		}
		return nil
	case strings.HasSuffix(name, "&"):
		name = strings.TrimSuffix(name, "&")
		if _, known := boolOptions[name]; known {
			defaults := Defaults()
			boolOptions[name].set(o, boolOptions[name].get(&defaults))
			return nil
		}
		if field, known := intOptions[name]; known {
			defaults := Defaults()
			*field(o) = *intOptions[name](&defaults)
			return nil
		}
		return nil
	}

	if field, known := boolOptions[name]; known {
		field.set(o, want)
		return nil
	}
	return nil
}

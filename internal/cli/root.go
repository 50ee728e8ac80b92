// Package cli wires the vimcore cobra command: flag parsing, config
// loading (layered the way the teacher's cmd/root.go layers viper over
// config.Defaults()), debug logging, and the Bubble Tea program launch.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	viperlib "github.com/spf13/viper"

	"github.com/govim/vimcore/internal/host"
	"github.com/govim/vimcore/internal/log"
	"github.com/govim/vimcore/internal/options"
)

func init() {
	// Query the terminal background color before Bubble Tea starts
	// reading input, so the OSC 11 response can't race the input loop
	// and show up as garbage text (same ordering constraint the teacher
	// works around in cmd/root.go's init()).
	_ = lipgloss.HasDarkBackground()
}

var (
	version   = "dev"
	cfgFile   string
	opts      options.Options
	debugFlag bool

	viper = viperlib.New()
)

var rootCmd = &cobra.Command{
	Use:     "vimcore [file]",
	Short:   "A headless Vim-emulation engine with a terminal demo host",
	Long:    "vimcore drives a Vim-emulation engine (internal/vimengine) through a minimal Bubble Tea terminal host for manual exercise of its modes and motions.",
	Version: version,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/vimcore/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"enable debug mode with logging (also: VIMCORE_DEBUG=1)")
}

func initConfig() {
	defaults := options.Defaults()
	viper.SetDefault("number", defaults.Number)
	viper.SetDefault("wrap", defaults.Wrap)
	viper.SetDefault("tabstop", defaults.TabStop)
	viper.SetDefault("shiftwidth", defaults.ShiftWidth)
	viper.SetDefault("expandtab", defaults.ExpandTab)
	viper.SetDefault("ignorecase", defaults.IgnoreCase)
	viper.SetDefault("smartcase", defaults.SmartCase)
	viper.SetDefault("history", defaults.History)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, _ := os.UserHomeDir()
		viper.AddConfigPath(filepath.Join(home, ".config", "vimcore"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	opts = defaults
	if err := viper.ReadInConfig(); err != nil {
		var notFound viperlib.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			path := cfgFile
			if path == "" {
				home, _ := os.UserHomeDir()
				path = filepath.Join(home, ".config", "vimcore", "config.yaml")
			}
			if writeErr := options.WriteDefaultConfig(path); writeErr == nil {
				viper.SetConfigFile(path)
				_ = viper.ReadInConfig()
			}
		}
	}
	_ = viper.Unmarshal(&opts)
}

func runApp(cmd *cobra.Command, args []string) error {
	debug := os.Getenv("VIMCORE_DEBUG") != "" || debugFlag
	if debug {
		logPath := os.Getenv("VIMCORE_LOG")
		if logPath == "" {
			logPath = "vimcore-debug.log"
		}
		cleanup, err := log.Init(logPath)
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		defer cleanup()
		log.Info(log.CatHost, "vimcore starting", "version", version, "debug", true)
	}

	path := ""
	if len(args) == 1 {
		path = args[0]
	}

	m, err := host.New(path, opts)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	if debug {
		if err != nil {
			log.Error(log.CatHost, "vimcore shutting down with error", "error", err)
		} else {
			log.Info(log.CatHost, "vimcore shutting down")
		}
	}
	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// Execute runs the root command.
func Execute() error { return rootCmd.Execute() }

// SetVersion sets the version string reported by --version.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

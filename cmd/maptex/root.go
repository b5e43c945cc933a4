package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gogpu/maptex"
	"github.com/gogpu/maptex/pyramid"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "maptex",
	Short: "Inspect and render large raster maps through the maptex engine",
	Long: `maptex loads raster maps (PNG, JPEG, BMP, TIFF, WebP, PGM, optionally
zstd-compressed, or a map metadata YAML file), builds the resolution
pyramid and drives the texture engine without a GPU.

Examples:
  # Show size and pyramid levels of a map
  maptex inspect office.yaml

  # Render a 1200x800 viewport of the map shown 4000 pixels wide
  maptex render office.yaml --size 4000 --viewport 1200x800 -o view.png

  # Zoom in and out and report texture cache behavior
  maptex zoom office.pgm --from 200 --to 9000 --steps 40`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(viper.GetString("log-level"))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.maptex.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().IntSlice("ladder", pyramid.DefaultLadder, "pyramid long-edge thresholds")
	rootCmd.PersistentFlags().Int("crop-threshold", maptex.DefaultCropThreshold, "crop only above this long edge (0 disables)")
	rootCmd.PersistentFlags().String("resampler", "approx-bilinear", "pyramid resampler (nearest|approx-bilinear|bilinear|catmull-rom)")
	rootCmd.PersistentFlags().Int("workers", 1, "pixel pipeline goroutines")

	for _, name := range []string{"log-level", "ladder", "crop-threshold", "resampler", "workers"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".maptex" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".maptex")
	}

	viper.SetEnvPrefix("maptex")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setupLogging installs a text logger on stderr as the maptex logger.
func setupLogging(level string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	maptex.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
	return nil
}

// engineOptions converts the bound configuration into engine options.
func engineOptions() ([]maptex.Option, error) {
	interp, err := pyramid.Resampler(viper.GetString("resampler"))
	if err != nil {
		return nil, err
	}
	return []maptex.Option{
		maptex.WithLadder(viper.GetIntSlice("ladder")...),
		maptex.WithCropThreshold(viper.GetInt("crop-threshold")),
		maptex.WithResampler(interp),
		maptex.WithWorkers(viper.GetInt("workers")),
	}, nil
}

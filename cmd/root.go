package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"tastymetrics/internal/catalog"
	"tastymetrics/internal/config"
	"tastymetrics/internal/report"
	"tastymetrics/internal/snowflake"
	"tastymetrics/pkg/errors"
	"tastymetrics/pkg/models"
)

var (
	flagProfile string
	flagVerbose bool

	rootCmd = &cobra.Command{
		Use:   "tastymetrics",
		Short: "Reporting queries for the food truck sales dataset",
		Long: "tastymetrics runs a catalog of named aggregate queries against the\n" +
			"food truck sales views in Snowflake: daily trends, country and city\n" +
			"performance, menu item performance, customer loyalty and truck brand\n" +
			"review sentiment.",
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initViper)
	rootCmd.PersistentFlags().StringVar(&flagProfile, "profile", "", "connection profile to use (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

func initViper() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath(config.GetConfigPath())
	viper.SetEnvPrefix("TASTYMETRICS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Missing config is fine; commands that need one say so.
		_ = err
	}
}

func newLogger() *zap.Logger {
	if flagVerbose {
		log, err := zap.NewDevelopment()
		if err == nil {
			return log
		}
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// newRunner loads the config, connects the selected profile and assembles
// the report runner with the built-in catalog plus any synced query packs.
// The returned cleanup closes the connection.
func newRunner() (*report.Runner, *models.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	profile, ok := cfg.GetProfile(flagProfile)
	if !ok {
		return nil, nil, nil, errors.New(errors.ErrCodeProfileNotFound,
			"no connection profile configured").
			WithSuggestions("Run 'tastymetrics setup' to create one")
	}

	password, err := config.ResolvePassword(profile)
	if err != nil {
		return nil, nil, nil, err
	}

	sfConfig := snowflake.ConfigFromProfile(profile, password)
	if err := snowflake.ValidateConfig(sfConfig); err != nil {
		return nil, nil, nil, errors.ConfigError(err.Error(), "profile "+profile.Name)
	}

	svc := snowflake.NewService(sfConfig)
	if err := svc.Connect(); err != nil {
		return nil, nil, nil, err
	}

	log := newLogger()
	registry := catalog.NewRegistry()
	for _, pack := range cfg.Packs {
		defs, err := catalog.LoadPack(pack.Path)
		if err != nil {
			log.Warn("skipping query pack", zap.String("pack", pack.Name), zap.Error(err))
			continue
		}
		for _, d := range defs {
			if err := registry.Add(d); err != nil {
				log.Warn("skipping pack query", zap.String("pack", pack.Name), zap.Error(err))
			}
		}
	}

	runner := report.NewRunner(svc.DB(), registry, log)
	cleanup := func() {
		_ = svc.Close()
		_ = log.Sync()
	}
	return runner, cfg, cleanup, nil
}

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/quillmind/engram"
)

var (
	cfgFile string
	debug   bool
	logger  *zap.Logger
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "engram",
		Short: "Inspect and simulate the engram review scheduler",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger = engram.NewLogger(debug, os.Stderr)
			return initConfig()
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.engram.yaml)")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(newPreviewCmd())
	root.AddCommand(newSimulateCmd())
	root.AddCommand(newRiskCmd())
	return root
}

func initConfig() error {
	viper.SetDefault("target_retention", engram.DefaultTargetRetention)
	viper.SetDefault("retention.min", 0.85)
	viper.SetDefault("retention.max", 0.95)
	viper.SetDefault("retention.step", 0.01)
	viper.SetDefault("relapse_policy", "always")
	viper.SetDefault("short_term.disabled", false)
	viper.SetDefault("short_term.graduation_cap_days", 1.0)

	viper.SetEnvPrefix("ENGRAM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".engram")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		// Missing default config is fine; an explicit --config must exist.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && (errors.As(err, &notFound) || os.IsNotExist(err)) {
			return nil
		}
		return err
	}
	logger.Debug("loaded config", zap.String("file", viper.ConfigFileUsed()))
	return nil
}

func engineFromConfig() (*engram.Engine, error) {
	policy := engram.RelapseAlways
	switch viper.GetString("relapse_policy") {
	case "within_window":
		policy = engram.RelapseWithinWindow
	case "never":
		policy = engram.RelapseNever
	}

	return engram.NewEngine(engram.EngineConfig{
		ShortTerm: engram.ShortTermConfig{
			Disabled:          viper.GetBool("short_term.disabled"),
			GraduationCapDays: viper.GetFloat64("short_term.graduation_cap_days"),
		},
		RelapsePolicy: policy,
		Logger:        logger,
	})
}

func policyFromConfig() engram.PolicyParams {
	p := engram.DefaultPolicy()
	p.TargetRetention = viper.GetFloat64("target_retention")
	return p
}

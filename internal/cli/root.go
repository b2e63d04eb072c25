package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/proofpilot/internal/credibility"
	"github.com/ppiankov/proofpilot/internal/model"
	"github.com/ppiankov/proofpilot/internal/oracle"
	"github.com/ppiankov/proofpilot/internal/pipeline"
	"github.com/ppiankov/proofpilot/internal/util"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "proofpilot",
	Short: "ProofPilot - forensic claim auditing with deterministic reconciliation",
	Long: `ProofPilot audits the factual claims in a document, or the behaviour in a
simulated security log, against an external verification oracle.

Oracle output is never shown as-is. Every verdict passes through a
deterministic rule engine, a cross-claim consistency check and a persona
classifier, and each session is bounded by an oracle call budget and a
replay guard.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(newLogger(verbose))
	},
}

// Execute runs the root command. Cancelling ctx aborts in-flight audits.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.proofpilot/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
		} else {
			viper.AddConfigPath(filepath.Join(home, ".proofpilot"))
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match PROOFPILOT_* (PROOFPILOT_ORACLE_PROVIDER, ...)
	viper.SetEnvPrefix("PROOFPILOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := registerDefaults(viper.GetViper(), model.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Error registering defaults: %v\n", err)
	}

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// registerDefaults makes every config key known to viper so environment
// variables are picked up by Unmarshal.
func registerDefaults(v *viper.Viper, cfg *model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}

	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}

	for key, value := range flatten("", tree) {
		v.SetDefault(key, value)
	}
	// Omitted from the defaults when empty
	for _, key := range []string{"oracle.api_key", "oracle.base_url", "http.http_proxy", "http.https_proxy", "http.no_proxy"} {
		v.SetDefault(key, "")
	}
	return nil
}

func flatten(prefix string, tree map[string]any) map[string]any {
	out := make(map[string]any)
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			for nk, nv := range flatten(key, nested) {
				out[nk] = nv
			}
			continue
		}
		out[key] = v
	}
	return out
}

// loadConfig merges defaults, config file, environment and bound flags
func loadConfig() (*model.Config, error) {
	return decodeConfig(viper.GetViper())
}

// decodeConfig expects registerDefaults to have run on v; slices in a
// pre-filled struct would otherwise keep stale default elements.
func decodeConfig(v *viper.Viper) (*model.Config, error) {
	cfg := &model.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// Provider-native variables fill in missing credentials
	if cfg.Oracle.APIKey == "" && strings.EqualFold(cfg.Oracle.Provider, "openai") {
		cfg.Oracle.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Oracle.BaseURL == "" && strings.EqualFold(cfg.Oracle.Provider, "ollama") {
		cfg.Oracle.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
	return cfg, nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newOrchestrator wires the configured oracle into a fresh session
func newOrchestrator(cfg *model.Config) (*pipeline.Orchestrator, error) {
	logger := slog.Default()
	scorer := credibility.NewScorer(&cfg.Credibility)

	orc, err := oracle.NewOracle(cfg.Oracle, scorer, util.NewHTTPClient(cfg.HTTP), logger)
	if err != nil {
		return nil, fmt.Errorf("create oracle: %w", err)
	}

	return pipeline.NewOrchestrator(cfg, orc, logger), nil
}

func newRenderer(cfg *model.Config) *pipeline.Renderer {
	return pipeline.NewRenderer(cfg.Output.IncludeFooter, "ProofPilot "+Version)
}

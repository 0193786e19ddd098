package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"abchart/internal/banner"
	"abchart/internal/cli"
	"abchart/internal/logging"
	"abchart/internal/runner"
	"abchart/internal/storage"
	"abchart/internal/target"
)

var (
	cfgFile   string
	configErr error
)

var rootCmd = &cobra.Command{
	Use:   "abchart",
	Short: "abchart - ApacheBench sweep harness",
	Long: `
abchart starts a small HTTP target and drives ApacheBench (ab) against it,
sweeping concurrency and response size, and prints one aligned table per
sweep.

Charts, in order:
1. Thread chart on / (14 byte body)
2. Thread chart on /static/index.html
3. Size chart on /sizer?size=N`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return configErr
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBenchmarks(cmd.Context())
	},
}

func Execute() {
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Println(banner.GetString())
		cmd.Usage()
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.abchart.yaml)")
	pf.String("host", target.DefaultHost, "Address the target server listens on and ab connects to")
	pf.IntP("port", "p", target.DefaultPort, "Target server port (0 picks a free port)")
	pf.String("static-dir", "", "Directory served under /static/ (embedded index.html if empty)")
	pf.Int("cache-entries", target.DefaultCacheEntries, "Number of /sizer bodies kept in memory")
	pf.Int("max-size", target.DefaultMaxSize, "Largest body /sizer will generate")
	pf.String("history-db", "", "History database (default is $HOME/.abchart/history.db)")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")

	def := runner.DefaultConfig()
	f := rootCmd.Flags()
	f.StringP("tool", "t", "ab", "Benchmark executable")
	f.Bool("shell", false, "Run the tool through the platform shell")
	f.IntP("requests", "n", def.Requests, "Requests per run")
	f.IntSliceP("levels", "c", def.Levels, "Concurrency levels of the thread charts")
	f.IntSlice("sizes", def.Sizes, "Response sizes of the size chart")
	f.Int("size-concurrency", def.SizeConcurrency, "Concurrency of the size chart")
	f.String("size-path", def.SizePath, "Request path template of the size chart")
	f.Duration("run-timeout", 0, "Kill a single ab run after this long (0 waits forever)")
	f.Bool("history", false, "Save every chart to the history database")

	viper.BindPFlags(pf)
	viper.BindPFlags(f)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".abchart")
		}
	}
	viper.SetEnvPrefix("abchart")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			configErr = fmt.Errorf("failed to read config: %w", err)
		}
	}
}

// intsFromConfig reads an int list from a flag, a YAML list or a comma
// separated environment variable.
func intsFromConfig(key string) ([]int, error) {
	raw := viper.Get(key)
	if s, ok := raw.(string); ok {
		var out []int
		s = strings.Trim(s, "[]")
		for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
			n, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			out = append(out, n)
		}
		return out, nil
	}
	out, err := cast.ToIntSliceE(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return out, nil
}

func targetConfig() target.ServerConfig {
	return target.ServerConfig{
		Host:         viper.GetString("host"),
		Port:         viper.GetInt("port"),
		StaticDir:    viper.GetString("static-dir"),
		CacheEntries: viper.GetInt("cache-entries"),
		MaxSize:      viper.GetInt("max-size"),
	}
}

func harnessConfig() (cli.Config, error) {
	levels, err := intsFromConfig("levels")
	if err != nil {
		return cli.Config{}, err
	}
	sizes, err := intsFromConfig("sizes")
	if err != nil {
		return cli.Config{}, err
	}

	return cli.Config{
		Runner: runner.Config{
			Tool:            viper.GetString("tool"),
			Requests:        viper.GetInt("requests"),
			Levels:          levels,
			Sizes:           sizes,
			SizeConcurrency: viper.GetInt("size-concurrency"),
			SizePath:        viper.GetString("size-path"),
		},
		Target:     targetConfig(),
		Shell:      viper.GetBool("shell"),
		RunTimeout: viper.GetDuration("run-timeout"),
	}, nil
}

func historyPath() (string, error) {
	if p := viper.GetString("history-db"); p != "" {
		return p, nil
	}
	return storage.DefaultPath()
}

func runBenchmarks(ctx context.Context) error {
	cfg, err := harnessConfig()
	if err != nil {
		return err
	}

	log, err := logging.New(viper.GetString("log-level"))
	if err != nil {
		return err
	}
	defer log.Sync()

	h := cli.New(cfg, log)

	if viper.GetBool("history") {
		path, err := historyPath()
		if err != nil {
			return err
		}
		store, err := storage.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()
		h.Store = store
	}

	start := time.Now()
	if err := h.Run(ctx); err != nil {
		return err
	}
	fmt.Printf("\nDone in %s\n", time.Since(start).Round(time.Second))
	return nil
}

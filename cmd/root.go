package cmd

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app       = "ats-scanner"
	envPrefix = "ATS_SCANNER"
)

type Config struct {
	Job         string        `mapstructure:"job"`
	JobFile     string        `mapstructure:"job-file"`
	MetricsFile string        `mapstructure:"metrics-file"`
	Interactive bool          `mapstructure:"interactive"`
	Debug       bool          `mapstructure:"debug"`
	JSON        bool          `mapstructure:"json"`
	Scan        *ScanConfig   `mapstructure:"scan"`
	Output      *OutputConfig `mapstructure:"output"`
}

type ScanConfig struct {
	Paths     []string `mapstructure:"paths"`
	TopN      int      `mapstructure:"top-n"`
	Threshold float64  `mapstructure:"threshold"`
	Workers   int      `mapstructure:"workers"`
	StopWords []string `mapstructure:"stop-words"`
}

type OutputConfig struct {
	Format string `mapstructure:"format"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "ats-scanner ranks resumes (PDF, DOCX) against a job description",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is ats-scanner.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().Bool("json", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

func initConfig() {
	// Config needed only for scan command. If there is no config, we can skip initialization
	if scanCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The default config file is optional, an explicit one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.AllSettings())
}

// decodeConfig decodes viper settings. Values coming from environment
// variables are strings, so weak typing is enabled.
func decodeConfig(settings map[string]any) (*Config, error) {
	config := &Config{
		Scan:   &ScanConfig{},
		Output: &OutputConfig{},
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           config,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return config, nil
}

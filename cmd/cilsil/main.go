package main

import (
	"errors"
	"strings"

	"github.com/fatih/color"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var (
	cfgFile string
	red     = color.New(color.FgRed).SprintfFunc()
	yellow  = color.New(color.FgYellow).SprintfFunc()
)

var rootCmd = &cobra.Command{
	Use:   "cilsil",
	Short: "Translate CIL exception regions into SIL control-flow graphs",
	Long: `cilsil reads decoded .NET method listings and translates them into
the intermediate language of a static analyzer. try/finally regions are
woven into the graph on both the normal and the exceptional path.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		processGlobalFlags()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.cilsil.yaml)")
	pf.String("log-level", "warn", "log level (trace, debug, info, warn, error)")
	pf.Bool("no-color", false, "disable colored output")
	pf.StringP("output", "o", "", "output format (text, json)")
	for _, name := range []string{"log-level", "no-color", "output"} {
		if err := viper.BindPFlag(name, pf.Lookup(name)); err != nil {
			fatal(err)
		}
	}
	rootCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return outputFormatsCompletion, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(translateCmd, disCmd, versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fatal(err)
		}
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".cilsil")
	}
	viper.SetEnvPrefix("cilsil")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fatal(err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fatal(err)
	}
}

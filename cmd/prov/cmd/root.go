package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/salazaj/provenance-recorder/pkg/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "prov",
	Short: "Prov records what your pipeline runs actually consumed and produced",
	Long: `Prov is a provenance recorder for data pipelines.

It fingerprints the inputs, outputs and parameters of a run, snapshots the
git state it ran from, and keeps an ordered catalog of runs with tag aliases.
Any two runs can then be compared to tell whether re-running is necessary.

Runs are referenced by id, tag, 1-based ordinal (#1 is the oldest) or by a
path inside the run's directory.
`,
}

var cliConfig config.Config

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		osExit(1)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)
	addProvDirFlag(rootCmd)
	addLogLevelFlag(rootCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	defaults := config.Default()
	viper.SetDefault("hash_method", defaults.HashMethod)
	viper.SetDefault("store_env", defaults.StoreEnv)
	viper.SetDefault("git", defaults.Git)
	viper.SetDefault("redact_paths", defaults.RedactPaths)

	if os.Getenv("PROV_CONFIG") != "" {
		// Use config file from the environment.
		viper.SetConfigFile(os.Getenv("PROV_CONFIG"))
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(provFlags.root.provDir)
	}

	viper.SetEnvPrefix("prov")
	viper.AutomaticEnv() // read in environment variables that match

	if err := viper.ReadInConfig(); err == nil && provFlags.root.logLevel == "debug" {
		infoLogger.Println("using config file:", viper.ConfigFileUsed())
	}

	cliConfig = config.Config{
		RedactPaths: viper.GetBool("redact_paths"),
		HashMethod:  viper.GetString("hash_method"),
		StoreEnv:    viper.GetString("store_env"),
		Git:         viper.GetString("git"),
	}
}

package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fazza-abiyyu/exnest-ai-sdk-go/exnest"
)

var rootCmd = &cobra.Command{
	Use:   "exnest",
	Short: "ExnestAI command line client",
	Long:  "exnest talks to the ExnestAI completion API: interactive chat, one-shot prompts, and model catalog listing.",
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("model", "m", "gpt-4o-mini", "Model to use")
	rootCmd.PersistentFlags().String("api-key", "", "API key (defaults to EXNEST_API_KEY)")
	rootCmd.PersistentFlags().String("base-url", "", "API base URL override")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Per-call timeout (default 30s)")
	rootCmd.PersistentFlags().Bool("debug", false, "Debug output")

	_ = viper.BindPFlag("model", rootCmd.PersistentFlags().Lookup("model"))
	_ = viper.BindPFlag("api_key", rootCmd.PersistentFlags().Lookup("api-key"))
	_ = viper.BindPFlag("base_url", rootCmd.PersistentFlags().Lookup("base-url"))
	_ = viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	// A local .env may carry EXNEST_API_KEY; absence is fine.
	_ = godotenv.Load()

	viper.SetEnvPrefix("EXNEST")
	viper.AutomaticEnv()
}

// newClient builds an SDK client from flags and environment.
func newClient() (*exnest.Client, error) {
	return exnest.NewClient(exnest.Options{
		APIKey:  viper.GetString("api_key"),
		BaseURL: viper.GetString("base_url"),
		Timeout: viper.GetDuration("timeout"),
		Debug:   viper.GetBool("debug"),
	})
}

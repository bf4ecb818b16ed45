package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fazza-abiyyu/exnest-ai-sdk-go/exnest"
)

var askCmd = &cobra.Command{
	Use:   "ask <prompt>",
	Short: "Send a one-shot prompt and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().Int("max-tokens", 0, "Completion token limit (0 = server default)")
	askCmd.Flags().Float64("temperature", -1, "Sampling temperature in [0,2] (-1 = server default)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	var opts exnest.ChatOptions
	if maxTokens, _ := cmd.Flags().GetInt("max-tokens"); maxTokens > 0 {
		opts.MaxTokens = exnest.Int(maxTokens)
	}
	if temperature, _ := cmd.Flags().GetFloat64("temperature"); temperature >= 0 {
		opts.Temperature = exnest.Float(temperature)
	}

	prompt := strings.Join(args, " ")
	resp, err := client.Chat(cmd.Context(), viper.GetString("model"), []exnest.Message{
		exnest.UserMessage(prompt),
	}, &opts)
	if err != nil {
		return err
	}
	if resp.Failed() {
		if resp.Error != nil {
			return fmt.Errorf("API error: %s", resp.Error.Message)
		}
		return fmt.Errorf("API error: %s", resp.Message)
	}

	fmt.Println(resp.Text())
	return nil
}

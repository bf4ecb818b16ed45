package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fazza-abiyyu/exnest-ai-sdk-go/exnest"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive streaming chat session",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().String("system", "", "System message for the session")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	model := viper.GetString("model")
	var messages []exnest.Message

	if system, _ := cmd.Flags().GetString("system"); system != "" {
		messages = append(messages, exnest.SystemMessage(system))
	}

	fmt.Println("Starting chat session (type 'exit' to quit)")
	fmt.Println("----------------------------------------")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nYou: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" {
			break
		}

		messages = append(messages, exnest.UserMessage(input))

		fmt.Print("\nAssistant: ")
		reply, err := streamReply(cmd.Context(), client, model, messages)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
			messages = messages[:len(messages)-1]
			continue
		}
		fmt.Println()

		messages = append(messages, exnest.AssistantMessage(reply))
	}

	return nil
}

// streamReply streams one assistant turn to stdout and returns the full text.
func streamReply(ctx context.Context, client *exnest.Client, model string, messages []exnest.Message) (string, error) {
	stream, err := client.Stream(ctx, model, messages, nil)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var reply strings.Builder
	for chunk := range stream.Chunks() {
		content := chunk.Text()
		reply.WriteString(content)
		fmt.Print(content)
	}
	if err := stream.Err(); err != nil {
		return reply.String(), err
	}
	return reply.String(), nil
}

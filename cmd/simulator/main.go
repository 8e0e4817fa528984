// Command simulator drives the conversation engine from a terminal, printing
// every reply instead of sending it to WhatsApp.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	appconfig "github.com/wolfman30/smartbot-platform/internal/config"
	"github.com/wolfman30/smartbot-platform/internal/conversation"
)

func main() {
	_ = godotenv.Load()
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cfg := appconfig.Load()
	var (
		sender string
		showQR bool
	)

	buildSession := func(cmd *cobra.Command) *session {
		engine := conversation.NewEngine(conversation.EngineConfig{
			PaymentQRURL:    cfg.PaymentQRURL,
			DocumentBaseURL: cfg.DocumentBaseURL,
			AdvisorPhone:    cfg.AdvisorPhone,
		})
		printer := &printer{out: cmd.OutOrStdout(), showQR: showQR}
		return newSession(engine, conversation.NewMemoryStore(), printer, sender)
	}

	root := &cobra.Command{
		Use:   "simulator",
		Short: "Chat with the SmartBot flows from the terminal",
		Long: `Type a message to send it as text. Selections are sent with
  /b ID   reply button (e.g. /b MENU_DEMOS)
  /l ID   list row (e.g. /l DEMO_FOOD)
  /state  print the stored conversation state
  /quit   exit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return buildSession(cmd).run(cmd.Context(), cmd.InOrStdin(), true)
		},
	}
	root.PersistentFlags().StringVar(&sender, "sender", "591700000000", "WhatsApp id of the simulated customer")
	root.PersistentFlags().StringVar(&cfg.PaymentQRURL, "qr-url", cfg.PaymentQRURL, "Payment QR image URL")
	root.PersistentFlags().BoolVar(&showQR, "show-qr", true, "Render payment QR links in the terminal")

	scriptCmd := &cobra.Command{
		Use:   "script [file]",
		Short: "Replay a file of inputs, one per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return buildSession(cmd).run(cmd.Context(), f, false)
		},
	}
	root.AddCommand(scriptCmd)
	return root
}

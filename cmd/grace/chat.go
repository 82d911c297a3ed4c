package main

import (
	"github.com/spf13/cobra"
)

// chatCmd holds one conversation on the terminal
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with grace in the terminal",
	Long: `Start a single conversation on stdin/stdout. Grace greets first; each
non-blank line you type is one customer turn. The command exits when grace
ends the conversation or stdin is closed.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, _, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	return a.RunConsole(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}

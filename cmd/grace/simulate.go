package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artmatsak/grace/internal/grace/chat"
	"github.com/artmatsak/grace/internal/grace/simulate"
)

const defaultTask = "You are looking to book a table on the name of Jeremiah Biggs, for 3 people at 8 pm on June 23, 2023. " +
	"You don't provide all of this information at once but rather respond to the AI assistant's prompts."

var (
	simulateTask     string
	simulateMaxTurns int
)

// simulateCmd plays a scripted customer against the assistant
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a simulated customer conversation",
	Long: `Let a second model play a customer with the given task and talk to
grace until grace ends the conversation. The transcript and the resulting
bookings are printed.`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simulateTask, "task", defaultTask, "What the simulated customer wants")
	simulateCmd.Flags().IntVar(&simulateMaxTurns, "max-turns", simulate.DefaultMaxTurns, "Give up after this many exchanges")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, _, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	res, runErr := simulate.Run(ctx,
		func(out chat.OutputFunc) simulate.Conversation { return a.NewSession(out) },
		func(prompt string, out chat.OutputFunc) simulate.Conversation { return a.NewPlainSession(prompt, out) },
		simulate.CustomerPrompt(a.Domain(), simulateTask),
		simulateMaxTurns,
	)

	w := cmd.OutOrStdout()
	if res != nil {
		fmt.Fprint(w, res.String())
	}

	bookings, err := a.Store().List(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nBookings: %d\n", len(bookings))
	for _, b := range bookings {
		fmt.Fprintf(w, "  %s  %s, %d people, %s\n", b.Reference, b.FullName, b.NumPeople, b.Time.Format("2006-01-02 15:04"))
	}
	return runErr
}

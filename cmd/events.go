package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizpool/internal/store"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect the event log",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded events in sequence order",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		after, _ := cmd.Flags().GetInt64("after")
		kind, _ := cmd.Flags().GetString("kind")
		learner, _ := cmd.Flags().GetString("learner")
		subject, _ := cmd.Flags().GetString("draw")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().List(context.Background(), store.QueryOpts{
			Limit:     limit,
			After:     after,
			Kind:      store.EventKind(kind),
			LearnerID: learner,
			SubjectID: subject,
		})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No events found.")
			return nil
		}

		fmt.Printf("%-6s  %-19s  %-8s  %-16s  %-36s  %s\n", "Seq", "Timestamp", "Kind", "Learner", "Draw", "Data")
		fmt.Println(rule(120))
		for _, e := range events {
			fmt.Printf("%-6d  %-19s  %-8s  %-16s  %-36s  %s\n",
				e.Sequence, localTime(e.CreatedAt), e.Kind, truncate(e.LearnerID, 16),
				e.SubjectID, truncate(string(e.Data), 60))
		}
		return nil
	},
}

func init() {
	eventsListCmd.Flags().Int("limit", 50, "Maximum number of events to show (0 = all)")
	eventsListCmd.Flags().Int64("after", 0, "Only events with a sequence greater than this")
	eventsListCmd.Flags().String("kind", "", "Filter by kind (draw, response, result, mastery)")
	eventsListCmd.Flags().String("learner", "", "Filter by learner")
	eventsListCmd.Flags().String("draw", "", "Filter by draw id")

	eventsCmd.AddCommand(eventsListCmd)
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizpool/internal/mastery"
)

var masteryCmd = &cobra.Command{
	Use:   "mastery",
	Short: "Inspect learner mastery",
}

var masteryShowCmd = &cobra.Command{
	Use:   "show <learner>",
	Short: "Show a learner's proficiency by tag and question type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		top, _ := cmd.Flags().GetInt("weakest")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		m, err := s.MasteryRepo().Get(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("get mastery: %w", err)
		}
		if m.Version == 0 {
			fmt.Printf("No mastery recorded for %s.\n", args[0])
			return nil
		}

		fmt.Printf("Learner: %s  (version %d, updated %s)\n\n", m.LearnerID, m.Version, localTime(m.UpdatedAt))

		tags := m.WeakestTags(top)
		if len(tags) > 0 {
			fmt.Println("Tags (weakest first)")
			printEntries(tags)
			fmt.Println()
		}
		fmt.Println("Question types")
		printEntries(m.SortedTypes())
		return nil
	},
}

func printEntries(entries []mastery.Entry) {
	fmt.Printf("%-24s  %-11s  %-6s  %-8s  %s\n", "Key", "Level", "Score", "Attempts", "Accuracy")
	fmt.Println(rule(70))
	for _, e := range entries {
		p := e.Proficiency
		fmt.Printf("%-24s  %-11s  %-6.2f  %-8d  %.0f%%\n",
			truncate(e.Key, 24), mastery.LevelOf(p), p.Score, p.Attempts, p.Accuracy()*100)
	}
}

func init() {
	masteryShowCmd.Flags().Int("weakest", 0, "Only show the N weakest tags (0 = all)")

	masteryCmd.AddCommand(masteryShowCmd)
}

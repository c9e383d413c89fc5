package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var drawCmd = &cobra.Command{
	Use:   "draw <pool-id>",
	Short: "Draw a question set from a pool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, _ := cmd.Flags().GetString("learner")
		asJSON, _ := cmd.Flags().GetBool("json")

		var seed *uint64
		if cmd.Flags().Changed("seed") {
			v, _ := cmd.Flags().GetUint64("seed")
			seed = &v
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		svc, err := newService(s)
		if err != nil {
			return err
		}

		d, err := svc.Draw(context.Background(), args[0], learner, seed)
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(d)
		}

		fmt.Printf("Draw:    %s\n", d.ID)
		fmt.Printf("Pool:    %s\n", d.PoolID)
		if d.LearnerID != "" {
			fmt.Printf("Learner: %s\n", d.LearnerID)
		}
		fmt.Printf("Seed:    %d\n", d.Seed)
		fmt.Println()

		fmt.Printf("%-3s  %-20s  %-16s  %-20s  %s\n", "#", "Question", "Type", "Bank", "Prompt")
		fmt.Println(rule(100))
		for i, q := range d.Questions {
			fmt.Printf("%-3d  %-20s  %-16s  %-20s  %s\n",
				i+1, truncate(q.ID, 20), q.Type, truncate(d.SourceMap[q.ID], 20), truncate(q.Prompt, 32))
		}
		fmt.Printf("\n%d questions, %g points\n", len(d.Questions), d.MaxScore())
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <learner>",
	Short: "List a learner's draws, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		draws, err := s.DrawRepo().ListByLearner(ctx, args[0], limit)
		if err != nil {
			return fmt.Errorf("list draws: %w", err)
		}
		if len(draws) == 0 {
			fmt.Printf("No draws found for %s.\n", args[0])
			return nil
		}

		fmt.Printf("%-36s  %-24s  %-19s  %-9s  %s\n", "Draw", "Pool", "Created", "Questions", "Answered")
		fmt.Println(rule(100))
		for _, d := range draws {
			responses, err := s.DrawRepo().Responses(ctx, d.ID)
			if err != nil {
				return fmt.Errorf("load responses for %s: %w", d.ID, err)
			}
			answered := make(map[string]bool, len(responses))
			for _, r := range responses {
				answered[r.QuestionID] = true
			}
			fmt.Printf("%-36s  %-24s  %-19s  %-9d  %d\n",
				d.ID, truncate(d.PoolID, 24), localTime(d.CreatedAt), len(d.Questions), len(answered))
		}
		fmt.Printf("\n%d draws\n", len(draws))
		return nil
	},
}

func init() {
	drawCmd.Flags().StringP("learner", "l", "", "Learner the draw is for")
	drawCmd.Flags().Uint64("seed", 0, "Seed for a reproducible draw")
	drawCmd.Flags().Bool("json", false, "Print the full draw as JSON")

	historyCmd.Flags().Int("limit", 20, "Maximum number of draws to show")
}

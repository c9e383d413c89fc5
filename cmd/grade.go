package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizpool/internal/attempt"
	"github.com/abhisek/quizpool/internal/pool"
	"github.com/abhisek/quizpool/internal/session"
)

var gradeCmd = &cobra.Command{
	Use:   "grade <draw-id> <responses.json>",
	Short: "Grade a batch of responses against a stored draw",
	Long: `Grade a batch of responses against a stored draw and record the result.

The responses file is a JSON array of submissions:

  [{"questionId": "q1", "payload": {"choiceId": "b"}, "durationMs": 4200}]

Use - to read the file from stdin. A draw can be graded once.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		in, err := openInput(args[1])
		if err != nil {
			return err
		}
		subs, err := session.ReadSubmissions(in)
		in.Close()
		if err != nil {
			return err
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

		ctx := context.Background()
		out, err := svc.Grade(ctx, args[0], subs)
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out.Results)
		}

		d, err := s.DrawRepo().Get(ctx, args[0])
		if err != nil {
			return fmt.Errorf("get draw: %w", err)
		}
		printOutcome(out, d)
		return nil
	},
}

func init() {
	gradeCmd.Flags().Bool("json", false, "Print the aggregated result as JSON")
}

// printOutcome prints the per-question table, totals and mastery changes.
func printOutcome(out *session.Outcome, d *pool.DrawResult) {
	res := out.Results
	final := make(map[string]attempt.Response, len(res.Responses))
	for _, r := range res.Responses {
		final[r.QuestionID] = r
	}

	fmt.Printf("%-3s  %-20s  %-16s  %-7s  %-6s  %-8s  %s\n", "#", "Question", "Type", "Attempt", "Score", "Points", "OK")
	fmt.Println(rule(80))
	for i, q := range d.Questions {
		r, ok := final[q.ID]
		if !ok {
			fmt.Printf("%-3d  %-20s  %-16s  %-7s  %-6s  %-8s  %s\n",
				i+1, truncate(q.ID, 20), q.Type, "-", "-", fmt.Sprintf("0/%g", q.PointValue()), "-")
			continue
		}
		mark := "✗"
		if r.IsCorrect {
			mark = "✓"
		}
		fmt.Printf("%-3d  %-20s  %-16s  %-7d  %-6.2f  %-8s  %s\n",
			i+1, truncate(q.ID, 20), q.Type, r.AttemptNumber, r.Score,
			fmt.Sprintf("%g/%g", r.PointsEarned, q.PointValue()), mark)
	}
	fmt.Println(rule(80))

	status := "PASSED"
	if !res.Passed {
		status = "NOT PASSED"
	}
	fmt.Printf("Score:    %g/%g (%.1f%%)  %s\n", res.TotalScore, res.MaxScore, res.Percentage, status)
	fmt.Printf("Correct:  %d of %d\n", res.CorrectCount, res.QuestionCount)
	if res.Duration > 0 {
		fmt.Printf("Duration: %s\n", res.Duration.Round(time.Millisecond))
	}

	if len(out.Transitions) > 0 {
		fmt.Println()
		fmt.Println("Mastery changes:")
		for _, tr := range out.Transitions {
			fmt.Printf("  %-4s  %-24s  %s → %s\n", tr.Kind, truncate(tr.Key, 24), tr.From, tr.To)
		}
	}
}

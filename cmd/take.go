package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizpool/internal/app"
	"github.com/abhisek/quizpool/internal/screens/take"
)

var takeCmd = &cobra.Command{
	Use:   "take [draw-id]",
	Short: "Take a quiz interactively",
	Long: `Take a stored draw in the terminal player. With --pool a new draw is made first.

Ctrl+C pauses the attempt; run take again with the same draw id to resume.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		poolID, _ := cmd.Flags().GetString("pool")
		learner, _ := cmd.Flags().GetString("learner")

		if (len(args) == 1) == (poolID != "") {
			return fmt.Errorf("pass either a draw id or --pool")
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

		var drawID string
		if poolID != "" {
			d, err := svc.Draw(context.Background(), poolID, learner, nil)
			if err != nil {
				return err
			}
			drawID = d.ID
		} else {
			drawID = args[0]
		}

		if err := app.Run(take.New(svc, drawID)); err != nil {
			return err
		}
		fmt.Printf("Draw %s\n", drawID)
		return nil
	},
}

func init() {
	takeCmd.Flags().String("pool", "", "Draw a new question set from this pool")
	takeCmd.Flags().StringP("learner", "l", "", "Learner taking the quiz (with --pool)")
}

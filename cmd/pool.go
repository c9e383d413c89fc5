package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/abhisek/quizpool/internal/pool"
	"github.com/abhisek/quizpool/internal/store"
)

var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Manage question pools",
}

var poolCreateCmd = &cobra.Command{
	Use:   "create <file>",
	Short: "Create or replace a pool from a JSON definition (use - for stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := openInput(args[0])
		if err != nil {
			return err
		}
		defer in.Close()

		var p pool.Pool
		dec := json.NewDecoder(in)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return fmt.Errorf("decode pool: %w", err)
		}
		if p.ID == "" {
			p.ID = uuid.NewString()
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		banks, err := store.LoadBanks(ctx, s.BankRepo(), &p)
		if err != nil {
			return fmt.Errorf("load banks: %w", err)
		}
		if issues := pool.Validate(&p, banks); len(issues) > 0 {
			return &pool.ValidationError{PoolID: p.ID, Issues: issues}
		}
		if err := s.PoolRepo().Save(ctx, &p); err != nil {
			return fmt.Errorf("save pool: %w", err)
		}

		fmt.Printf("Saved pool %q (%s): draws %d from %d source(s)\n", p.Name, p.ID, p.DrawCount, len(p.Sources))
		return nil
	},
}

var poolValidateCmd = &cobra.Command{
	Use:   "validate <id>",
	Short: "Check a stored pool against the current banks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		p, err := s.PoolRepo().Get(ctx, args[0])
		if err != nil {
			return fmt.Errorf("get pool %q: %w", args[0], err)
		}
		banks, err := store.LoadBanks(ctx, s.BankRepo(), p)
		if err != nil {
			return fmt.Errorf("load banks: %w", err)
		}
		if issues := pool.Validate(p, banks); len(issues) > 0 {
			return &pool.ValidationError{PoolID: p.ID, Issues: issues}
		}
		fmt.Printf("Pool %s is valid.\n", p.ID)
		return nil
	},
}

var poolListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored pools",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		pools, err := s.PoolRepo().List(context.Background())
		if err != nil {
			return fmt.Errorf("list pools: %w", err)
		}
		if len(pools) == 0 {
			fmt.Println("No pools found.")
			return nil
		}

		fmt.Printf("%-36s  %-28s  %-7s  %-5s  %-8s  %s\n", "ID", "Name", "Sources", "Draw", "Weighted", "Passing")
		fmt.Println(rule(100))
		for _, p := range pools {
			passing := "-"
			if ps := p.Scoring.PassingScore; ps != nil {
				passing = fmt.Sprintf("%g%%", *ps)
			}
			weighted := ""
			if p.WeightByMastery {
				weighted = "✓"
			}
			fmt.Printf("%-36s  %-28s  %-7d  %-5d  %-8s  %s\n",
				truncate(p.ID, 36), truncate(p.Name, 28), len(p.Sources), p.DrawCount, weighted, passing)
		}
		fmt.Printf("\n%d pools\n", len(pools))
		return nil
	},
}

var poolDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored pool",
	Long:  "Delete a stored pool. Existing draws keep their questions and remain gradable.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		err = s.PoolRepo().Delete(context.Background(), args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("pool %q not found", args[0])
		}
		if err != nil {
			return fmt.Errorf("delete pool: %w", err)
		}
		fmt.Printf("Deleted pool %s\n", args[0])
		return nil
	},
}

func init() {
	poolCmd.AddCommand(poolCreateCmd)
	poolCmd.AddCommand(poolValidateCmd)
	poolCmd.AddCommand(poolListCmd)
	poolCmd.AddCommand(poolDeleteCmd)
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizpool/internal/bankfile"
	"github.com/abhisek/quizpool/internal/store"
)

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Manage question banks",
}

var bankImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a bank document (use - for stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		replace, _ := cmd.Flags().GetBool("replace")

		in, err := openInput(args[0])
		if err != nil {
			return err
		}
		defer in.Close()

		b, err := bankfile.Decode(in)
		if err != nil {
			return err
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		repo := s.BankRepo()
		if _, err := repo.Get(ctx, b.ID); err == nil && !replace {
			return fmt.Errorf("bank %q already exists (use --replace to overwrite)", b.ID)
		} else if err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("get bank: %w", err)
		}
		if err := repo.Save(ctx, b); err != nil {
			return fmt.Errorf("save bank: %w", err)
		}

		fmt.Printf("Imported bank %q (%s): %d questions, %d categories\n",
			b.Name, b.ID, b.Len(), len(b.Categories))
		return nil
	},
}

var bankExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a bank document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		b, err := s.BankRepo().Get(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("get bank %q: %w", args[0], err)
		}

		if out == "" || out == "-" {
			return bankfile.Encode(os.Stdout, b)
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		if err := bankfile.Encode(f, b); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	},
}

var bankListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored banks",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		banks, err := s.BankRepo().List(context.Background())
		if err != nil {
			return fmt.Errorf("list banks: %w", err)
		}
		if len(banks) == 0 {
			fmt.Println("No banks found.")
			return nil
		}

		fmt.Printf("%-36s  %-28s  %-9s  %-10s  %s\n", "ID", "Name", "Questions", "Categories", "Updated")
		fmt.Println(rule(100))
		for _, b := range banks {
			fmt.Printf("%-36s  %-28s  %-9d  %-10d  %s\n",
				truncate(b.ID, 36), truncate(b.Name, 28), b.Len(), len(b.Categories), localTime(b.UpdatedAt))
		}
		fmt.Printf("\n%d banks\n", len(banks))
		return nil
	},
}

var bankShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a bank's questions and categories",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		b, err := s.BankRepo().Get(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("get bank %q: %w", args[0], err)
		}

		fmt.Printf("ID:          %s\n", b.ID)
		fmt.Printf("Name:        %s\n", b.Name)
		if b.Description != "" {
			fmt.Printf("Description: %s\n", b.Description)
		}
		fmt.Printf("Created:     %s\n", localTime(b.CreatedAt))
		fmt.Printf("Updated:     %s\n", localTime(b.UpdatedAt))
		fmt.Println()

		fmt.Printf("%-20s  %-16s  %-6s  %-24s  %s\n", "Question", "Type", "Points", "Tags", "Prompt")
		fmt.Println(rule(100))
		for _, q := range b.Questions {
			fmt.Printf("%-20s  %-16s  %-6g  %-24s  %s\n",
				truncate(q.ID, 20), q.Type, q.PointValue(),
				truncate(strings.Join(q.UniqueTags(), ","), 24), truncate(q.Prompt, 40))
		}
		fmt.Printf("\n%d questions\n", b.Len())

		if len(b.Categories) > 0 {
			fmt.Println()
			fmt.Printf("%-20s  %-28s  %s\n", "Category", "Name", "Questions")
			fmt.Println(rule(60))
			for _, c := range b.Categories {
				fmt.Printf("%-20s  %-28s  %d\n", truncate(c.ID, 20), truncate(c.Name, 28), len(c.QuestionIDs))
			}
		}
		return nil
	},
}

var bankDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored bank",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.BankRepo().Delete(context.Background(), args[0]); err != nil {
			return fmt.Errorf("delete bank %q: %w", args[0], err)
		}
		fmt.Printf("Deleted bank %s\n", args[0])
		return nil
	},
}

func init() {
	bankImportCmd.Flags().Bool("replace", false, "Overwrite an existing bank with the same id")
	bankExportCmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")

	bankCmd.AddCommand(bankImportCmd)
	bankCmd.AddCommand(bankExportCmd)
	bankCmd.AddCommand(bankListCmd)
	bankCmd.AddCommand(bankShowCmd)
	bankCmd.AddCommand(bankDeleteCmd)
}

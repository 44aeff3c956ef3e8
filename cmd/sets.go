package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var setsCmd = &cobra.Command{
	Use:   "sets",
	Short: "Browse stored question sets",
}

var setsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored question sets, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		sets, err := s.QuestionRepo().ListSets(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("list sets: %w", err)
		}
		if len(sets) == 0 {
			fmt.Println("No question sets stored yet.")
			return nil
		}

		fmt.Printf("%-5s  %-19s  %-30s  %-10s  %s\n",
			"ID", "Created", "Topic", "Difficulty", "Questions")
		fmt.Println(strings.Repeat("─", 84))
		for _, set := range sets {
			fmt.Printf("%-5d  %-19s  %-30s  %-10s  %d\n",
				set.ID,
				set.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				truncate(set.Topic, 30),
				set.Difficulty,
				set.QuestionCount)
		}
		return nil
	},
}

var setsViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Print the questions of one stored set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		batch, err := s.QuestionRepo().GetSet(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get set: %w", err)
		}
		if len(batch) == 0 {
			return fmt.Errorf("set %d not found or empty", id)
		}

		bold := color.New(color.Bold)
		green := color.New(color.FgGreen)
		for i, q := range batch {
			bold.Printf("%d. %s\n", i+1, q.Description)
			for _, opt := range q.Options {
				if opt == q.Answer {
					green.Printf("   ✓ %s\n", opt)
				} else {
					fmt.Printf("     %s\n", opt)
				}
			}
			if q.Explanation != "" {
				fmt.Printf("   %s\n", q.Explanation)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	setsListCmd.Flags().IntP("limit", "n", 20, "Number of sets to show")

	setsCmd.AddCommand(setsListCmd)
	setsCmd.AddCommand(setsViewCmd)
	rootCmd.AddCommand(setsCmd)
}

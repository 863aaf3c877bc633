package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/starford/rehearse/internal"
	"github.com/starford/rehearse/internal/reviewservice"
)

// withRuntime opens the vault and index, syncs them and runs fn. Logs go to
// stderr so command output stays readable.
func withRuntime(cmd *cli.Command, fn func(rt *internal.Runtime) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	rt, err := internal.Open(internal.WithConfig(cfg), internal.WithLogWriter(os.Stderr))
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(rt)
}

func dueCommand() *cli.Command {
	return &cli.Command{
		Name:  "due",
		Usage: "List notes due for review, most overdue first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum number of notes (0 uses the configured default)"},
			&cli.StringFlag{Name: "tag", Aliases: []string{"t"}, Usage: "Only notes carrying this tag"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withRuntime(cmd, func(rt *internal.Runtime) error {
				list, err := rt.Service.Due(ctx, reviewservice.DueQuery{
					Limit: int(cmd.Int("limit")),
					Tag:   cmd.String("tag"),
				})
				if err != nil {
					return err
				}
				printDue(os.Stdout, list)
				return nil
			})
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Summarise the collection",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withRuntime(cmd, func(rt *internal.Runtime) error {
				st, err := rt.Service.Stats(ctx)
				if err != nil {
					return err
				}
				printStats(os.Stdout, st)
				return nil
			})
		},
	}
}

func reviewCommand() *cli.Command {
	return &cli.Command{
		Name:      "review",
		Usage:     "Record a review of a note",
		ArgsUsage: "<note path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "strategy", Aliases: []string{"s"}, Usage: "rating or confidence (default from config)"},
			&cli.IntFlag{Name: "rating", Aliases: []string{"r"}, Usage: "Difficulty rating 1-5 (rating strategy)"},
			&cli.IntFlag{Name: "initial-confidence", Usage: "Confidence 1-5 before answering (confidence strategy)"},
			&cli.IntFlag{Name: "final-confidence", Usage: "Confidence 1-5 after checking (confidence strategy)"},
			&cli.BoolFlag{Name: "recalled", Usage: "The answer was recalled (confidence strategy)"},
			&cli.IntFlag{Name: "attempts", Value: 1, Usage: "Retrieval attempts (confidence strategy)"},
			&cli.IntFlag{Name: "seconds", Usage: "Time spent on the review"},
			&cli.StringFlag{Name: "user", Usage: "User recorded in the review log (default from config)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return errors.New("review: note path is required")
			}
			return withRuntime(cmd, func(rt *internal.Runtime) error {
				res, err := rt.Service.Review(ctx, reviewservice.ReviewInput{
					NoteID:            path,
					Strategy:          cmd.String("strategy"),
					UserID:            cmd.String("user"),
					DifficultyRating:  int(cmd.Int("rating")),
					InitialConfidence: int(cmd.Int("initial-confidence")),
					FinalConfidence:   int(cmd.Int("final-confidence")),
					WasRecalled:       cmd.Bool("recalled"),
					RetrievalAttempts: int(cmd.Int("attempts")),
					TimeSpentSeconds:  int(cmd.Int("seconds")),
				})
				if err != nil {
					return fmt.Errorf("review %s: %w", path, err)
				}
				printReview(os.Stdout, res)
				return nil
			})
		},
	}
}

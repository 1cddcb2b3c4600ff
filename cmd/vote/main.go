// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Command vote casts a survey vote and prints the results.
//
//	vote likud                 vote in the election survey
//	vote -survey abc a yes z   answer a multi-question survey
//	vote -results              print results only
//	vote -parties              list party ids
//	vote -clear                forget the local vote record
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"

	"github.com/danielhkuo/election-survey/client"
	"github.com/danielhkuo/election-survey/models"
)

// resultsDelay is the pause between an accepted vote and the results view.
const resultsDelay = 2 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	flags := flag.NewFlagSet("vote", flag.ExitOnError)
	surveyID := flags.String("survey", models.ElectionSurveyID, "Survey id")
	resultsOnly := flags.Bool("results", false, "Print results without voting")
	listParties := flags.Bool("parties", false, "List party ids")
	clearProfile := flags.Bool("clear", false, "Clear the local vote record")
	flags.Parse(os.Args[1:])

	cfg, err := client.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := client.New(cfg)

	switch {
	case *clearProfile:
		if err := c.Profile().Clear(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println("Local vote record cleared.")
		return
	case *listParties:
		if err := printParties(ctx, c); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	case *resultsOnly:
		if err := printResults(ctx, c, *surveyID); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	answers := flags.Args()
	if len(answers) == 0 {
		fmt.Fprintln(os.Stderr, "usage: vote [-survey id] answer...")
		os.Exit(2)
	}

	receipt, err := c.Vote(ctx, *surveyID, answers)
	if err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}

	fmt.Printf("Vote counted. %s votes so far.\n", humanize.Comma(int64(receipt.VotesTotal)))

	select {
	case <-time.After(resultsDelay):
	case <-ctx.Done():
		return
	}

	if err := printResults(ctx, c, *surveyID); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// describe turns a vote error into a message for the terminal.
func describe(err error) string {
	var already *client.AlreadyVotedError
	var invalid *client.ValidationError
	var network *client.NetworkError

	switch {
	case errors.As(err, &already):
		return fmt.Sprintf("You already voted in the last 24 hours. You can vote again %s.",
			humanize.Time(time.Now().Add(already.RetryAfter)))
	case errors.As(err, &invalid):
		return "The server rejected your answers: " + invalid.Message
	case errors.Is(err, client.ErrSurveyNotFound):
		return "No such survey."
	case errors.Is(err, client.ErrBackendUnavailable):
		return "The survey service is temporarily unavailable. Please try again later."
	case errors.As(err, &network):
		return "Could not reach the survey service: " + network.Err.Error()
	default:
		return "Vote failed: " + err.Error()
	}
}

func printParties(ctx context.Context, c *client.Client) error {
	parties, err := c.Parties(ctx)
	if err != nil {
		return err
	}
	for _, p := range parties {
		fmt.Printf("%-22s %s\n", p.ID, p.Name)
	}
	return nil
}

func printResults(ctx context.Context, c *client.Client, surveyID string) error {
	results, err := c.Results(ctx, surveyID)
	if err != nil {
		return err
	}

	fmt.Printf("\n%s (%s responses)\n", results.Title, humanize.Comma(int64(results.TotalResponses)))
	for _, q := range results.Results {
		fmt.Printf("\n%s\n", q.Question)

		switch data := q.Data.(type) {
		case map[string]interface{}:
			keys := make([]string, 0, len(data))
			for k := range data {
				keys = append(keys, k)
			}
			sort.Slice(keys, func(i, j int) bool {
				ci, cj := count(data[keys[i]]), count(data[keys[j]])
				if ci != cj {
					return ci > cj
				}
				return keys[i] < keys[j]
			})
			for _, k := range keys {
				n := count(data[k])
				pct := 0.0
				if q.Total > 0 {
					pct = float64(n) / float64(q.Total) * 100
				}
				fmt.Printf("  %-22s %6s  %5.1f%%\n", k, humanize.Comma(int64(n)), pct)
			}
		case []interface{}:
			for _, answer := range data {
				fmt.Printf("  - %v\n", answer)
			}
		}
	}
	fmt.Printf("\nUpdated %s\n", results.LastUpdated)
	return nil
}

func count(v interface{}) int {
	f, _ := v.(float64)
	return int(f)
}

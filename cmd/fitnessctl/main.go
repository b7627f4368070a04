package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/garrikyx/FItflow/db/postgres/migrations"
	"github.com/garrikyx/FItflow/internal/config"
)

var (
	tokenFlag string
	rootCmd   = &cobra.Command{
		Use:   "fitnessctl",
		Short: "Operator CLI for the FitFlow services",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&tokenFlag, "token", "t", os.Getenv("FITFLOW_TOKEN"), "Bearer token sent to the services")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, _ := cmd.Flags().GetString("database-url")
			if url == "" {
				return fmt.Errorf("--database-url required")
			}
			if err := migrations.Up(url); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
	migrateCmd.Flags().String("database-url", os.Getenv("POSTGRES_URL"), "Postgres connection URL")
	rootCmd.AddCommand(migrateCmd)

	dlqCmd := &cobra.Command{Use: "dlq", Short: "Inspect and replay dead-lettered activity events"}
	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Requeue due dead letters into the outbox once",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, _ := cmd.Flags().GetString("database-url")
			if url == "" {
				return fmt.Errorf("--database-url required")
			}
			batch, _ := cmd.Flags().GetInt("batch")
			retries, _ := cmd.Flags().GetInt("max-retries")
			return runReplay(cmd.Context(), url, batch, retries, cmd.OutOrStdout())
		},
	}
	replayCmd.Flags().String("database-url", os.Getenv("POSTGRES_URL"), "Postgres connection URL")
	replayCmd.Flags().Int("batch", 50, "Maximum entries to process")
	replayCmd.Flags().Int("max-retries", 5, "Entries retried this many times are quarantined")
	dlqCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(dlqCmd)

	tokenCmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Issue a development bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			common, err := config.Load[config.Common]()
			if err != nil {
				return err
			}
			scopes, _ := cmd.Flags().GetStringSlice("scopes")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			return runToken(common.Auth(), args[0], scopes, ttl, cmd.OutOrStdout())
		},
	}
	tokenCmd.Flags().StringSlice("scopes", defaultScopes, "Scopes granted to the token")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	rootCmd.AddCommand(tokenCmd)

	logCmd := &cobra.Command{
		Use:   "log-activity <userId>",
		Short: "Record an activity through the activity service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _ := cmd.Flags().GetString("api")
			in := activityInput{UserID: args[0]}
			in.Type, _ = cmd.Flags().GetString("type")
			in.Duration, _ = cmd.Flags().GetInt("duration")
			in.Intensity, _ = cmd.Flags().GetString("intensity")
			in.CaloriesBurned, _ = cmd.Flags().GetFloat64("calories")
			return runLogActivity(api, tokenFlag, in, cmd.OutOrStdout())
		},
	}
	logCmd.Flags().String("api", "http://localhost:8081", "Activity service base URL")
	logCmd.Flags().String("type", "running", "Activity type")
	logCmd.Flags().Int("duration", 30, "Duration in minutes")
	logCmd.Flags().String("intensity", "moderate", "low, moderate or high")
	logCmd.Flags().Float64("calories", 0, "Calories burned")
	rootCmd.AddCommand(logCmd)

	recommendCmd := &cobra.Command{
		Use:   "recommend <userId>",
		Short: "Request a workout recommendation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _ := cmd.Flags().GetString("api")
			location, _ := cmd.Flags().GetString("location")
			return runRecommend(api, tokenFlag, args[0], strings.TrimSpace(location), time.Now(), cmd.OutOrStdout())
		},
	}
	recommendCmd.Flags().String("api", "http://localhost:8084", "Recommendation service base URL")
	recommendCmd.Flags().StringP("location", "l", "", "Location passed to the weather provider (required)")
	_ = recommendCmd.MarkFlagRequired("location")
	rootCmd.AddCommand(recommendCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

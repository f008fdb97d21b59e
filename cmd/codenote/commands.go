// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/codenoteai/codenote/pkg/codenote"
)

// ensureSession builds a client from the persisted session and bootstraps it.
//
// Init may rotate the token pair, so the (possibly new) cookies are saved
// back before returning.
func ensureSession(ctx context.Context, apiURL string) (*codenote.Client, error) {
	client, err := newClient(apiURL)
	if err != nil {
		return nil, err
	}

	if err := client.Session().Init(ctx); err != nil {
		if errors.Is(err, codenote.ErrNoSession) || codenote.HasCode(err, codenote.CodeMissingToken) {
			return nil, errors.New("not logged in; run 'codenote login' first")
		}
	}
	if !client.Session().Authenticated() {
		return nil, errors.New("session expired; run 'codenote login' again")
	}

	if err := saveSession(client); err != nil {
		return nil, err
	}
	return client, nil
}

// promptPassword reads a password without echoing it back.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(password), nil
}

// # Auth Commands

func newLoginCommand(apiURL *string) *cobra.Command {
	var email string
	var username string

	command := &cobra.Command{
		Use:   "login",
		Short: "Authenticate against the CodeNote API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" && username == "" {
				return errors.New("provide --email or --username")
			}

			password, err := promptPassword("Password: ")
			if err != nil {
				return err
			}

			client, err := newClient(*apiURL)
			if err != nil {
				return err
			}

			user, err := client.Session().Login(cmd.Context(), codenote.LoginInput{
				Email:    email,
				Username: username,
				Password: password,
			})
			if err != nil {
				return err
			}

			if err := saveSession(client); err != nil {
				return err
			}
			fmt.Printf("Logged in as %s\n", user.Username)
			return nil
		},
	}

	command.Flags().StringVarP(&email, "email", "e", "", "Account email")
	command.Flags().StringVarP(&username, "username", "u", "", "Account username")
	return command
}

func newLogoutCommand(apiURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient(*apiURL)
			if err != nil {
				return err
			}

			// Local teardown matters more than the server round trip.
			if err := client.Session().Logout(cmd.Context()); err != nil {
				fmt.Fprintln(os.Stderr, "Warning: server logout failed:", err)
			}
			if err := clearSession(); err != nil {
				return err
			}
			fmt.Println("Logged out")
			return nil
		},
	}
}

func newStatusCommand(apiURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := ensureSession(cmd.Context(), *apiURL)
			if err != nil {
				return err
			}

			user := client.Session().CurrentUser()
			fmt.Printf("Logged in as %s (%s)\n", user.Username, user.Email)
			if user.GitHubLogin != "" {
				fmt.Printf("GitHub: %s\n", user.GitHubLogin)
			}
			return nil
		},
	}
}

// # Repository Commands

func newReposCommand(apiURL *string) *cobra.Command {
	command := &cobra.Command{
		Use:   "repos",
		Short: "Manage registered repositories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := ensureSession(cmd.Context(), *apiURL)
			if err != nil {
				return err
			}

			repositories, err := client.Repositories(cmd.Context())
			if err != nil {
				return err
			}
			if len(repositories) == 0 {
				fmt.Println("No repositories registered; run 'codenote repos add <url>'")
				return nil
			}

			writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(writer, "ID\tNAME\tLANGUAGE\tSTARS")
			for _, repository := range repositories {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%d\n",
					repository.ID, repository.FullName, repository.Language, repository.Stars)
			}
			return writer.Flush()
		},
	}

	command.AddCommand(&cobra.Command{
		Use:   "add <github-url>",
		Short: "Register a GitHub repository for analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ensureSession(cmd.Context(), *apiURL)
			if err != nil {
				return err
			}

			repository, err := client.CreateRepository(cmd.Context(), codenote.CreateRepositoryInput{
				URL: args[0],
			})
			if err != nil {
				return err
			}
			fmt.Printf("Registered %s (%s)\n", repository.FullName, repository.ID)
			return nil
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Unregister a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ensureSession(cmd.Context(), *apiURL)
			if err != nil {
				return err
			}
			if err := client.DeleteRepository(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Removed")
			return nil
		},
	})

	return command
}

// # Analysis Commands

func newAnalyzeCommand(apiURL *string) *cobra.Command {
	command := &cobra.Command{
		Use:   "analyze <repository-id>",
		Short: "Start an analysis run for a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ensureSession(cmd.Context(), *apiURL)
			if err != nil {
				return err
			}

			run, err := client.StartAnalysis(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Analysis %s is %s\n", run.ID, run.Status)
			return nil
		},
	}

	command.AddCommand(&cobra.Command{
		Use:   "show <analysis-id>",
		Short: "Show the state of an analysis run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ensureSession(cmd.Context(), *apiURL)
			if err != nil {
				return err
			}

			run, err := client.GetAnalysis(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Analysis %s: %s\n", run.ID, run.Status)
			switch run.Status {
			case "completed":
				fmt.Printf("Quality %.1f  Security %.1f  Performance %.1f  (%d files)\n",
					run.QualityScore, run.SecurityScore, run.PerformanceScore, run.FilesAnalyzed)
				if run.Summary != "" {
					fmt.Println(run.Summary)
				}
				for _, issue := range run.Issues {
					fmt.Println(" -", issue)
				}
			case "failed":
				fmt.Println("Reason:", run.FailureReason)
			}
			return nil
		},
	})

	return command
}

func newStatsCommand(apiURL *string) *cobra.Command {
	var generate bool

	command := &cobra.Command{
		Use:   "stats [github-login]",
		Short: "Show the contribution dashboard",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ensureSession(cmd.Context(), *apiURL)
			if err != nil {
				return err
			}

			var stats *codenote.UserStats
			if generate || len(args) > 0 {
				login := ""
				if len(args) > 0 {
					login = args[0]
				}
				stats, err = client.GenerateUserStats(cmd.Context(), login)
			} else {
				stats, err = client.UserStats(cmd.Context())
			}
			if err != nil {
				return err
			}

			fmt.Printf("Dashboard for %s (generated %s)\n",
				stats.GitHubLogin, stats.GeneratedAt.Format("2006-01-02 15:04"))
			fmt.Printf("Repos: %d  Stars: %d  Forks: %d  Followers: %d  Impact: %.1f\n",
				stats.TotalRepos, stats.TotalStars, stats.TotalForks, stats.Followers, stats.ImpactScore)

			if len(stats.Monthly) > 0 {
				months := make([]string, 0, len(stats.Monthly))
				for _, month := range stats.Monthly {
					months = append(months, fmt.Sprintf("%s:%d", month.Month, month.Commits))
				}
				fmt.Println("Activity:", strings.Join(months, " "))
			}
			return nil
		},
	}

	command.Flags().BoolVar(&generate, "generate", false, "Regenerate the dashboard before showing it")
	return command
}

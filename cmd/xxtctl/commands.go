package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/xxt-hub/xxt-signin/config"
	"github.com/xxt-hub/xxt-signin/internal/application/command"
	"github.com/xxt-hub/xxt-signin/internal/application/query"
	"github.com/xxt-hub/xxt-signin/internal/domain/activity"
	"github.com/xxt-hub/xxt-signin/internal/domain/course"
	"github.com/xxt-hub/xxt-signin/internal/infrastructure/external/chaoxing"
	"github.com/xxt-hub/xxt-signin/internal/infrastructure/persistence/postgres"
	"github.com/xxt-hub/xxt-signin/pkg/redact"
	"github.com/xxt-hub/xxt-signin/pkg/timeutil"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "xxtctl",
		Short: "Chaoxing sign-in helper",
		Long: `xxtctl binds Chaoxing accounts to chat identities, refreshes course
activities and submits sign-ins on their behalf.

Example usage:
  xxtctl migrate
  xxtctl login --phone 18212345678 --password secret --chat-id 1001
  xxtctl courses --chat-id 1001
  xxtctl activities --chat-id 1001 --course 3
  xxtctl signin --chat-id 1001 --activity 21
  xxtctl logout --chat-id 1001
  xxtctl ban --phone 18212345678`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newMigrateCmd(),
		newLoginCmd(),
		newCoursesCmd(),
		newActivitiesCmd(),
		newSignInCmd(),
		newLogoutCmd(),
		newSetBanCmd("ban", true),
		newSetBanCmd("unban", false),
	)
	return root
}

// withApp loads configuration, wires the app and runs fn under the command
// timeout.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := setupLogger(cfg)

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.App.CommandTimeout)
	defer cancel()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func newMigrateCmd() *cobra.Command {
	var down bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				migrator := postgres.NewMigrator(a.db)
				if down {
					if err := migrator.Rollback(ctx); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "rolled back the last migration")
					return nil
				}
				ran, err := migrator.Migrate(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", ran)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "roll back the last migration")
	return cmd
}

func newLoginCmd() *cobra.Command {
	var c command.OnboardUserCommand
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to Chaoxing and bind the account to a chat identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				res, err := a.onboardHandler().Handle(ctx, c)
				if err != nil {
					return explain(err)
				}
				printOnboarded(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&c.Phone, "phone", "", "login phone number")
	cmd.Flags().StringVar(&c.Password, "password", "", "login password")
	cmd.Flags().StringVar(&c.ChatID, "chat-id", "", "chat identity to bind")
	cmd.Flags().BoolVar(&c.IsAdmin, "admin", false, "grant admin rights")
	_ = cmd.MarkFlagRequired("phone")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("chat-id")
	return cmd
}

func newCoursesCmd() *cobra.Command {
	var q query.ListCoursesQuery
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "List the stored courses of a bound account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				res, err := a.coursesHandler().Handle(ctx, q)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d course(s) for %s\n", len(res.Courses), res.User.Name)
				printCourses(cmd.OutOrStdout(), res.Courses)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&q.ChatID, "chat-id", "", "bound chat identity")
	_ = cmd.MarkFlagRequired("chat-id")
	return cmd
}

func newActivitiesCmd() *cobra.Command {
	var q query.GetCourseActivitiesQuery
	cmd := &cobra.Command{
		Use:   "activities",
		Short: "Refresh and list sign-in activities of a course",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				res, err := a.activitiesHandler().Handle(ctx, q)
				if err != nil {
					return explain(err)
				}
				printActivities(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&q.ChatID, "chat-id", "", "bound chat identity")
	cmd.Flags().Int64Var(&q.CourseID, "course", 0, "stored course id")
	_ = cmd.MarkFlagRequired("chat-id")
	_ = cmd.MarkFlagRequired("course")
	return cmd
}

func newSignInCmd() *cobra.Command {
	var c command.SignInCommand
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in to a stored activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				res, err := a.signInHandler().Handle(ctx, c)
				if err != nil {
					if res != nil && errors.Is(err, chaoxing.ErrSignInRejected) {
						fmt.Fprintf(cmd.OutOrStdout(), "sign-in refused after %d attempt(s)\n", res.Attempts)
					}
					return explain(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "signed in to %s (attempts: %d)\n", res.Activity.Name, res.Attempts)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&c.ChatID, "chat-id", "", "bound chat identity")
	cmd.Flags().Int64Var(&c.ActivityID, "activity", 0, "stored activity id")
	_ = cmd.MarkFlagRequired("chat-id")
	_ = cmd.MarkFlagRequired("activity")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	var c command.LogoutCommand
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Unbind a chat identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				res, err := a.logoutHandler().Handle(ctx, c)
				if err != nil {
					return explain(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "logged out %s\n", res.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&c.ChatID, "chat-id", "", "bound chat identity")
	_ = cmd.MarkFlagRequired("chat-id")
	return cmd
}

func newSetBanCmd(use string, banned bool) *cobra.Command {
	c := command.SetBanCommand{Banned: banned}
	cmd := &cobra.Command{
		Use:   use,
		Short: verbFor(banned) + " an account by phone or chat identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				res, err := a.setBanHandler().Handle(ctx, c)
				if err != nil {
					return err
				}
				printBanState(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&c.Phone, "phone", "", "login phone number")
	cmd.Flags().StringVar(&c.ChatID, "chat-id", "", "bound chat identity")
	cmd.MarkFlagsOneRequired("phone", "chat-id")
	cmd.MarkFlagsMutuallyExclusive("phone", "chat-id")
	return cmd
}

// ══════════════════════════════════════════════════════════════════════════════
// OUTPUT
// ══════════════════════════════════════════════════════════════════════════════

// explain prefixes the platform's own message when there is one.
func explain(err error) error {
	if msg := chaoxing.PlatformMessage(err); msg != "" {
		return fmt.Errorf("%s (%w)", msg, err)
	}
	return err
}

func printOnboarded(w io.Writer, res *command.OnboardUserResult) {
	u := res.User
	fmt.Fprintf(w, "bound %s (%s) as user %d\n", u.Name, redact.Phone(u.Phone), u.ID)
	printCourses(w, res.Courses)
}

func printCourses(w io.Writer, courses []*course.Course) {
	if len(courses) == 0 {
		fmt.Fprintln(w, "no courses")
		return
	}
	for _, c := range courses {
		fmt.Fprintf(w, "  [%d] %s\n", c.ID, c.DisplayName())
	}
}

func printActivities(w io.Writer, res *query.GetCourseActivitiesResult) {
	fmt.Fprintf(w, "%s: %d open activit(ies) fetched\n", res.Course.DisplayName(), res.Fetched)
	if len(res.Activities) == 0 {
		fmt.Fprintln(w, "no activities")
		return
	}
	for _, a := range res.Activities {
		fmt.Fprintln(w, activityLine(a))
	}
}

func activityLine(a *activity.Activity) string {
	state := "closed"
	if a.IsOpen() {
		state = "open"
	}
	line := fmt.Sprintf("  [%d] %s | %s | %s | %s",
		a.ID, a.Name, a.TypeName, timeutil.FormatWindow(a.StartTime, a.EndTime), state)
	if a.Solve != "" {
		line += " | " + a.Solve
	}
	return line
}

func verbFor(banned bool) string {
	if banned {
		return "Ban"
	}
	return "Unban"
}

func printBanState(w io.Writer, res *command.SetBanResult) {
	state := "unbanned"
	if res.User.IsBanned {
		state = "banned"
	}
	if !res.Changed {
		fmt.Fprintf(w, "%s is already %s\n", redact.Phone(res.User.Phone), state)
		return
	}
	fmt.Fprintf(w, "%s is now %s\n", redact.Phone(res.User.Phone), state)
}

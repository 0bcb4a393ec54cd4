package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"hostguard/internal/app"
	"hostguard/internal/verification/models"
	id "hostguard/pkg/domain"
)

// opener builds the service graph for one command and returns its release func.
type opener func(ctx context.Context) (*app.App, func(), error)

type cli struct {
	open opener
}

func newRootCmd(open opener) *cobra.Command {
	c := &cli{open: open}
	root := &cobra.Command{
		Use:           "hostguardctl",
		Short:         "Operate the hostguard verification service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		c.migrateCmd(),
		c.verifyCmd(),
		c.userCmd(),
		c.trialCmd(),
		c.subscriptionCmd(),
		c.tokenCmd(),
	)
	return root
}

func (c *cli) run(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) (any, error)) error {
	ctx := cmd.Context()
	a, release, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer release()

	out, err := fn(ctx, a)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, a *app.App) (any, error) {
				if a.DB == nil {
					return nil, fmt.Errorf("DATABASE_URL is not set")
				}
				if err := a.Migrate(ctx); err != nil {
					return nil, err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
				return nil, nil
			})
		},
	}
}

func (c *cli) verifyCmd() *cobra.Command {
	var userID, phone string
	cmd := &cobra.Command{
		Use:   "verify <text>",
		Short: "Run one verification as a registered user",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := models.Request{
				Requester: models.Requester{Phone: phone},
				Text:      strings.Join(args, " "),
				Channel:   models.ChannelCLI,
			}
			if userID != "" {
				uid, err := id.ParseUserID(userID)
				if err != nil {
					return fmt.Errorf("--user: %w", err)
				}
				req.Requester.UserID = uid
			}
			if req.Requester.UserID.IsNil() && req.Requester.Phone == "" {
				return fmt.Errorf("one of --user or --phone is required")
			}
			return c.run(cmd, func(ctx context.Context, a *app.App) (any, error) {
				return a.Verification.Verify(ctx, req), nil
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "requesting user ID")
	cmd.Flags().StringVar(&phone, "phone", "", "requesting user's registered phone")
	return cmd
}

func (c *cli) userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage registered users",
	}
	var email, phone string
	create := &cobra.Command{
		Use:   "create",
		Short: "Register a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, a *app.App) (any, error) {
				return a.Accounts.CreateUser(ctx, email, phone)
			})
		},
	}
	create.Flags().StringVar(&email, "email", "", "email address")
	create.Flags().StringVar(&phone, "phone", "", "phone number")
	cmd.AddCommand(create)
	return cmd
}

func (c *cli) trialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trial",
		Short: "Inspect free-trial state",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a user's trial and subscription status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := id.ParseUserID(args[0])
			if err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, a *app.App) (any, error) {
				return a.Quota.Status(ctx, uid)
			})
		},
	})
	return cmd
}

func (c *cli) subscriptionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscription",
		Short: "Manage subscriptions",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "extend <user-id>",
		Short: "Extend a user's subscription by one period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := id.ParseUserID(args[0])
			if err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, a *app.App) (any, error) {
				return a.Accounts.ExtendSubscription(ctx, uid)
			})
		},
	})
	return cmd
}

type tokenOutput struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (c *cli) tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue bearer tokens",
	}
	var ttl time.Duration
	issue := &cobra.Command{
		Use:   "issue <user-id>",
		Short: "Issue an access token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := id.ParseUserID(args[0])
			if err != nil {
				return err
			}
			if ttl <= 0 {
				return fmt.Errorf("--ttl must be positive")
			}
			return c.run(cmd, func(_ context.Context, a *app.App) (any, error) {
				token, err := a.Tokens.GenerateAccessToken(uid, ttl)
				if err != nil {
					return nil, err
				}
				return tokenOutput{AccessToken: token, ExpiresAt: time.Now().Add(ttl).UTC()}, nil
			})
		},
	}
	issue.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	cmd.AddCommand(issue)
	return cmd
}

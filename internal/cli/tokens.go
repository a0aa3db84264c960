package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/webapp-skeleton/cms/internal/models"
	"github.com/webapp-skeleton/cms/internal/modules/auth/token"
	"github.com/webapp-skeleton/cms/internal/pkg/output"
)

func newTokensCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Manage API tokens in the CMS database",
	}

	var in token.CreateInput
	var lifespan time.Duration
	create := &cobra.Command{
		Use:   "create",
		Short: "Issue a token and print its access key once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, done, err := opts.deps.tokens(opts.configPath)
			if err != nil {
				return err
			}
			defer done()

			in.TTL = lifespan
			issued, err := svc.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), issued)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s token %q (%s)\n", issued.Type, issued.Name, issued.DocumentID)
			if issued.ExpiresAt != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "expires %s\n", issued.ExpiresAt.Format(time.RFC3339))
			}
			fmt.Fprintln(cmd.OutOrStdout(), issued.AccessKey)
			return nil
		},
	}
	create.Flags().StringVar(&in.Name, "name", "", "unique token name")
	create.Flags().StringVar(&in.Description, "description", "", "free-form description")
	create.Flags().StringVar(&in.Type, "type", models.TokenReadOnly, "read-only or full-access")
	create.Flags().DurationVar(&lifespan, "ttl", 0, "lifetime, e.g. 720h (0 never expires)")
	_ = create.MarkFlagRequired("name")

	list := &cobra.Command{
		Use:   "list",
		Short: "List issued tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, done, err := opts.deps.tokens(opts.configPath)
			if err != nil {
				return err
			}
			defer done()

			rows, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			tbl := output.NewTable(cmd.OutOrStdout(), "id", "name", "type", "state", "last used")
			now := time.Now()
			for _, t := range rows {
				state := "active"
				switch {
				case t.RevokedAt != nil:
					state = "revoked"
				case !t.Usable(now):
					state = "expired"
				}
				lastUsed := "never"
				if t.LastUsedAt != nil {
					lastUsed = t.LastUsedAt.Format(time.DateTime)
				}
				tbl.AddRow(t.DocumentID, t.Name, t.Type, state, lastUsed)
			}
			return tbl.Render()
		},
	}

	revoke := &cobra.Command{
		Use:   "revoke <id|documentId|name>",
		Short: "Revoke a token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := opts.deps.tokens(opts.configPath)
			if err != nil {
				return err
			}
			defer done()

			t, err := svc.Revoke(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("revoke %s: %w", args[0], err)
			}
			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), t)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revoked %q\n", t.Name)
			return nil
		},
	}

	cmd.AddCommand(create, list, revoke)
	return cmd
}

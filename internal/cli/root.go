// Package cli implements skeletonctl, the operator command line for the CMS:
// reading content the way the site does, issuing API tokens and checking the
// billing dashboard.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/webapp-skeleton/cms/internal/backendclient"
	"github.com/webapp-skeleton/cms/internal/cmsclient"
	"github.com/webapp-skeleton/cms/internal/config"
	"github.com/webapp-skeleton/cms/internal/database"
	"github.com/webapp-skeleton/cms/internal/modules/auth/token"
	"github.com/webapp-skeleton/cms/internal/pkg/jwt"
	"go.uber.org/zap"
)

// deps builds the collaborators lazily so a command only needs the config it
// actually touches.
type deps struct {
	cms     func(log *zap.Logger) (*cmsclient.Client, error)
	backend func(log *zap.Logger) (*backendclient.Client, error)
	tokens  func(configPath string) (*token.Service, func(), error)
}

func defaultDeps() deps {
	return deps{
		cms: func(log *zap.Logger) (*cmsclient.Client, error) {
			cfg, err := config.LoadClient()
			if err != nil {
				return nil, err
			}
			return cmsclient.FromConfig(cfg, log), nil
		},
		backend: func(log *zap.Logger) (*backendclient.Client, error) {
			cfg, err := config.LoadClient()
			if err != nil {
				return nil, err
			}
			return backendclient.FromConfig(cfg, log), nil
		},
		tokens: func(configPath string) (*token.Service, func(), error) {
			cfg, err := config.Load(configPath)
			if err != nil {
				return nil, nil, err
			}
			db, err := database.Connect(cfg, true)
			if err != nil {
				return nil, nil, fmt.Errorf("database: %w", err)
			}
			closeDB := func() {
				if sqlDB, err := db.DB(); err == nil {
					_ = sqlDB.Close()
				}
			}
			return token.NewService(db, jwt.NewSigner(cfg.JWTSecret)), closeDB, nil
		},
	}
}

type rootOptions struct {
	configPath string
	jsonOut    bool
	verbose    bool
	deps       deps
}

func (o *rootOptions) logger() *zap.Logger {
	if !o.verbose {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// NewRootCommand returns the skeletonctl command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(defaultDeps())
}

func newRootCommand(d deps) *cobra.Command {
	opts := &rootOptions{deps: d}
	root := &cobra.Command{
		Use:   "skeletonctl",
		Short: "Operate the skeleton CMS",
		Long: `skeletonctl reads published content through the public API, manages
API tokens directly in the database and shows the billing dashboard.

Examples:
  skeletonctl articles list --page 2
  skeletonctl articles get hello-world --json
  skeletonctl tokens create --name deploy --type full-access
  skeletonctl dashboard`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "server config file, used by token commands (default "+config.DefaultConfigPath+")")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "print JSON instead of a table")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(newArticlesCommand(opts), newTokensCommand(opts), newDashboardCommand(opts))
	return root
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

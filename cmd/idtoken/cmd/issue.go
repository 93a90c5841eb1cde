package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cybergodev/idtoken"
)

type issueOptions struct {
	tokenFlags
	ttl    time.Duration
	claims []string
}

func newIssueCommand(global *globalOptions) *cobra.Command {
	opts := &issueOptions{}

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a signed token",
		Long: `Issue a signed token for an audience.

The payload carries iss, aud, exp, iat, nonce and jti, followed by any
--claim values. A random nonce is generated when --nonce is not given.`,
		Example: `  idtoken issue --issuer https://example.com --audience client123 --key-file secret.key
  idtoken issue -a RS256 --key-file private.pem --audience client123 --claim role=admin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIssue(cmd, global, opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().DurationVar(&opts.ttl, "ttl", 0, "token lifetime (overrides token_ttl)")
	cmd.Flags().StringArrayVar(&opts.claims, "claim", nil, "additional string claim as key=value (repeatable)")
	return cmd
}

func runIssue(cmd *cobra.Command, global *globalOptions, opts *issueOptions) error {
	cfg, err := global.loadConfig()
	if err != nil {
		return err
	}
	if err := opts.apply(cmd, &cfg); err != nil {
		return err
	}
	if cmd.Flags().Changed("key") {
		cfg.SigningKey, cfg.SigningKeyFile = opts.key, ""
	}
	if cmd.Flags().Changed("key-file") {
		cfg.SigningKey, cfg.SigningKeyFile = "", opts.keyFile
	}
	if cmd.Flags().Changed("ttl") {
		cfg.TokenTTL = opts.ttl
	}

	extra, err := parseClaims(opts.claims)
	if err != nil {
		return err
	}

	logger, err := global.newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	processor, err := idtoken.New(cfg, idtoken.WithLogger(logger), idtoken.WithClock(opts.clock()))
	if err != nil {
		return err
	}
	defer processor.Close()

	nonce := opts.nonce
	if nonce == "" {
		nonce = idtoken.NewNonce()
		fmt.Fprintf(cmd.ErrOrStderr(), "nonce: %s\n", nonce)
	}

	token, err := processor.IssueWithClaims(context.Background(), opts.audience, nonce, extra)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cybergodev/idtoken"
)

type verifyOptions struct {
	tokenFlags
	algorithms []string
}

func newVerifyCommand(global *globalOptions) *cobra.Command {
	opts := &verifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify TOKEN",
		Short: "Verify a token and print its contents",
		Long: `Verify a token against the expected issuer, audience and nonce.

The token is read from stdin when TOKEN is "-". On success the decoded
header and payload are printed as JSON; any failure exits non-zero.`,
		Example: `  idtoken verify --issuer https://example.com --audience client123 --nonce n0nce --key-file secret.key "$TOKEN"
  echo "$TOKEN" | idtoken verify -a RS256 --key-file public.pem --audience client123 --nonce n0nce -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, args, global, opts)
		},
	}

	opts.register(cmd)
	_ = cmd.MarkFlagRequired("nonce")
	cmd.Flags().StringSliceVar(&opts.algorithms, "algorithms", nil, "permitted algorithms (default: the configured algorithm)")
	return cmd
}

func runVerify(cmd *cobra.Command, args []string, global *globalOptions, opts *verifyOptions) error {
	tokenString, err := readToken(cmd, args)
	if err != nil {
		return err
	}

	cfg, err := global.loadConfig()
	if err != nil {
		return err
	}
	if err := opts.apply(cmd, &cfg); err != nil {
		return err
	}
	if cmd.Flags().Changed("key") {
		cfg.VerificationKey, cfg.VerificationKeyFile = opts.key, ""
	}
	if cmd.Flags().Changed("key-file") {
		cfg.VerificationKey, cfg.VerificationKeyFile = "", opts.keyFile
	}
	if cmd.Flags().Changed("algorithms") {
		cfg.PermittedAlgorithms = cfg.PermittedAlgorithms[:0:0]
		for _, name := range opts.algorithms {
			alg, err := idtoken.ParseAlgorithm(name)
			if err != nil {
				return err
			}
			cfg.PermittedAlgorithms = append(cfg.PermittedAlgorithms, alg)
		}
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

	token, err := processor.Verify(context.Background(), tokenString, opts.audience, opts.nonce)
	if err != nil {
		return fmt.Errorf("token rejected (%s): %w", idtoken.Kind(err), err)
	}

	return printJSON(cmd, token)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

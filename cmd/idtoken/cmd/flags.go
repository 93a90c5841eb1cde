package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cybergodev/idtoken"
)

// tokenFlags are the flags shared by issue and verify. Each one overrides
// the loaded configuration only when it was set on the command line.
type tokenFlags struct {
	algorithm string
	issuer    string
	audience  string
	nonce     string
	key       string
	keyFile   string
	now       int64
}

func (f *tokenFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.algorithm, "algorithm", "a", "", "signing algorithm (HS256, HS384, HS512, RS256, RS384, RS512)")
	flags.StringVar(&f.issuer, "issuer", "", "issuer (iss claim)")
	flags.StringVar(&f.audience, "audience", "", "audience (aud claim)")
	flags.StringVar(&f.nonce, "nonce", "", "nonce claim")
	flags.StringVarP(&f.key, "key", "k", "", "inline key: HMAC secret or PEM key")
	flags.StringVar(&f.keyFile, "key-file", "", "file holding the HMAC secret or PEM key")
	flags.Int64Var(&f.now, "now", 0, "override the current time (unix seconds)")
	_ = cmd.MarkFlagRequired("audience")
	cmd.MarkFlagsMutuallyExclusive("key", "key-file")
}

// apply overlays the common flags onto cfg.
func (f *tokenFlags) apply(cmd *cobra.Command, cfg *idtoken.Config) error {
	flags := cmd.Flags()
	if flags.Changed("algorithm") {
		alg, err := idtoken.ParseAlgorithm(f.algorithm)
		if err != nil {
			return err
		}
		cfg.Algorithm = alg
	}
	if flags.Changed("issuer") {
		cfg.Issuer = f.issuer
	}
	return nil
}

func (f *tokenFlags) clock() idtoken.Clock {
	if f.now == 0 {
		return idtoken.SystemClock{}
	}
	return idtoken.FixedClock(time.Unix(f.now, 0))
}

// parseClaims turns repeated key=value flags into an ordered claim set.
func parseClaims(pairs []string) (idtoken.ClaimSet, error) {
	claims := idtoken.NewClaimSet(len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return idtoken.ClaimSet{}, fmt.Errorf("invalid claim %q: expected key=value", pair)
		}
		claims.Set(key, value)
	}
	return claims, nil
}

// readToken returns the single token argument, reading stdin for "-".
func readToken(cmd *cobra.Command, args []string) (string, error) {
	if args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), idtoken.MaxTokenLength+1))
	if err != nil {
		return "", fmt.Errorf("failed to read token from stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

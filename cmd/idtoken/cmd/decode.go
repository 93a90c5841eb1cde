package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cybergodev/idtoken"
)

func newDecodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "decode TOKEN",
		Short: "Decode a token without verifying it",
		Long: `Decode the header and payload of a token and print them as JSON.

The signature is NOT checked. Use verify before trusting any claim.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokenString, err := readToken(cmd, args)
			if err != nil {
				return err
			}
			token, err := idtoken.Parse(tokenString)
			if err != nil {
				return fmt.Errorf("token rejected (%s): %w", idtoken.Kind(err), err)
			}
			return printJSON(cmd, token)
		},
	}
}

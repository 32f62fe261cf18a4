package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/roomchat-server/internal/app"
	"github.com/vovakirdan/roomchat-server/internal/auth"
)

func newTokenCmd(root *rootOptions) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a join token for a subject",
		Long:  "Mint a signed join token using the server's JWT settings. The token is not bound to a stored account.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if subject == "" {
				return errors.New("--sub is required")
			}

			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}

			jwtCfg := app.JWTConfig(&cfg)
			if ttl > 0 {
				jwtCfg.TTL = ttl
			}

			token, err := auth.GenerateToken(jwtCfg, 0, subject)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&subject, "sub", "", "identity to embed as the token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to token_ttl from config)")

	return cmd
}

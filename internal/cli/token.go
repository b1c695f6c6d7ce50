package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"despesify/internal/service"
)

func newTokenCommand(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API bearer token signed with DESPESIFY_AUTH_JWT_SECRET",
		Long: `Mint an access token for local testing of the HTTP API. Production
tokens are issued by the expense app's auth service with the same secret.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rawID, _ := cmd.Flags().GetString("user-id")
			email, _ := cmd.Flags().GetString("email")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			userID := uuid.New()
			if rawID != "" {
				parsed, err := uuid.Parse(rawID)
				if err != nil {
					return fmt.Errorf("invalid --user-id: %w", err)
				}
				userID = parsed
			}

			token, err := service.NewAuthService(st.cfg.Auth).IssueToken(userID, email, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().String("user-id", "", "User id claim (default: random)")
	cmd.Flags().String("email", "", "Email claim")
	cmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
	return cmd
}

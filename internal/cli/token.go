package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/franckalain/nutritrack/internal/server"
	"github.com/spf13/cobra"
)

// tokenOutput is the JSON shape of the token command
type tokenOutput struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func newTokenCmd(o *options) *cobra.Command {
	var (
		secret string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the API server",
		Long: "Signs an HS256 token for --user with the server's JWT secret, for calling the REST " +
			"and websocket API during development.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("NUTRITRACK_JWT_SECRET")
			}
			if secret == "" {
				return errors.New("no secret: pass --secret or set NUTRITRACK_JWT_SECRET")
			}
			if ttl <= 0 {
				return fmt.Errorf("ttl must be positive, got %s", ttl)
			}

			expires := time.Now().Add(ttl).UTC()
			tok, err := server.IssueToken(secret, o.user(), ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			out := tokenOutput{UserID: o.user(), Token: tok, ExpiresAt: expires.Truncate(time.Second)}
			return o.print(cmd.OutOrStdout(), out, func(w io.Writer) {
				fmt.Fprintln(w, tok)
			})
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "JWT secret (default: $NUTRITRACK_JWT_SECRET)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

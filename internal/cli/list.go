package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/passkeeper/internal/vault/models"
)

func newListCmd(app *App) *cobra.Command {
	var rpID string
	var userID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored passkeys",
		Long:  "List stored passkeys. With --rp and --user, only the passkeys registered for that relying party and user are shown.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var passkeys []models.Passkey
			var err error
			if rpID != "" {
				passkeys, err = app.credentials.List(ctx, rpID, userID)
			} else {
				passkeys, err = app.credentials.All(ctx)
			}
			if err != nil {
				return err
			}

			if len(passkeys) == 0 {
				fmt.Fprintln(app.out, "no passkeys stored")
				return nil
			}
			for _, p := range passkeys {
				fmt.Fprintln(app.out, p.String())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rpID, "rp", "", "relying party id to filter by")
	cmd.Flags().StringVar(&userID, "user", "", "user id to filter by")
	cmd.MarkFlagsRequiredTogether("rp", "user")

	return cmd
}

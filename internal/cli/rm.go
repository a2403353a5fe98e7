package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/passkeeper/internal/common"
)

func newRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <credential-id>",
		Short: "Remove a stored passkey",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			err := app.credentials.Revoke(cmd.Context(), id)
			if errors.Is(err, common.ErrorNotFound) {
				// Removing an already absent credential is not worth failing over.
				fmt.Fprintf(app.out, "no passkey with id %s\n", id)
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(app.out, "removed passkey %s\n", id)
			return nil
		},
	}
}

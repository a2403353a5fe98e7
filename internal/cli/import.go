package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/passkeeper/internal/cryptox"
	"github.com/dmitrijs2005/passkeeper/internal/vault/exchange"
	"github.com/dmitrijs2005/passkeeper/internal/vault/models"
	"github.com/dmitrijs2005/passkeeper/internal/vault/services"
)

func newImportCmd(app *App) *cobra.Command {
	var dir string
	var from string
	var passphrase bool
	var remote bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a vault exported by another device",
		Long: "Import publishes this device's open box, waits for the exporting device to answer " +
			"with a sealed box, and merges the decrypted vault into the local store. " +
			"By default the boxes are exchanged through a shared directory (--dir); " +
			"with --remote they go through the S3 backend. " +
			"With --passphrase no key exchange happens: an existing sealed box file (--from) " +
			"is decrypted with a passphrase.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var v *models.Vault
			var err error
			switch {
			case passphrase:
				v, err = importWithPassphrase(app, from)
			case remote:
				v, err = importRemote(ctx, app)
			default:
				v, err = importFromDir(ctx, app, dir)
			}
			if err != nil {
				return err
			}

			result, err := app.vault.Import(ctx, v)
			if err != nil {
				return err
			}

			fmt.Fprintf(app.out, "imported %d passkeys\n", result.Imported)
			if len(result.Skipped) > 0 {
				fmt.Fprintf(app.out, "skipped (local copy is newer): %s\n", strings.Join(result.Skipped, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "exchange", "shared directory for box files")
	cmd.Flags().StringVar(&from, "from", "", "path to a passphrase-sealed box file")
	cmd.Flags().BoolVar(&passphrase, "passphrase", false, "decrypt an existing sealed box with a passphrase")
	cmd.Flags().BoolVar(&remote, "remote", false, "exchange boxes through the S3 backend")
	cmd.MarkFlagsMutuallyExclusive("passphrase", "remote")
	cmd.MarkFlagsRequiredTogether("passphrase", "from")

	return cmd
}

func importWithPassphrase(app *App, from string) (*models.Vault, error) {
	sealed, err := exchange.LoadSealedBox(from)
	if err != nil {
		return nil, err
	}
	pw, err := GetPassphrase(app.out, "Enter passphrase")
	if err != nil {
		return nil, err
	}
	return services.DecodeVaultWithPassphrase(pw, sealed)
}

func importFromDir(ctx context.Context, app *App, dir string) (*models.Vault, error) {
	kp, err := cryptox.NewKeyPair()
	if err != nil {
		return nil, err
	}

	written, err := exchange.WriteOpenBox(dir, &models.OpenBox{PublicKey: kp.PublicKey()})
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(app.out, "open box written to %s\n", written)
	fmt.Fprintf(app.out, "waiting for the exporting device to place a sealed box in %s\n", dir)

	waitCtx, cancel := context.WithTimeout(ctx, app.config.ImportWaitTimeout)
	defer cancel()

	path, err := exchange.WaitForSealedBox(waitCtx, dir)
	if err != nil {
		return nil, err
	}
	sealed, err := exchange.LoadSealedBox(path)
	if err != nil {
		return nil, err
	}
	return services.DecodeVault(kp, sealed)
}

func importRemote(ctx context.Context, app *App) (*models.Vault, error) {
	kp, err := cryptox.NewKeyPair()
	if err != nil {
		return nil, err
	}

	s3 := app.s3Exchange()
	key := exchange.TransferKey()
	if _, err := s3.PutOpenBox(ctx, key, &models.OpenBox{PublicKey: kp.PublicKey()}); err != nil {
		return nil, err
	}
	fmt.Fprintf(app.out, "open box uploaded, transfer key: %s\n", key)
	fmt.Fprintf(app.out, "run 'passkeeper export --remote --transfer %s' on the exporting device\n", key)

	waitCtx, cancel := context.WithTimeout(ctx, app.config.ImportWaitTimeout)
	defer cancel()

	sealed, err := s3.WaitForSealedBox(waitCtx, key)
	if err != nil {
		return nil, err
	}
	return services.DecodeVault(kp, sealed)
}

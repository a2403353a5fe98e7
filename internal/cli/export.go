package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/passkeeper/internal/common"
	"github.com/dmitrijs2005/passkeeper/internal/vault/exchange"
)

func newExportCmd(app *App) *cobra.Command {
	var peer string
	var out string
	var passphrase bool
	var remote bool
	var transfer string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the vault as a sealed box",
		Long: "Export encrypts a snapshot of the vault into a sealed box. " +
			"By default the box is sealed to the receiving device's open box (--peer). " +
			"With --remote the open box is fetched from the S3 exchange under the transfer key the importer printed. " +
			"With --passphrase the box is sealed to a passphrase instead of a key pair.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if passphrase {
				pw, err := GetNewPassphrase(app.out)
				if err != nil {
					return err
				}
				sealed, err := app.vault.ExportWithPassphrase(ctx, pw)
				if err != nil {
					return err
				}
				if out == "" {
					out = "."
				}
				path, err := exchange.WriteSealedBox(out, sealed)
				if err != nil {
					return err
				}
				fmt.Fprintf(app.out, "sealed box written to %s\n", path)
				return nil
			}

			if remote {
				s3 := app.s3Exchange()
				open, err := s3.GetOpenBox(ctx, transfer+common.OpenBoxFileExt)
				if err != nil {
					return err
				}
				sealed, err := app.vault.Export(ctx, open)
				if err != nil {
					return err
				}
				key, err := s3.PutSealedBox(ctx, transfer, sealed)
				if err != nil {
					return err
				}
				fmt.Fprintf(app.out, "sealed box uploaded as %s\n", key)
				return nil
			}

			if peer == "" {
				return fmt.Errorf("one of --peer, --remote or --passphrase is required")
			}
			open, err := exchange.LoadOpenBox(peer)
			if err != nil {
				return err
			}
			sealed, err := app.vault.Export(ctx, open)
			if err != nil {
				return err
			}
			if out == "" {
				out = strings.TrimSuffix(peer, common.OpenBoxFileExt) + common.SealedBoxFileExt
			}
			path, err := exchange.WriteSealedBox(out, sealed)
			if err != nil {
				return err
			}
			fmt.Fprintf(app.out, "sealed box written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&peer, "peer", "", "path to the receiving device's open box file")
	cmd.Flags().StringVar(&out, "out", "", "file or directory to write the sealed box to")
	cmd.Flags().BoolVar(&passphrase, "passphrase", false, "seal to a passphrase instead of a key pair")
	cmd.Flags().BoolVar(&remote, "remote", false, "exchange boxes through the S3 backend")
	cmd.Flags().StringVar(&transfer, "transfer", "", "transfer key printed by the remote importer")
	cmd.MarkFlagsMutuallyExclusive("passphrase", "peer")
	cmd.MarkFlagsMutuallyExclusive("passphrase", "remote")
	cmd.MarkFlagsMutuallyExclusive("peer", "remote")
	cmd.MarkFlagsRequiredTogether("remote", "transfer")

	return cmd
}

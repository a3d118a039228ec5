package cmd

import (
	"fmt"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
)

const projectURL = "https://github.com/danfragoso/termpod"

var aboutCmd = &cobra.Command{
	Use:   "about",
	Short: "Show version, credits and a QR code linking to the project",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "termpod %s\n", Version)
		fmt.Fprintln(out, "A terminal music player for local libraries")
		fmt.Fprintln(out, "Inspired by classic music players")
		fmt.Fprintln(out)

		qr, err := qrcode.New(projectURL, qrcode.Medium)
		if err != nil {
			return fmt.Errorf("failed to generate QR code: %w", err)
		}
		fmt.Fprint(out, qr.ToSmallString(false))
		fmt.Fprintln(out, projectURL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(aboutCmd)
}

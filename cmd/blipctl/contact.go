// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"fmt"

	"github.com/ManuGH/blip-sdk-go/lime"
	"github.com/spf13/cobra"
)

func (c *CLI) newContactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Inspect CRM contacts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get <identity>",
		Short: "Print a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, err := lime.ParseIdentity(args[0])
			if err != nil {
				return fmt.Errorf("invalid identity: %w", err)
			}

			client, closeClient, err := c.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer closeClient()

			contact, err := client.Contacts().Get(cmd.Context(), identity)
			if err != nil {
				return err
			}
			return c.render(cmd.OutOrStdout(), contact)
		},
	})
	return cmd
}

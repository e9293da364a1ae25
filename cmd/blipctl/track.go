// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newTrackCmd() *cobra.Command {
	var (
		identity string
		extras   map[string]string
	)

	cmd := &cobra.Command{
		Use:     "track <category> <action>",
		Short:   "Record an analytics event",
		Example: "  blipctl track onboarding finished --identity john@0mn.io --extra plan=pro",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeClient, err := c.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer closeClient()

			return client.EventTracker().Track(cmd.Context(), args[0], args[1], identity, extras)
		},
	}
	cmd.Flags().StringVar(&identity, "identity", "", "contact the event belongs to")
	cmd.Flags().StringToStringVar(&extras, "extra", nil, "extra key=value pairs")
	return cmd
}

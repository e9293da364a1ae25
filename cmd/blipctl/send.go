// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"fmt"

	"github.com/ManuGH/blip-sdk-go/lime"
	"github.com/spf13/cobra"
)

func (c *CLI) newSendCmd() *cobra.Command {
	var mediaType string

	cmd := &cobra.Command{
		Use:   "send <to> <content>",
		Short: "Send a message",
		Long:  "Send a message to a node. Content is sent as text unless --type names a JSON media type.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := lime.ParseNode(args[0])
			if err != nil {
				return fmt.Errorf("invalid destination: %w", err)
			}
			content, err := parseContent(mediaType, args[1])
			if err != nil {
				return err
			}

			client, closeClient, err := c.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer closeClient()

			msg := &lime.Message{
				Envelope: lime.Envelope{ID: lime.NewID(), To: to},
				Type:     mediaType,
				Content:  content,
			}
			if err := client.SendMessage(cmd.Context(), msg); err != nil {
				return err
			}
			if c.jsonOut {
				return c.render(cmd.OutOrStdout(), msg)
			}
			return c.render(cmd.OutOrStdout(), msg.ID)
		},
	}
	cmd.Flags().StringVarP(&mediaType, "type", "t", lime.MediaTypeTextPlain, "content media type")
	return cmd
}

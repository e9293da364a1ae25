// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"time"

	"github.com/ManuGH/blip-sdk-go/lime"
	"github.com/spf13/cobra"
)

func (c *CLI) newBucketCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bucket",
		Short: "Read and write bot bucket documents",
	}
	cmd.AddCommand(c.newBucketGetCmd(), c.newBucketSetCmd(), c.newBucketDeleteCmd())
	return cmd
}

func (c *CLI) newBucketGetCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Print a bucket document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeClient, err := c.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer closeClient()

			resp, err := client.Bucket().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if out != "" {
				data, err := resourceBytes(resp)
				if err != nil {
					return err
				}
				return writeFileAtomic(out, data)
			}
			if c.jsonOut {
				return c.render(cmd.OutOrStdout(), resp)
			}
			return c.render(cmd.OutOrStdout(), resp.Resource)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the document to this file instead of stdout")
	return cmd
}

func (c *CLI) newBucketSetCmd() *cobra.Command {
	var (
		mediaType  string
		expiration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "set <id> <document>",
		Short: "Store a bucket document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := parseContent(mediaType, args[1])
			if err != nil {
				return err
			}

			client, closeClient, err := c.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer closeClient()

			return client.Bucket().Set(cmd.Context(), args[0], doc, expiration, mediaType)
		},
	}
	cmd.Flags().StringVarP(&mediaType, "type", "t", lime.MediaTypeJSON, "document media type")
	cmd.Flags().DurationVar(&expiration, "expiration", 0, "expire the document after this duration")
	return cmd
}

func (c *CLI) newBucketDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a bucket document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeClient, err := c.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer closeClient()

			return client.Bucket().Delete(cmd.Context(), args[0])
		},
	}
}

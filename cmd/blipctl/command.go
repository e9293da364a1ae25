// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ManuGH/blip-sdk-go/lime"
	"github.com/spf13/cobra"
)

var commandMethods = []lime.Method{lime.MethodGet, lime.MethodSet, lime.MethodMerge, lime.MethodDelete}

func parseMethod(s string) (lime.Method, error) {
	m := lime.Method(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range commandMethods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unsupported method %q (supported: get, set, merge, delete)", s)
}

func (c *CLI) newCommandCmd() *cobra.Command {
	var (
		to        string
		mediaType string
		resource  string
	)

	cmd := &cobra.Command{
		Use:   "command <method> <uri>",
		Short: "Process a raw command",
		Long:  "Send a get, set, merge or delete command and print the response.",
		Example: `  blipctl command get /contacts --to postmaster@crm.msging.net
  blipctl command set /buckets/greeting --type application/json --resource '{"text":"hi"}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			method, err := parseMethod(args[0])
			if err != nil {
				return err
			}
			req := &lime.Command{
				Envelope: lime.Envelope{ID: lime.NewID()},
				Method:   method,
				URI:      args[1],
			}
			if to != "" {
				if req.To, err = lime.ParseNode(to); err != nil {
					return fmt.Errorf("invalid --to: %w", err)
				}
			}
			if resource != "" {
				if method == lime.MethodGet || method == lime.MethodDelete {
					return errors.New("--resource is only valid for set and merge")
				}
				if req.Resource, err = parseContent(mediaType, resource); err != nil {
					return err
				}
				req.Type = mediaType
			}

			client, closeClient, err := c.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer closeClient()

			resp, err := client.ProcessCommand(cmd.Context(), req)
			if err != nil {
				return err
			}
			if c.jsonOut {
				return c.render(cmd.OutOrStdout(), resp)
			}
			return c.render(cmd.OutOrStdout(), resp.Resource)
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "destination node (defaults to the bot's postmaster)")
	cmd.Flags().StringVarP(&mediaType, "type", "t", lime.MediaTypeJSON, "resource media type")
	cmd.Flags().StringVarP(&resource, "resource", "r", "", "resource document for set and merge")
	return cmd
}

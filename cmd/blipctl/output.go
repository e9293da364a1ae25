// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/json"
	"fmt"

	xglog "github.com/ManuGH/blip-sdk-go/internal/log"
	"github.com/ManuGH/blip-sdk-go/lime"
	"github.com/google/renameio/v2"
)

// writeFileAtomic replaces path with data. Readers never observe a partial file.
func writeFileAtomic(path string, data []byte) error {
	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o600))
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			logger := xglog.WithComponent("blipctl")
			logger.Debug().Err(err).Str(xglog.FieldPath, path).Msg("cleanup pending file")
		}
	}()

	if _, err := pendingFile.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", path, err)
	}
	return nil
}

// parseContent turns a command-line value into message or resource content.
// JSON media types are decoded; everything else stays a string.
func parseContent(mediaType, raw string) (any, error) {
	if !lime.IsJSON(mediaType) {
		return raw, nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("content for %s is not valid JSON: %w", mediaType, err)
	}
	return v, nil
}

// resourceBytes is what `bucket get --out` writes: text documents verbatim,
// anything else as indented JSON.
func resourceBytes(cmd *lime.Command) ([]byte, error) {
	if s, ok := cmd.Resource.(string); ok && !lime.IsJSON(cmd.Type) {
		return []byte(s), nil
	}
	raw, err := json.MarshalIndent(cmd.Resource, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode resource: %w", err)
	}
	return append(raw, '\n'), nil
}

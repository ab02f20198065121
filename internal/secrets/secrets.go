// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads registry credentials from a directory of plain-text
// files. Each file is one secret: the filename is the key name and the
// trimmed contents are the value.
//
// Conventional key files: tmview-api-key, euipo-client-id, wipo-api-key and
// <source-id>-api-key for national offices.
package secrets

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/pdiddy/mark-search/internal/logger"
	"github.com/pdiddy/mark-search/pkg/types"
)

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory is not an error; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string, log *logger.Logger) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, errors.Wrapf(err, "reading secrets directory %s", dir)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("could not read secret", "file", name, "error", err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// KeyName returns the secret file consulted for a source: the configured
// name, or a conventional one derived from the kind and id.
func KeyName(src types.SourceConfig) string {
	if src.Secret != "" {
		return src.Secret
	}
	switch src.Kind {
	case types.SourceTMview:
		return "tmview-api-key"
	case types.SourceEUIPO:
		return "euipo-client-id"
	case types.SourceWIPO:
		return "wipo-api-key"
	case types.SourceLocal:
		return ""
	default:
		return src.ID + "-api-key"
	}
}

// For returns the credential for src, or "" when none is stored.
func For(secrets map[string]string, src types.SourceConfig) string {
	name := KeyName(src)
	if name == "" {
		return ""
	}
	return secrets[name]
}

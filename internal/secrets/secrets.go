// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Recognized key files: semantic-scholar-api-key, ieee-api-key, acm-api-key,
// springer-api-key, core-api-key, openalex-email, crossref-email.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// ConfigKeys maps recognized secret file names to the configuration keys
// they fill.
var ConfigKeys = map[string]string{
	"semantic-scholar-api-key": "sources.semantic_scholar.api_key",
	"ieee-api-key":             "sources.ieee_xplore.api_key",
	"acm-api-key":              "sources.acm.api_key",
	"springer-api-key":         "sources.springer.api_key",
	"core-api-key":             "sources.core.api_key",
	"openalex-email":           "sources.openalex.mailto",
	"crossref-email":           "fetch.mailto",
}

// Setter is the part of a configuration store that Apply needs.
// *viper.Viper satisfies it.
type Setter interface {
	GetString(key string) string
	SetDefault(key string, value any)
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged at warn level and skipped.
func Load(dir string, log zerolog.Logger) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
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
			log.Warn().Err(err).Str("secret", name).Msg("could not read secret")
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply installs recognized secrets as configuration defaults. Keys that
// already hold a non-empty value from the config file or environment are
// left alone. It returns the config keys it filled, sorted.
func Apply(s Setter, secrets map[string]string) []string {
	var applied []string
	for name, value := range secrets {
		key, ok := ConfigKeys[name]
		if !ok || s.GetString(key) != "" {
			continue
		}
		s.SetDefault(key, value)
		applied = append(applied, key)
	}
	sort.Strings(applied)
	return applied
}

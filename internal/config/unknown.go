package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// maxLevenshteinDistance is the maximum edit distance for "did you mean?"
// suggestions when unknown config keys are detected.
const maxLevenshteinDistance = 3

// knownKeys maps each section to its valid keys.
var knownKeys = map[string][]string{
	"auth":    {"client_id", "client_secret", "provider", "scope", "tenant_id"},
	"site":    {"file_folder", "file_name", "folder", "hostname", "site_path"},
	"output":  {"download_dir", "json_dir"},
	"users":   {"source"},
	"network": {"authority_url", "bandwidth_limit", "graph_url", "max_retries", "timeout", "user_agent"},
	"logging": {"log_format", "log_level"},
}

// knownSections is the sorted list of section names.
var knownSections = func() []string {
	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}()

// checkUnknownKeys inspects TOML metadata for undecoded keys and returns
// an error with "did you mean?" suggestions for each one.
func checkUnknownKeys(md *toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}

	var errs []error

	// An unknown section is reported once, not once per key inside it.
	reported := make(map[string]bool)

	for _, key := range undecoded {
		if _, ok := knownKeys[key[0]]; !ok {
			if reported[key[0]] {
				continue
			}

			reported[key[0]] = true
			key = key[:1]
		}

		errs = append(errs, unknownKeyError(key))
	}

	return errors.Join(errs...)
}

func unknownKeyError(key toml.Key) error {
	if len(key) == 1 {
		// A bare top-level key, or a section that does not exist.
		if s := closestKeyAnywhere(key[0]); s != "" {
			return fmt.Errorf("unknown config key %q, did you mean %q?", key[0], s)
		}

		if s := closestMatch(key[0], knownSections); s != "" {
			return fmt.Errorf("unknown config section [%s], did you mean [%s]?", key[0], s)
		}

		return fmt.Errorf("unknown config key %q", key[0])
	}

	section, field := key[0], key[len(key)-1]

	if s := closestMatch(field, knownKeys[section]); s != "" {
		return fmt.Errorf("unknown config key %q in [%s], did you mean %q?", field, section, s)
	}

	return fmt.Errorf("unknown config key %q in [%s]", field, section)
}

// closestKeyAnywhere suggests "section.key" for a key written outside its
// section.
func closestKeyAnywhere(field string) string {
	for _, section := range knownSections {
		for _, k := range knownKeys[section] {
			if k == field {
				return section + "." + k
			}
		}
	}

	return ""
}

// closestMatch finds the closest known key by Levenshtein distance.
// Returns empty string if no match is within maxLevenshteinDistance.
func closestMatch(unknown string, known []string) string {
	best := ""
	bestDist := maxLevenshteinDistance + 1

	for _, k := range known {
		d := levenshtein(strings.ToLower(unknown), k)
		if d < bestDist {
			bestDist = d
			best = k
		}
	}

	if bestDist <= maxLevenshteinDistance {
		return best
	}

	return ""
}

// levenshtein computes the edit distance between two strings.
func levenshtein(a, b string) int {
	if a == "" {
		return len(b)
	}

	if b == "" {
		return len(a)
	}

	// Single-row optimization: two rows instead of a full matrix.
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := range len(a) {
		curr[0] = i + 1

		for j := range len(b) {
			cost := 1
			if a[i] == b[j] {
				cost = 0
			}

			curr[j+1] = min(curr[j]+1, prev[j+1]+1, prev[j]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(b)]
}

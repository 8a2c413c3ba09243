package facade

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/hubscout/internal/apperrors"
)

// resolveConfigPath finds the sequence-config file named name under dir,
// trying each supported extension in turn, per spec §6's "config.json
// default-config file and optional config/crawl-runner.{json|yaml}".
func resolveConfigPath(dir, name string) (path string, format string, err error) {
	if name == "" {
		return "", "", apperrors.NewInvalidInput("sequenceConfigName", "must not be empty")
	}
	for _, ext := range []string{".yaml", ".yml", ".json"} {
		candidate := filepath.Join(dir, name+ext)
		if _, statErr := os.Stat(candidate); statErr == nil {
			f := "json"
			if ext == ".yaml" || ext == ".yml" {
				f = "yaml"
			}
			return candidate, f, nil
		}
	}
	return "", "", &apperrors.SequenceConfigError{
		Source: filepath.Join(dir, name),
		Reason: fmt.Sprintf("no sequence config file found for %q in %s", name, dir),
	}
}

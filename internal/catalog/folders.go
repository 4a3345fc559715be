package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureFolders creates root and one folder per category name, each with a
// README describing the accepted formats. Existing folders and READMEs are
// left alone.
func EnsureFolders(root string, names []string, extensions []string) error {
	if err := os.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("create videos root: %w", err)
	}

	for _, name := range names {
		dir := filepath.Join(root, name)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create category folder %q: %w", name, err)
		}

		readme := filepath.Join(dir, "README.txt")
		if _, err := os.Stat(readme); err == nil {
			continue
		}
		content := fmt.Sprintf("Place your %s videos here.\nSupported formats: %s\n", name, strings.Join(extensions, ", "))
		if err := os.WriteFile(readme, []byte(content), 0644); err != nil {
			return fmt.Errorf("write README for %q: %w", name, err)
		}
	}

	return nil
}

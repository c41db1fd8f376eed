package bank

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/kyleking/asksql/internal/errors"
)

// bankFile is the on-disk shape of a bank. Examples keep their file order so
// round-tripping preserves the matcher's tie-break behavior.
type bankFile struct {
	Examples []Example `json:"examples" yaml:"examples"`
}

// Load reads a bank from a YAML file, or JSON when the path ends in .json.
func Load(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeConfig,
			"failed to read example bank %s", path)
	}

	var file bankFile

	if isJSONPath(path) {
		err = json.Unmarshal(data, &file)
	} else {
		err = yaml.Unmarshal(data, &file)
	}

	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeConfig,
			"failed to parse example bank %s", path)
	}

	b := New()

	for _, example := range file.Examples {
		if strings.TrimSpace(example.Pattern) == "" ||
			strings.TrimSpace(example.SQL) == "" {
			return nil, errors.Newf(errors.ErrTypeConfig,
				"example bank %s contains an entry without pattern or sql", path)
		}

		b.Add(example)
	}

	return b, nil
}

// Save writes the bank to a YAML file, or JSON when the path ends in .json.
func Save(b *Bank, path string) error {
	file := bankFile{Examples: b.Examples()}

	var (
		data []byte
		err  error
	)

	if isJSONPath(path) {
		data, err = json.MarshalIndent(file, "", "  ")
	} else {
		data, err = yaml.Marshal(file)
	}

	if err != nil {
		return errors.Wrap(err, errors.ErrTypeInternal, "failed to marshal example bank")
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, errors.ErrTypeConfig,
				"failed to create bank directory %s", dir)
		}
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return errors.Wrapf(err, errors.ErrTypeConfig,
			"failed to write example bank %s", path)
	}

	return nil
}

func isJSONPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

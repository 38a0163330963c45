package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/application/model"
)

// Entry is one keyed value of a registry section, in file order.
type Entry struct {
	Key    string
	decode func(v interface{}) error
}

func (e Entry) Decode(v interface{}) error {
	err := e.decode(v)
	if err != nil {
		return malformed(err, "entry %v", e.Key)
	}
	return nil
}

// LoadSection reads the mapping stored under section in a JSON or YAML file.
// found is false when the file has no such section.
func LoadSection(path, section string) (entries []Entry, found bool, err error) {
	body, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, errors.Wrapf(model.ErrConfigNotFound, "config file %v", path)
		}
		return nil, false, errors.Wrapf(err, "failed to read config file: %v", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		entries, found, err = yamlSection(body, section)
	default:
		entries, found, err = jsonSection(body, section)
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "config file %v", path)
	}
	return entries, found, nil
}

func jsonSection(body []byte, section string) ([]Entry, bool, error) {
	var root map[string]json.RawMessage
	err := json.Unmarshal(body, &root)
	if err != nil {
		return nil, false, malformed(err, "failed to unmarshal config")
	}
	raw, ok := root[section]
	if !ok {
		return nil, false, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	token, err := dec.Token()
	if delim, isDelim := token.(json.Delim); err != nil || !isDelim || delim != '{' {
		return nil, false, malformed(fmt.Errorf("section %v must be an object", section), "")
	}
	var entries []Entry
	seen := make(map[string]struct{})
	for dec.More() {
		token, err = dec.Token()
		if err != nil {
			return nil, false, malformed(err, "section %v", section)
		}
		key, _ := token.(string)
		if _, duplicate := seen[key]; duplicate {
			return nil, false, malformed(fmt.Errorf("duplicate key %v", key), "section %v", section)
		}
		seen[key] = struct{}{}
		var value json.RawMessage
		err = dec.Decode(&value)
		if err != nil {
			return nil, false, malformed(err, "section %v", section)
		}
		entries = append(entries, Entry{
			Key: key,
			decode: func(v interface{}) error {
				return json.Unmarshal(value, v)
			},
		})
	}
	return entries, true, nil
}

func yamlSection(body []byte, section string) ([]Entry, bool, error) {
	var document yaml.Node
	err := yaml.Unmarshal(body, &document)
	if err != nil {
		return nil, false, malformed(err, "failed to unmarshal config")
	}
	if len(document.Content) == 0 || document.Content[0].Kind != yaml.MappingNode {
		return nil, false, malformed(errors.New("root must be a mapping"), "")
	}
	root := document.Content[0]
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != section {
			continue
		}
		node := root.Content[i+1]
		if node.Kind != yaml.MappingNode {
			return nil, false, malformed(fmt.Errorf("section %v must be a mapping", section), "")
		}
		entries := make([]Entry, 0, len(node.Content)/2)
		seen := make(map[string]struct{})
		for j := 0; j+1 < len(node.Content); j += 2 {
			key, value := node.Content[j].Value, node.Content[j+1]
			if _, duplicate := seen[key]; duplicate {
				return nil, false, malformed(fmt.Errorf("duplicate key %v", key), "section %v", section)
			}
			seen[key] = struct{}{}
			entries = append(entries, Entry{Key: key, decode: value.Decode})
		}
		return entries, true, nil
	}
	return nil, false, nil
}

func malformed(err error, format string, args ...interface{}) error {
	err = fmt.Errorf("%w: %v", model.ErrConfigMalformed, err)
	if format == "" {
		return err
	}
	return errors.Wrapf(err, format, args...)
}

func ToOptString(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}

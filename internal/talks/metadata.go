package talks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// metadataSchema constrains the override keys. Unknown keys are allowed so metadata files
// can carry data for other consumers, and null counts as absent. A slug names the deck
// directory, so it may not contain path separators or be a dot segment.
const metadataSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "title": {"type": ["string", "null"]},
    "tag":   {"type": ["string", "null"]},
    "slug":  {
      "type": ["string", "null"],
      "pattern": "^[^/\\\\]*$",
      "not": {"enum": [".", ".."]}
    }
  }
}`

var compiledMetadataSchema = mustCompileMetadataSchema()

func mustCompileMetadataSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("meta.schema.json", strings.NewReader(metadataSchema)); err != nil {
		panic(err)
	}
	return compiler.MustCompile("meta.schema.json")
}

// readMetadata loads path. found is false when the file does not exist.
func readMetadata(path string) (meta Metadata, found bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Metadata{}, false, nil
		}
		return Metadata{}, true, fmt.Errorf("%w: read %s: %w", ErrInvalidMetadata, path, err)
	}
	meta, err = ParseMetadata(data)
	if err != nil {
		return Metadata{}, true, fmt.Errorf("%s: %w", path, err)
	}
	return meta, true, nil
}

// ParseMetadata decodes and validates a metadata document.
func ParseMetadata(data []byte) (Metadata, error) {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return Metadata{}, fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
	}
	if dec.More() {
		return Metadata{}, fmt.Errorf("%w: trailing data after JSON document", ErrInvalidMetadata)
	}
	if err := compiledMetadataSchema.Validate(doc); err != nil {
		return Metadata{}, fmt.Errorf("%w: %s", ErrInvalidMetadata, describeValidation(err))
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
	}
	return meta, nil
}

func describeValidation(err error) string {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	var parts []string
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if len(node.Causes) == 0 {
			location := node.InstanceLocation
			if location == "" {
				location = "/"
			}
			parts = append(parts, fmt.Sprintf("%s: %s", location, node.Message))
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(verr)
	return strings.Join(parts, "; ")
}

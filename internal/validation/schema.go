// Package validation checks experiment metadata documents against the
// embedded JSON Schema.
package validation

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const metadataSchemaName = "metadata.schema.json"

//go:embed metadata.schema.json
var metadataSchemaJSON []byte

// printer renders schema violations in English.
var printer = message.NewPrinter(language.English)

var metadataSchema = compileEmbedded(metadataSchemaName, metadataSchemaJSON)

// compileEmbedded panics because a broken embedded schema is a build defect.
func compileEmbedded(name string, raw []byte) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("validation: parsing %s: %v", name, err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("validation: adding %s: %v", name, err))
	}
	sch, err := c.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("validation: compiling %s: %v", name, err))
	}
	return sch
}

// ValidateMetadata checks a decoded metadata document (as produced by
// models.Metadata.Plain or json.Unmarshal into any). It returns one message
// per violation, or nil when the document is valid.
func ValidateMetadata(doc any) []string {
	err := metadataSchema.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	return violations(ve, nil)
}

// ValidateMetadataBytes validates raw metadata JSON.
func ValidateMetadataBytes(data []byte) []string {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return []string{fmt.Sprintf("JSON parse error: %v", err)}
	}
	return ValidateMetadata(doc)
}

// ValidateMetadataFile validates the metadata file at path.
func ValidateMetadataFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading metadata file: %w", err)
	}
	return ValidateMetadataBytes(data), nil
}

// violations flattens the cause tree into "<pointer>: <message>" lines,
// one per leaf.
func violations(ve *jsonschema.ValidationError, out []string) []string {
	if len(ve.Causes) > 0 {
		for _, c := range ve.Causes {
			out = violations(c, out)
		}
		return out
	}
	return append(out, "/"+strings.Join(ve.InstanceLocation, "/")+": "+ve.ErrorKind.LocalizedString(printer))
}

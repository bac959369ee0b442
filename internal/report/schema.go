package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://github.com/panbanda/reqbdd/report.schema.json"

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("decode report schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("add report schema: %w", err)
	}
	return c.Compile(schemaURL)
})

// SchemaError lists the places where an exported report violates the schema.
type SchemaError struct {
	Errors []FieldError
}

// FieldError is a single violation at a JSON pointer location.
type FieldError struct {
	Field   string
	Message string
}

func (e *SchemaError) Error() string {
	var sb strings.Builder
	sb.WriteString("report does not match schema:\n")
	for i, fe := range e.Errors {
		fmt.Fprintf(&sb, "  %d. %s: %s\n", i+1, fe.Field, fe.Message)
	}
	return sb.String()
}

// ValidateJSON checks exported report JSON against the embedded schema.
// Schema violations are returned as *SchemaError.
func ValidateJSON(data []byte) error {
	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode report: %w", err)
	}

	err = sch.Validate(inst)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err
	}
	printer := message.NewPrinter(language.English)
	out := &SchemaError{}
	collectLeaves(ve, printer, out)
	return out
}

func collectLeaves(ve *jsonschema.ValidationError, p *message.Printer, out *SchemaError) {
	if len(ve.Causes) == 0 {
		out.Errors = append(out.Errors, FieldError{
			Field:   "/" + strings.Join(ve.InstanceLocation, "/"),
			Message: ve.ErrorKind.LocalizedString(p),
		})
		return
	}
	for _, c := range ve.Causes {
		collectLeaves(c, p, out)
	}
}

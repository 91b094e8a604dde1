package schema

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed schema.cue
var schemaSource string

// Validation error codes (E100-E199)
const (
	ErrDocumentNotJSON = "E101" // document is not parseable JSON
	ErrSchemaViolation = "E102" // document violates the notebook schema
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validator checks notebook files against the embedded document schema.
// Uses CUE SDK's Go API directly (not CLI subprocess). The schema is
// compiled once at construction; Validate is then cheap per file.
type Validator struct {
	ctx      *cue.Context
	document cue.Value
}

// NewValidator compiles the embedded schema.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile embedded schema: %w", err)
	}

	document := schema.LookupPath(cue.ParsePath("#Document"))
	if err := document.Err(); err != nil {
		return nil, fmt.Errorf("lookup #Document: %w", err)
	}

	return &Validator{ctx: ctx, document: document}, nil
}

// Validate checks one notebook file's bytes against the schema.
// Returns all errors found (does not fail-fast). An empty slice means the
// document conforms. filename is used only for error positions.
func (v *Validator) Validate(filename string, raw []byte) []ValidationError {
	expr, err := cuejson.Extract(filename, raw)
	if err != nil {
		return []ValidationError{{
			Field:   "document",
			Message: fmt.Sprintf("invalid JSON: %v", err),
			Code:    ErrDocumentNotJSON,
		}}
	}

	value := v.ctx.BuildExpr(expr)
	if err := value.Err(); err != nil {
		return convertCUEErrors(err)
	}

	unified := value.Unify(v.document)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return convertCUEErrors(err)
	}

	return nil
}

// convertCUEErrors flattens a CUE error list into field-level validation
// errors with positions.
func convertCUEErrors(err error) []ValidationError {
	var out []ValidationError
	for _, e := range cueerrors.Errors(err) {
		ve := ValidationError{
			Field:   strings.Join(e.Path(), "."),
			Message: e.Error(),
			Code:    ErrSchemaViolation,
		}
		if ve.Field == "" {
			ve.Field = "document"
		}
		if positions := cueerrors.Positions(e); len(positions) > 0 {
			ve.Line = positions[0].Line()
		}
		out = append(out, ve)
	}
	if len(out) == 0 {
		out = append(out, ValidationError{
			Field:   "document",
			Message: err.Error(),
			Code:    ErrSchemaViolation,
		})
	}
	return out
}

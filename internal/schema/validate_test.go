package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rescribe/internal/testutil"
)

func TestNewValidator_CompilesEmbeddedSchema(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)
	require.NotNil(t, v)
}

func TestValidate_ConformingDocument(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	raw := testutil.NewNotebook().
		Instruction("book a flight").
		ToolCall("search_flights", `{"from": "SFO", "to": "JFK"}`).
		ToolResult("3 flights found").
		Reasoning("old text").
		BuildRaw()

	errs := v.Validate("flight.ipynb", raw)
	assert.Empty(t, errs, "conforming document should have no errors")
}

func TestValidate_EmptyCellList(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	errs := v.Validate("empty.ipynb", testutil.NewNotebook().BuildRaw())
	assert.Empty(t, errs)
}

func TestValidate_InvalidJSON(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	errs := v.Validate("broken.ipynb", []byte(`{"cells": [`))
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDocumentNotJSON, errs[0].Code)
	assert.Equal(t, "document", errs[0].Field)
	assert.Contains(t, errs[0].Message, "invalid JSON")
}

func TestValidate_SchemaViolations(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		fieldContains string
	}{
		{
			name:          "wrong nbformat",
			raw:           `{"cells": [], "metadata": {}, "nbformat": 3, "nbformat_minor": 0}`,
			fieldContains: "nbformat",
		},
		{
			name:          "negative nbformat_minor",
			raw:           `{"cells": [], "metadata": {}, "nbformat": 4, "nbformat_minor": -1}`,
			fieldContains: "nbformat_minor",
		},
		{
			name:          "unknown top-level field",
			raw:           `{"cells": [], "metadata": {}, "nbformat": 4, "nbformat_minor": 4, "worksheets": []}`,
			fieldContains: "worksheets",
		},
		{
			name:          "metadata is not an object",
			raw:           `{"cells": [], "metadata": [], "nbformat": 4, "nbformat_minor": 4}`,
			fieldContains: "metadata",
		},
		{
			name: "non-markdown cell",
			raw: `{"cells": [{"cell_type": "code", "metadata": {}, "source": []}],
				"metadata": {}, "nbformat": 4, "nbformat_minor": 4}`,
			fieldContains: "cell_type",
		},
		{
			name: "unknown cell field",
			raw: `{"cells": [{"cell_type": "markdown", "metadata": {}, "source": [], "outputs": []}],
				"metadata": {}, "nbformat": 4, "nbformat_minor": 4}`,
			fieldContains: "outputs",
		},
		{
			name: "non-string source entry",
			raw: `{"cells": [{"cell_type": "markdown", "metadata": {}, "source": [42]}],
				"metadata": {}, "nbformat": 4, "nbformat_minor": 4}`,
			fieldContains: "source",
		},
	}

	v, err := NewValidator()
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.Validate("doc.ipynb", []byte(tt.raw))
			require.NotEmpty(t, errs, "expected schema violations")
			for _, e := range errs {
				assert.Equal(t, ErrSchemaViolation, e.Code)
			}

			found := false
			for _, e := range errs {
				if containsField(e, tt.fieldContains) {
					found = true
					break
				}
			}
			assert.True(t, found, "no error mentions %q: %v", tt.fieldContains, errs)
		})
	}
}

func TestValidate_MissingRequiredCellField(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	raw := `{"cells": [{"cell_type": "markdown", "metadata": {}}],
		"metadata": {}, "nbformat": 4, "nbformat_minor": 4}`

	errs := v.Validate("doc.ipynb", []byte(raw))
	require.NotEmpty(t, errs)
	assert.Equal(t, ErrSchemaViolation, errs[0].Code)
}

func TestValidationError_Error(t *testing.T) {
	withLine := ValidationError{Field: "cells.0.cell_type", Message: "bad type", Code: ErrSchemaViolation, Line: 3}
	assert.Equal(t, "[E102] line 3: cells.0.cell_type: bad type", withLine.Error())

	withoutLine := ValidationError{Field: "document", Message: "invalid JSON", Code: ErrDocumentNotJSON}
	assert.Equal(t, "[E101] document: invalid JSON", withoutLine.Error())
}

// containsField reports whether the error's field path or message mentions
// the given name. CUE attaches the offending path to one or the other
// depending on the violation kind.
func containsField(e ValidationError, name string) bool {
	return strings.Contains(e.Field, name) || strings.Contains(e.Message, name)
}

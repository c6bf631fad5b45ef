package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePrompt(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestBuiltinsRender(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{TransformID, TransformRetryID}, r.IDs())

	tmpl, err := r.Lookup(TransformID)
	require.NoError(t, err)
	out, err := tmpl.Render(Vars{"FullText": "PAGE TEXT", "TablesJSON": `{"tables":[]}`})
	require.NoError(t, err)
	assert.Contains(t, out, "Convert the following extracted financial statement content to KreditLab JSON.")
	assert.Contains(t, out, "full_text_with_tables:\nPAGE TEXT")
	assert.Contains(t, out, "tables_json:\n{\"tables\":[]}")
}

func TestRender_MissingAndDefaultVariables(t *testing.T) {
	tmpl, err := NewRegistry().Lookup(TransformRetryID)
	require.NoError(t, err)
	_, err = tmpl.Render(Vars{})
	require.Error(t, err)
	assert.Equal(t, "PROMPT_VARIABLE_MISSING: kreditlab.transform_retry: Error, Base", err.Error())

	r := NewRegistry()
	require.NoError(t, r.Register(&Template{
		ID:        "custom.currency",
		User:      "Amounts in {{.Currency}}",
		Variables: []Variable{{Name: "Currency", Default: "RM"}},
	}))
	tmpl, err = r.Lookup("custom.currency")
	require.NoError(t, err)

	out, err := tmpl.Render(nil)
	require.NoError(t, err)
	assert.Equal(t, "Amounts in RM", out)

	out, err = tmpl.Render(Vars{"Currency": "USD"})
	require.NoError(t, err)
	assert.Equal(t, "Amounts in USD", out)
}

func TestRegister_OverlayKeepsUnsetFields(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Template{ID: TransformID, System: "Shorter instructions", Version: "7.7.1"}))

	tmpl, err := r.Lookup(TransformID)
	require.NoError(t, err)
	assert.Equal(t, "Shorter instructions", tmpl.System)
	assert.Equal(t, "7.7.1", tmpl.Version)
	assert.Equal(t, "KreditLab transform", tmpl.Name)
	assert.Len(t, tmpl.Variables, 2)

	out, err := tmpl.Render(Vars{"FullText": "x", "TablesJSON": "[]"})
	require.NoError(t, err)
	assert.Contains(t, out, "full_text_with_tables:\nx")
}

func TestRegister_Rejections(t *testing.T) {
	r := NewRegistry()
	assert.ErrorContains(t, r.Register(&Template{Name: "anonymous"}), "PROMPT_ID_MISSING")

	err := r.Register(&Template{ID: TransformID, User: "{{.FullText"})
	assert.ErrorContains(t, err, "PROMPT_TEMPLATE_INVALID")

	tmpl, lookupErr := r.Lookup(TransformID)
	require.NoError(t, lookupErr)
	assert.Contains(t, tmpl.User, "full_text_with_tables", "failed override leaves the built-in in place")

	_, err = r.Lookup("kreditlab.unknown")
	assert.EqualError(t, err, "PROMPT_NOT_FOUND: kreditlab.unknown")
}

func TestLoadDirectory(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "prompts", "kreditlab")
	writePrompt(t, dir, "transform.yaml", "system_prompt: |\n  Custom instructions v7.9\n")
	writePrompt(t, dir, "review.json", `{"id": "custom.review", "system_prompt": "Review"}`)
	writePrompt(t, dir, "notes.txt", "ignored")

	r := NewRegistry()
	require.NoError(t, r.LoadDirectory(base))

	sys, err := r.System(TransformID)
	require.NoError(t, err)
	assert.Equal(t, "Custom instructions v7.9\n", sys)

	tmpl, err := r.Lookup(TransformID)
	require.NoError(t, err)
	assert.Equal(t, "kreditlab", tmpl.Category)
	assert.Contains(t, tmpl.User, "tables_json", "user template kept from the built-in")

	review, err := r.Lookup("custom.review")
	require.NoError(t, err)
	assert.Equal(t, "kreditlab", review.Category)
	assert.Equal(t, 3, r.Len())
}

func TestLoadDirectory_BadFilesAreSkipped(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "prompts", "kreditlab")
	writePrompt(t, dir, "broken.json", `{"id": `)
	writePrompt(t, dir, "transform_retry.yaml", "user_prompt_template: \"{{.Error\"\n")
	writePrompt(t, dir, "extra.yml", "system_prompt: Extra\n")

	r := NewRegistry()
	err := r.LoadDirectory(base)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.json")
	assert.Contains(t, err.Error(), "PROMPT_TEMPLATE_INVALID")

	_, lookupErr := r.Lookup("kreditlab.extra")
	assert.NoError(t, lookupErr)
}

func TestLoadDirectory_Missing(t *testing.T) {
	err := NewRegistry().LoadDirectory(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorContains(t, err, "PROMPT_DIR_NOT_FOUND")
}

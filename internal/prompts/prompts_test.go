package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_AllBuiltinsParse(t *testing.T) {
	lib := Default()
	assert.Len(t, lib.Names(), len(builtins))

	for _, def := range builtins {
		vars := make(map[string]string, len(def.Vars))
		for _, v := range def.Vars {
			vars[v] = "<" + v + ">"
		}
		out, err := lib.Render(def.Name, vars)
		require.NoError(t, err, def.Name)
		for _, v := range def.Vars {
			assert.Contains(t, out, "<"+v+">", "%s should interpolate %s", def.Name, v)
		}
	}
}

func TestRender_CodeOptimize(t *testing.T) {
	out, err := Render(CodeOptimize, map[string]string{
		"task":   "fib",
		"code":   "def fib(n): ...",
		"review": "add memoization | handle n < 0",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Original Task: fib")
	assert.Contains(t, out, "def fib(n): ...")
	assert.Contains(t, out, "Review Feedback: add memoization | handle n < 0")
}

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name    string
		tmpl    string
		vars    map[string]string
		wantErr string
	}{
		{"unknown template", "nope", nil, `unknown template "nope"`},
		{"missing variable", CodeReview, map[string]string{"task": "x"}, "missing variables: code"},
		{"unexpected variable", CodeGenerate, map[string]string{"task": "x", "tone": "y"}, "unexpected variables: tone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Render(tt.tmpl, tt.vars)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRender_TemplateTextIsNotReinterpreted(t *testing.T) {
	out, err := Render(CodeGenerate, map[string]string{"task": "print {{.secret}}"})
	require.NoError(t, err)
	assert.Contains(t, out, "print {{.secret}}")
}

func TestNewLibrary_Validation(t *testing.T) {
	_, err := NewLibrary(Template{Name: "", Text: "x"})
	assert.Error(t, err)

	_, err = NewLibrary(Template{Name: "a", Text: "x"}, Template{Name: "a", Text: "y"})
	assert.ErrorContains(t, err, "duplicate")

	_, err = NewLibrary(Template{Name: "bad", Text: "{{.x"})
	assert.ErrorContains(t, err, "failed to parse")
}

func TestLookup(t *testing.T) {
	def, ok := Default().Lookup(ChainTranslate)
	require.True(t, ok)
	assert.Equal(t, []string{"headline", "body", "cta", "language"}, def.Vars)

	_, ok = Default().Lookup("missing")
	assert.False(t, ok)
}

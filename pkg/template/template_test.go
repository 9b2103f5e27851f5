package template_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RachidJedata/GraphOps/pkg/models"
	"github.com/RachidJedata/GraphOps/pkg/template"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name     string
		tmpl     string
		context  models.WorkflowContext
		expected string
	}{
		{
			name:     "plain string passes through",
			tmpl:     "hello world",
			context:  models.WorkflowContext{},
			expected: "hello world",
		},
		{
			name:     "simple variable",
			tmpl:     "hello {{name}}",
			context:  models.WorkflowContext{"name": "GraphOps"},
			expected: "hello GraphOps",
		},
		{
			name:     "nested path",
			tmpl:     "status={{httpResponse.status}}",
			context:  models.WorkflowContext{"httpResponse": map[string]any{"status": 200}},
			expected: "status=200",
		},
		{
			name:     "missing variable renders empty",
			tmpl:     "value=[{{missing}}]",
			context:  models.WorkflowContext{},
			expected: "value=[]",
		},
		{
			name:     "missing nested path renders empty",
			tmpl:     "value=[{{a.b.c}}]",
			context:  models.WorkflowContext{"a": map[string]any{}},
			expected: "value=[]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := template.Compile(tt.tmpl, tt.context)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestCompileJSONHelper(t *testing.T) {
	context := models.WorkflowContext{
		"payload": map[string]any{"id": "42"},
	}

	result, err := template.Compile(`{{json payload}}`, context)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"42"}`, result)
}

func TestCompileIsDeterministic(t *testing.T) {
	context := models.WorkflowContext{"a": "x", "b": "y"}

	first, err := template.Compile("{{a}}-{{b}}", context)
	require.NoError(t, err)

	second, err := template.Compile("{{a}}-{{b}}", context)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

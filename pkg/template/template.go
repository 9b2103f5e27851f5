// Package template compiles user-authored Handlebars strings against the run
// context. Compilation is pure and deterministic: a missing variable renders
// as an empty string rather than failing, so node authors can reference
// values that earlier branches may not have produced.
package template

import (
	"encoding/json"
	"sync"

	"github.com/aymerick/raymond"

	"github.com/RachidJedata/GraphOps/pkg/models"
)

var registerHelpers sync.Once

// Compile renders tmpl against context. The `json` helper is available to
// stringify an arbitrary context sub-value for interpolation, e.g.
// {{json httpResponse.data}}.
func Compile(tmpl string, context models.WorkflowContext) (string, error) {
	registerHelpers.Do(func() {
		raymond.RegisterHelper("json", jsonHelper)
	})

	return raymond.Render(tmpl, map[string]any(context))
}

func jsonHelper(value any) raymond.SafeString {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return ""
	}

	return raymond.SafeString(encoded)
}

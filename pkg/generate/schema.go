package generate

import (
	"encoding/json"

	"github.com/skizzehq/skizze/pkg/provider"
)

// fragmentSchema constrains generation output to the Fragment shape.
// It mirrors the json tags of api.Fragment; additionalProperties is
// disallowed so non-conforming output fails strict decoding instead of
// being coerced.
var fragmentSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "template_id": {
      "type": "string",
      "description": "Id of the execution template the code targets."
    },
    "code": {
      "type": "string",
      "description": "Complete runnable code for the entry file."
    },
    "file_path": {
      "type": "string",
      "description": "Path the code must be written to; must equal the template's entry file path."
    },
    "port": {
      "type": ["integer", "null"],
      "description": "Port the fragment listens on, when it serves HTTP."
    },
    "has_additional_dependencies": {
      "type": "boolean",
      "description": "True exactly when additional_dependencies is non-empty."
    },
    "additional_dependencies": {
      "type": "array",
      "items": {"type": "string"},
      "description": "Packages beyond the template's preinstalled set."
    },
    "install_command": {
      "type": "string",
      "description": "Shell command installing additional_dependencies; empty when there are none."
    }
  },
  "required": ["template_id", "code", "file_path", "has_additional_dependencies", "additional_dependencies", "install_command"],
  "additionalProperties": false
}`)

// FragmentSchema returns the output schema sent with every generation
// call.
func FragmentSchema() *provider.OutputSchema {
	return &provider.OutputSchema{
		Name:   "fragment",
		Schema: fragmentSchema,
		Strict: true,
	}
}

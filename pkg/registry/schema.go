// pkg/registry/schema.go
package registry

// ActivityRegistry lists the task types this deployment can serve.
type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

type Activity struct {
	ID                   string                 `json:"id"`
	DisplayName          string                 `json:"displayName"`
	Description          string                 `json:"description"`
	Category             string                 `json:"category"`
	Version              string                 `json:"version"`
	TaskType             string                 `json:"taskType"`
	ImplementationStatus string                 `json:"implementationStatus"`
	InputSchema          map[string]interface{} `json:"inputSchema"`
	OutputSchema         map[string]interface{} `json:"outputSchema"`
	ErrorCodes           []string               `json:"errorCodes"`
	Timeout              string                 `json:"timeout"`
	Retries              int                    `json:"retries"`
	Tags                 []string               `json:"tags"`
}

// documentSchema is the JSON Schema every registry file must satisfy.
const documentSchema = `{
  "type": "object",
  "required": ["version", "activities"],
  "properties": {
    "version": {"type": "string", "minLength": 1},
    "lastUpdated": {"type": "string"},
    "activities": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "displayName", "category", "taskType", "inputSchema", "outputSchema"],
        "properties": {
          "id": {"type": "string", "pattern": "^[a-z][a-z0-9-]*$"},
          "displayName": {"type": "string", "minLength": 1},
          "category": {"type": "string", "minLength": 1},
          "taskType": {"type": "string"},
          "implementationStatus": {"enum": ["planned", "in-progress", "completed", "verified"]},
          "inputSchema": {"type": "object"},
          "outputSchema": {"type": "object"},
          "errorCodes": {"type": "array", "items": {"type": "string"}},
          "timeout": {"type": "string"},
          "retries": {"type": "integer", "minimum": 0}
        }
      }
    }
  }
}`

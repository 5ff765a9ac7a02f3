package errors

// template is a registered error definition.
type template struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
	DocURL     string
}

// registry maps error codes to their templates.
//
// Code ranges:
//
//	E1xx - configuration
//	E2xx - schema
//	E3xx - resources
//	E4xx - session and server
//	E5xx - gateway
var registry = map[string]template{
	"E101": {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Suggestion: "Create an agentdeck.json in the project root, or pass --config with an explicit path",
	},
	"E102": {
		Category:   CategoryConfig,
		Message:    "Configuration file is not valid JSON",
		Suggestion: "Check agentdeck.json for syntax errors",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Configuration value out of range",
	},
	"E104": {
		Category:   CategoryConfig,
		Message:    "Invalid duration value",
		Detail:     "Duration fields use Go syntax, e.g. \"30s\", \"5m\", \"2h\".",
		Suggestion: "Fix the duration string in agentdeck.json",
	},
	"E201": {
		Category:   CategorySchema,
		Message:    "Schema file not found",
		Suggestion: "Point schema.file at an existing JSON schema, or omit it to use the built-in demo schema",
	},
	"E202": {
		Category:   CategorySchema,
		Message:    "Schema file is not valid JSON",
		Suggestion: "Check the schema file for syntax errors",
	},
	"E203": {
		Category: CategorySchema,
		Message:  "Schema failed validation",
		Detail:   "Every component needs a non-empty type and a unique id.",
	},
	"E301": {
		Category:   CategoryResources,
		Message:    "Resource directory not found",
		Suggestion: "Create the styles and scripts directories, or correct the paths in agentdeck.json",
	},
	"E401": {
		Category:   CategoryServer,
		Message:    "Port already in use",
		Suggestion: "Stop the process holding the port, or change the base port in agentdeck.json",
	},
	"E402": {
		Category:   CategoryServer,
		Message:    "Permission denied binding port",
		Detail:     "Ports below 1024 need elevated privileges on most systems.",
		Suggestion: "Use a port above 1024",
	},
	"E403": {
		Category: CategoryServer,
		Message:  "Server failed to start",
	},
	"E501": {
		Category:   CategoryGateway,
		Message:    "Gateway URL is required in proxy mode",
		Suggestion: "Set gateway.url in agentdeck.json or disable proxy mode",
	},
}

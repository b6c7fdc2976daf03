package errors

import "sort"

// Template defines a registered diagnostic.
type Template struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps diagnostic codes to their templates.
var registry = map[string]Template{
	// Builder diagnostics (V001-V009)
	"V001": {
		Category: CategoryBuild,
		Message:  "Observed data object used as vnode data",
		Detail:   "VNode data must be a fresh value created during render. Shared reactive state would corrupt already applied trees when it changes.",
	},
	"V002": {
		Category: CategoryBuild,
		Message:  "Non-primitive value used as key",
		Detail:   "Keys are compared by value. Use a string or number.",
	},
	"V003": {
		Category: CategoryBuild,
		Message:  "Component tag without a component delegate",
		Detail:   "A non-string tag was passed to Build but no ComponentDelegate is configured.",
	},
	"V004": {
		Category: CategoryBuild,
		Message:  "Unsupported child value",
		Detail:   "Children must be VNodes, primitives, slices of those, or nil.",
	},
	"V005": {
		Category: CategoryBuild,
		Message:  "Unsupported data value",
		Detail:   "Data must be a *vdom.Data, a slice or primitive (treated as children), or nil.",
	},

	// Engine diagnostics (V010-V019)
	"V010": {
		Category: CategoryReconcile,
		Message:  "Duplicate keys detected",
		Detail:   "Sibling VNodes share a key. Only the first one is reachable through the key map, which may cause update errors.",
	},
	"V011": {
		Category: CategoryReconcile,
		Message:  "Component node without a component host",
		Detail:   "The engine renders component nodes as comment placeholders when no ComponentHost is configured.",
	},
	"V012": {
		Category: CategoryReconcile,
		Message:  "Failed to resolve directive",
		Detail:   "The directive is skipped. Register it with the DirectiveResolver used by the directives module.",
	},

	// Tree file diagnostics (T001-T009)
	"T001": {
		Category: CategoryTree,
		Message:  "Malformed tree description",
	},
	"T002": {
		Category: CategoryTree,
		Message:  "Tree file not found",
	},

	// Protocol diagnostics (P001-P009)
	"P001": {
		Category: CategoryProtocol,
		Message:  "Malformed mutation frame",
	},

	// Config diagnostics (C001-C009)
	"C001": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
	},
	"C002": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},

	// CLI diagnostics (X001-X009)
	"X001": {
		Category: CategoryCLI,
		Message:  "Snapshot upload failed",
	},
}

// Codes returns all registered codes in sorted order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Lookup returns the template for a code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a diagnostic template to the registry.
func Register(code string, t Template) {
	registry[code] = t
}

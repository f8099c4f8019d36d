package template

import (
	"fmt"
	"strconv"
	"strings"
)

// ComposePrompt renders the generation system prompt from the catalog.
// The output is deterministic for a given registry: templates appear in
// catalog order and instructions are embedded without truncation. The
// string is used verbatim as the system prompt of the structured
// generation call.
func ComposePrompt(r *Registry) string {
	var b strings.Builder

	b.WriteString("You are a skilled software engineer generating a single runnable code fragment.\n")
	b.WriteString("You must target exactly one of the templates below and respond with a fragment that conforms to the provided schema.\n")
	b.WriteString("Do not touch project dependencies that are already part of the template.\n")
	b.WriteString("Only declare additional dependencies when the generated code imports a package the template does not ship.\n\n")
	b.WriteString("Available templates:\n\n")

	for _, tmpl := range r.All() {
		fmt.Fprintf(&b, "Template: %s\n", tmpl.ID)
		if tmpl.DisplayName != "" {
			fmt.Fprintf(&b, "Name: %s\n", tmpl.DisplayName)
		}
		fmt.Fprintf(&b, "Instructions: %s\n", tmpl.Instructions)
		fmt.Fprintf(&b, "Entry file: %s\n", orNone(tmpl.EntryFilePath))
		if len(tmpl.Dependencies) > 0 {
			fmt.Fprintf(&b, "Preinstalled dependencies: %s\n", strings.Join(tmpl.Dependencies, ", "))
		} else {
			b.WriteString("Preinstalled dependencies: none\n")
		}
		if tmpl.Port > 0 {
			fmt.Fprintf(&b, "Port: %s\n", strconv.Itoa(tmpl.Port))
		} else {
			b.WriteString("Port: none\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Write the complete code for the fragment's entry file. The code must be self-contained and runnable as-is.\n")
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

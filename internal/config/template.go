package config

import (
	"os"
	"regexp"
	"strings"
)

// templatePattern matches ${VAR_NAME} references.
var templatePattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveTemplates replaces every ${VAR} reference in text with the value of
// the environment variable VAR. Referencing a variable that is not set is a
// configuration error naming the variable, so credentials can live outside
// the endpoint structure without failing silently.
func ResolveTemplates(text string) (string, error) {
	matches := templatePattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	result := text
	for _, m := range matches {
		name := m[1]
		value, ok := os.LookupEnv(name)
		if !ok {
			return "", newError(
				"template variable ${%s} is referenced but %s is not defined in the environment",
				name, name)
		}
		result = strings.ReplaceAll(result, "${"+name+"}", value)
	}

	return result, nil
}

// HasTemplateVars reports whether text contains ${VAR} references.
func HasTemplateVars(text string) bool {
	return templatePattern.MatchString(text)
}

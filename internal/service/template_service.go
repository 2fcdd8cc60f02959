// internal/service/template_service.go
package service

import (
	"regexp"
	"strings"

	"github.com/leadforge/leadforge-backend/internal/model"
)

var placeholderPattern = regexp.MustCompile(`\{[a-z_]+\}`)

// RenderTemplate substitutes {name} placeholders from vars. Any placeholder
// without a value renders as an empty string rather than failing.
func RenderTemplate(template string, vars map[string]string) string {
	result := template
	for k, v := range vars {
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return placeholderPattern.ReplaceAllString(result, "")
}

// TemplateVars builds the standard variable set for one lead.
func TemplateVars(lead *model.Lead, senderName, orgName string) map[string]string {
	return map[string]string{
		"lead_name":         lead.Name,
		"lead_handle":       lead.Handle,
		"sender_name":       senderName,
		"organization_name": orgName,
	}
}

package format

import "strings"

var recordKeywords = []string{
	"record", "customer", "contact", "order", "invoice", "inventory",
	"lookup", "search", "list", "crm", "product", "account",
}

var statsKeywords = []string{
	"stat", "anova", "ttest", "t_test", "regression", "correlat",
	"chi_square", "hypothesis", "significan", "descriptive",
}

// InferCategory derives a coarse payload category from the tool name.
// The result steers formatter and field-label selection only; it never
// affects which tool runs.
func InferCategory(toolName string) string {
	name := strings.ToLower(toolName)
	for _, kw := range statsKeywords {
		if strings.Contains(name, kw) {
			return CategoryStats
		}
	}
	for _, kw := range recordKeywords {
		if strings.Contains(name, kw) {
			return CategoryRecord
		}
	}
	return CategoryGeneric
}

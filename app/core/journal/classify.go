package journal

import "regexp"

// Request-type classification: coarse buckets inferred from the prompt text.
// First matching bucket wins; anything else is admin.
var typePatterns = []struct {
	rtype    string
	patterns []*regexp.Regexp
}{
	{
		rtype: "debug",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(error|bug|fix|broken|traceback|panic|debug)`),
			regexp.MustCompile(`(?i)(doesn't work|does not work|crash|fail)`),
		},
	},
	{
		rtype: "feature",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(implement|add|create|build|write)`),
			regexp.MustCompile(`(?i)(feature|new )`),
		},
	},
	{
		rtype: "question",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(what|how|why|explain|meaning)`),
			regexp.MustCompile(`\?$`),
		},
	},
	{
		rtype: "brainstorm",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(idea|design|plan|structure|architecture|approach)`),
			regexp.MustCompile(`(?i)(suggest|recommend|which .* better)`),
		},
	},
}

const defaultRequestType = "admin"

// ClassifyRequest tags a prompt with its request type.
func ClassifyRequest(prompt string) string {
	for _, entry := range typePatterns {
		for _, pat := range entry.patterns {
			if pat.MatchString(prompt) {
				return entry.rtype
			}
		}
	}
	return defaultRequestType
}

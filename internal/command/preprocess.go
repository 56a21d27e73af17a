package command

import (
	"regexp"
	"strings"
)

// Greeting, politeness and filler patterns stripped before parsing. Applied
// in order against the start or end of the input.
var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^hey\s+`),
	regexp.MustCompile(`^hi\s*,?\s*`),
	regexp.MustCompile(`^hello\s*,?\s*`),
	regexp.MustCompile(`^yo\s*,?\s*`),
	regexp.MustCompile(`^what's up\s*,?\s*`),
	regexp.MustCompile(`^wassup\s*,?\s*`),
	regexp.MustCompile(`^bro\s*,?\s*`),
	regexp.MustCompile(`^mate\s*,?\s*`),
	regexp.MustCompile(`^please\s*,?\s*`),
	regexp.MustCompile(`^can you\s+`),
	regexp.MustCompile(`^could you\s+`),
	regexp.MustCompile(`^would you\s+`),
	regexp.MustCompile(`^i want to\s+`),
	regexp.MustCompile(`^i need to\s+`),
	regexp.MustCompile(`^so\s+`),
	regexp.MustCompile(`^ok(?:ay)?\s+`),
	regexp.MustCompile(`^alright\s+`),
	regexp.MustCompile(`\s+bro\s*$`),
	regexp.MustCompile(`\s+man\s*$`),
	regexp.MustCompile(`\s+boss\s*$`),
	regexp.MustCompile(`\s+fam\s*$`),
}

var multiSpace = regexp.MustCompile(`\s{2,}`)

// commandStarters are verbs that mark the input as an actual command rather
// than small talk.
var commandStarters = []string{
	"set", "change", "update", "modify", "adjust",
	"show", "display", "list", "query", "find", "search", "what",
	"make", "create", "generate", "apply", "approve",
	"copy", "clone", "duplicate",
	"compare", "diff",
	"reset", "restore", "revert",
	"increase", "decrease", "raise", "lower", "multiply", "divide", "scale",
	"enable", "disable",
	"undo", "redo", "cancel", "reject", "history", "help", "formula",
}

// Preprocess lowercases, strips greetings/politeness noise and collapses
// whitespace. If stripping leaves nothing usable the trimmed original is
// returned so nothing is lost for diagnostics.
func Preprocess(input string) string {
	trimmed := strings.TrimSpace(strings.ToLower(input))
	if trimmed == "" {
		return trimmed
	}
	result := trimmed
	for _, re := range noisePatterns {
		result = re.ReplaceAllString(result, "")
	}
	result = strings.TrimSpace(multiSpace.ReplaceAllString(result, " "))
	if len(result) < 3 {
		return trimmed
	}
	return result
}

// IsGreeting reports whether the input is small talk with no command in it.
// The executor answers these with the help text instead of parsing.
func IsGreeting(input string) bool {
	processed := Preprocess(input)
	for _, starter := range commandStarters {
		if strings.HasPrefix(processed, starter) {
			return false
		}
	}
	if len(processed) < 5 {
		return true
	}
	// A recognizable target or field still counts as a command attempt.
	if reGroupExpr.MatchString(processed) || strings.Contains(processed, "engine") {
		return false
	}
	return true
}

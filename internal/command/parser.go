package command

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gridfx-config-bot/internal/schema"
)

// Group expressions: "group 7", "group7", "groups 1-5", "groups 1 to 5",
// "groups 1 - 5". The optional range tail is re-examined against the group
// ceiling before it is believed, because "group 1 to 600" is a value
// assignment, not a range.
var reGroupExpr = regexp.MustCompile(`\bgroups?\s*(\d+)(?:(?:\s*-\s*|\s+to\s+)(\d+))?`)

var (
	reEngine    = regexp.MustCompile(`\bengines?\s*([a-c])\b`)
	reEngineAnd = regexp.MustCompile(`^\s*(?:,|and)\s*([a-c])\b`)
	reToggle    = regexp.MustCompile(`\b(enable|disable)\b`)
	reConnector = regexp.MustCompile(`(?:\bto\b|=|\bat\b)\s*(-?\d+(?:\.\d+)?|[a-z][a-z_]*)`)
	reBareNum   = regexp.MustCompile(`(^|\s)(-?\d+(?:\.\d+)?)(\s|$)`)
	reCompareOp = regexp.MustCompile(`(>=|<=|==|=|>|<)\s*(-?\d+(?:\.\d+)?)`)
	reFromTo    = regexp.MustCompile(`\bfrom\s+(-?\d+(?:\.\d+)?)\s+to\s+(-?\d+(?:\.\d+)?)`)
	reFactor    = regexp.MustCompile(`\b(?:factor|ratio|step)\s+(-?\d+(?:\.\d+)?)`)
	reStartOnly = regexp.MustCompile(`\b(?:from|start(?:ing)?\s+(?:at|with)?)\s+(-?\d+(?:\.\d+)?)`)
	reRelative  = regexp.MustCompile(`\b(increase|raise|decrease|lower|reduce|multiply|scale|divide)\b`)
	reOperand   = regexp.MustCompile(`\bby\s+(-?\d+(?:\.\d+)?)\s*(%|percent)?`)
	reFormulaOp = regexp.MustCompile(`([*+/-])\s*(-?\d+(?:\.\d+)?)`)
)

var logicMatchers = buildLogicMatchers()

type logicMatcher struct {
	re        *regexp.Regexp
	canonical string
}

func buildLogicMatchers() []logicMatcher {
	aliases := schema.LogicAliases()
	out := make([]logicMatcher, 0, len(aliases))
	for _, a := range aliases {
		out = append(out, logicMatcher{
			re:        regexp.MustCompile(`\b` + regexp.QuoteMeta(a.Surface) + `\b`),
			canonical: a.Canonical,
		})
	}
	return out
}

var fieldMatchers = buildFieldMatchers()

type fieldMatcher struct {
	re      *regexp.Regexp
	field   string
	surface string
}

func buildFieldMatchers() []fieldMatcher {
	var out []fieldMatcher
	for _, spec := range schema.Fields() {
		for _, alias := range spec.Aliases {
			out = append(out, fieldMatcher{
				re:      regexp.MustCompile(`\b` + regexp.QuoteMeta(alias) + `\b`),
				field:   spec.Name,
				surface: alias,
			})
		}
	}
	return out
}

// Parse turns raw operator text into a structured command. It never returns
// an error: unrecognized input yields CommandUnknown with the raw text kept
// for echoing back to the operator.
func Parse(raw string) ParsedCommand {
	cmd := ParsedCommand{Raw: raw, Type: CommandUnknown}

	text := Preprocess(raw)
	if text == "" {
		return cmd
	}

	cmd.Type = classify(text)
	working := text

	// Progression boundaries are pulled out before group extraction cannot
	// touch them, but after classification.
	if cmd.Type == CommandProgression {
		working = extractProgression(working, &cmd)
	}

	// The copy source is positional (the group named before "to"), so it is
	// pulled out before the generic pass merges and sorts all group mentions.
	if cmd.Type == CommandCopy {
		working = extractCopySource(working, &cmd)
	}

	working = extractGroups(working, &cmd.Target)
	working = extractLogics(working, &cmd.Target)
	working = extractEngines(working, &cmd.Target)

	toggle := ""
	if m := reToggle.FindStringSubmatch(working); m != nil {
		toggle = m[1]
		working = strings.Replace(working, m[0], " ", 1)
	}

	working = extractField(working, &cmd)

	switch {
	case toggle != "":
		applyToggle(toggle, &cmd)
	case cmd.Type == CommandSet:
		working = extractValue(working, &cmd)
	case cmd.Type == CommandQuery:
		extractComparison(working, &cmd)
	case cmd.Type == CommandSemantic:
		extractSemantic(text, working, &cmd)
	case cmd.Type == CommandFormula:
		extractFormula(working, &cmd)
	case cmd.Type == CommandCopy:
		// Fallback for copies without a leading single-group source
		// ("copy 3 to groups 4-6" never matches a group token).
		if cmd.Params.SourceGroup == 0 && len(cmd.Target.Groups) > 0 {
			cmd.Params.SourceGroup = cmd.Target.Groups[0]
			cmd.Target.Groups = cmd.Target.Groups[1:]
		}
	}

	finalize(&cmd)
	return cmd
}

// classify maps the lead verb to a command type. Meta verbs (apply, undo,
// redo, help...) are intercepted by the executor before Parse is reached.
func classify(text string) Type {
	if strings.Contains(text, "progression") {
		return CommandProgression
	}
	first := text
	if i := strings.IndexByte(text, ' '); i > 0 {
		first = text[:i]
	}
	switch first {
	case "set", "change", "update", "modify", "adjust", "enable", "disable":
		return CommandSet
	case "show", "display", "list", "find", "search", "query", "what", "which":
		return CommandQuery
	case "copy", "clone", "duplicate":
		return CommandCopy
	case "compare", "diff":
		return CommandCompare
	case "reset", "restore", "revert":
		return CommandReset
	case "formula":
		return CommandFormula
	case "increase", "raise", "decrease", "lower", "reduce", "multiply", "divide", "scale", "make":
		return CommandSemantic
	}
	if strings.Contains(text, "aggressive") || strings.Contains(text, "safer") ||
		strings.Contains(text, "conservative") {
		return CommandSemantic
	}
	return CommandUnknown
}

// extractGroups accumulates every group mention into an ascending,
// deduplicated list and blanks the consumed spans so later stages cannot
// mistake a group number for a value. A bare integer counts as a group only
// when it directly follows a group/groups token; "to 600" after "group 1"
// stays in the string as a value. Integers above schema.MaxGroups are
// dropped during extraction.
func extractGroups(text string, target *Target) string {
	seen := make(map[int]bool)
	var blanks [][2]int

	for _, m := range reGroupExpr.FindAllStringSubmatchIndex(text, -1) {
		start, _ := strconv.Atoi(text[m[2]:m[3]])
		hasRange := m[4] >= 0
		if hasRange {
			end, _ := strconv.Atoi(text[m[4]:m[5]])
			if end > schema.MaxGroups {
				// "group 1 to 600" is a value assignment: keep only the
				// leading group and leave "to 600" in the string.
				if start >= 1 && start <= schema.MaxGroups {
					seen[start] = true
				}
				blanks = append(blanks, [2]int{m[0], m[3]})
				continue
			}
			lo, hi := start, end
			if lo > hi {
				lo, hi = hi, lo
			}
			for n := lo; n <= hi; n++ {
				if n >= 1 {
					seen[n] = true
				}
			}
			blanks = append(blanks, [2]int{m[0], m[1]})
			continue
		}
		if start >= 1 && start <= schema.MaxGroups {
			seen[start] = true
		}
		blanks = append(blanks, [2]int{m[0], m[1]})
	}

	if len(seen) > 0 {
		groups := make([]int, 0, len(seen))
		for n := range seen {
			groups = append(groups, n)
		}
		sort.Ints(groups)
		target.Groups = append(target.Groups, groups...)
	}
	return blankSpans(text, blanks)
}

// extractLogics matches the closed alias table longest-first with word
// boundaries, so "repower" is never read as POWER. First-seen order by
// position in the text is preserved.
func extractLogics(text string, target *Target) string {
	type hit struct {
		pos       int
		canonical string
	}
	var hits []hit
	var blanks [][2]int
	consumed := make([]bool, len(text))

	for _, lm := range logicMatchers {
		for _, m := range lm.re.FindAllStringIndex(text, -1) {
			if consumed[m[0]] {
				continue
			}
			for i := m[0]; i < m[1]; i++ {
				consumed[i] = true
			}
			hits = append(hits, hit{pos: m[0], canonical: lm.canonical})
			blanks = append(blanks, [2]int{m[0], m[1]})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	for _, h := range hits {
		if !containsString(target.Logics, h.canonical) {
			target.Logics = append(target.Logics, h.canonical)
		}
	}
	return blankSpans(text, blanks)
}

// extractCopySource resolves the first group expression as the copy source
// and removes it from the string, leaving every target mention (including a
// repeat of the source itself) for the generic group pass and the self-copy
// guard downstream.
func extractCopySource(text string, cmd *ParsedCommand) string {
	m := reGroupExpr.FindStringSubmatchIndex(text)
	if m == nil {
		return text
	}
	src, _ := strconv.Atoi(text[m[2]:m[3]])
	if src < 1 || src > schema.MaxGroups {
		return text
	}
	if m[4] < 0 {
		cmd.Params.SourceGroup = src
		return blankSpans(text, [][2]int{{m[0], m[1]}})
	}
	// "copy group 1 to 3" folds the target into the same group expression;
	// rewrite the tail as a target. A dashed range ("groups 1-3") names
	// multiple groups and has no single source, so it falls through to the
	// generic pass.
	if !strings.Contains(text[m[3]:m[4]], "to") {
		return text
	}
	cmd.Params.SourceGroup = src
	return text[:m[0]] + "group " + text[m[4]:m[5]] + text[m[1]:]
}

func extractEngines(text string, target *Target) string {
	var blanks [][2]int
	for _, m := range reEngine.FindAllStringSubmatchIndex(text, -1) {
		id := strings.ToUpper(text[m[2]:m[3]])
		if !containsString(target.Engines, id) {
			target.Engines = append(target.Engines, id)
		}
		blanks = append(blanks, [2]int{m[0], m[1]})
		// "engine a and b" / "engines a, b"
		rest := text[m[1]:]
		offset := m[1]
		for {
			tail := reEngineAnd.FindStringSubmatchIndex(rest)
			if tail == nil {
				break
			}
			id := strings.ToUpper(rest[tail[2]:tail[3]])
			if !containsString(target.Engines, id) {
				target.Engines = append(target.Engines, id)
			}
			blanks = append(blanks, [2]int{offset + tail[0], offset + tail[1]})
			offset += tail[1]
			rest = rest[tail[1]:]
		}
	}
	return blankSpans(text, blanks)
}

// extractField resolves the first field alias in registry order, which is
// arranged most-specific-first ("trail_step_cycle" before "trail_step"
// before "trail").
func extractField(text string, cmd *ParsedCommand) string {
	for _, fm := range fieldMatchers {
		if m := fm.re.FindStringIndex(text); m != nil {
			cmd.Field = fm.field
			return blankSpans(text, [][2]int{{m[0], m[1]}})
		}
	}
	return text
}

func applyToggle(toggle string, cmd *ParsedCommand) {
	cmd.Type = CommandSet
	if cmd.Field != "" {
		if spec, ok := schema.BoolFieldFor(cmd.Field); ok {
			cmd.Field = spec.Name
		}
	} else {
		// "disable power group 2" toggles the logic itself
		cmd.Field = "enabled"
	}
	cmd.Params.Value = strconv.FormatBool(toggle == "enable")
	cmd.Params.HasValue = true
}

// extractValue finds the assignment value via a connecting token ("to",
// "=", "at") or, failing that, the first bare numeric token left in the
// string ("set grid 600").
func extractValue(text string, cmd *ParsedCommand) string {
	if m := reConnector.FindStringSubmatchIndex(text); m != nil {
		cmd.Params.Value = text[m[2]:m[3]]
		cmd.Params.HasValue = true
		return blankSpans(text, [][2]int{{m[0], m[1]}})
	}
	if m := reBareNum.FindStringSubmatchIndex(text); m != nil {
		cmd.Params.Value = text[m[4]:m[5]]
		cmd.Params.HasValue = true
		return blankSpans(text, [][2]int{{m[4], m[5]}})
	}
	return text
}

func extractComparison(text string, cmd *ParsedCommand) {
	if m := reCompareOp.FindStringSubmatch(text); m != nil {
		op := m[1]
		if op == "==" {
			op = "="
		}
		cmd.Params.Operator = op
		cmd.Params.CompareValue, _ = strconv.ParseFloat(m[2], 64)
		return
	}
	// "show groups with grid above 500" / "below 500"
	for word, op := range map[string]string{"above": ">", "over": ">", "below": "<", "under": "<"} {
		re := regexp.MustCompile(`\b` + word + `\s+(-?\d+(?:\.\d+)?)`)
		if m := re.FindStringSubmatch(text); m != nil {
			cmd.Params.Operator = op
			cmd.Params.CompareValue, _ = strconv.ParseFloat(m[1], 64)
			return
		}
	}
}

func extractProgression(text string, cmd *ParsedCommand) string {
	switch {
	case strings.Contains(text, "fibonacci") || regexp.MustCompile(`\bfib\b`).MatchString(text):
		cmd.Params.Progression = ProgressionFibonacci
	case strings.Contains(text, "exponential") || regexp.MustCompile(`\bexp\b`).MatchString(text):
		cmd.Params.Progression = ProgressionExponential
	case strings.Contains(text, "custom"):
		cmd.Params.Progression = ProgressionCustom
	default:
		cmd.Params.Progression = ProgressionLinear
	}

	var blanks [][2]int
	if m := reFromTo.FindStringSubmatchIndex(text); m != nil {
		cmd.Params.StartValue, _ = strconv.ParseFloat(text[m[2]:m[3]], 64)
		cmd.Params.EndValue, _ = strconv.ParseFloat(text[m[4]:m[5]], 64)
		cmd.Params.HasEnd = true
		blanks = append(blanks, [2]int{m[0], m[1]})
	} else if m := reStartOnly.FindStringSubmatchIndex(text); m != nil {
		cmd.Params.StartValue, _ = strconv.ParseFloat(text[m[2]:m[3]], 64)
		blanks = append(blanks, [2]int{m[0], m[1]})
	}
	if m := reFactor.FindStringSubmatchIndex(text); m != nil {
		cmd.Params.Factor, _ = strconv.ParseFloat(text[m[2]:m[3]], 64)
		blanks = append(blanks, [2]int{m[0], m[1]})
	}
	return blankSpans(text, blanks)
}

// Semantic presets translate mood words into concrete relative operations.
var semanticPresets = map[string][]SemanticOp{
	"aggressive": {
		{Field: "initial_lot", Op: "increase", Operand: 20, IsPercent: true},
		{Field: "multiplier", Op: "increase", Operand: 5, IsPercent: true},
		{Field: "grid", Op: "decrease", Operand: 10, IsPercent: true},
	},
	"safer": {
		{Field: "initial_lot", Op: "decrease", Operand: 20, IsPercent: true},
		{Field: "multiplier", Op: "decrease", Operand: 5, IsPercent: true},
		{Field: "grid", Op: "increase", Operand: 10, IsPercent: true},
	},
}

func extractSemantic(original, working string, cmd *ParsedCommand) {
	sem := &Semantic{Description: original}

	switch {
	case strings.Contains(original, "aggressive"):
		sem.Operations = append(sem.Operations, semanticPresets["aggressive"]...)
	case strings.Contains(original, "safer"), strings.Contains(original, "conservative"):
		sem.Operations = append(sem.Operations, semanticPresets["safer"]...)
	default:
		verb := ""
		if m := reRelative.FindStringSubmatch(working); m != nil {
			verb = m[1]
		}
		op := normalizeVerb(verb)
		if op == "" || cmd.Field == "" {
			break
		}
		operand := 0.0
		isPercent := false
		if m := reOperand.FindStringSubmatch(working); m != nil {
			operand, _ = strconv.ParseFloat(m[1], 64)
			isPercent = m[2] != ""
		} else if m := reBareNum.FindStringSubmatch(working); m != nil {
			operand, _ = strconv.ParseFloat(m[2], 64)
		}
		if operand != 0 {
			sem.Operations = append(sem.Operations, SemanticOp{
				Field: cmd.Field, Op: op, Operand: operand, IsPercent: isPercent,
			})
		}
	}

	if len(sem.Operations) > 0 {
		cmd.Semantic = sem
	}
}

func normalizeVerb(verb string) string {
	switch verb {
	case "increase", "raise":
		return "increase"
	case "decrease", "lower", "reduce":
		return "decrease"
	case "multiply", "scale":
		return "multiply"
	case "divide":
		return "divide"
	}
	return ""
}

// extractFormula reads "formula grid = current * 1.1" style arithmetic and
// reuses the semantic operation machinery for planning.
func extractFormula(working string, cmd *ParsedCommand) {
	if cmd.Field == "" {
		return
	}
	rest := working
	if i := strings.IndexByte(rest, '='); i >= 0 {
		rest = rest[i+1:]
	}
	m := reFormulaOp.FindStringSubmatch(rest)
	if m == nil {
		return
	}
	operand, _ := strconv.ParseFloat(m[2], 64)
	var op string
	switch m[1] {
	case "*":
		op = "multiply"
	case "/":
		op = "divide"
	case "+":
		op = "increase"
	case "-":
		op = "decrease"
	}
	cmd.Semantic = &Semantic{
		Description: cmd.Raw,
		Operations:  []SemanticOp{{Field: cmd.Field, Op: op, Operand: operand}},
	}
}

// finalize applies the best-effort fallback: input without a recognized verb
// but with a plausible field/value shape becomes a set or query instead of
// unknown.
func finalize(cmd *ParsedCommand) {
	if cmd.Type != CommandUnknown {
		return
	}
	if cmd.Field == "" && len(cmd.Target.Groups) == 0 &&
		len(cmd.Target.Logics) == 0 && len(cmd.Target.Engines) == 0 {
		return
	}
	working := Preprocess(cmd.Raw)
	probe := ParsedCommand{Raw: cmd.Raw}
	rest := extractGroups(working, &probe.Target)
	rest = extractLogics(rest, &probe.Target)
	rest = extractEngines(rest, &probe.Target)
	rest = extractField(rest, &probe)
	extractValue(rest, &probe)
	if probe.Field != "" && probe.Params.HasValue {
		cmd.Type = CommandSet
		cmd.Params.Value = probe.Params.Value
		cmd.Params.HasValue = true
		return
	}
	cmd.Type = CommandQuery
}

func blankSpans(text string, spans [][2]int) string {
	if len(spans) == 0 {
		return text
	}
	b := []byte(text)
	for _, span := range spans {
		for i := span[0]; i < span[1] && i < len(b); i++ {
			b[i] = ' '
		}
	}
	return string(b)
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// Describe renders a short human summary of the parsed command, used in
// plan descriptions and history listings.
func Describe(cmd ParsedCommand) string {
	var b strings.Builder
	b.WriteString(string(cmd.Type))
	if cmd.Field != "" {
		b.WriteString(" " + cmd.Field)
	}
	if cmd.Params.HasValue {
		b.WriteString(" = " + cmd.Params.Value)
	}
	if len(cmd.Target.Logics) > 0 {
		b.WriteString(" [" + strings.Join(cmd.Target.Logics, ",") + "]")
	}
	if len(cmd.Target.Groups) > 0 {
		parts := make([]string, len(cmd.Target.Groups))
		for i, g := range cmd.Target.Groups {
			parts[i] = strconv.Itoa(g)
		}
		b.WriteString(" groups " + strings.Join(parts, ","))
	}
	if len(cmd.Target.Engines) > 0 {
		b.WriteString(" engines " + strings.Join(cmd.Target.Engines, ","))
	}
	return b.String()
}

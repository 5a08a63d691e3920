package diagram

import "strings"

// Rule is one priority-ranked predicate of the type classifier.
// Match receives the node's shape hint and its sanitized label.
type Rule struct {
	Name  string
	Type  NodeType
	Match func(shape Shape, label string) bool
}

// Keyword sets used by the label rules. Matching is a case-insensitive
// substring test.
var (
	DecisionKeywords = []string{"review", "approve", "decision", "verify", "check", "validate", "confirm", "?"}
	StartKeywords    = []string{"start", "begin"}
	EndKeywords      = []string{"end", "stop"}
	ClientKeywords   = []string{"client", "user"}
	ServerKeywords   = []string{"server", "api"}
)

// DefaultRules is the classifier's rule list in priority order. Shape signals
// come first so an explicit cylinder or diamond is never overridden by label
// text. The list ends without a catch-all; [Classify] falls back to
// [TypeProcess].
var DefaultRules = []Rule{
	{Name: "shape-database", Type: TypeDatabase, Match: shapeIs(ShapeCylinder)},
	{Name: "shape-decision", Type: TypeDecision, Match: shapeIs(ShapeDiamond, ShapeHexagon)},
	{Name: "label-decision", Type: TypeDecision, Match: labelHas(DecisionKeywords)},
	{Name: "label-start", Type: TypeStart, Match: labelHas(StartKeywords)},
	{Name: "label-end", Type: TypeEnd, Match: labelHas(EndKeywords)},
	{Name: "label-client", Type: TypeClient, Match: labelHas(ClientKeywords)},
	{Name: "label-server", Type: TypeServer, Match: labelHas(ServerKeywords)},
}

// Classify returns the node type for a shape and label using [DefaultRules].
func Classify(shape Shape, label string) NodeType {
	return ClassifyWith(DefaultRules, shape, label)
}

// ClassifyWith evaluates rules in order and returns the type of the first
// match, or [TypeProcess] when nothing matches.
func ClassifyWith(rules []Rule, shape Shape, label string) NodeType {
	for _, r := range rules {
		if r.Match(shape, label) {
			return r.Type
		}
	}
	return TypeProcess
}

// InsertRule returns a copy of rules with r inserted at priority index i.
// An index past the end appends.
func InsertRule(rules []Rule, i int, r Rule) []Rule {
	out := make([]Rule, 0, len(rules)+1)
	if i > len(rules) {
		i = len(rules)
	}
	if i < 0 {
		i = 0
	}
	out = append(out, rules[:i]...)
	out = append(out, r)
	return append(out, rules[i:]...)
}

func shapeIs(shapes ...Shape) func(Shape, string) bool {
	return func(s Shape, _ string) bool {
		for _, want := range shapes {
			if s == want {
				return true
			}
		}
		return false
	}
}

func labelHas(keywords []string) func(Shape, string) bool {
	return func(_ Shape, label string) bool {
		return containsAny(label, keywords)
	}
}

func containsAny(s string, keywords []string) bool {
	s = strings.ToLower(s)
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

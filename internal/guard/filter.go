package guard

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aalejandroaraujo/winlog-mcp/internal/config"
)

// blockRule is one entry of the ordered filter blocklist.
type blockRule struct {
	desc string
	re   *regexp.Regexp
}

// filterBlocklist enumerates dangerous XPath constructs. This is a
// denylist: anything not listed here is implicitly permitted, which is
// why the character whitelist below backs it up. Order is the order
// reasons are reported in.
var filterBlocklist = []blockRule{
	{"external document access (document())", regexp.MustCompile(`(?i)\bdocument\s*\(`)},
	{"string function call", regexp.MustCompile(`(?i)\b(?:substring(?:-before|-after)?|concat|contains|starts-with|string-length|normalize-space|translate|string)\s*\(`)},
	{"boolean function call", regexp.MustCompile(`(?i)\b(?:true|false|not|boolean|lang)\s*\(`)},
	{"numeric function call", regexp.MustCompile(`(?i)\b(?:count|sum|floor|ceiling|round|number)\s*\(`)},
	{"node function call", regexp.MustCompile(`(?i)\b(?:id|name|local-name|namespace-uri)\s*\(`)},
	{"node-test function call", regexp.MustCompile(`(?i)\b(?:comment|processing-instruction|text|node)\s*\(`)},
	{"variable reference", regexp.MustCompile(`\$[A-Za-z_]`)},
	{"restricted traversal axis", regexp.MustCompile(`(?i)\b(?:namespace|preceding(?:-sibling)?|following(?:-sibling)?|ancestor(?:-or-self)?|descendant(?:-or-self)?)\s*::`)},
	{"parent traversal", regexp.MustCompile(`\.\.`)},
	{"quote followed by predicate break", regexp.MustCompile(`['"]\s*\]\s*\[`)},
	{"double-hyphen comment marker", regexp.MustCompile(`--`)},
	{"C-style comment opener", regexp.MustCompile(`/\*`)},
}

// filterWhitelist is the complete safe character set. Any byte outside
// it rejects the filter even when no blocklist rule fires.
var filterWhitelist = regexp.MustCompile(`^[A-Za-z0-9\[\]()@*/\-.=<>!'":,\s]*$`)

// ValidateFilter checks a caller-supplied XPath filter against the
// blocklist, the character whitelist, and the complexity limits. An
// empty or all-whitespace input is the valid "no filter" case and
// returns "". A valid filter is returned trimmed but otherwise
// unmodified: validation never rewrites input, it only accepts or
// rejects.
func ValidateFilter(input string, limits config.Limits) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", nil
	}

	if len(trimmed) > limits.MaxFilterLength {
		return "", &FilterTooComplexError{
			Reason: fmt.Sprintf("length %d exceeds maximum %d", len(trimmed), limits.MaxFilterLength),
		}
	}

	var reasons []string
	for _, rule := range filterBlocklist {
		if rule.re.MatchString(trimmed) {
			reasons = append(reasons, rule.desc)
		}
	}
	if len(reasons) > 0 {
		return "", &FilterRejectedError{Reasons: reasons}
	}

	if !filterWhitelist.MatchString(trimmed) {
		return "", &FilterRejectedError{Reasons: []string{"disallowed character"}}
	}

	depth := 0
	maxDepth := 0
	for _, r := range trimmed {
		switch r {
		case '[':
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		case ']':
			depth--
			if depth < 0 {
				return "", &FilterRejectedError{Reasons: []string{"unbalanced brackets"}}
			}
		}
	}
	if depth != 0 {
		return "", &FilterRejectedError{Reasons: []string{"unbalanced brackets"}}
	}
	if maxDepth > limits.MaxNestingDepth {
		return "", &FilterTooComplexError{
			Reason: fmt.Sprintf("nesting depth %d exceeds maximum %d", maxDepth, limits.MaxNestingDepth),
		}
	}

	if n := strings.Count(trimmed, "["); n > limits.MaxPredicates {
		return "", &FilterTooComplexError{
			Reason: fmt.Sprintf("%d predicates exceed maximum %d", n, limits.MaxPredicates),
		}
	}

	return trimmed, nil
}

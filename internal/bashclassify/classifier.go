// Package bashclassify decides whether a shell command line is read-only
// against a configurable, sectioned allowlist, vetoing anything matching a
// destructive pattern even when the command itself is allowlisted.
package bashclassify

import (
	"strings"
)

// Decision is the verdict for a single command line.
type Decision struct {
	Allowed bool
	Reason  string
}

// destructiveVerbs are always blocked regardless of the allowlist, because
// they mutate state even when the command otherwise looks read-only.
var destructiveVerbs = map[string]bool{
	"rm":    true,
	"mv":    true,
	"cp":    true,
	"mkdir": true,
	"touch": true,
}

// destructiveTwoWord are two-word commands always blocked regardless of the
// allowlist.
var destructiveTwoWord = map[string]bool{
	"git commit": true,
	"git push":   true,
	"git merge":  true,
	"npm install": true,
	"pip install": true,
	"go install":  true,
}

// Classify evaluates cmd against the sectioned allowlist and returns the
// verdict: tokenize into pipe/&&/||/;-separated subcommands (quote-aware),
// then require every subcommand to be both allowlisted and free of
// destructive patterns.
func Classify(cmd string, allowlist map[string][]string) Decision {
	trimmed := strings.TrimSpace(cmd)
	if trimmed == "" {
		return Decision{Allowed: true}
	}

	subcommands, err := splitSubcommands(cmd)
	if err != nil {
		return Decision{Allowed: false, Reason: "unparsable quotes"}
	}

	flat := flattenAllowlist(allowlist)

	for _, sub := range subcommands {
		sub = strings.TrimSpace(sub)
		if sub == "" {
			continue
		}

		if d := checkDestructive(sub); !d.Allowed {
			return d
		}

		if !isAllowlisted(sub, flat) {
			return Decision{Allowed: false, Reason: "not in read-only allowlist: " + firstWords(sub)}
		}
	}

	return Decision{Allowed: true}
}

func flattenAllowlist(allowlist map[string][]string) map[string]bool {
	flat := make(map[string]bool)
	for _, entries := range allowlist {
		for _, e := range entries {
			flat[e] = true
		}
	}
	return flat
}

func isAllowlisted(sub string, flat map[string]bool) bool {
	one, two := commandWords(sub)
	if two != "" && flat[two] {
		return true
	}
	return flat[one]
}

// commandWords returns the first word of sub, and (if present) the first
// two words joined by a single space.
func commandWords(sub string) (one, two string) {
	fields := strings.Fields(sub)
	if len(fields) == 0 {
		return "", ""
	}
	one = fields[0]
	if len(fields) >= 2 {
		two = fields[0] + " " + fields[1]
	}
	return one, two
}

func firstWords(sub string) string {
	_, two := commandWords(sub)
	if two != "" {
		return two
	}
	one, _ := commandWords(sub)
	return one
}

// hasOutputRedirection reports whether sub redirects output to a file. File
// descriptor duplication ("2>&1", "1>&2") is not a file write and is not
// flagged.
func hasOutputRedirection(sub string) bool {
	stripped := strings.NewReplacer("2>&1", "", "1>&2", "").Replace(sub)
	return strings.Contains(stripped, ">")
}

// checkDestructive vetoes known-destructive patterns even when the command
// would otherwise be allowlisted: output redirection, the -delete flag,
// find's -exec clause, embedded command substitution, and always-blocked
// verbs.
func checkDestructive(sub string) Decision {
	one, two := commandWords(sub)

	if destructiveVerbs[one] {
		return Decision{Allowed: false, Reason: "destructive command: " + one}
	}
	if two != "" && destructiveTwoWord[two] {
		return Decision{Allowed: false, Reason: "destructive command: " + two}
	}

	if strings.Contains(sub, "-delete") {
		return Decision{Allowed: false, Reason: "destructive flag: -delete"}
	}
	if strings.Contains(sub, "-exec") {
		return Decision{Allowed: false, Reason: "destructive flag: -exec"}
	}
	if hasOutputRedirection(sub) {
		return Decision{Allowed: false, Reason: "output redirection"}
	}
	if strings.Contains(sub, "$(") || strings.Contains(sub, "`") {
		return Decision{Allowed: false, Reason: "embedded command substitution"}
	}

	return Decision{Allowed: true}
}

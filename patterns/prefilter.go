package patterns

import (
	"bytes"

	"github.com/cloudflare/ahocorasick"
)

// prefilter narrows the rule set per entry with a single multi-pattern
// pass over the lowercased content. Rules without literal anchors are
// always evaluated.
type prefilter struct {
	matcher    *ahocorasick.Matcher
	tokenRules [][]int
	always     []int
}

func newPrefilter(rules []Rule) *prefilter {
	p := &prefilter{}
	var tokens [][]byte
	for i, rule := range rules {
		if len(rule.Tokens) == 0 {
			p.always = append(p.always, i)
			continue
		}
		for _, token := range rule.Tokens {
			tokens = append(tokens, []byte(token))
			p.tokenRules = append(p.tokenRules, []int{i})
		}
	}
	if len(tokens) > 0 {
		p.matcher = ahocorasick.NewMatcher(tokens)
	}
	return p
}

// candidates returns the indexes of rules worth running against content.
func (p *prefilter) candidates(content []byte) []int {
	out := append([]int(nil), p.always...)
	if p.matcher == nil {
		return out
	}
	hits := p.matcher.MatchThreadSafe(bytes.ToLower(content))
	if len(hits) == 0 {
		return out
	}
	seen := make(map[int]struct{}, len(hits))
	for _, tokenIdx := range hits {
		if tokenIdx < 0 || tokenIdx >= len(p.tokenRules) {
			continue
		}
		for _, ruleIdx := range p.tokenRules[tokenIdx] {
			if _, dup := seen[ruleIdx]; dup {
				continue
			}
			seen[ruleIdx] = struct{}{}
			out = append(out, ruleIdx)
		}
	}
	return out
}

package classify

import "sort"

// Coverage summarizes how a batch of names was classified.
type Coverage struct {
	Total          int         `json:"total"`
	NodeClassified int         `json:"node_classified"`
	PortClassified int         `json:"port_classified"` // port-only matches, companions excluded
	Unclassified   int         `json:"unclassified"`
	Empty          int         `json:"empty"` // rows with neither name
	RuleHits       map[int]int `json:"rule_hits"`
}

// Summarize counts results by the path that produced them.
func Summarize(results []Result) Coverage {
	cov := Coverage{Total: len(results), RuleHits: make(map[int]int)}
	for i := range results {
		r := &results[i]
		switch {
		case r.NodeSymbUsed:
			cov.NodeClassified++
		case r.PortSymbUsed:
			cov.PortClassified++
		case r.DeviceName == nil && r.DevicePort == nil:
			cov.Empty++
		default:
			cov.Unclassified++
		}
		if r.NodeSymbRuleID != nil {
			cov.RuleHits[*r.NodeSymbRuleID]++
		}
		if r.PortSymbRuleID != nil {
			cov.RuleHits[*r.PortSymbRuleID]++
		}
	}
	return cov
}

// Classified returns the number of results produced by a rule.
func (c Coverage) Classified() int {
	return c.NodeClassified + c.PortClassified
}

// UnclassifiedRatio is the share of non-empty rows that fell through to raw names.
func (c Coverage) UnclassifiedRatio() float64 {
	n := c.Total - c.Empty
	if n == 0 {
		return 0
	}
	return float64(c.Unclassified) / float64(n)
}

// TopRules returns rule ids by descending hit count, ties by id.
func (c Coverage) TopRules(limit int) []int {
	ids := make([]int, 0, len(c.RuleHits))
	for id := range c.RuleHits {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if c.RuleHits[ids[i]] != c.RuleHits[ids[j]] {
			return c.RuleHits[ids[i]] > c.RuleHits[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}

// Merge adds o into c.
func (c *Coverage) Merge(o Coverage) {
	c.Total += o.Total
	c.NodeClassified += o.NodeClassified
	c.PortClassified += o.PortClassified
	c.Unclassified += o.Unclassified
	c.Empty += o.Empty
	if len(o.RuleHits) > 0 && c.RuleHits == nil {
		c.RuleHits = make(map[int]int, len(o.RuleHits))
	}
	for id, n := range o.RuleHits {
		c.RuleHits[id] += n
	}
}

package stats

import (
	"sort"

	"github.com/cognicore/treebank/pkg/treebank/instance"
)

// Counter accumulates corpus statistics over dependency instances
type Counter struct {
	N         int64             // total number of sentences
	Tokens    int64             // total number of real tokens
	Labels    map[string]int64  // count per dependency relation
	POS       map[string]int64  // count per fine POS tag
	Arcs      map[ArcPair]int64 // count per head/dependent POS pair
	Relations map[string]int64  // count per relational feature name
	RootArcs  int64             // tokens attached to the synthetic root
	LeftArcs  int64             // dependent precedes its head
	RightArcs int64             // dependent follows its head
	Crossing  int64             // arcs crossing at least one other arc
}

// ArcPair is the POS of a head and of one of its dependents
type ArcPair struct {
	Head, Dep string
}

// NewCounter creates an empty counter
func NewCounter() *Counter {
	return &Counter{
		Labels:    make(map[string]int64),
		POS:       make(map[string]int64),
		Arcs:      make(map[ArcPair]int64),
		Relations: make(map[string]int64),
	}
}

// AddInstance updates counts for one sentence
func (c *Counter) AddInstance(inst *instance.Instance) {
	c.N++
	n := inst.Length()
	c.Tokens += int64(n)

	for i := 1; i <= n; i++ {
		c.Labels[inst.Deprel(i)]++
		c.POS[inst.POS(i)]++

		h := inst.Head(i)
		c.Arcs[ArcPair{Head: inst.POS(h), Dep: inst.POS(i)}]++
		switch {
		case h == 0:
			c.RootArcs++
		case i < h:
			c.LeftArcs++
		default:
			c.RightArcs++
		}
	}

	c.Crossing += int64(crossingArcs(inst.Heads()))

	for _, rf := range inst.Relational() {
		c.Relations[rf.Name]++
	}
}

// crossingArcs counts arcs that cross at least one other arc. heads[0] is
// the root and carries no arc.
func crossingArcs(heads []int) int {
	count := 0
	for i := 1; i < len(heads); i++ {
		lo, hi := span(i, heads[i])
		for j := 1; j < len(heads); j++ {
			if j == i {
				continue
			}
			a, b := span(j, heads[j])
			// Exactly one endpoint strictly inside (lo, hi)
			if (lo < a && a < hi && (b < lo || b > hi)) || (lo < b && b < hi && (a < lo || a > hi)) {
				count++
				break
			}
		}
	}
	return count
}

func span(dep, head int) (int, int) {
	if dep < head {
		return dep, head
	}
	return head, dep
}

// GetLabelCount returns the count for a dependency relation
func (c *Counter) GetLabelCount(label string) int64 {
	return c.Labels[label]
}

// GetArcCount returns the count for a head/dependent POS pair
func (c *Counter) GetArcCount(head, dep string) int64 {
	return c.Arcs[ArcPair{Head: head, Dep: dep}]
}

// TotalSentences returns the number of sentences processed
func (c *Counter) TotalSentences() int64 {
	return c.N
}

// UniqueLabels returns the number of distinct relations
func (c *Counter) UniqueLabels() int {
	return len(c.Labels)
}

// Count is one entry of a ranked listing
type Count struct {
	Key   string `yaml:"key" json:"key"`
	Count int64  `yaml:"count" json:"count"`
}

// TopLabels returns the k most frequent relations, ties broken by name.
// k <= 0 returns all of them.
func (c *Counter) TopLabels(k int) []Count {
	return top(c.Labels, k)
}

// TopPOS returns the k most frequent POS tags
func (c *Counter) TopPOS(k int) []Count {
	return top(c.POS, k)
}

// TopArcs returns the k most frequent head/dependent pairs keyed "HEAD->DEP"
func (c *Counter) TopArcs(k int) []Count {
	flat := make(map[string]int64, len(c.Arcs))
	for p, n := range c.Arcs {
		flat[p.Head+"->"+p.Dep] += n
	}
	return top(flat, k)
}

func top(m map[string]int64, k int) []Count {
	out := make([]Count, 0, len(m))
	for key, n := range m {
		out = append(out, Count{Key: key, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

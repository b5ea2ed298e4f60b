package stats

// Summary is a serializable snapshot of a Counter
type Summary struct {
	Sentences     int64   `yaml:"sentences" json:"sentences"`
	Tokens        int64   `yaml:"tokens" json:"tokens"`
	AvgLength     float64 `yaml:"avg_length" json:"avg_length"`
	RootArcs      int64   `yaml:"root_arcs" json:"root_arcs"`
	LeftArcs      int64   `yaml:"left_arcs" json:"left_arcs"`
	RightArcs     int64   `yaml:"right_arcs" json:"right_arcs"`
	CrossingArcs  int64   `yaml:"crossing_arcs" json:"crossing_arcs"`
	TopLabels     []Count `yaml:"top_labels" json:"top_labels"`
	TopPOS        []Count `yaml:"top_pos" json:"top_pos"`
	TopArcs       []Count `yaml:"top_arcs" json:"top_arcs"`
	RelationNames []Count `yaml:"relations,omitempty" json:"relations,omitempty"`
}

// Snapshot summarizes the counter, keeping the k most frequent entries per listing
func (c *Counter) Snapshot(k int) Summary {
	s := Summary{
		Sentences:     c.N,
		Tokens:        c.Tokens,
		RootArcs:      c.RootArcs,
		LeftArcs:      c.LeftArcs,
		RightArcs:     c.RightArcs,
		CrossingArcs:  c.Crossing,
		TopLabels:     c.TopLabels(k),
		TopPOS:        c.TopPOS(k),
		TopArcs:       c.TopArcs(k),
		RelationNames: top(c.Relations, k),
	}
	if c.N > 0 {
		s.AvgLength = float64(c.Tokens) / float64(c.N)
	}
	return s
}

package engine

// Pool groups a roll of dice by how many dice share each face.
// Buckets hold face values, not counts; a face appears in exactly one bucket.
type Pool struct {
	Singles []int `json:"singles"`
	Doubles []int `json:"doubles"`
	Triples []int `json:"triples"`
	Quads   []int `json:"quads"`
}

// Empty reports whether no dice are held in any bucket.
func (p Pool) Empty() bool {
	return len(p.Singles) == 0 && len(p.Doubles) == 0 && len(p.Triples) == 0 && len(p.Quads) == 0
}

// Clone returns a deep copy so callers can't alias the buckets.
func (p Pool) Clone() Pool {
	return Pool{
		Singles: append([]int{}, p.Singles...),
		Doubles: append([]int{}, p.Doubles...),
		Triples: append([]int{}, p.Triples...),
		Quads:   append([]int{}, p.Quads...),
	}
}

// Classify buckets rolls by occurrence count: 1 single, 2 double, 3 triple, 4+ quad.
// A face rolled five or six times is still one quad entry. Faces outside 1..6 are ignored.
// Buckets come out ascending since faces are visited in order.
func Classify(rolls []int) Pool {
	var counts [Faces + 1]int
	for _, v := range rolls {
		if ValidFace(v) {
			counts[v]++
		}
	}
	p := Pool{Singles: []int{}, Doubles: []int{}, Triples: []int{}, Quads: []int{}}
	for face := 1; face <= Faces; face++ {
		switch n := counts[face]; {
		case n == 1:
			p.Singles = append(p.Singles, face)
		case n == 2:
			p.Doubles = append(p.Doubles, face)
		case n == 3:
			p.Triples = append(p.Triples, face)
		case n >= 4:
			p.Quads = append(p.Quads, face)
		}
	}
	return p
}

// RollPool rolls PoolSize dice and classifies them. The raw rolls are returned for logging.
func (d *Dice) RollPool() (Pool, []int) {
	rolls := d.RollN(PoolSize)
	return Classify(rolls), rolls
}

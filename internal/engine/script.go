package engine

// ScriptedSource is a rand.Source that makes six-sided rolls come out as the
// listed faces, in order, wrapping when exhausted. Used for tests and replays.
type ScriptedSource struct {
	faces []int
	next  int
}

// NewScriptedDice returns dice whose D6 rolls follow faces.
func NewScriptedDice(faces ...int) *Dice {
	return NewDice(&ScriptedSource{faces: faces})
}

// Int63 encodes the next face so that rand.Intn(6) yields face-1.
func (s *ScriptedSource) Int63() int64 {
	if len(s.faces) == 0 {
		return 0
	}
	f := s.faces[s.next%len(s.faces)]
	s.next++
	if f < 1 {
		f = 1
	}
	return int64(f-1) << 32
}

func (s *ScriptedSource) Seed(int64) { s.next = 0 }

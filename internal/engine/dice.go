package engine

import (
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Faces is the number of sides on every die the tracker rolls.
const Faces = 6

// PoolSize is how many dice a warband rolls into its pool each round.
const PoolSize = 6

var diceRe = regexp.MustCompile(`(?i)^\s*(\d+)?\s*d\s*(\d+)(\s*([+\-x*])\s*(\d+))?\s*$`)

// Dice rolls dice from a single random source. Safe for concurrent use.
type Dice struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewDice returns dice backed by src. Tests pass a fixed seed or a scripted source.
func NewDice(src rand.Source) *Dice {
	return &Dice{r: rand.New(src)}
}

// NewRandomDice seeds from the wall clock.
func NewRandomDice() *Dice { return NewDice(rand.NewSource(time.Now().UnixNano())) }

// D6 rolls one six-sided die.
func (d *Dice) D6() int { return d.Roll(Faces) }

// Roll returns a value in [1, sides].
func (d *Dice) Roll(sides int) int {
	if sides <= 0 {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return 1 + d.r.Intn(sides)
}

// RollN rolls n six-sided dice.
func (d *Dice) RollN(n int) []int {
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, d.D6())
	}
	return out
}

// Limits on damage expressions. A count past MaxDice is clamped when
// evaluating and rejected by ValidExpr.
const (
	MaxDice = 20
	MaxTerm = 100
)

type diceExpr struct {
	count, sides int
	op           string
	k            int
}

// parseExpr splits a dice expression into its parts. Numbers too large for an
// int make the expression unparseable.
func parseExpr(expr string) (diceExpr, bool) {
	m := diceRe.FindStringSubmatch(expr)
	if m == nil {
		return diceExpr{}, false
	}
	e := diceExpr{count: 1, op: m[4]}
	var err error
	if m[1] != "" {
		if e.count, err = strconv.Atoi(m[1]); err != nil {
			return diceExpr{}, false
		}
	}
	if e.sides, err = strconv.Atoi(m[2]); err != nil {
		return diceExpr{}, false
	}
	if m[3] != "" {
		if e.k, err = strconv.Atoi(m[5]); err != nil {
			return diceExpr{}, false
		}
	}
	return e, true
}

// Expr evaluates a damage expression. Supports: N, NdM, dM, NdM+K, NdM-K, NdM xK / *K.
// Unparseable expressions evaluate to 0. Counts and terms are clamped to MaxDice and MaxTerm.
func (d *Dice) Expr(expr string) int {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0
	}
	if n, err := strconv.Atoi(expr); err == nil {
		return max(0, min(n, MaxTerm))
	}
	e, ok := parseExpr(expr)
	if !ok {
		return 0
	}
	k := min(e.k, MaxTerm)
	total := 0
	for i := 0; i < min(e.count, MaxDice); i++ {
		total += d.Roll(e.sides)
	}
	switch e.op {
	case "+":
		total += k
	case "-":
		total -= k
	case "x", "X", "*":
		total *= k
	}
	return max(0, total)
}

// ValidExpr reports whether expr is a plain integer in [0, MaxTerm] or a dice
// expression of 1 to MaxDice D3s or D6s with a modifier of at most MaxTerm.
func ValidExpr(expr string) bool {
	expr = strings.TrimSpace(expr)
	if n, err := strconv.Atoi(expr); err == nil {
		return n >= 0 && n <= MaxTerm
	}
	e, ok := parseExpr(expr)
	if !ok {
		return false
	}
	return e.count >= 1 && e.count <= MaxDice &&
		(e.sides == 3 || e.sides == Faces) &&
		e.k <= MaxTerm
}

// ValidFace reports whether v is a face of a six-sided die.
func ValidFace(v int) bool { return v >= 1 && v <= Faces }

package strategy

import (
	"errors"
	"math"
	"sort"

	"github.com/dtnitsch/chat-extract/models"
	"github.com/dtnitsch/chat-extract/pkg/confidence"
	"github.com/dtnitsch/chat-extract/pkg/dom"
	"github.com/dtnitsch/chat-extract/pkg/locate"
	"github.com/dtnitsch/chat-extract/pkg/roles"
)

// ErrNoLayout means the snapshot carries no rendered boxes to reason about.
var ErrNoLayout = errors.New("snapshot has no rendered layout")

const (
	visualBase       = 0.65
	visualAgreeBonus = 0.15
	visualBelowBonus = 0.10
)

// VisualLayout orders candidates top to bottom and tells the sides apart by
// horizontal alignment when the markup carries no role cues. Most chat front
// ends push the user's bubbles to the right.
type VisualLayout struct {
	opts Options
}

// NewVisualLayout returns the visual layout strategy.
func NewVisualLayout(opts Options) *VisualLayout {
	return &VisualLayout{opts: opts.withDefaults()}
}

func (v *VisualLayout) Name() string  { return NameVisualLayout }
func (v *VisualLayout) Priority() int { return 60 }

func (v *VisualLayout) Execute(snap *dom.Snapshot) (*models.ExtractedConversation, error) {
	if !snap.Doc.HasLayout() {
		return nil, ErrNoLayout
	}
	container, err := locateContainer(snap, v.opts)
	if err != nil {
		return nil, err
	}

	var placed []dom.Node
	for _, n := range locate.Candidates(container) {
		if b, ok := n.Box(); ok && b.Width > 0 && b.Height > 0 {
			placed = append(placed, n)
		}
	}
	sort.SliceStable(placed, func(i, j int) bool {
		bi, _ := placed[i].Box()
		bj, _ := placed[j].Box()
		return bi.Y < bj.Y
	})

	centre := centreLine(container, placed)
	lexical := make(map[dom.Node]models.Role, len(placed))
	aligned := make(map[dom.Node]models.Role, len(placed))
	for _, n := range placed {
		lexical[n] = roles.Evidence(n)
		aligned[n] = alignmentRole(n, centre)
	}

	role := func(n dom.Node) models.Role {
		if r := lexical[n]; r != "" {
			return r
		}
		return aligned[n]
	}
	score := func(user, assistant dom.Node) float64 {
		s := visualBase
		if lexical[user] == aligned[user] && lexical[assistant] == aligned[assistant] {
			s += visualAgreeBonus
		}
		ub, _ := user.Box()
		ab, _ := assistant.Box()
		if ab.Y > ub.Y {
			s += visualBelowBonus
		}
		return math.Min(s, confidence.Max)
	}

	rounds := Pair(placed, role, score, v.opts)
	return newResult(snap, v.Name(), rounds, len(placed)), nil
}

// centreLine is the horizontal centre of the container, or of the span the
// candidates cover when the container has no box.
func centreLine(container dom.Node, placed []dom.Node) float64 {
	if b, ok := container.Box(); ok && b.Width > 0 {
		return b.CenterX()
	}
	left, right := math.Inf(1), math.Inf(-1)
	for _, n := range placed {
		b, _ := n.Box()
		left = math.Min(left, b.X)
		right = math.Max(right, b.X+b.Width)
	}
	if math.IsInf(left, 0) {
		return 0
	}
	return (left + right) / 2
}

func alignmentRole(n dom.Node, centre float64) models.Role {
	b, _ := n.Box()
	if b.CenterX() > centre {
		return models.RoleUser
	}
	return models.RoleAssistant
}

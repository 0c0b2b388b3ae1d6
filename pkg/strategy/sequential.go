package strategy

import (
	"github.com/dtnitsch/chat-extract/models"
	"github.com/dtnitsch/chat-extract/pkg/confidence"
	"github.com/dtnitsch/chat-extract/pkg/dom"
	"github.com/dtnitsch/chat-extract/pkg/locate"
	"github.com/dtnitsch/chat-extract/pkg/roles"
)

// MaxPairGap is the largest distance, in elements, between a user message and
// the assistant message that answers it.
const MaxPairGap = 3

// ScoreFunc rates a user/assistant pairing.
type ScoreFunc func(user, assistant dom.Node) float64

// RoleFunc assigns a role to an element, or the empty role when unsure.
type RoleFunc func(dom.Node) models.Role

// Pair walks elements in order, remembering the latest user element. An
// assistant element at most MaxPairGap positions later closes a round; a
// farther one is ignored and the remembered user is kept. Elements with the
// empty role are skipped over but still count toward the gap.
func Pair(elements []dom.Node, role RoleFunc, score ScoreFunc, opts Options) []models.ConversationRound {
	opts = opts.withDefaults()
	var rounds []models.ConversationRound
	userIdx := -1
	for i, el := range elements {
		switch role(el) {
		case models.RoleUser:
			userIdx = i
		case models.RoleAssistant:
			if userIdx < 0 || i-userIdx > MaxPairGap {
				continue
			}
			user := elements[userIdx]
			rounds = append(rounds, buildRound(len(rounds), user, el, score(user, el), i-userIdx+1, opts))
			userIdx = -1
		}
	}
	return rounds
}

// Sequential is the plain document-order pairing over the container's
// candidates, exposed as a strategy of its own.
type Sequential struct {
	opts Options
}

// NewSequential returns the sequential fallback strategy.
func NewSequential(opts Options) *Sequential {
	return &Sequential{opts: opts.withDefaults()}
}

func (s *Sequential) Name() string  { return NameSequential }
func (s *Sequential) Priority() int { return 10 }

func (s *Sequential) Execute(snap *dom.Snapshot) (*models.ExtractedConversation, error) {
	container, err := locateContainer(snap, s.opts)
	if err != nil {
		return nil, err
	}
	candidates := locate.Candidates(container)
	rounds := Pair(candidates, roles.Evidence, confidence.Positional, s.opts)
	return newResult(snap, s.Name(), rounds, len(candidates)), nil
}

package provider

import (
	"fmt"
	"strings"

	"github.com/roundtable-ai/collaboration-platform/internal/model"
)

// BuildSystemPrompt produces the instruction string for one participant:
// its own identity, the list of co-participants, an instruction never to
// impersonate a peer, the participant's own instructions, and the shared
// base instruction, in that fixed order.
func BuildSystemPrompt(p model.Participant, others []model.Participant, shared string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s (%s), one participant in a multi-model group conversation.", p.Name, p.Model)

	if len(others) > 0 {
		peers := make([]string, len(others))
		for i, o := range others {
			peers[i] = fmt.Sprintf("%s (%s)", o.Name, o.Model)
		}
		fmt.Fprintf(&b, " The other participants are: %s.", strings.Join(peers, ", "))
		fmt.Fprintf(&b, " Messages from other participants appear prefixed with their name in brackets. Never impersonate another participant or write replies on their behalf; respond only as %s.", p.Name)
	}

	if p.Instructions != "" {
		b.WriteString("\n\n")
		b.WriteString(p.Instructions)
	}

	if shared != "" {
		b.WriteString("\n\n")
		b.WriteString(shared)
	}

	return b.String()
}

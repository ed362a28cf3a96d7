package deck

import (
	"cloud.google.com/go/civil"
	"github.com/conorfennell/flashdeck/internal/domain"
)

// pairing keeps primary cards and their generated mirrors consistent inside
// one in-memory deck. All changes land in the same document write as the
// edit that caused them.
type pairing struct {
	deck  *domain.Deck
	today civil.Date
	newID func() string
}

// findMirror returns the index of the mirror of the given card. An explicit
// mirror link wins; otherwise the first other card holding the swapped
// front and back is used, skipping cards already linked elsewhere.
func (p *pairing) findMirror(card domain.Card) int {
	if card.MirrorID != "" {
		if i := p.deck.Index(card.MirrorID); i >= 0 {
			return i
		}
	}
	return p.findByContent(card.ID, card.Front, card.Back)
}

// findByContent returns the index of a card other than ownerID whose front
// is back and whose back is front. Primaries are never mirrors, so cards
// with reverse set are skipped.
func (p *pairing) findByContent(ownerID, front, back string) int {
	for i, c := range p.deck.Cards {
		if c.ID == ownerID || c.Reverse || c.Front != back || c.Back != front {
			continue
		}
		if c.MirrorID != "" && c.MirrorID != ownerID {
			continue
		}
		return i
	}
	return -1
}

// attach gives the primary at index i a mirror, reusing a matching card
// when one exists so no duplicate is created.
func (p *pairing) attach(i int) {
	primary := p.deck.Cards[i]
	if m := p.findByContent(primary.ID, primary.Front, primary.Back); m >= 0 {
		if p.deck.Cards[m].MirrorID == "" {
			p.link(i, m)
		}
		return
	}

	mirror := domain.NewCard(p.newID(), primary.Back, primary.Front, false, p.today)
	p.deck.Cards = append(p.deck.Cards, mirror)
	p.link(i, len(p.deck.Cards)-1)
}

func (p *pairing) link(primary, mirror int) {
	p.deck.Cards[primary].MirrorID = p.deck.Cards[mirror].ID
	p.deck.Cards[mirror].MirrorID = p.deck.Cards[primary].ID
}

// reconcile applies the mirror transition for the primary at index i after
// its content and reverse flag were edited from before.
func (p *pairing) reconcile(i int, before domain.Card) {
	after := p.deck.Cards[i]

	switch {
	case after.Reverse && !before.Reverse:
		p.attach(i)

	case !after.Reverse && before.Reverse:
		if m := p.findMirror(before); m >= 0 {
			p.remove(map[string]bool{p.deck.Cards[m].ID: true})
		}

	case after.Reverse && before.Reverse:
		if m := p.findMirror(before); m >= 0 {
			p.deck.Cards[m].Front = after.Back
			p.deck.Cards[m].Back = after.Front
			p.link(i, m)
		}
	}
}

// cascade returns the ids removed when the card at index i is deleted.
func (p *pairing) cascade(i int) map[string]bool {
	card := p.deck.Cards[i]
	ids := map[string]bool{card.ID: true}
	if card.Reverse {
		if m := p.findMirror(card); m >= 0 {
			ids[p.deck.Cards[m].ID] = true
		}
	}
	return ids
}

// remove drops the given ids in one pass and clears links that pointed at
// them.
func (p *pairing) remove(ids map[string]bool) {
	kept := p.deck.Cards[:0]
	for _, c := range p.deck.Cards {
		if ids[c.ID] {
			continue
		}
		if ids[c.MirrorID] {
			c.MirrorID = ""
		}
		kept = append(kept, c)
	}
	p.deck.Cards = kept
}

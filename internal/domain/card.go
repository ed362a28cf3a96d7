package domain

import (
	"errors"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// Starting scheduling values for a freshly created card.
const (
	InitialEasiness    = 2.5
	InitialInterval    = 1
	InitialRepetitions = 0
)

// ErrCardNotFound is returned by lookups for an id that is not in the deck.
var ErrCardNotFound = errors.New("card not found")

// Card is a single spaced-repetition flashcard as stored in the deck file.
type Card struct {
	ID             string     `json:"id"`
	Front          string     `json:"front"`
	Back           string     `json:"back"`
	Reverse        bool       `json:"reverse"`
	MirrorID       string     `json:"mirror_id,omitempty"`
	EasinessFactor float64    `json:"easiness_factor"`
	Interval       int        `json:"interval"`
	Repetitions    int        `json:"repetitions"`
	ReviewDate     civil.Date `json:"review_date"`
	CreatedDate    civil.Date `json:"created_date"`
}

// NewCard returns a card with default scheduling that is due on the day it
// was created.
func NewCard(id, front, back string, reverse bool, today civil.Date) Card {
	return Card{
		ID:             id,
		Front:          front,
		Back:           back,
		Reverse:        reverse,
		EasinessFactor: InitialEasiness,
		Interval:       InitialInterval,
		Repetitions:    InitialRepetitions,
		ReviewDate:     today,
		CreatedDate:    today,
	}
}

// NewID returns a random 32 character hex identifier.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// IsDue reports whether the card should be reviewed on the given day.
func (c Card) IsDue(today civil.Date) bool {
	return !c.ReviewDate.After(today)
}

// Mirrors reports whether other holds the swapped front and back of c.
func (c Card) Mirrors(other Card) bool {
	return c.ID != other.ID && other.Front == c.Back && other.Back == c.Front
}

// CardInput is the caller-supplied content of a card to create.
type CardInput struct {
	Front   string
	Back    string
	Reverse bool
}

// Deck is the complete document persisted to the deck file.
type Deck struct {
	Cards []Card `json:"cards"`
}

// Normalize fills in scheduling fields that older documents may lack so
// every card satisfies the deck invariants before it is used.
func (d *Deck) Normalize(today civil.Date) {
	if d.Cards == nil {
		d.Cards = []Card{}
	}
	for i := range d.Cards {
		c := &d.Cards[i]
		if c.EasinessFactor == 0 {
			c.EasinessFactor = InitialEasiness
		}
		if c.EasinessFactor < 1.3 {
			c.EasinessFactor = 1.3
		}
		if c.Interval < 1 {
			c.Interval = InitialInterval
		}
		if c.Repetitions < 0 {
			c.Repetitions = 0
		}
		if c.ReviewDate == (civil.Date{}) {
			c.ReviewDate = today
		}
		if c.CreatedDate == (civil.Date{}) {
			c.CreatedDate = today
		}
	}
}

// Index returns the position of the card with the given id, or -1.
func (d *Deck) Index(id string) int {
	for i, c := range d.Cards {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// ReviewLog records a single review event for a card.
// Rating uses the SM2 scale: 0 is a blackout and 5 is perfect recall.
type ReviewLog struct {
	CardID         string
	ReviewedOn     civil.Date
	Rating         int
	Interval       int
	EasinessFactor float64
	Repetitions    int
}

package domain

import (
	"encoding/json"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = civil.Date{Year: 2024, Month: 5, Day: 1}

func TestNewCard(t *testing.T) {
	c := NewCard("abc", "Q", "A", true, today)
	assert.Equal(t, InitialEasiness, c.EasinessFactor)
	assert.Equal(t, InitialInterval, c.Interval)
	assert.Equal(t, InitialRepetitions, c.Repetitions)
	assert.Equal(t, today, c.ReviewDate)
	assert.Equal(t, today, c.CreatedDate)
	assert.True(t, c.IsDue(today))
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.Len(t, a, 32)
	assert.NotContains(t, a, "-")
	assert.NotEqual(t, a, b)
}

func TestIsDue(t *testing.T) {
	c := NewCard("abc", "Q", "A", false, today)
	c.ReviewDate = today.AddDays(3)

	assert.False(t, c.IsDue(today))
	assert.False(t, c.IsDue(today.AddDays(2)))
	assert.True(t, c.IsDue(today.AddDays(3)))
	assert.True(t, c.IsDue(today.AddDays(30)))
}

func TestMirrors(t *testing.T) {
	c := NewCard("a", "Q", "A", true, today)
	assert.True(t, c.Mirrors(NewCard("b", "A", "Q", false, today)))
	assert.False(t, c.Mirrors(NewCard("b", "Q", "A", false, today)))

	same := NewCard("a", "A", "A", false, today)
	assert.False(t, same.Mirrors(same), "a card never mirrors itself")
}

func TestNormalizeLegacyDocument(t *testing.T) {
	raw := `{"cards": [
		{"id": "old", "front": "Q", "back": "A", "reverse": false},
		{"id": "low", "front": "Q2", "back": "A2", "reverse": false,
		 "easiness_factor": 1.1, "interval": 0, "repetitions": -2,
		 "review_date": "2024-04-01", "created_date": "2024-03-01"}
	]}`
	var d Deck
	require.NoError(t, json.Unmarshal([]byte(raw), &d))
	d.Normalize(today)

	old := d.Cards[0]
	assert.Equal(t, InitialEasiness, old.EasinessFactor)
	assert.Equal(t, InitialInterval, old.Interval)
	assert.Equal(t, today, old.ReviewDate)
	assert.Equal(t, today, old.CreatedDate)

	low := d.Cards[1]
	assert.Equal(t, 1.3, low.EasinessFactor)
	assert.Equal(t, 1, low.Interval)
	assert.Equal(t, 0, low.Repetitions)
	assert.Equal(t, civil.Date{Year: 2024, Month: 4, Day: 1}, low.ReviewDate)
	assert.Equal(t, civil.Date{Year: 2024, Month: 3, Day: 1}, low.CreatedDate)
}

func TestNormalizeEmptyDocument(t *testing.T) {
	var d Deck
	d.Normalize(today)
	require.NotNil(t, d.Cards)

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cards": []}`, string(out))
}

func TestIndex(t *testing.T) {
	d := Deck{Cards: []Card{NewCard("a", "1", "2", false, today), NewCard("b", "3", "4", false, today)}}
	assert.Equal(t, 1, d.Index("b"))
	assert.Equal(t, -1, d.Index("c"))
}

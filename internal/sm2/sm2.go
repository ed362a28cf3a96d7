package sm2

import (
	"errors"
	"fmt"
	"math"

	"cloud.google.com/go/civil"
)

// Rating is the recall quality reported for a review, from 0 (blackout)
// to 5 (perfect recall).
type Rating int

const (
	MinRating Rating = 0
	MaxRating Rating = 5
)

// ErrInvalidRating is returned for ratings outside [MinRating, MaxRating].
var ErrInvalidRating = errors.New("rating must be between 0 and 5")

// Params holds the constants of the SM2 algorithm.
type Params struct {
	InitialEasiness float64 // easiness factor of a new card
	MinEasiness     float64 // floor applied after every review
	PassingRating   Rating  // lowest rating that counts as recalled
	FirstInterval   int     // days after the first successful repetition
	SecondInterval  int     // days after the second successful repetition
}

// DefaultParams returns the classic SuperMemo-2 constants.
func DefaultParams() *Params {
	return &Params{
		InitialEasiness: 2.5,
		MinEasiness:     1.3,
		PassingRating:   3,
		FirstInterval:   1,
		SecondInterval:  6,
	}
}

// State is the scheduling state of a card.
type State struct {
	EasinessFactor float64
	Interval       int
	Repetitions    int
}

// Validate reports whether r lies on the 0-5 scale.
func (r Rating) Validate() error {
	if r < MinRating || r > MaxRating {
		return fmt.Errorf("%w: got %d", ErrInvalidRating, r)
	}
	return nil
}

// Next returns the state that follows a review with the given rating.
func (p *Params) Next(current State, rating Rating) (State, error) {
	if err := rating.Validate(); err != nil {
		return current, err
	}

	next := current
	if rating < p.PassingRating {
		next.Repetitions = 0
		next.Interval = p.FirstInterval
	} else {
		switch current.Repetitions {
		case 0:
			next.Interval = p.FirstInterval
		case 1:
			next.Interval = p.SecondInterval
		default:
			next.Interval = p.grow(current.Interval, current.EasinessFactor)
		}
		next.Repetitions = current.Repetitions + 1
	}

	// The easiness update always uses the pre-review factor, even on failure.
	next.EasinessFactor = p.nextEasiness(current.EasinessFactor, rating)
	return next, nil
}

// grow multiplies the interval by the easiness factor, rounding half away
// from zero.
func (p *Params) grow(interval int, easiness float64) int {
	if interval < 1 {
		interval = 1
	}
	grown := int(math.Round(float64(interval) * easiness))
	if grown < 1 {
		return 1
	}
	return grown
}

// nextEasiness applies EF' = EF + (0.1 - (5-q) * (0.08 + (5-q) * 0.02)),
// clamped to MinEasiness.
func (p *Params) nextEasiness(easiness float64, rating Rating) float64 {
	q := float64(MaxRating - rating)
	return math.Max(p.MinEasiness, easiness+(0.1-q*(0.08+q*0.02)))
}

// NextReviewDate returns the day a card is due after waiting interval days.
func NextReviewDate(today civil.Date, interval int) civil.Date {
	return today.AddDays(interval)
}

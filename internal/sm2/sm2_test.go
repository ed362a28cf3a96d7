package sm2

import (
	"errors"
	"math"
	"testing"

	"cloud.google.com/go/civil"
)

func TestNext(t *testing.T) {
	params := DefaultParams()

	testCases := []struct {
		name     string
		current  State
		rating   Rating
		expected State
	}{
		{
			name:     "First successful repetition",
			current:  State{EasinessFactor: 2.5, Interval: 1, Repetitions: 0},
			rating:   4,
			expected: State{EasinessFactor: 2.5, Interval: 1, Repetitions: 1},
		},
		{
			name:     "Second successful repetition",
			current:  State{EasinessFactor: 2.5, Interval: 1, Repetitions: 1},
			rating:   5,
			expected: State{EasinessFactor: 2.6, Interval: 6, Repetitions: 2},
		},
		{
			// 6 * 2.5 = 15
			name:     "Interval grows by easiness factor",
			current:  State{EasinessFactor: 2.5, Interval: 6, Repetitions: 2},
			rating:   4,
			expected: State{EasinessFactor: 2.5, Interval: 15, Repetitions: 3},
		},
		{
			// 4 * 1.3 = 5.2, rating 3 lowers EF by 0.14 then clamps
			name:     "Passing with 3 rounds interval and clamps easiness",
			current:  State{EasinessFactor: 1.3, Interval: 4, Repetitions: 5},
			rating:   3,
			expected: State{EasinessFactor: 1.3, Interval: 5, Repetitions: 6},
		},
		{
			// 5 * 2.5 = 12.5 rounds half away from zero
			name:     "Half interval rounds up",
			current:  State{EasinessFactor: 2.5, Interval: 5, Repetitions: 3},
			rating:   4,
			expected: State{EasinessFactor: 2.5, Interval: 13, Repetitions: 4},
		},
		{
			// 2.5 + (0.1 - 4 * (0.08 + 4 * 0.02)) = 1.96
			name:     "Failure resets repetitions and interval",
			current:  State{EasinessFactor: 2.5, Interval: 20, Repetitions: 3},
			rating:   1,
			expected: State{EasinessFactor: 1.96, Interval: 1, Repetitions: 0},
		},
		{
			name:     "Blackout floors easiness",
			current:  State{EasinessFactor: 1.5, Interval: 9, Repetitions: 4},
			rating:   0,
			expected: State{EasinessFactor: 1.3, Interval: 1, Repetitions: 0},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := params.Next(tc.current, tc.rating)
			if err != nil {
				t.Fatalf("Next() returned an unexpected error: %v", err)
			}
			if got.Interval != tc.expected.Interval {
				t.Errorf("Expected interval %d, but got %d", tc.expected.Interval, got.Interval)
			}
			if got.Repetitions != tc.expected.Repetitions {
				t.Errorf("Expected repetitions %d, but got %d", tc.expected.Repetitions, got.Repetitions)
			}
			if math.Abs(got.EasinessFactor-tc.expected.EasinessFactor) > 1e-9 {
				t.Errorf("Expected easiness factor %.4f, but got %.4f", tc.expected.EasinessFactor, got.EasinessFactor)
			}
		})
	}
}

func TestNextFailureAlwaysResets(t *testing.T) {
	params := DefaultParams()
	for rating := Rating(0); rating < params.PassingRating; rating++ {
		for _, reps := range []int{0, 1, 2, 7, 40} {
			for _, interval := range []int{1, 6, 15, 300} {
				got, err := params.Next(State{EasinessFactor: 2.1, Interval: interval, Repetitions: reps}, rating)
				if err != nil {
					t.Fatalf("Next() returned an unexpected error: %v", err)
				}
				if got.Repetitions != 0 || got.Interval != 1 {
					t.Errorf("rating %d from reps=%d interval=%d: expected reps=0 interval=1, got reps=%d interval=%d",
						rating, reps, interval, got.Repetitions, got.Interval)
				}
			}
		}
	}
}

func TestNextEasinessFloor(t *testing.T) {
	params := DefaultParams()
	for rating := MinRating; rating <= MaxRating; rating++ {
		for _, ef := range []float64{1.3, 1.31, 1.5, 1.96, 2.5, 3.7} {
			got, err := params.Next(State{EasinessFactor: ef, Interval: 6, Repetitions: 2}, rating)
			if err != nil {
				t.Fatalf("Next() returned an unexpected error: %v", err)
			}
			if got.EasinessFactor < params.MinEasiness {
				t.Errorf("rating %d from EF %.2f: easiness fell below floor: %.4f", rating, ef, got.EasinessFactor)
			}
		}
	}
}

func TestNextInvalidRating(t *testing.T) {
	params := DefaultParams()
	current := State{EasinessFactor: 2.5, Interval: 6, Repetitions: 2}

	for _, rating := range []Rating{-1, 6, 42} {
		got, err := params.Next(current, rating)
		if !errors.Is(err, ErrInvalidRating) {
			t.Errorf("Expected ErrInvalidRating for %d, but got %v", rating, err)
		}
		if got != current {
			t.Errorf("Expected state to be unchanged for rating %d, but got %+v", rating, got)
		}
	}
}

func TestNextReviewDate(t *testing.T) {
	today := civil.Date{Year: 2024, Month: 12, Day: 25}
	expected := civil.Date{Year: 2025, Month: 1, Day: 9}

	if got := NextReviewDate(today, 15); got != expected {
		t.Errorf("Expected review date %s, but got %s", expected, got)
	}
}

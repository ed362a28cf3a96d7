package storage

import (
	"database/sql"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/conorfennell/flashdeck/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// History is the SQLite backed log of card reviews.
type History struct {
	conn *sql.DB
}

// OpenHistory opens the review log database and ensures the schema exists.
func OpenHistory(dsn string) (*History, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &History{conn: db}, nil
}

// Close closes the database connection.
func (h *History) Close() error {
	return h.conn.Close()
}

// RecordReview appends one review to the log.
func (h *History) RecordReview(entry domain.ReviewLog) error {
	_, err := h.conn.Exec(`
		INSERT INTO review_logs (card_id, reviewed_on, rating, interval, easiness_factor, repetitions, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		entry.CardID,
		entry.ReviewedOn.String(),
		entry.Rating,
		entry.Interval,
		entry.EasinessFactor,
		entry.Repetitions,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record review for card %s: %w", entry.CardID, err)
	}
	return nil
}

// ReviewsByCard returns the reviews of a card, oldest first.
func (h *History) ReviewsByCard(cardID string) ([]domain.ReviewLog, error) {
	rows, err := h.conn.Query(`
		SELECT card_id, reviewed_on, rating, interval, easiness_factor, repetitions
		FROM review_logs WHERE card_id = ?
		ORDER BY id
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews for card %s: %w", cardID, err)
	}
	defer rows.Close()

	var logs []domain.ReviewLog
	for rows.Next() {
		var (
			entry      domain.ReviewLog
			reviewedOn string
		)
		if err := rows.Scan(
			&entry.CardID,
			&reviewedOn,
			&entry.Rating,
			&entry.Interval,
			&entry.EasinessFactor,
			&entry.Repetitions,
		); err != nil {
			return nil, fmt.Errorf("failed to scan review row for card %s: %w", cardID, err)
		}
		if entry.ReviewedOn, err = civil.ParseDate(reviewedOn); err != nil {
			return nil, fmt.Errorf("invalid review date %q for card %s: %w", reviewedOn, cardID, err)
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reviews for card %s: %w", cardID, err)
	}
	return logs, nil
}

// DeleteReviewsByCard removes every review of a card.
func (h *History) DeleteReviewsByCard(cardID string) error {
	_, err := h.conn.Exec(`
		DELETE FROM review_logs
		WHERE card_id = ?
	`, cardID)
	if err != nil {
		return fmt.Errorf("failed to delete reviews for card %s: %w", cardID, err)
	}
	return nil
}

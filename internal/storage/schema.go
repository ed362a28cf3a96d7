package storage

const schema = `
-- One row per review, written after the deck snapshot for that review is durable.
CREATE TABLE IF NOT EXISTS review_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    card_id TEXT NOT NULL,
    reviewed_on TEXT NOT NULL, -- YYYY-MM-DD
    rating INTEGER NOT NULL,
    interval INTEGER NOT NULL,
    easiness_factor REAL NOT NULL,
    repetitions INTEGER NOT NULL,
    recorded_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_review_logs_card_id ON review_logs(card_id);
`

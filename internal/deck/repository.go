// Package deck is the card repository: whole-document CRUD and review over
// the deck file, with mirror cards kept in step with their primaries.
package deck

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/sm2"
	"github.com/conorfennell/flashdeck/internal/storage"
)

// ErrSave marks a failure to persist the deck. The deck on disk still holds
// the previous snapshot, so the operation can be retried.
var ErrSave = errors.New("failed to save deck")

// Snapshotter is notified after every successful deck write.
type Snapshotter interface {
	Snapshot(path, message string) error
}

// History receives review events once the reviewed deck is durable.
type History interface {
	RecordReview(entry domain.ReviewLog) error
	DeleteReviewsByCard(cardID string) error
}

// Repository reads and writes the deck file. Each mutation is a full
// read-modify-write of the document. Calls on one Repository are serialized;
// separate processes writing the same file are last-writer-wins.
type Repository struct {
	path      string
	logger    *slog.Logger
	clock     func() civil.Date
	newID     func() string
	params    *sm2.Params
	storeOpts []storage.WriteOption
	snapshots Snapshotter
	history   History

	mu sync.Mutex
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger used for recoverable problems.
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) { r.logger = l }
}

// WithClock overrides how the repository learns today's date.
func WithClock(clock func() civil.Date) Option {
	return func(r *Repository) { r.clock = clock }
}

// WithIDGenerator overrides card id generation.
func WithIDGenerator(newID func() string) Option {
	return func(r *Repository) { r.newID = newID }
}

// WithStoreOptions passes write options through to storage.WriteJSON.
func WithStoreOptions(opts ...storage.WriteOption) Option {
	return func(r *Repository) { r.storeOpts = append(r.storeOpts, opts...) }
}

// WithSnapshotter registers a hook run after each successful write.
func WithSnapshotter(s Snapshotter) Option {
	return func(r *Repository) { r.snapshots = s }
}

// WithHistory registers the review log.
func WithHistory(h History) Option {
	return func(r *Repository) { r.history = h }
}

// New returns a repository backed by the deck file at path.
func New(path string, opts ...Option) *Repository {
	r := &Repository{
		path:   path,
		logger: slog.Default(),
		clock:  func() civil.Date { return civil.DateOf(time.Now()) },
		newID:  domain.NewID,
		params: sm2.DefaultParams(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Path returns the deck file location.
func (r *Repository) Path() string {
	return r.path
}

// load returns the current deck. A missing file is an empty deck; a corrupt
// file is logged and also treated as empty, leaving the file on disk.
func (r *Repository) load() (*domain.Deck, error) {
	var d domain.Deck
	err := storage.ReadJSON(r.path, &d)

	var corrupt *storage.CorruptError
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		d = domain.Deck{}
	case errors.As(err, &corrupt):
		r.logger.Warn("deck file is unreadable, starting from an empty deck",
			"path", corrupt.Path, "error", corrupt.Err)
		d = domain.Deck{}
	default:
		return nil, err
	}

	d.Normalize(r.clock())
	return &d, nil
}

func (r *Repository) save(d *domain.Deck, message string) error {
	if err := storage.WriteJSON(r.path, d, r.storeOpts...); err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	if r.snapshots != nil {
		if err := r.snapshots.Snapshot(r.path, message); err != nil {
			r.logger.Warn("failed to snapshot deck", "path", r.path, "error", err)
		}
	}
	return nil
}

func (r *Repository) pairing(d *domain.Deck) *pairing {
	return &pairing{deck: d, today: r.clock(), newID: r.newID}
}

// Create appends a new card and, when reverse is set, its mirror. It
// returns the id of the primary card.
func (r *Repository) Create(front, back string, reverse bool) (string, error) {
	ids, err := r.CreateMany([]domain.CardInput{{Front: front, Back: back, Reverse: reverse}})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// CreateMany appends several cards in a single write and returns their ids
// in input order.
func (r *Repository) CreateMany(inputs []domain.CardInput) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, err := r.load()
	if err != nil {
		return nil, err
	}

	p := r.pairing(d)
	ids := make([]string, 0, len(inputs))
	for _, in := range inputs {
		card := domain.NewCard(r.newID(), in.Front, in.Back, in.Reverse, p.today)
		d.Cards = append(d.Cards, card)
		if card.Reverse {
			p.attach(len(d.Cards) - 1)
		}
		ids = append(ids, card.ID)
	}

	message := fmt.Sprintf("create %d cards", len(ids))
	if len(ids) == 1 {
		message = "create card " + ids[0]
	}
	if err := r.save(d, message); err != nil {
		return nil, err
	}
	return ids, nil
}

// Get returns the card with the given id or domain.ErrCardNotFound.
func (r *Repository) Get(id string) (*domain.Card, error) {
	d, err := r.load()
	if err != nil {
		return nil, err
	}
	i := d.Index(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrCardNotFound, id)
	}
	card := d.Cards[i]
	return &card, nil
}

// List returns every card in deck order.
func (r *Repository) List() ([]domain.Card, error) {
	d, err := r.load()
	if err != nil {
		return nil, err
	}
	return d.Cards, nil
}

// ListDue returns the cards due on or before today, in deck order.
func (r *Repository) ListDue(today civil.Date) ([]domain.Card, error) {
	d, err := r.load()
	if err != nil {
		return nil, err
	}
	due := []domain.Card{}
	for _, c := range d.Cards {
		if c.IsDue(today) {
			due = append(due, c)
		}
	}
	return due, nil
}

// Update replaces the text and reverse flag of a card and brings its mirror
// in line. Scheduling fields, id and creation date are untouched. Unknown
// ids are ignored.
func (r *Repository) Update(id, front, back string, reverse bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, err := r.load()
	if err != nil {
		return err
	}
	i := d.Index(id)
	if i < 0 {
		return nil
	}

	before := d.Cards[i]
	d.Cards[i].Front = front
	d.Cards[i].Back = back
	d.Cards[i].Reverse = reverse
	r.pairing(d).reconcile(i, before)

	return r.save(d, "update card "+id)
}

// Delete removes a card and, for a primary, its mirror. Unknown ids are
// ignored.
func (r *Repository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, err := r.load()
	if err != nil {
		return err
	}
	i := d.Index(id)
	if i < 0 {
		return nil
	}

	p := r.pairing(d)
	removed := p.cascade(i)
	p.remove(removed)

	if err := r.save(d, "delete card "+id); err != nil {
		return err
	}

	if r.history != nil {
		for cardID := range removed {
			if err := r.history.DeleteReviewsByCard(cardID); err != nil {
				r.logger.Warn("failed to delete review history", "id", cardID, "error", err)
			}
		}
	}
	return nil
}

// Review applies an SM2 review with the given rating on today and persists
// the result.
func (r *Repository) Review(id string, rating sm2.Rating, today civil.Date) (*domain.Card, error) {
	if err := rating.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	d, err := r.load()
	if err != nil {
		return nil, err
	}
	i := d.Index(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrCardNotFound, id)
	}

	card := &d.Cards[i]
	next, err := r.params.Next(sm2.State{
		EasinessFactor: card.EasinessFactor,
		Interval:       card.Interval,
		Repetitions:    card.Repetitions,
	}, rating)
	if err != nil {
		return nil, err
	}
	card.EasinessFactor = next.EasinessFactor
	card.Interval = next.Interval
	card.Repetitions = next.Repetitions
	card.ReviewDate = sm2.NextReviewDate(today, next.Interval)
	reviewed := *card

	if err := r.save(d, fmt.Sprintf("review card %s (rating %d)", id, rating)); err != nil {
		return nil, err
	}

	if r.history != nil {
		entry := domain.ReviewLog{
			CardID:         reviewed.ID,
			ReviewedOn:     today,
			Rating:         int(rating),
			Interval:       reviewed.Interval,
			EasinessFactor: reviewed.EasinessFactor,
			Repetitions:    reviewed.Repetitions,
		}
		if err := r.history.RecordReview(entry); err != nil {
			r.logger.Warn("failed to record review", "id", id, "error", err)
		}
	}
	return &reviewed, nil
}

package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"cloud.google.com/go/civil"
	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/importer"
	"github.com/conorfennell/flashdeck/internal/sm2"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
)

type command struct {
	summary string
	run     func(a *app, args []string) error
}

var commands map[string]command

// Filled in init; the command bodies read the table for usage lines.
func init() {
	commands = map[string]command{
		"add":     {summary: "add [--reverse] FRONT BACK", run: runAdd},
		"edit":    {summary: "edit [--reverse] ID FRONT BACK (without --reverse an existing mirror is removed)", run: runEdit},
		"delete":  {summary: "delete ID", run: runDelete},
		"show":    {summary: "show ID", run: runShow},
		"list":    {summary: "list", run: runList},
		"due":     {summary: "due [--today YYYY-MM-DD]", run: runDue},
		"review":  {summary: "review [--today YYYY-MM-DD] ID RATING", run: runReview},
		"history": {summary: "history ID", run: runHistory},
		"import":  {summary: "import [--reverse] PATH|GIT-URL", run: runImport},
	}
}

var validate = validator.New()

type cardInput struct {
	Front string `validate:"required"`
	Back  string
}

type idInput struct {
	ID string `validate:"required,max=64"`
}

type reviewInput struct {
	ID     string `validate:"required,max=64"`
	Rating int    `validate:"min=0,max=5"`
}

func checkInput(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", strings.ToLower(fe.Field())))
		case "min", "max":
			if fe.Field() != "Rating" {
				msgs = append(msgs, fmt.Sprintf("%s is too long", strings.ToLower(fe.Field())))
				continue
			}
			msgs = append(msgs, fmt.Sprintf("%s must be between %d and %d", strings.ToLower(fe.Field()), sm2.MinRating, sm2.MaxRating))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field())))
		}
	}
	return fmt.Errorf("invalid input: %s", strings.Join(msgs, ", "))
}

func newFlagSet(a *app, name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.errOut)
	fs.Usage = func() {
		fmt.Fprintf(a.errOut, "Usage: flashdeck %s\n", commands[name].summary)
		fmt.Fprint(a.errOut, fs.FlagUsages())
	}
	return fs
}

func parseArgs(fs *pflag.FlagSet, name string, args []string, want int) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != want {
		return nil, fmt.Errorf("usage: flashdeck %s", commands[name].summary)
	}
	return fs.Args(), nil
}

// todayFlag registers --today and returns a resolver defaulting to the local
// date.
func todayFlag(fs *pflag.FlagSet) func() (civil.Date, error) {
	value := fs.String("today", "", "Evaluate as of this date (YYYY-MM-DD)")
	return func() (civil.Date, error) {
		if *value == "" {
			return civil.DateOf(time.Now()), nil
		}
		d, err := civil.ParseDate(*value)
		if err != nil {
			return civil.Date{}, fmt.Errorf("invalid --today %q: %w", *value, err)
		}
		return d, nil
	}
}

func runAdd(a *app, args []string) error {
	fs := newFlagSet(a, "add")
	reverse := fs.Bool("reverse", false, "Also create the swapped card")
	rest, err := parseArgs(fs, "add", args, 2)
	if err != nil {
		return err
	}
	input := cardInput{Front: rest[0], Back: rest[1]}
	if err := checkInput(input); err != nil {
		return err
	}

	id, err := a.deck.Create(input.Front, input.Back, *reverse)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, id)
	return nil
}

func runEdit(a *app, args []string) error {
	fs := newFlagSet(a, "edit")
	reverse := fs.Bool("reverse", false, "Keep a swapped card in step with this one; leaving it off removes an existing mirror")
	rest, err := parseArgs(fs, "edit", args, 3)
	if err != nil {
		return err
	}
	id := rest[0]
	if err := checkInput(idInput{ID: id}); err != nil {
		return err
	}
	input := cardInput{Front: rest[1], Back: rest[2]}
	if err := checkInput(input); err != nil {
		return err
	}

	// Update ignores unknown ids; report them here instead.
	before, err := a.deck.Get(id)
	if err != nil {
		return err
	}
	if err := a.deck.Update(id, input.Front, input.Back, *reverse); err != nil {
		return err
	}
	if before.Reverse && !*reverse {
		cards, err := a.deck.List()
		if err != nil {
			return err
		}
		for _, c := range cards {
			if c.ID == before.MirrorID {
				return nil
			}
		}
		if before.MirrorID != "" {
			fmt.Fprintf(a.out, "removed mirror card %s\n", before.MirrorID)
		}
	}
	return nil
}

func runDelete(a *app, args []string) error {
	fs := newFlagSet(a, "delete")
	rest, err := parseArgs(fs, "delete", args, 1)
	if err != nil {
		return err
	}
	if err := checkInput(idInput{ID: rest[0]}); err != nil {
		return err
	}
	return a.deck.Delete(rest[0])
}

func runShow(a *app, args []string) error {
	fs := newFlagSet(a, "show")
	rest, err := parseArgs(fs, "show", args, 1)
	if err != nil {
		return err
	}
	if err := checkInput(idInput{ID: rest[0]}); err != nil {
		return err
	}
	card, err := a.deck.Get(rest[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "id\t%s\n", card.ID)
	fmt.Fprintf(w, "front\t%s\n", card.Front)
	fmt.Fprintf(w, "back\t%s\n", card.Back)
	fmt.Fprintf(w, "reverse\t%t\n", card.Reverse)
	if card.MirrorID != "" {
		fmt.Fprintf(w, "mirror\t%s\n", card.MirrorID)
	}
	fmt.Fprintf(w, "review date\t%s\n", card.ReviewDate)
	fmt.Fprintf(w, "interval\t%d\n", card.Interval)
	fmt.Fprintf(w, "repetitions\t%d\n", card.Repetitions)
	fmt.Fprintf(w, "easiness\t%.2f\n", card.EasinessFactor)
	fmt.Fprintf(w, "created\t%s\n", card.CreatedDate)
	return w.Flush()
}

func printCards(a *app, cards []domain.Card) error {
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDUE\tINTERVAL\tFRONT")
	for _, c := range cards {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", c.ID, c.ReviewDate, c.Interval, firstLine(c.Front))
	}
	return w.Flush()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}

func runList(a *app, args []string) error {
	fs := newFlagSet(a, "list")
	if _, err := parseArgs(fs, "list", args, 0); err != nil {
		return err
	}
	cards, err := a.deck.List()
	if err != nil {
		return err
	}
	return printCards(a, cards)
}

func runDue(a *app, args []string) error {
	fs := newFlagSet(a, "due")
	today := todayFlag(fs)
	if _, err := parseArgs(fs, "due", args, 0); err != nil {
		return err
	}
	day, err := today()
	if err != nil {
		return err
	}
	cards, err := a.deck.ListDue(day)
	if err != nil {
		return err
	}
	return printCards(a, cards)
}

func runReview(a *app, args []string) error {
	fs := newFlagSet(a, "review")
	today := todayFlag(fs)
	rest, err := parseArgs(fs, "review", args, 2)
	if err != nil {
		return err
	}
	day, err := today()
	if err != nil {
		return err
	}
	rating, err := strconv.Atoi(rest[1])
	if err != nil {
		return fmt.Errorf("invalid input: rating %q is not a number", rest[1])
	}
	input := reviewInput{ID: rest[0], Rating: rating}
	if err := checkInput(input); err != nil {
		return err
	}

	card, err := a.deck.Review(input.ID, sm2.Rating(input.Rating), day)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "next review %s (interval %d, easiness %.2f)\n",
		card.ReviewDate, card.Interval, card.EasinessFactor)
	return nil
}

func runHistory(a *app, args []string) error {
	fs := newFlagSet(a, "history")
	rest, err := parseArgs(fs, "history", args, 1)
	if err != nil {
		return err
	}
	if err := checkInput(idInput{ID: rest[0]}); err != nil {
		return err
	}
	if a.history == nil {
		return errors.New("review history is disabled, enable it with --history.enabled")
	}

	logs, err := a.history.ReviewsByCard(rest[0])
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tRATING\tINTERVAL\tREPETITIONS\tEASINESS")
	for _, l := range logs {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.2f\n", l.ReviewedOn, l.Rating, l.Interval, l.Repetitions, l.EasinessFactor)
	}
	return w.Flush()
}

func runImport(a *app, args []string) error {
	fs := newFlagSet(a, "import")
	reverse := fs.Bool("reverse", false, "Also create swapped cards")
	rest, err := parseArgs(fs, "import", args, 1)
	if err != nil {
		return err
	}

	im := importer.New(a.deck, a.cfg.SourcesDir(), a.errOut, a.logger)
	report, err := im.Run(rest[0], *reverse)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Found %d cards, created %d, skipped %d, %d errors.\n",
		report.Parsed, len(report.Created), report.Skipped, len(report.Errors))
	for _, e := range report.Errors {
		fmt.Fprintf(a.out, "- %s\n", e)
	}
	return nil
}

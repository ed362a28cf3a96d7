package parser

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/conorfennell/flashdeck/internal/domain"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []domain.CardInput
	}{
		{
			name:  "single pair",
			input: "Q: Largest planet?\nA: Jupiter",
			want:  []domain.CardInput{{Front: "Largest planet?", Back: "Jupiter"}},
		},
		{
			name:  "back spans lines",
			input: "Q: Noble gases?\nA: Helium\nNeon\nArgon\n",
			want:  []domain.CardInput{{Front: "Noble gases?", Back: "Helium\nNeon\nArgon"}},
		},
		{
			name:  "front spans lines",
			input: "Q: Translate:\nbonjour\nA: hello\n",
			want:  []domain.CardInput{{Front: "Translate:\nbonjour", Back: "hello"}},
		},
		{
			name:  "blank lines between cards are trimmed",
			input: "Q: 2+2\nA: 4\n\n\nQ: 3+3\nA: 6\n\n",
			want: []domain.CardInput{
				{Front: "2+2", Back: "4"},
				{Front: "3+3", Back: "6"},
			},
		},
		{
			name:  "separator closes the card and skips prose",
			input: "Q: Boiling point of water\nA: 100C\n---\nsome notes\nmore notes\nQ: Freezing point\nA: 0C",
			want: []domain.CardInput{
				{Front: "Boiling point of water", Back: "100C"},
				{Front: "Freezing point", Back: "0C"},
			},
		},
		{
			name:  "prose and stray answers yield nothing",
			input: "# Chemistry\nA: orphan answer\n",
			want:  nil,
		},
		{
			name:  "front without back",
			input: "Q: Unanswered",
			want:  []domain.CardInput{{Front: "Unanswered"}},
		},
		{
			name:  "empty front is dropped",
			input: "Q:\nA: nothing asked\nQ: kept\nA: yes",
			want:  []domain.CardInput{{Front: "kept", Back: "yes"}},
		},
		{
			name:  "prefix without space",
			input: "Q:H2O\nA:water",
			want:  []domain.CardInput{{Front: "H2O", Back: "water"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.md")
	if err := os.WriteFile(path, []byte("Q: one\nA: 1\n\nQ: two\nA: 2\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	want := []domain.CardInput{{Front: "one", Back: "1"}, {Front: "two", Back: "2"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseFile() = %+v, want %+v", got, want)
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.md")); err == nil {
		t.Error("ParseFile() on a missing file returned no error")
	}
}

package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/flashdeck/internal/domain"
)

const (
	frontPrefix = "Q:"
	backPrefix  = "A:"
	separator   = "---"
)

type state int

const (
	seeking state = iota
	readingFront
	readingBack
)

// ParseFile reads a file from the given path and extracts all cards.
func ParseFile(path string) ([]domain.CardInput, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads Q:/A: blocks from r. A "Q:" line starts a new card, an "A:"
// line starts its back, and following lines continue the current field
// until the next prefix or a "---" separator. Cards without a front are
// dropped.
func Parse(r io.Reader) ([]domain.CardInput, error) {
	scanner := bufio.NewScanner(r)
	var cards []domain.CardInput
	var current domain.CardInput
	var block []string
	currentState := seeking

	flushBlock := func() {
		content := strings.TrimRight(strings.Join(block, "\n"), "\n")
		switch currentState {
		case readingFront:
			current.Front = content
		case readingBack:
			current.Back = content
		}
		block = nil
	}

	finishCard := func() {
		flushBlock()
		if current.Front != "" {
			cards = append(cards, current)
		}
		current = domain.CardInput{}
		currentState = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == separator:
			finishCard()

		case strings.HasPrefix(line, frontPrefix):
			if currentState != seeking {
				finishCard() // A new question always starts a new card
			}
			currentState = readingFront
			block = append(block, trimPrefix(line, frontPrefix))

		case strings.HasPrefix(line, backPrefix) && currentState != seeking:
			flushBlock()
			currentState = readingBack
			block = append(block, trimPrefix(line, backPrefix))

		case currentState != seeking:
			block = append(block, line)
		}
	}

	finishCard() // Finish the very last card in the file

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return cards, nil
}

func trimPrefix(line, prefix string) string {
	return strings.TrimPrefix(line[len(prefix):], " ")
}

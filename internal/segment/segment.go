// Package segment splits cleaned document text into ordered question
// strings using structural cues: numbered markers and paragraph breaks.
// Splitting is a pure function, so the same text always yields the same
// ordered list.
package segment

import (
	"regexp"
	"strings"
)

// questionMarkerRE matches the numbering styles seen on exam papers:
// "1." "2)" "(3)" "[4]" "Q5:" "Q 6." and so on.
var questionMarkerRE = regexp.MustCompile(`^(?:[Qq]\s*\.?\s*)?[\(\[]?\d{1,3}[\)\]\.:]+\s+`)

// minQuestionLength filters fragments that survive cleanup but carry no
// question content.
const minQuestionLength = 8

// Split extracts question strings from cleaned text in document order.
func Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var (
		questions []string
		current   []string
		inside    bool
	)

	flush := func() {
		if !inside {
			return
		}
		q := strings.TrimSpace(strings.Join(current, " "))
		if len([]rune(q)) >= minQuestionLength {
			questions = append(questions, q)
		}
		current = current[:0]
		inside = false
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			// Paragraph break ends the running question.
			flush()
			continue
		}

		if marker := questionMarkerRE.FindString(line); marker != "" {
			flush()
			inside = true
			current = append(current, strings.TrimSpace(line[len(marker):]))
			continue
		}

		if inside {
			current = append(current, line)
			continue
		}

		// Unnumbered text still counts when it reads as a question.
		if strings.HasSuffix(line, "?") && len([]rune(line)) >= minQuestionLength {
			questions = append(questions, line)
		}
	}
	flush()

	return questions
}

package pages

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	QuestionsFile            = "q_questions.txt"
	AgreeChoicesFile         = "q_agree_choices.txt"
	FinalQuestionChoicesFile = "q_final_question_choices.txt"
)

// OutroContent is the questionnaire text. Every question but the last one is answered on
// the agreement scale; the last one has its own choices.
type OutroContent struct {
	Questions            []string
	AgreeChoices         []string
	FinalQuestionChoices []string
}

type OutroQuestion struct {
	Number  int
	Field   string
	Text    string
	Choices []string
}

// LoadOutroContent reads the three content files from dir, one entry per line.
func LoadOutroContent(dir string, questionCount int) (OutroContent, error) {
	content := OutroContent{}
	var err error
	if content.Questions, err = readLines(filepath.Join(dir, QuestionsFile)); err != nil {
		return content, err
	}
	if content.AgreeChoices, err = readLines(filepath.Join(dir, AgreeChoicesFile)); err != nil {
		return content, err
	}
	if content.FinalQuestionChoices, err = readLines(filepath.Join(dir, FinalQuestionChoicesFile)); err != nil {
		return content, err
	}

	if len(content.Questions) != questionCount {
		return content, fmt.Errorf("expected %d outro questions, found %d", questionCount, len(content.Questions))
	}
	if len(content.AgreeChoices) == 0 || len(content.FinalQuestionChoices) == 0 {
		return content, errors.New("outro answer choices must not be empty")
	}
	return content, nil
}

// QuestionList pairs each question with its form field and choices.
func (c OutroContent) QuestionList(fieldName func(q int) string) []OutroQuestion {
	list := make([]OutroQuestion, 0, len(c.Questions))
	for i, text := range c.Questions {
		choices := c.AgreeChoices
		if i == len(c.Questions)-1 {
			choices = c.FinalQuestionChoices
		}
		list = append(list, OutroQuestion{
			Number:  i + 1,
			Field:   fieldName(i + 1),
			Text:    text,
			Choices: choices,
		})
	}
	return list
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lines := []string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

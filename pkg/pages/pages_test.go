package pages

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadAndRender(t *testing.T) {
	tmpl, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testCases := []struct {
		name     string
		data     Data
		contains []string
	}{
		{
			name:     Index,
			data:     Data{BasePath: "/retention/survey", ErrorMessage: "Invalid key."},
			contains: []string{`action="/retention/survey/check"`, "Invalid key."},
		},
		{
			name:     Intro,
			data:     Data{BasePath: "/retention/survey", Key: "abcd12345678"},
			contains: []string{"/retention/survey/videos?key=abcd12345678&amp;screen=1", "skip=1"},
		},
		{
			name: Videos,
			data: Data{
				BasePath:   "/retention/survey",
				Key:        "abcd12345678",
				Screen:     2,
				MaxScreens: 7,
				VideoA:     Video{Position: 3, ID: "v3", URL: "https://example.org/v3"},
				VideoB:     Video{Position: 4, ID: "v4", URL: "https://example.org/v4"},
			},
			contains: []string{"Screen 2 of 7", "https://example.org/v3", "Video 4", `"v4"`},
		},
		{
			name: Outro,
			data: Data{
				BasePath:   "/retention/survey",
				Key:        "abcd12345678",
				MaxScreens: 7,
				Questions: []OutroQuestion{
					{Number: 1, Field: "outro_q1", Text: "Was it fun?", Choices: []string{"Agree", "Disagree"}},
				},
			},
			contains: []string{`name="outro_q1"`, `value="Disagree"`, "1. Was it fun?"},
		},
		{name: ThankYou, data: Data{}, contains: []string{"Thank you"}},
		{name: NotFound, data: Data{BasePath: "/s"}, contains: []string{`href="/s/"`}},
		{name: Error, data: Data{ErrorMessage: "Unknown error."}, contains: []string{"Unknown error."}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tmpl.ExecuteTemplate(&buf, tc.name, tc.data); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, s := range tc.contains {
				if !strings.Contains(buf.String(), s) {
					t.Errorf("missing %q in output", s)
				}
			}
		})
	}

	t.Run("key is escaped", func(t *testing.T) {
		var buf bytes.Buffer
		if err := tmpl.ExecuteTemplate(&buf, Error, Data{Key: `"><script>`}); err != nil {
			t.Fatal(err)
		}
		if strings.Contains(buf.String(), "<script>") {
			t.Error("key was not escaped")
		}
	})
}

func TestBubbleMessage(t *testing.T) {
	msg, known := BubbleMessage(MsgBadKey)
	if !known || msg != "Invalid key." {
		t.Errorf("unexpected message: %s", msg)
	}
	msg, known = BubbleMessage("nope")
	if known || msg != "Unknown error." {
		t.Errorf("unexpected message: %s", msg)
	}
}

func writeContent(t *testing.T, dir string, questions int) {
	t.Helper()
	qs := []string{}
	for i := 1; i <= questions; i++ {
		qs = append(qs, fmt.Sprintf("  Question %d  ", i))
	}
	files := map[string]string{
		QuestionsFile:            strings.Join(qs, "\n") + "\n",
		AgreeChoicesFile:         "Agree\n\nDisagree\n",
		FinalQuestionChoicesFile: "Yes\nNo",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

func TestLoadOutroContent(t *testing.T) {
	t.Run("valid content", func(t *testing.T) {
		dir := t.TempDir()
		writeContent(t, dir, 3)
		content, err := LoadOutroContent(dir, 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if content.Questions[0] != "Question 1" {
			t.Errorf("line not trimmed: %q", content.Questions[0])
		}
		if len(content.AgreeChoices) != 2 {
			t.Errorf("blank lines should be skipped: %v", content.AgreeChoices)
		}

		list := content.QuestionList(func(q int) string { return fmt.Sprintf("outro_q%d", q) })
		if len(list) != 3 || list[2].Field != "outro_q3" {
			t.Fatalf("unexpected list: %+v", list)
		}
		if list[0].Choices[0] != "Agree" || list[2].Choices[0] != "Yes" {
			t.Errorf("last question should use final choices: %+v", list)
		}
	})

	t.Run("wrong question count", func(t *testing.T) {
		dir := t.TempDir()
		writeContent(t, dir, 2)
		if _, err := LoadOutroContent(dir, 10); err == nil {
			t.Error("should produce error")
		}
	})

	t.Run("missing files", func(t *testing.T) {
		if _, err := LoadOutroContent(t.TempDir(), 10); err == nil {
			t.Error("should produce error")
		}
	})
}

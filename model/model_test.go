package model

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestQuestionTypeScale(t *testing.T) {
	tests := map[QuestionType]int{
		Rating5:  5,
		Rating10: 10,
		Text:     0,
		"other":  0,
	}
	for typ, want := range tests {
		if got := typ.Scale(); got != want {
			t.Errorf("%s.Scale() = %d, want %d", typ, got, want)
		}
	}
}

func TestTruncateAnswer(t *testing.T) {
	short := "fine"
	if got := TruncateAnswer(short); got != short {
		t.Errorf("short answer changed: %q", got)
	}

	long := strings.Repeat("é", MaxTextAnswer+20)
	got := TruncateAnswer(long)
	if n := utf8.RuneCountInString(got); n != MaxTextAnswer {
		t.Errorf("truncated to %d runes, want %d", n, MaxTextAnswer)
	}
	if !utf8.ValidString(got) {
		t.Error("truncation split a rune")
	}
}

func TestQuestionPatchApply(t *testing.T) {
	q := Question{ID: "q", Text: "old", Type: Rating5, Required: true, Order: 1}
	text := "new"
	required := false
	QuestionPatch{Text: &text, Required: &required}.Apply(&q)

	if q.Text != "new" || q.Required || q.Type != Rating5 || q.Order != 1 {
		t.Errorf("unexpected result: %+v", q)
	}
}

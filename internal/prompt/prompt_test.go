package prompt

import (
	"bytes"
	"strings"
	"testing"
)

func TestLineAskerReadsOneLine(t *testing.T) {
	var out bytes.Buffer
	a := LineAsker{In: strings.NewReader("spring sale\r\nsecond line\n"), Out: &out}

	got, err := a.Ask(TopicLabel)
	if err != nil {
		t.Fatal(err)
	}
	if got != "spring sale" {
		t.Errorf("answer = %q", got)
	}
	if out.String() != TopicLabel {
		t.Errorf("label = %q", out.String())
	}
}

func TestLineAskerEOF(t *testing.T) {
	tests := map[string]string{
		"":              "",
		"no newline":    "no newline",
		"  \n":          "  ",
		"新款运动鞋推广\n": "新款运动鞋推广",
	}

	for in, want := range tests {
		got, err := LineAsker{In: strings.NewReader(in)}.Ask("topic: ")
		if err != nil {
			t.Errorf("input %q: %v", in, err)
		}
		if got != want {
			t.Errorf("input %q: answer = %q, want %q", in, got, want)
		}
	}
}

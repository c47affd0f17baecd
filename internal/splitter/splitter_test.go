package splitter

import (
	"strings"
	"testing"
)

func TestSplitPriorityOrderWins(t *testing.T) {
	// A lower-priority marker appears first in the text; the higher-priority
	// marker must still win the split.
	text := "Intro. As follow-up questions, you can ask: something.\n" +
		"More text.\n\nExample Questions:\n1. First?\n2. Second?"

	res := Split(text)
	if !res.Found {
		t.Fatal("expected a marker to be found")
	}
	if res.Marker != "Example Questions:\n" {
		t.Errorf("expected highest-priority marker to win, got %q", res.Marker)
	}
	if !strings.Contains(res.Answer, "As follow-up questions, you can ask:") {
		t.Errorf("answer should retain the earlier lower-priority marker text, got %q", res.Answer)
	}
	if !strings.HasPrefix(res.Block, "1. First?") {
		t.Errorf("unexpected block %q", res.Block)
	}
}

func TestSplitTable(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantFound  bool
		wantMarker string
		wantAnswer string
		wantBlock  string
	}{
		{
			name:       "plain heading marker",
			text:       "Answer body.\n\nExample Questions:\n1. A?\n2. B?",
			wantFound:  true,
			wantMarker: "Example Questions:\n",
			wantAnswer: "Answer body.",
			wantBlock:  "1. A?\n2. B?",
		},
		{
			name:       "bold heading marker",
			text:       "Answer body.\n\n**Example Questions:**\n1. A?",
			wantFound:  true,
			wantMarker: "**Example Questions:**",
			wantAnswer: "Answer body.",
			wantBlock:  "1. A?",
		},
		{
			name:       "sentence marker",
			text:       "Body. Here are a few questions that may help: Q1",
			wantFound:  true,
			wantMarker: "Here are a few questions that may help:",
			wantAnswer: "Body.",
			wantBlock:  "Q1",
		},
		{
			name:       "no marker returns input verbatim",
			text:       "  just an answer with no questions  ",
			wantFound:  false,
			wantAnswer: "  just an answer with no questions  ",
		},
		{
			name:       "empty input",
			text:       "",
			wantFound:  false,
			wantAnswer: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Split(tt.text)
			if res.Found != tt.wantFound {
				t.Fatalf("Found = %v, want %v", res.Found, tt.wantFound)
			}
			if res.Marker != tt.wantMarker {
				t.Errorf("Marker = %q, want %q", res.Marker, tt.wantMarker)
			}
			if res.Answer != tt.wantAnswer {
				t.Errorf("Answer = %q, want %q", res.Answer, tt.wantAnswer)
			}
			if res.Block != tt.wantBlock {
				t.Errorf("Block = %q, want %q", res.Block, tt.wantBlock)
			}
		})
	}
}

func TestExtractFollowUpsCapsAtThree(t *testing.T) {
	block := "1. A?\n2. B?\n3. C?\n4. D?\n5. E?"

	followUps := ExtractFollowUps(block)
	if len(followUps) != 3 {
		t.Fatalf("expected 3 follow-ups, got %d", len(followUps))
	}
	for i, fu := range followUps {
		wantName := string(rune('1' + i))
		if fu.Name != wantName {
			t.Errorf("follow-up %d name = %q, want %q", i, fu.Name, wantName)
		}
		if fu.ID == "" {
			t.Errorf("follow-up %d has empty id", i)
		}
	}
	if followUps[0].Question != "A?" {
		t.Errorf("expected ordinal stripped, got %q", followUps[0].Question)
	}
}

func TestExtractFollowUpsSkipsEmptyLines(t *testing.T) {
	block := "\n1. A?\n\n2. B?\n"

	followUps := ExtractFollowUps(block)
	if len(followUps) != 2 {
		t.Fatalf("expected 2 follow-ups, got %d", len(followUps))
	}
	if followUps[0].Question != "A?" || followUps[1].Question != "B?" {
		t.Errorf("unexpected questions: %q, %q", followUps[0].Question, followUps[1].Question)
	}
}

func TestExtractFollowUpsNamesAreSequential(t *testing.T) {
	// Names come from extraction order, not the stripped ordinals.
	block := "3. C?\n1. A?"

	followUps := ExtractFollowUps(block)
	if len(followUps) != 2 {
		t.Fatalf("expected 2 follow-ups, got %d", len(followUps))
	}
	if followUps[0].Name != "1" || followUps[0].Question != "C?" {
		t.Errorf("first follow-up = %+v, want name 1 question C?", followUps[0])
	}
	if followUps[1].Name != "2" || followUps[1].Question != "A?" {
		t.Errorf("second follow-up = %+v, want name 2 question A?", followUps[1])
	}
}

func TestStripOrdinal(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"1. What is it?", "What is it?"},
		{"2.No space", "No space"},
		{"3.   lots of space", "lots of space"},
		{"4. out of range", "4. out of range"},
		{"no prefix at all", "no prefix at all"},
		{"1. First 2. Second", "First 2. Second"},
		{"What about 1. mid-line?", "What about 1. mid-line?"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := StripOrdinal(tt.line); got != tt.want {
			t.Errorf("StripOrdinal(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

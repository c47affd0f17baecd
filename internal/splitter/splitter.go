// Package splitter separates a generated answer from its embedded
// follow-up-question block.
package splitter

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Markers are the phrases the generation engine uses to introduce its
// follow-up block, in priority order. The FIRST marker in this list that
// occurs anywhere in the text wins the split, even when a lower-priority
// marker occurs earlier in the text.
var Markers = []string{
	"Example Questions:\n",
	"Here are a few questions that may help:",
	"Here are a few follow-up questions that may help:",
	"**Example Questions:**",
	"As follow-up questions, users can ask:",
	"As follow-up questions, you can ask:",
	"As follow-up questions, here are some examples based on the context provided:",
}

// maxFollowUps caps how many follow-up lines are extracted from a block.
const maxFollowUps = 3

// ordinalPrefix matches a single leading "1."/"2."/"3." prefix with
// optional trailing whitespace.
var ordinalPrefix = regexp.MustCompile(`^[1-3]\.\s*`)

// SplitResult is the outcome of scanning a generated answer for a marker.
// A missing marker is a documented branch, never an error: Found is false
// and Answer carries the input verbatim.
type SplitResult struct {
	Found  bool
	Marker string
	Answer string
	Block  string
}

// FollowUp is one extracted follow-up question. Name is the sequential
// position in extraction order ("1".."3"), not the stripped ordinal.
type FollowUp struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Question string `json:"question"`
}

// Split scans text for the markers in priority order and splits at the
// first occurrence of the winning marker.
func Split(text string) SplitResult {
	for _, marker := range Markers {
		idx := strings.Index(text, marker)
		if idx == -1 {
			continue
		}
		return SplitResult{
			Found:  true,
			Marker: marker,
			Answer: strings.TrimSpace(text[:idx]),
			Block:  strings.TrimSpace(text[idx+len(marker):]),
		}
	}
	return SplitResult{Answer: text}
}

// ExtractFollowUps takes at most the first three non-empty lines of a
// follow-up block, strips one leading ordinal prefix from each, and assigns
// fresh identifiers and sequential names.
func ExtractFollowUps(block string) []FollowUp {
	var followUps []FollowUp
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		followUps = append(followUps, FollowUp{
			ID:       uuid.NewString(),
			Name:     strconv.Itoa(len(followUps) + 1),
			Question: StripOrdinal(line),
		})
		if len(followUps) == maxFollowUps {
			break
		}
	}
	return followUps
}

// StripOrdinal removes a single leading ordinal prefix ("1." to "3." plus
// optional whitespace) from a line. Lines without the prefix are returned
// unchanged; later occurrences in the line are never touched.
func StripOrdinal(line string) string {
	loc := ordinalPrefix.FindStringIndex(line)
	if loc == nil {
		return line
	}
	return line[loc[1]:]
}

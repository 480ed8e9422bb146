package agent

import "strings"

const (
	actionOpenTag  = "<action>"
	actionCloseTag = "</action>"
)

// ActionFilter is a character-level state machine over a chunk stream. Text
// between <action> and </action> is withheld from the display callback while
// still being part of the captured response the parser sees. Tags split
// across chunk boundaries are handled by holding back at most one partial
// tag's worth of bytes.
type ActionFilter struct {
	emit     func(string)
	inAction bool
	pending  string
}

func NewActionFilter(emit func(string)) *ActionFilter {
	return &ActionFilter{emit: emit}
}

// Feed consumes one stream chunk.
func (f *ActionFilter) Feed(chunk string) {
	data := f.pending + chunk
	f.pending = ""

	for data != "" {
		if !f.inAction {
			if idx := strings.Index(data, actionOpenTag); idx >= 0 {
				f.send(data[:idx])
				f.inAction = true
				data = data[idx+len(actionOpenTag):]
				continue
			}
			hold := partialTagSuffix(data, actionOpenTag)
			f.send(data[:len(data)-hold])
			f.pending = data[len(data)-hold:]
			return
		}

		if idx := strings.Index(data, actionCloseTag); idx >= 0 {
			f.inAction = false
			data = data[idx+len(actionCloseTag):]
			continue
		}
		// Suppressed region: keep only a possible partial close tag.
		hold := partialTagSuffix(data, actionCloseTag)
		f.pending = data[len(data)-hold:]
		return
	}
}

// Flush releases any held-back text at end of stream. A partial open tag that
// never completed is ordinary text; suppressed content stays suppressed.
func (f *ActionFilter) Flush() {
	if !f.inAction && f.pending != "" {
		f.send(f.pending)
	}
	f.pending = ""
}

func (f *ActionFilter) send(s string) {
	if s != "" && f.emit != nil {
		f.emit(s)
	}
}

// partialTagSuffix returns the length of the longest suffix of data that is a
// proper prefix of tag. This bounds lookahead to the tag length.
func partialTagSuffix(data, tag string) int {
	max := len(tag) - 1
	if max > len(data) {
		max = len(data)
	}
	for k := max; k > 0; k-- {
		if strings.HasSuffix(data, tag[:k]) {
			return k
		}
	}
	return 0
}

package chat

import (
	"context"
	"iter"
	"time"
)

// Pacing controls how fast a reply is revealed.
type Pacing struct {
	SpaceDelay   time.Duration // after a chunk ending in ' '
	NewlineDelay time.Duration // after a chunk ending in '\n'
}

// DefaultPacing returns the standard word/line pacing.
func DefaultPacing() Pacing {
	return Pacing{
		SpaceDelay:   50 * time.Millisecond,
		NewlineDelay: 100 * time.Millisecond,
	}
}

// Chunk is one piece of a streamed reply and the pause that follows it.
type Chunk struct {
	Text  string
	Delay time.Duration
}

// Split cuts text after every space and newline. Each chunk keeps its boundary
// character, so concatenating the chunks reproduces text exactly. A trailing
// remainder without a boundary becomes the last chunk with no delay.
func Split(text string, p Pacing) []Chunk {
	var chunks []Chunk
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case ' ':
			chunks = append(chunks, Chunk{Text: text[start : i+1], Delay: p.SpaceDelay})
			start = i + 1
		case '\n':
			chunks = append(chunks, Chunk{Text: text[start : i+1], Delay: p.NewlineDelay})
			start = i + 1
		}
	}
	if start < len(text) {
		chunks = append(chunks, Chunk{Text: text[start:]})
	}
	return chunks
}

// Stream yields the chunks of text in order, pausing after each one as Split
// prescribes. Cancelling ctx stops the stream and yields ctx.Err() once.
func Stream(ctx context.Context, text string, p Pacing) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if err := ctx.Err(); err != nil {
			yield("", err)
			return
		}

		for _, c := range Split(text, p) {
			if !yield(c.Text, nil) {
				return
			}
			if c.Delay <= 0 {
				continue
			}

			timer := time.NewTimer(c.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				yield("", ctx.Err())
				return
			case <-timer.C:
			}
		}
	}
}

// Package chunker splits extracted document text into bounded, overlapping
// windows for indexing. Splitting is a pure function of the input and the
// options, so reindexing a document always yields the same chunks.
package chunker

import (
	"strings"
	"unicode/utf8"
)

type Options struct {
	ChunkSize    int // target chunk size in characters
	ChunkOverlap int // characters carried over from the previous chunk
}

func DefaultOptions() Options {
	return Options{
		ChunkSize:    800,
		ChunkOverlap: 80,
	}
}

// separators from coarsest to finest. The splitter always prefers the
// coarsest separator that yields pieces at or under the target size.
var separators = []string{"\n\n", "\n", ". ", ".", " "}

type Chunker struct {
	opts Options
}

func New(opts Options) *Chunker {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 800
	}
	if opts.ChunkOverlap < 0 {
		opts.ChunkOverlap = 0
	}
	if opts.ChunkOverlap >= opts.ChunkSize {
		opts.ChunkOverlap = opts.ChunkSize / 2
	}
	return &Chunker{opts: opts}
}

// Split breaks text into chunks of at most ChunkSize characters, each chunk
// after the first prefixed with the last ChunkOverlap characters of its
// predecessor. Empty input yields no chunks. Separators stay attached to
// the preceding piece, so concatenating the chunks with the overlap
// prefixes removed reproduces the input exactly.
func (c *Chunker) Split(text string) []string {
	if text == "" {
		return nil
	}

	pieces := splitRecursive(text, separators, c.opts.ChunkSize)
	merged := merge(pieces, c.opts.ChunkSize)

	if c.opts.ChunkOverlap == 0 || len(merged) < 2 {
		return merged
	}

	out := make([]string, len(merged))
	out[0] = merged[0]
	for i := 1; i < len(merged); i++ {
		out[i] = tail(merged[i-1], c.opts.ChunkOverlap) + merged[i]
	}
	return out
}

// splitRecursive cuts text into pieces of at most chunkSize characters,
// trying each separator in order and descending to the next finer one only
// for pieces that are still too large. The concatenation of the returned
// pieces equals the input.
func splitRecursive(text string, seps []string, chunkSize int) []string {
	if utf8.RuneCountInString(text) <= chunkSize {
		return []string{text}
	}

	if len(seps) == 0 {
		return splitRunes(text, chunkSize)
	}

	parts := strings.SplitAfter(text, seps[0])
	if len(parts) == 1 {
		return splitRecursive(text, seps[1:], chunkSize)
	}

	var out []string
	for _, part := range parts {
		if part == "" {
			continue
		}
		if utf8.RuneCountInString(part) <= chunkSize {
			out = append(out, part)
		} else {
			out = append(out, splitRecursive(part, seps[1:], chunkSize)...)
		}
	}
	return out
}

func splitRunes(text string, chunkSize int) []string {
	runes := []rune(text)
	var out []string
	for i := 0; i < len(runes); i += chunkSize {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
	}
	return out
}

// merge greedily joins consecutive pieces as long as the result stays
// within chunkSize, keeping chunk boundaries on the coarsest separators.
func merge(pieces []string, chunkSize int) []string {
	var out []string
	var cur strings.Builder
	curLen := 0

	for _, p := range pieces {
		pLen := utf8.RuneCountInString(p)
		if curLen > 0 && curLen+pLen > chunkSize {
			out = append(out, cur.String())
			cur.Reset()
			curLen = 0
		}
		cur.WriteString(p)
		curLen += pLen
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

func tail(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

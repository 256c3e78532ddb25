package salesagg

import (
	"bufio"
	"io"
	"iter"
)

// maxLineSize bounds a single input line. Transaction lines are short; the
// limit only guards against a corrupt source with no newlines.
const maxLineSize = 1 << 20

// ReadLines adapts a reader into the lazy line sequence consumed by
// [Pipeline.Run] and [Pipeline.Collect]. Every line is yielded, header
// included. A read error is yielded once and ends the sequence.
//
// The caller owns r and is responsible for closing it.
func ReadLines(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for sc.Scan() {
			if !yield(sc.Text(), nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield("", err)
		}
	}
}

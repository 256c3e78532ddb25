package salesagg

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
)

// records turns raw lines into sales. The first line is the header and is
// discarded, as are blank lines. Malformed lines go through the resolved
// ErrorHandler. The sequence ends after yielding the first fatal error:
// a source failure, a context cancellation, or a parse failure the handler
// did not skip.
func (p *Pipeline) records(ctx context.Context, lines iter.Seq2[string, error], stats *Stats, log *slog.Logger) iter.Seq2[Sale, error] {
	parse := p.resolveParser()
	handler := p.resolveErrorHandler()

	return func(yield func(Sale, error) bool) {
		lineNo := 0
		for line, err := range lines {
			if err != nil {
				yield(Sale{}, fmt.Errorf("%s: %w", StageRead, &SourceError{Line: lineNo, Err: err}))
				return
			}
			if err := ctx.Err(); err != nil {
				yield(Sale{}, fmt.Errorf("%s: %w", StageRead, err))
				return
			}

			lineNo++
			stats.incLines(1)
			if lineNo == 1 || strings.TrimSpace(line) == "" {
				continue
			}

			sale, err := parse(line)
			if err != nil {
				perr := lineError(err, lineNo, line)
				if handler.OnError(ctx, StageParse, perr) == ActionSkip {
					stats.incSkipped(1)
					log.DebugContext(ctx, "skipping malformed line", "line", lineNo, "error", perr)
					continue
				}
				yield(Sale{}, fmt.Errorf("%s: %w", StageParse, perr))
				return
			}

			stats.incParsed(1)
			if !yield(sale, nil) {
				return
			}
		}
	}
}

// lineError stamps the source line number onto a parse failure. Errors from
// a custom Parser that are not already a *ParseError are wrapped in one.
func lineError(err error, lineNo int, raw string) *ParseError {
	var pe *ParseError
	if errors.As(err, &pe) {
		out := *pe
		out.Line = lineNo
		return &out
	}
	return &ParseError{Line: lineNo, Raw: raw, Err: err}
}

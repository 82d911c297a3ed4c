package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/artmatsak/grace/common/trace"
)

// RunConsole holds one conversation over in and out: replies are written as
// "AI: ..." lines and every non-blank input line is one customer turn. It
// returns when the session ends or in is exhausted.
func (a *App) RunConsole(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx = trace.Ensure(ctx, trace.GenerateID())
	s := a.NewSession(func(text string) {
		fmt.Fprintf(out, "AI: %s\n", text)
	})
	if err := s.Start(ctx); err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for !s.IsEnded() {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := s.SendResponses(ctx, []string{line}); err != nil {
			return err
		}
	}
	return nil
}

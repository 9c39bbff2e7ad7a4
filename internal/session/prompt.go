package session

import (
	"bufio"
	"context"
	"fmt"
	"os"
)

// ConsolePrompter blocks on stdin; useful when the engine runs in a
// terminal next to a headful browser.
type ConsolePrompter struct{}

func (ConsolePrompter) Await(ctx context.Context, reason string) error {
	fmt.Fprintf(os.Stderr, "\n*** %s ***\nResolve it in the browser window, then press Enter to continue.\n", reason)
	done := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(os.Stdin).ReadString('\n')
		done <- err
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// SignalPrompter parks until Resume is called, which the HTTP API does on
// POST /discover/resume. Reason reports what the run is waiting on, empty
// when it is not waiting.
type SignalPrompter struct {
	resume chan struct{}
	reason chan string
}

func NewSignalPrompter() *SignalPrompter {
	p := &SignalPrompter{
		resume: make(chan struct{}),
		reason: make(chan string, 1),
	}
	return p
}

func (p *SignalPrompter) Await(ctx context.Context, reason string) error {
	select {
	case p.reason <- reason:
	default:
	}
	defer func() {
		select {
		case <-p.reason:
		default:
		}
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.resume:
		return nil
	}
}

// Resume releases a parked Await. Returns false when nothing was waiting.
func (p *SignalPrompter) Resume() bool {
	select {
	case p.resume <- struct{}{}:
		return true
	default:
		return false
	}
}

func (p *SignalPrompter) Reason() string {
	select {
	case r := <-p.reason:
		// put it back, Reason is a peek
		select {
		case p.reason <- r:
		default:
		}
		return r
	default:
		return ""
	}
}

package tools

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/codefionn/curlgate/internal/executor"
	"github.com/codefionn/curlgate/internal/policy"
	"github.com/codefionn/curlgate/internal/probe"
)

// fakeRunner echoes the URL as a JSON body, or returns outcome when set, and
// tracks peak concurrency.
type fakeRunner struct {
	delay    time.Duration
	err      error
	outcome  *executor.Outcome
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeRunner) Execute(ctx context.Context, argv policy.ArgumentVector) (*executor.Outcome, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, &executor.Error{Kind: executor.KindCanceled, Err: ctx.Err()}
		}
	}
	if f.err != nil {
		return &executor.Outcome{ExitCode: -1}, f.err
	}
	if f.outcome != nil {
		return f.outcome, nil
	}
	return &executor.Outcome{
		Stdout: fmt.Sprintf(`{"url":%q}`, argv.URL()),
		Stderr: "< HTTP/1.1 200 OK\n< Content-Type: application/json\n",
	}, nil
}

func newTestPipeline(r *fakeRunner) *probe.Pipeline {
	return probe.NewPipeline(probe.WithRunner(r))
}

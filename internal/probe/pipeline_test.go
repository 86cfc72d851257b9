package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codefionn/curlgate/internal/executor"
	"github.com/codefionn/curlgate/internal/logger"
	"github.com/codefionn/curlgate/internal/policy"
)

// fakeRunner answers from a fixed outcome, or echoes the URL when echo is set.
type fakeRunner struct {
	outcome *executor.Outcome
	err     error
	echo    bool
	delay   time.Duration

	mu    sync.Mutex
	calls [][]string
}

func (f *fakeRunner) Execute(ctx context.Context, argv policy.ArgumentVector) (*executor.Outcome, error) {
	f.mu.Lock()
	f.calls = append(f.calls, argv.Args())
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, &executor.Error{Kind: executor.KindCanceled, Err: ctx.Err()}
		}
	}
	if f.echo {
		return &executor.Outcome{
			Stdout: fmt.Sprintf(`{"url":%q}`, argv.URL()),
			Stderr: "< HTTP/1.1 200 OK\n",
		}, nil
	}
	return f.outcome, f.err
}

func TestRunDecodesJSONPayload(t *testing.T) {
	runner := &fakeRunner{outcome: &executor.Outcome{
		Stdout: `{"a":1}`,
		Stderr: "< HTTP/1.1 200 OK\n< Content-Type: application/json\n",
	}}
	resp := NewPipeline(WithRunner(runner)).Run(context.Background(), "curl -s https://api.example.com/a")

	assert.Nil(t, resp.Error)
	assert.Equal(t, map[string]interface{}{"a": json.Number("1")}, resp.Data)
	require.NotNil(t, resp.StatusCode)
	assert.Equal(t, 200, *resp.StatusCode)
	assert.Equal(t, "application/json", *resp.ContentType)
	assert.Equal(t, FailureNone, resp.Failure())
}

func TestRunPreservesNumbers(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
		want   interface{}
		encode string
	}{
		{
			name:   "large integer id",
			stdout: `{"id":12345678901234567890}`,
			want:   map[string]interface{}{"id": json.Number("12345678901234567890")},
			encode: `{"id":12345678901234567890}`,
		},
		{
			name:   "outside float64 range",
			stdout: `{"v":1e400}`,
			want:   map[string]interface{}{"v": json.Number("1e400")},
			encode: `{"v":1e400}`,
		},
		{
			name:   "nested values",
			stdout: `[1, -2.5, "x", true, null, {"n": 0}]`,
			want:   []interface{}{json.Number("1"), json.Number("-2.5"), "x", true, nil, map[string]interface{}{"n": json.Number("0")}},
			encode: `[1,-2.5,"x",true,null,{"n":0}]`,
		},
		{
			name:   "bare number",
			stdout: "42\n",
			want:   json.Number("42"),
			encode: `42`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{outcome: &executor.Outcome{Stdout: tt.stdout}}
			resp := NewPipeline(WithRunner(runner)).Run(context.Background(), "curl -s https://api.example.com/big")

			require.Nil(t, resp.Error)
			assert.Equal(t, tt.want, resp.Data)

			data, err := json.Marshal(resp)
			require.NoError(t, err)
			assert.Equal(t, `{"data":`+tt.encode+`}`, string(data))
		})
	}
}

func TestRunKeepsRawPayload(t *testing.T) {
	runner := &fakeRunner{outcome: &executor.Outcome{Stdout: "not json"}}
	resp := NewPipeline(WithRunner(runner)).Run(context.Background(), "curl https://example.com")

	assert.Nil(t, resp.Error)
	assert.Equal(t, "not json", resp.Data)
	assert.False(t, resp.Failed())
}

func TestRunExtractsFencedCommand(t *testing.T) {
	runner := &fakeRunner{outcome: &executor.Outcome{}}
	text := "please run curl```-H 'Accept: application/json' https://example.com/api``` thanks"
	resp := NewPipeline(WithRunner(runner)).Run(context.Background(), text)

	require.Nil(t, resp.Error)
	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"curl", "-H", "Accept: application/json", "https://example.com/api"}, runner.calls[0])
}

func TestRunExtractsMarkdownFence(t *testing.T) {
	runner := &fakeRunner{outcome: &executor.Outcome{}}
	text := "Here you go:\n\n```curl\ncurl -s https://example.com/status\n```\n"
	resp := NewPipeline(WithRunner(runner)).Run(context.Background(), text)

	require.Nil(t, resp.Error)
	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"curl", "-s", "https://example.com/status"}, runner.calls[0])
}

func TestRunFailureKinds(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind FailureKind
	}{
		{"backtick", "curl https://example.com/`id`", FailurePolicy},
		{"unclosed quote", `curl -H "Accept: x https://a`, FailureLex},
		{"two urls", "curl https://a https://b", FailurePolicy},
		{"no url", "curl -s", FailurePolicy},
		{"file data", "curl -d @payload.json https://a", FailurePolicy},
		{"output file", "curl -o out.txt https://a", FailurePolicy},
		{"not curl", "wget https://a", FailurePolicy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{outcome: &executor.Outcome{}}
			resp := NewPipeline(WithRunner(runner)).Run(context.Background(), tt.text)

			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.kind, resp.Failure())
			assert.Nil(t, resp.Data)
			assert.Nil(t, resp.StatusCode)
			assert.Equal(t, -1, resp.ExitCode())
			assert.Zero(t, resp.ExecutionKind())
			assert.Empty(t, runner.calls, "nothing may run after a rejection")
		})
	}
}

func TestRunTimeoutHasNoStatusCode(t *testing.T) {
	runner := &fakeRunner{
		outcome: &executor.Outcome{Stderr: "< HTTP/1.1 200 OK\n", ExitCode: -1, Duration: 15 * time.Second},
		err:     &executor.Error{Kind: executor.KindTimeout, Err: fmt.Errorf("no exit after 15s")},
	}
	resp := NewPipeline(WithRunner(runner)).Run(context.Background(), "curl https://slow.example.com")

	require.NotNil(t, resp.Error)
	assert.Contains(t, *resp.Error, "timed out")
	assert.Nil(t, resp.StatusCode)
	assert.Nil(t, resp.Data)
	assert.Equal(t, FailureExecution, resp.Failure())
	assert.Equal(t, executor.KindTimeout, resp.ExecutionKind())
	assert.Equal(t, 15*time.Second, resp.Duration())
}

func TestRunClientErrorMarker(t *testing.T) {
	runner := &fakeRunner{outcome: &executor.Outcome{
		Stderr:   "* Could not resolve host: nowhere.invalid\ncurl: (6) Could not resolve host: nowhere.invalid\n",
		ExitCode: 6,
	}}
	resp := NewPipeline(WithRunner(runner)).Run(context.Background(), "curl https://nowhere.invalid")

	require.NotNil(t, resp.Error)
	assert.Equal(t, "curl: (6) Could not resolve host: nowhere.invalid", *resp.Error)
	assert.Equal(t, FailureNone, resp.Failure())
	assert.Equal(t, "", resp.Data)
	assert.Equal(t, 6, resp.ExitCode())
}

func TestRunSilentNonZeroExit(t *testing.T) {
	runner := &fakeRunner{outcome: &executor.Outcome{ExitCode: 7}}
	resp := NewPipeline(WithRunner(runner)).Run(context.Background(), "curl -s https://down.example.com")

	require.NotNil(t, resp.Error)
	assert.Equal(t, "curl exited with status 7", *resp.Error)
}

func TestRunConcurrentCallsDoNotInterfere(t *testing.T) {
	runner := &fakeRunner{echo: true, delay: 20 * time.Millisecond}
	p := NewPipeline(WithRunner(runner))

	urls := []string{"https://a.example.com/one", "https://b.example.com/two"}
	results := make([]*Response, len(urls))

	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			results[i] = p.Run(context.Background(), "curl -H 'X-Call: "+u+"' "+u)
		}(i, u)
	}
	wg.Wait()

	for i, u := range urls {
		require.Nil(t, results[i].Error)
		assert.Equal(t, map[string]interface{}{"url": u}, results[i].Data)
	}
	assert.NotEqual(t, results[0].Digest(), results[1].Digest())
}

func TestResponseJSONShape(t *testing.T) {
	runner := &fakeRunner{outcome: &executor.Outcome{
		Stdout: `[1,2]`,
		Stderr: "< HTTP/1.1 201 Created\n< ETag: \"v1\"\n",
	}}
	resp := NewPipeline(WithRunner(runner)).Run(context.Background(), "curl -X POST https://example.com")

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[1,2],"statusCode":201,"etag":"\"v1\""}`, string(raw))

	failedResp := NewPipeline(WithRunner(runner)).Run(context.Background(), "curl")
	raw, err = json.Marshal(failedResp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":null,"error":"missing URL"}`, string(raw))
}

func TestRunLogsDigest(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWriter(logger.LevelDebug, &buf, "probe")

	runner := &fakeRunner{outcome: &executor.Outcome{}}
	resp := NewPipeline(WithRunner(runner), WithLogger(log)).Run(context.Background(), "curl https://example.com")

	assert.Len(t, resp.Digest(), 16)
	assert.Contains(t, buf.String(), "[probe] "+resp.Digest()+": status=-")
}

func TestRunWithRealCurl(t *testing.T) {
	if _, err := exec.LookPath("curl"); err != nil {
		t.Skip("curl not installed")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"missing"}`)
	}))
	defer srv.Close()

	resp := NewPipeline().Run(context.Background(), "curl -s -v "+srv.URL+"/missing")

	assert.Nil(t, resp.Error)
	require.NotNil(t, resp.StatusCode)
	assert.Equal(t, 404, *resp.StatusCode)
	assert.Equal(t, "application/json", *resp.ContentType)
	assert.Nil(t, resp.ETag)
	assert.Equal(t, map[string]interface{}{"error": "missing"}, resp.Data)
}

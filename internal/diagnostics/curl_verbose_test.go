package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const verbose404 = `*   Trying 127.0.0.1:8080...
* Connected to localhost (127.0.0.1) port 8080
> GET /missing HTTP/1.1
> Host: localhost:8080
> User-Agent: curl/8.5.0
> Accept: */*
>
< HTTP/1.1 404 Not Found
< Content-Type: application/json
< Content-Length: 27
<
* Connection #0 to host localhost left intact
`

func TestParse404(t *testing.T) {
	m := Default().Parse(verbose404)

	require.NotNil(t, m.StatusCode)
	assert.Equal(t, 404, *m.StatusCode)
	require.NotNil(t, m.ContentType)
	assert.Equal(t, "application/json", *m.ContentType)
	require.NotNil(t, m.ContentLength)
	assert.Equal(t, int64(27), *m.ContentLength)

	assert.Nil(t, m.ETag)
	assert.Nil(t, m.Server)
	assert.Nil(t, m.Connection)
	assert.Nil(t, m.Date)
	assert.Nil(t, m.XPoweredBy)
	assert.Nil(t, m.ResponseTime)
	assert.Nil(t, m.ClientError)
}

func TestParseAllHeaders(t *testing.T) {
	stream := "< HTTP/2 200 \r\n" +
		"< Server: nginx/1.25.3\r\n" +
		"< Date: Mon, 19 Oct 2026 10:00:00 GMT\r\n" +
		"< Connection: keep-alive\r\n" +
		"< ETag: W/\"5e-abc\"\r\n" +
		"< X-Powered-By: Express \r\n" +
		"* time_total: 0.153\n"

	m := Default().Parse(stream)

	require.NotNil(t, m.StatusCode)
	assert.Equal(t, 200, *m.StatusCode)
	assert.Equal(t, "nginx/1.25.3", *m.Server)
	assert.Equal(t, "Mon, 19 Oct 2026 10:00:00 GMT", *m.Date)
	assert.Equal(t, "keep-alive", *m.Connection)
	assert.Equal(t, `W/"5e-abc"`, *m.ETag)
	assert.Equal(t, "Express", *m.XPoweredBy)
	require.NotNil(t, m.ResponseTime)
	assert.InDelta(t, 0.153, *m.ResponseTime, 1e-9)
}

func TestParseFirstOccurrenceWins(t *testing.T) {
	stream := "< HTTP/1.1 301 Moved Permanently\n< Server: edge\n< HTTP/1.1 200 OK\n< Server: origin\n"
	m := Default().Parse(stream)
	assert.Equal(t, 301, *m.StatusCode)
	assert.Equal(t, "edge", *m.Server)
}

func TestParseHeaderNamesAreCaseSensitive(t *testing.T) {
	m := Default().Parse("< HTTP/2 200\n< content-type: text/html\n")
	assert.Equal(t, 200, *m.StatusCode)
	assert.Nil(t, m.ContentType)
}

func TestParseRequestHeadersIgnored(t *testing.T) {
	m := Default().Parse("> Content-Type: application/json\n> Server: nope\n")
	assert.Nil(t, m.ContentType)
	assert.Nil(t, m.Server)
	assert.Nil(t, m.StatusCode)
}

func TestParseClientError(t *testing.T) {
	m := Default().Parse("* Could not resolve host: nowhere.invalid\ncurl: (6) Could not resolve host: nowhere.invalid\n")
	require.NotNil(t, m.ClientError)
	assert.Equal(t, "curl: (6) Could not resolve host: nowhere.invalid", *m.ClientError)
	require.NotNil(t, m.ClientErrorCode)
	assert.Equal(t, 6, *m.ClientErrorCode)
	assert.Nil(t, m.StatusCode)
}

func TestParseInvalidContentLength(t *testing.T) {
	m := Default().Parse("< HTTP/1.1 200 OK\n< Content-Length: lots\n")
	assert.Nil(t, m.ContentLength)
}

func TestParseEmptyStream(t *testing.T) {
	assert.Equal(t, Metadata{}, Default().Parse(""))
}

func TestRegistry(t *testing.T) {
	p, ok := Lookup(CurlVerboseV1)
	require.True(t, ok)
	assert.Equal(t, CurlVerboseV1, p.Name())

	_, ok = Lookup("curl-verbose/v0")
	assert.False(t, ok)

	assert.Equal(t, []string{CurlVerboseV1}, Names())
}

package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReport = `This is ApacheBench, Version 2.0.40-dev <$Revision: 1.121.2.1 $> apache-2.0

Benchmarking localhost (be patient)
Completed 100 requests
Finished 1000 requests


Server Software:        abchart
Server Hostname:        localhost
Server Port:            8080

Document Path:          /static/index.html
Document Length:        14 bytes

Concurrency Level:      10
Time taken for tests:   9.643867 seconds
Complete requests:      1000
Failed requests:        0
Write errors:           0
Total transferred:      189000 bytes
HTML transferred:       14000 bytes
Requests per second:    103.69 [#/sec] (mean)
Time per request:       96.439 [ms] (mean)
Time per request:       9.644 [ms] (mean, across all concurrent requests)
Transfer rate:          19.08 [Kbytes/sec] received

Connection Times (ms)
              min  mean[+/-sd] median   max
Connect:        0    0   2.9      0      10
`

func TestParseFullReport(t *testing.T) {
	f := Parse(sampleReport)

	assert.Equal(t, Fields{
		"complete_requests":           "1000",
		"failed_requests":             "0",
		"requests_per_second":         "103.69",
		"time_per_request_concurrent": "9.644",
		"transfer_rate":               "19.08",
	}, f)
}

func TestParseRequestsPerSecond(t *testing.T) {
	f := Parse("Requests per second: 103.69 [#/sec] (mean)")

	v, ok := f.Get("requests_per_second")
	require.True(t, ok)
	assert.Equal(t, "103.69", v)
}

func TestParseMissingFieldIsAbsent(t *testing.T) {
	raw := strings.Replace(sampleReport, "Failed requests:        0\n", "", 1)
	f := Parse(raw)

	_, ok := f.Get("failed_requests")
	assert.False(t, ok)
	assert.Equal(t, "1000", f["complete_requests"])
}

func TestParseCRLF(t *testing.T) {
	raw := strings.ReplaceAll(sampleReport, "\n", "\r\n")
	f := Parse(raw)

	assert.Equal(t, "9.644", f["time_per_request_concurrent"])
}

func TestParseUnrelatedOutput(t *testing.T) {
	f := Parse("apr_socket_recv: Connection refused (111)\n")
	assert.Empty(t, f)
	assert.Equal(t, []any{nil, nil, nil, nil, nil}, f.Values())
}

func TestFieldsValuesAndFloat(t *testing.T) {
	f := Fields{"requests_per_second": "12.5", "transfer_rate": "n/a"}

	assert.Equal(t, []any{nil, nil, "12.5", nil, "n/a"}, f.Values())

	v, ok := f.Float("requests_per_second")
	require.True(t, ok)
	assert.InDelta(t, 12.5, v, 1e-9)

	_, ok = f.Float("transfer_rate")
	assert.False(t, ok)
	_, ok = f.Float("complete_requests")
	assert.False(t, ok)
}

func TestLabelsFollowRuleOrder(t *testing.T) {
	assert.Equal(t, []string{"Completed", "Failed", "req/sec", "msec/req", "KB/sec"}, Labels())
}

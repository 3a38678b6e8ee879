package rich

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3cpo-dev/gaxx-rich/pkg/api"
)

const resultOneGolden = "╭────────────────────────────────────────────────╮\n│ Demo result one                                │\n╰────────────────────────────────────────────────╯\n"

func testOpts(buf *bytes.Buffer, extra ...Option) []Option {
	return append([]Option{WithWriter(buf), WithWidth(50), WithColor(false)}, extra...)
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintResult(resultOne(), testOpts(&buf)...))
	assert.Equal(t, resultOneGolden, buf.String())
}

func TestPrintResultDefaultThresholdIsInfo(t *testing.T) {
	var buf bytes.Buffer
	debug := api.NewResult(hostOne, "", "quiet", api.WithSeverity(zerolog.DebugLevel))
	require.NoError(t, PrintResult(debug, testOpts(&buf)...))
	assert.Empty(t, buf.String())

	require.NoError(t, PrintResult(debug, testOpts(&buf, WithSeverity(zerolog.DebugLevel))...))
	assert.Contains(t, buf.String(), "quiet")
}

func TestPrintResultReleasesLockOnError(t *testing.T) {
	var buf bytes.Buffer
	cmd := api.NewCommandResult(hostOne, "uptime", api.Command{Line: "uptime"})
	err := PrintResult(cmd, testOpts(&buf, WithVars("diff"))...)
	var le *api.LookupError
	require.True(t, errors.As(err, &le))
	assert.Empty(t, buf.String())

	require.NoError(t, PrintResult(resultOne(), testOpts(&buf)...))
	assert.Equal(t, resultOneGolden, buf.String())
}

func TestPrintResultConcurrentCallsDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, PrintResult(resultOne(), testOpts(&buf)...))
		}()
	}
	wg.Wait()
	assert.Equal(t, strings.Repeat(resultOneGolden, 8), buf.String())
}

func TestPrintFailedHosts(t *testing.T) {
	agg := api.NewAggregatedResult("run")
	agg.Set("host1.test", api.NewMultiResult("ok", resultOne()))
	agg.Set("host2.test", api.NewMultiResult("broken", resultFailedOne()))
	agg.Set("host3.test", api.NewMultiResult("broken", resultFailedOne(), resultTwo()))

	var buf bytes.Buffer
	require.NoError(t, PrintFailedHosts(agg, testOpts(&buf)...))
	out := buf.String()
	assert.NotContains(t, out, "host1.test")
	assert.Contains(t, out, "host2.test | broken")
	assert.Contains(t, out, "host3.test | broken")
	assert.Less(t, strings.Index(out, "host2.test"), strings.Index(out, "host3.test"))
	assert.NotContains(t, out, "run")

	buf.Reset()
	ok := api.NewAggregatedResult("fine")
	ok.Set("host1.test", api.NewMultiResult("ok", resultOne()))
	require.NoError(t, PrintFailedHosts(ok, testOpts(&buf)...))
	assert.Empty(t, buf.String())

	assert.Error(t, PrintFailedHosts(nil))
}

func TestPrintInventory(t *testing.T) {
	inv := api.NewInventory(
		&api.Host{Name: "r1", Hostname: "r1.test", Port: 22, Platform: "linux"},
		&api.Host{Name: "r2", Hostname: "r2.test", Data: map[string]any{"site": "ams"}},
	)

	var buf bytes.Buffer
	require.NoError(t, PrintInventory(inv, testOpts(&buf, WithWidth(120))...))
	out := buf.String()
	assert.Contains(t, out, " r1 ")
	assert.Contains(t, out, " r2 ")
	assert.Contains(t, out, `hostname = "r1.test"`)
	assert.Contains(t, out, `{"site":"ams"}`)

	buf.Reset()
	require.NoError(t, PrintInventory(inv, testOpts(&buf, WithVars("hostname", "missing"))...))
	out = buf.String()
	assert.Contains(t, out, `hostname = "r2.test"`)
	assert.NotContains(t, out, "password")
	assert.NotContains(t, out, "missing")

	assert.Error(t, PrintInventory(nil))
}

func TestRenderEntryPoint(t *testing.T) {
	r, err := Render(api.NewResult(hostOne, "", "x", api.WithSeverity(zerolog.DebugLevel)))
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = Render(resultOne(), WithSeverity(zerolog.TraceLevel))
	require.NoError(t, err)
	assert.Equal(t, resultOneGolden, render(t, r))
}

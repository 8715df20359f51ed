package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cineconnect/cineconnect/internal/salesreport"
	"github.com/cineconnect/cineconnect/jobs"
)

const salesInput = `{
	"stats": {"totalSales": 4200, "totalTickets": 84, "averagePrice": 50, "activeMovies": 2},
	"salesByMovie": [
		{"movieTitle": "Dune", "totalSales": 3000, "ticketCount": 60},
		{"movieTitle": "Wicked", "totalSales": 1200, "ticketCount": 24}
	],
	"genreDistribution": [{"name": "Ciencia ficción", "value": 71.4}],
	"metadata": {"generatedAt": "2025-02-01T08:00:00Z", "period": "Weekly", "dateRange": {"start": "2025-01-25", "end": "2025-01-31"}}
}`

func newRenderCLI() *RenderCLI {
	return NewRenderCLI(salesreport.NewGenerator(salesreport.Options{}))
}

func TestRenderCommandJSONSuccess(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.pdf")
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)

	exitCode := newRenderCLI().RenderCommand(context.Background(), RenderOptions{
		Output:     out,
		JSONOutput: true,
		Stdin:      strings.NewReader(salesInput),
		Stdout:     stdout,
		Stderr:     stderr,
	})
	require.Zero(t, exitCode, stderr.String())
	require.Empty(t, stderr.String())

	var summary RenderSummary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
	require.Equal(t, KindSales, summary.Kind)
	require.GreaterOrEqual(t, summary.Pages, 1)

	pdf, err := os.ReadFile(out)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
	require.Len(t, pdf, summary.Bytes)
}

func TestRenderCommandReceiptFromFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "receipt.json")
	require.NoError(t, os.WriteFile(in, []byte(`{
		"booking": {"transactionId": "TX-1", "purchaseDate": "2025-02-14T19:05:30Z", "customerEmail": "ana@example.com"},
		"showtime": {"movieTitle": "Dune", "room": "Sala 1", "date": "2025-02-15T00:00:00Z", "time": "20:30"},
		"seats": [{"row": "C", "number": 7, "type": "standard"}],
		"totalPrice": 52.5
	}`), 0o644))

	stdout := new(bytes.Buffer)
	exitCode := newRenderCLI().RenderCommand(context.Background(), RenderOptions{
		Kind:   "receipt",
		Input:  in,
		Output: filepath.Join(dir, "receipt.pdf"),
		Stdout: stdout,
		Stderr: new(bytes.Buffer),
	})
	require.Zero(t, exitCode)
	require.Contains(t, stdout.String(), "(1 pages")
}

func TestRenderCommandRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		opts RenderOptions
		code int
		want string
	}{
		{"unknown kind", RenderOptions{Kind: "invoice", Output: "x.pdf"}, 1, "unknown kind"},
		{"missing output", RenderOptions{}, 1, "--out is required"},
		{"malformed json", RenderOptions{Output: "x.pdf", Stdin: strings.NewReader("{")}, 1, "decode report data"},
		{"invalid data", RenderOptions{Output: "x.pdf", Stdin: strings.NewReader(`{"stats":{"totalTickets":-3}}`)}, 2, "TotalTickets"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stderr := new(bytes.Buffer)
			tc.opts.Stdout = new(bytes.Buffer)
			tc.opts.Stderr = stderr
			require.Equal(t, tc.code, newRenderCLI().RenderCommand(context.Background(), tc.opts))
			require.Contains(t, stderr.String(), tc.want)
		})
	}
}

func TestBuildTask(t *testing.T) {
	task, err := BuildTask(jobs.TaskSalesReportGenerate, "7b1f6c2e-1d7a-4d55-9d2f-7c4b3f2a9e10")
	require.NoError(t, err)
	require.Equal(t, jobs.TaskSalesReportGenerate, task.Type())

	_, err = BuildTask(jobs.TaskSalesReportGenerate)
	require.Error(t, err)

	task, err = BuildTask(jobs.TaskReportCacheWarmup, "daily", "weekly")
	require.NoError(t, err)
	var payload jobs.CacheWarmupPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.Equal(t, []string{"daily", "weekly"}, payload.Periods)

	_, err = BuildTask("report:unknown")
	require.Error(t, err)
}

func TestJobsCLIRequiresClient(t *testing.T) {
	var c *JobsCLI
	_, err := c.Trigger(context.Background(), jobs.TaskReportCacheWarmup)
	require.Error(t, err)
	_, err = (&JobsCLI{}).InspectQueue()
	require.Error(t, err)
}

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/law-makers/sismos/internal/config"
	"github.com/law-makers/sismos/internal/engine"
	"github.com/law-makers/sismos/internal/extract"
	"github.com/law-makers/sismos/internal/result"
	"github.com/law-makers/sismos/pkg/models"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"12 km al NO de Ica", 5, "12 km..."},
		{"Región Ñuñoa", 6, "Región..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestPrintResult(t *testing.T) {
	recs := []models.Record{{Number: 1, ReportCode: "IGP-1", ReportLink: "https://x/?a=1&b=2"}}
	var buf bytes.Buffer
	if err := printResult(&buf, result.Success(recs, "out.json")); err != nil {
		t.Fatalf("printResult: %v", err)
	}

	if !strings.Contains(buf.String(), "a=1&b=2") {
		t.Errorf("expected unescaped ampersand, got %s", buf.String())
	}
	var decoded result.Result
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded.StatusCode != 200 || *decoded.Body.Total != 1 {
		t.Errorf("unexpected payload %+v", decoded)
	}
}

func TestPrintSummary(t *testing.T) {
	recs := make([]models.Record, 5)
	for i := range recs {
		recs[i] = models.Record{
			ReportCode:    "IGP-000" + string(rune('1'+i)),
			LocalDateTime: "01/01/2024",
			Magnitude:     "4.1",
			Reference:     strings.Repeat("x", 80),
		}
	}

	var buf bytes.Buffer
	printSummary(&buf, result.Success(recs, "/tmp/out.json"))
	out := buf.String()

	if !strings.Contains(out, "5 earthquakes extracted") {
		t.Errorf("missing count line:\n%s", out)
	}
	if !strings.Contains(out, "IGP-0003") || strings.Contains(out, "IGP-0004") {
		t.Errorf("expected exactly the first three records:\n%s", out)
	}
	if !strings.Contains(out, strings.Repeat("x", 50)+"...") || strings.Contains(out, strings.Repeat("x", 51)) {
		t.Errorf("reference not truncated to 50 chars:\n%s", out)
	}
	if !strings.Contains(out, "and 2 more") {
		t.Errorf("missing remainder line:\n%s", out)
	}
}

func TestPrintSummary_Error(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, result.FromError(engine.ErrTableNotFound))
	if !strings.Contains(buf.String(), "404") || !strings.Contains(buf.String(), "table not found") {
		t.Errorf("unexpected error summary:\n%s", buf.String())
	}
}

func TestIsInteractive(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	cfg := config.Default()
	if isInteractive(cfg, f) {
		t.Error("a regular file is not a terminal")
	}
	cfg.Quiet = true
	if isInteractive(cfg, os.Stderr) {
		t.Error("quiet runs are never interactive")
	}
}

func TestProgressObserver(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressObserver(&buf)

	// events before Start are ignored
	p.RowSkipped(1)
	p.Finish()

	var obs extract.Observer = p
	if _, ok := obs.(extract.Starter); !ok {
		t.Fatal("progressObserver must implement extract.Starter")
	}
	p.Start(3)
	p.RowExtracted(1, models.Record{})
	p.RowSkipped(2)
	p.RowFailed(3, errors.New("boom"))
	p.Finish()

	if !p.bar.IsFinished() {
		t.Error("expected the bar to be finished")
	}
}

func TestRunCommand_ExitCode(t *testing.T) {
	tests := []struct {
		name     string
		fetcher  fakeFetcher
		wantExit bool
	}{
		{"success", fakeFetcher{page: onePage()}, false},
		{"table missing", fakeFetcher{err: engine.ErrTableNotFound}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{}
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetContext(t.Context())
			a := newTestApp(tt.fetcher)
			a.Config.Quiet = true
			withApp(cmd, a)

			err := runRun(cmd, nil)
			var exit *ExitError
			if got := errors.As(err, &exit); got != tt.wantExit {
				t.Fatalf("runRun() error = %v, want exit error: %v", err, tt.wantExit)
			}
			if tt.wantExit && exit.Code != 1 {
				t.Errorf("exit code = %d, want 1", exit.Code)
			}
			if !json.Valid(out.Bytes()) {
				t.Errorf("stdout is not JSON: %s", out.String())
			}
		})
	}
}

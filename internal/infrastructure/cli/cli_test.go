package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/agentroi/runrate/pkg/application"
	"github.com/agentroi/runrate/pkg/storage"
)

const testAgents = `
- id: intake
  name: Intake Triage
  division: Operations
  avg_time_without_agent_minutes: 30
  avg_time_with_agent_minutes: 10
  avg_usage_count: 600
  usage_discount_percent: 0
  avg_hourly_wage: 40
- id: drafts
  name: Draft Writer
  division: Marketing
`

const testStudies = `
- id: st-1
  agent_id: intake
  study_date: 2026-04-01T00:00:00Z
  time_without_ai_minutes: 30
  time_with_ai_minutes: 12
  usage_count: 100
  cost_per_hour: 40
`

const testGoals = `
- id: goal-hours
  title: Save 150 hours
  goal_type: time_saved
  target_value: 150
  start_date: 2026-01-01T00:00:00Z
  target_date: 2030-12-31T00:00:00Z
  data_source: projected
`

// resetFlags restores every flag to its default so package-level flag
// variables do not leak between tests.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(RootCmd)

	buf := new(bytes.Buffer)
	RootCmd.SetOut(buf)
	RootCmd.SetErr(new(bytes.Buffer))
	RootCmd.SetArgs(args)
	err := RootCmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

// seedWorkspace initializes a workspace and imports agents, studies and goals.
func seedWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if _, err := runCLI(t, "-C", root, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}

	inputs := t.TempDir()
	for _, imp := range []struct{ kind, content string }{
		{"agents", testAgents},
		{"studies", testStudies},
		{"goals", testGoals},
	} {
		path := writeFile(t, inputs, imp.kind+".yaml", imp.content)
		if _, err := runCLI(t, "-C", root, "import", imp.kind, path); err != nil {
			t.Fatalf("import %s: %v", imp.kind, err)
		}
	}
	return root
}

func TestInitCmd(t *testing.T) {
	root := t.TempDir()
	out, err := runCLI(t, "-C", root, "init")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Initialized runrate workspace") {
		t.Errorf("output = %q", out)
	}
	for _, f := range []string{storage.ConfigFile, storage.AgentsFile, storage.StudiesFile, storage.GoalsFile, storage.EventsFile} {
		if _, err := os.Stat(filepath.Join(root, storage.RunrateDir, f)); err != nil {
			t.Errorf("expected %s: %v", f, err)
		}
	}

	// Double init should fail
	if _, err := runCLI(t, "-C", root, "init"); err == nil {
		t.Error("expected error on re-init")
	}
}

func TestImportCmd_JSONAndErrors(t *testing.T) {
	root := t.TempDir()
	if _, err := runCLI(t, "-C", root, "init"); err != nil {
		t.Fatal(err)
	}
	inputs := t.TempDir()

	path := writeFile(t, inputs, "agents.json", `[{"name": "Ticket Router", "avg_time_without_agent_minutes": 5, "avg_time_with_agent_minutes": 1, "avg_usage_count": 1000}]`)
	out, err := runCLI(t, "-C", root, "import", "agents", path, "--json")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	var result application.ImportResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if result.Created != 1 || len(result.Assigned) != 1 {
		t.Errorf("result = %+v", result)
	}

	bad := writeFile(t, inputs, "bad.yaml", "- division: Ops\n")
	_, err = runCLI(t, "-C", root, "import", "agents", bad)
	var cliErr *CLIError
	if err == nil || !errors.As(err, &cliErr) {
		t.Errorf("expected CLIError for schema violation, got %v", err)
	}

	if _, err := runCLI(t, "-C", root, "import", "widgets", path); err == nil {
		t.Error("expected error for unknown kind")
	}
	if _, err := runCLI(t, "-C", root, "import", "agents", filepath.Join(inputs, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestProjectCmd(t *testing.T) {
	root := seedWorkspace(t)

	out, err := runCLI(t, "-C", root, "project")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Intake Triage", "Draft Writer", "$8,000", "200.0h", "Last study:         2026-04-01"} {
		if !strings.Contains(out, want) {
			t.Errorf("portfolio output missing %q:\n%s", want, out)
		}
	}

	out, err = runCLI(t, "-C", root, "project", "intake")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Projected at full adoption") || !strings.Contains(out, "Studies:          1") {
		t.Errorf("agent output:\n%s", out)
	}

	out, err = runCLI(t, "-C", root, "project", "intake", "--adoption", "50", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var scenario struct {
		Projection struct {
			AnnualCostSavings float64 `json:"annual_cost_savings"`
		} `json:"projection"`
	}
	if err := json.Unmarshal([]byte(out), &scenario); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if scenario.Projection.AnnualCostSavings != 4000 {
		t.Errorf("cost at 50%% adoption = %v, want 4000", scenario.Projection.AnnualCostSavings)
	}

	if _, err := runCLI(t, "-C", root, "project", "drafts", "--adoption", "50"); err == nil {
		t.Error("expected error for incomplete agent")
	}
	if _, err := runCLI(t, "-C", root, "project", "ghost"); err == nil {
		t.Error("expected error for unknown agent")
	}
	if _, err := runCLI(t, "-C", root, "project", "--adoption", "50"); err == nil {
		t.Error("expected error for --adoption without agent")
	}
}

func TestGoalsCmds(t *testing.T) {
	root := seedWorkspace(t)

	out, err := runCLI(t, "-C", root, "goals", "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "goal-hours") || !strings.Contains(out, "100.0%") {
		t.Errorf("goals list:\n%s", out)
	}

	out, err = runCLI(t, "-C", root, "goals", "contributions", "goal-hours", "--json")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"agent_id": "intake"`) {
		t.Errorf("contributions:\n%s", out)
	}

	if _, err := runCLI(t, "-C", root, "goals", "status", "goal-hours", "at_risk"); err != nil {
		t.Fatalf("status: %v", err)
	}
	out, err = runCLI(t, "-C", root, "goals", "show", "goal-hours", "--json")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"status": "at_risk"`) {
		t.Errorf("show after status change:\n%s", out)
	}

	if _, err := runCLI(t, "-C", root, "goals", "status", "goal-hours", "cancelled"); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, "-C", root, "goals", "status", "goal-hours", "behind"); err == nil {
		t.Error("expected error moving a cancelled goal to behind")
	}
	if _, err := runCLI(t, "-C", root, "goals", "status", "goal-hours", "on_track"); err != nil {
		t.Errorf("reopen: %v", err)
	}
	if _, err := runCLI(t, "-C", root, "goals", "show", "nope"); err == nil {
		t.Error("expected error for unknown goal")
	}

	if _, err := runCLI(t, "-C", root, "goals", "assess"); err != nil {
		t.Errorf("assess: %v", err)
	}
}

func TestSnapshotAndTrendCmds(t *testing.T) {
	root := seedWorkspace(t)

	out, err := runCLI(t, "-C", root, "snapshot", "capture", "--date", "2026-04-02")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Captured 1 snapshot(s) for 2026-04-02") {
		t.Errorf("capture output:\n%s", out)
	}
	if _, err := runCLI(t, "-C", root, "snapshot", "capture", "--date", "April"); err == nil {
		t.Error("expected error for malformed date")
	}
	// A second capture of the same day replaces the first.
	if _, err := runCLI(t, "-C", root, "snapshot", "capture", "--date", "2026-04-02"); err != nil {
		t.Fatal(err)
	}

	out, err = runCLI(t, "-C", root, "trend", "--days", "36500", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var trend struct {
		Metric     string `json:"metric"`
		Historical []struct {
			Value float64 `json:"value"`
		} `json:"historical"`
	}
	if err := json.Unmarshal([]byte(out), &trend); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if trend.Metric != "time_saved" || len(trend.Historical) != 1 {
		t.Fatalf("trend = %+v", trend)
	}
	if trend.Historical[0].Value != 30 {
		t.Errorf("time saved on 2026-04-02 = %v, want 30", trend.Historical[0].Value)
	}

	out, err = runCLI(t, "-C", root, "trend", "compare", "--days", "36500")
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range []string{"time_saved", "cost_savings", "study_count"} {
		if !strings.Contains(out, m) {
			t.Errorf("compare output missing %s:\n%s", m, out)
		}
	}

	if _, err := runCLI(t, "-C", root, "trend", "--metric", "happiness"); err == nil {
		t.Error("expected error for unknown metric")
	}
}

func TestScenarioCmds(t *testing.T) {
	root := seedWorkspace(t)

	out, err := runCLI(t, "-C", root, "scenario", "--usage", "2")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "+100.0% cost savings") {
		t.Errorf("scenario output:\n%s", out)
	}

	out, err = runCLI(t, "-C", root, "scenario", "--compare")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Best: Aggressive Expansion") {
		t.Errorf("compare output:\n%s", out)
	}

	if _, err := runCLI(t, "-C", root, "scenario", "--preset", "wage increase impact"); err != nil {
		t.Errorf("preset: %v", err)
	}
	if _, err := runCLI(t, "-C", root, "scenario", "--preset", "moonshot"); err == nil {
		t.Error("expected error for unknown preset")
	}
	if _, err := runCLI(t, "-C", root, "scenario", "--usage", "-1"); err == nil {
		t.Error("expected error for negative usage multiplier")
	}

	out, err = runCLI(t, "-C", root, "scenario", "presets")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Reduced Adoption") {
		t.Errorf("presets output:\n%s", out)
	}
}

func TestAlertsAuditAndDashboard(t *testing.T) {
	root := seedWorkspace(t)

	if _, err := runCLI(t, "-C", root, "alerts", "--json"); err != nil {
		t.Fatalf("alerts: %v", err)
	}
	if _, err := runCLI(t, "-C", root, "alerts", "--notify"); err == nil {
		t.Error("expected error when no webhooks are configured")
	}

	out, err := runCLI(t, "-C", root, "alerts", "deadletters")
	if err != nil {
		t.Fatalf("alerts deadletters: %v", err)
	}
	if !strings.Contains(out, "No failed deliveries") {
		t.Errorf("deadletters output:\n%s", out)
	}
	writeFile(t, filepath.Join(root, storage.RunrateDir), storage.DeadLetterFile,
		`{"webhook_name":"ops","alert_key":"goal_overdue:g1","error":"timeout","attempts":3}
garbage
{"webhook_name":"ops","alert_key":"weak_forecast:time_saved","error":"503","attempts":3}
`)
	out, err = runCLI(t, "-C", root, "alerts", "deadletters", "--json", "--limit", "1")
	if err != nil {
		t.Fatal(err)
	}
	var letters []struct {
		AlertKey string `json:"alert_key"`
	}
	if err := json.Unmarshal([]byte(out), &letters); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(letters) != 1 || letters[0].AlertKey != "weak_forecast:time_saved" {
		t.Errorf("deadletters = %+v, want the most recent entry", letters)
	}
	out, err = runCLI(t, "-C", root, "alerts", "deadletters")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "2 failed deliveries") {
		t.Errorf("deadletters output:\n%s", out)
	}

	out, err = runCLI(t, "-C", root, "audit", "verify")
	if err != nil {
		t.Fatalf("audit verify: %v", err)
	}
	if !strings.Contains(out, "intact") {
		t.Errorf("verify output:\n%s", out)
	}
	out, err = runCLI(t, "-C", root, "audit", "log")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "workspace.init") || !strings.Contains(out, "data.import") {
		t.Errorf("audit log:\n%s", out)
	}

	t.Setenv("RUNRATE_SKIP_DASHBOARD_RUN", "true")
	if _, err := runCLI(t, "-C", root, "dashboard"); err != nil {
		t.Errorf("dashboard: %v", err)
	}
}

func TestCommandsRequireWorkspace(t *testing.T) {
	root := t.TempDir()
	inputs := t.TempDir()
	path := writeFile(t, inputs, "agents.yaml", testAgents)

	_, err := runCLI(t, "-C", root, "import", "agents", path)
	var cliErr *CLIError
	if !errors.As(err, &cliErr) || !strings.Contains(cliErr.Hint, "runrate init") {
		t.Errorf("expected init hint, got %v", err)
	}
	if _, err := runCLI(t, "-C", root, "watch"); err == nil {
		t.Error("expected watch to require a workspace")
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0"},
		{999, "$999"},
		{1000, "$1,000"},
		{1234567.4, "$1,234,567"},
		{-25000, "-$25,000"},
	}
	for _, tt := range tests {
		if got := formatMoney(tt.in); got != tt.want {
			t.Errorf("formatMoney(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

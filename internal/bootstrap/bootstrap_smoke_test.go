package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`
server:
  ip: 127.0.0.1
  port: 18080
  token: test-token
log:
  log_level: error
  log_dir: %q
database:
  path: %q
telemetry:
  enabled: false
`, filepath.Join(dir, "logs"), filepath.Join(dir, "test.db"))

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestInitGraphOrder(t *testing.T) {
	steps := InitGraph()
	want := []string{
		"config:load",
		"logging:init",
		"storage:open-database",
		"eventbus:init",
		"auth:init-manager",
		"domain:init-services",
		"gateway:init",
	}
	if len(steps) != len(want) {
		t.Fatalf("unexpected step count: got %d want %d", len(steps), len(want))
	}
	for i, step := range steps {
		if step.ID != want[i] {
			t.Fatalf("step %d mismatch: got %s want %s", i, step.ID, want[i])
		}
	}
}

func TestInitGraphDependenciesDeclared(t *testing.T) {
	seen := make(map[string]struct{})
	for _, step := range InitGraph() {
		for _, dep := range step.DependsOn {
			if _, ok := seen[dep]; !ok {
				t.Errorf("step %s depends on %s which has not run yet", step.ID, dep)
			}
		}
		seen[step.ID] = struct{}{}
	}
}

func TestExecuteInitGraph(t *testing.T) {
	state := &appState{configPath: writeTestConfig(t)}
	if err := executeInitSteps(context.Background(), InitGraph(), state); err != nil {
		t.Fatalf("executeInitSteps failed: %v", err)
	}
	t.Cleanup(func() {
		if state.auditRecorder != nil {
			state.auditRecorder.Stop()
		}
		if state.authManager != nil {
			state.authManager.Close()
		}
		if state.logger != nil {
			state.logger.Close()
		}
	})

	if state.config == nil {
		t.Fatal("config is nil after init")
	}
	if state.config.Server.Port != 18080 {
		t.Errorf("config file not applied, port = %d", state.config.Server.Port)
	}
	if state.logger == nil {
		t.Fatal("logger is nil after init")
	}
	if state.db == nil {
		t.Fatal("database handle is nil after init")
	}
	if state.authManager == nil {
		t.Fatal("auth manager is nil after init")
	}
	if state.fleet == nil || state.cloud == nil {
		t.Fatal("domain services not initialised")
	}
	if state.gateway == nil {
		t.Fatal("gateway not initialised")
	}

	// The cloud miner must have seeded its defaults during init.
	cfg, err := state.cloud.GetConfig(context.Background())
	if err != nil {
		t.Fatalf("GetConfig returned error: %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("expected freshly seeded config at version 1, got %d", cfg.Version)
	}
}

func TestExecuteInitStepsRejectsUnmetDependency(t *testing.T) {
	steps := []initStep{
		{
			ID:        "b",
			DependsOn: []string{"a"},
			Execute:   func(context.Context, *appState) error { return nil },
		},
	}
	if err := executeInitSteps(context.Background(), steps, &appState{}); err == nil {
		t.Fatal("expected dependency error")
	}
}

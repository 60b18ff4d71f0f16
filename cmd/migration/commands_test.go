package main

import (
	"testing"

	"github.com/PrOLmOg/MatchMapProject/internal/platform/logging"
)

func TestParseSteps(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args    []string
		want    int
		wantErr bool
	}{
		{args: nil, want: 1},
		{args: []string{" 3 "}, want: 3},
		{args: []string{"0"}, wantErr: true},
		{args: []string{"-2"}, wantErr: true},
		{args: []string{"two"}, wantErr: true},
	}

	for _, tc := range tests {
		got, err := parseSteps(tc.args)
		if (err != nil) != tc.wantErr {
			t.Fatalf("parseSteps(%v) err=%v wantErr=%v", tc.args, err, tc.wantErr)
		}
		if !tc.wantErr && got != tc.want {
			t.Fatalf("parseSteps(%v)=%d want %d", tc.args, got, tc.want)
		}
	}
}

func TestParseVersionAndTarget(t *testing.T) {
	t.Parallel()

	if v, err := parseVersion("2"); err != nil || v != 2 {
		t.Fatalf("parseVersion: v=%d err=%v", v, err)
	}
	if _, err := parseVersion("-1"); err == nil {
		t.Fatalf("expected error for negative version")
	}
	if v, err := parseTarget("3"); err != nil || v != 3 {
		t.Fatalf("parseTarget: v=%d err=%v", v, err)
	}
	if _, err := parseTarget("-3"); err == nil {
		t.Fatalf("expected error for negative target")
	}
}

func TestNewMigrator_RequiresDBURL(t *testing.T) {
	t.Parallel()

	if _, _, err := newMigrator("  ", ""); err == nil {
		t.Fatalf("expected error without DB_URL")
	}
}

func TestRootCmd_RejectsExtraArgs(t *testing.T) {
	t.Parallel()

	cmd := newRootCmd(logging.NewNop())
	cmd.SetArgs([]string{"up", "extra"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected argument validation error")
	}
}

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/joestump/branchsmith/internal/branchname"
	"github.com/joestump/branchsmith/internal/gitprovider"
)

func TestParseRepo(t *testing.T) {
	tests := []struct {
		in      string
		want    gitprovider.RepoRef
		wantErr bool
	}{
		{in: "acme/api", want: gitprovider.RepoRef{Owner: "acme", Name: "api"}},
		{in: "acme", wantErr: true},
		{in: "/api", wantErr: true},
		{in: "acme/", wantErr: true},
		{in: "acme/api/extra", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseRepo(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseRepo(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseRepo(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger("warn", "json", &buf)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "branch", "feature/1-x")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record passed a warn level logger")
	}
	if !strings.Contains(out, `"branch":"feature/1-x"`) {
		t.Errorf("expected a JSON record, got %q", out)
	}

	if _, err := newLogger("loud", "text", &buf); err == nil {
		t.Error("expected an error for an unknown level")
	}
	if _, err := newLogger("info", "xml", &buf); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestPrintValidation(t *testing.T) {
	var buf bytes.Buffer
	printValidation(&buf, branchname.Validate("bad name", 80))
	out := buf.String()
	if !strings.Contains(out, "invalid") || !strings.Contains(out, "error: ") {
		t.Errorf("unexpected output %q", out)
	}
}

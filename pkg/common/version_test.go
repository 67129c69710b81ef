package common

import "testing"

func TestProgramVersion(t *testing.T) {
	tests := []struct {
		name      string
		version   ProgramVersion
		wantShort string
		wantUA    string
	}{
		{"dev build", ProgramVersion{Version: "dev"}, "vdev", "SEOAuditBot/dev"},
		{"release", ProgramVersion{Version: "1.2.0", CommitHash: "abc123", BuildTime: "2026-01-01"}, "v1.2.0-abc123-2026-01-01", "SEOAuditBot/1.2.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.version.Short(); got != tt.wantShort {
				t.Errorf("Short() = %s, want %s", got, tt.wantShort)
			}
			if got := tt.version.UserAgent(); got != tt.wantUA {
				t.Errorf("UserAgent() = %s, want %s", got, tt.wantUA)
			}
		})
	}
}

package utils

import "testing"

func TestNextRecordID(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		existing []string
		want     string
	}{
		{
			name:     "empty catalog starts at one",
			prefix:   "OBS",
			existing: nil,
			want:     "OBS_0001",
		},
		{
			name:     "follows the maximum",
			prefix:   "OBS",
			existing: []string{"OBS_0001", "OBS_0002", "OBS_0003"},
			want:     "OBS_0004",
		},
		{
			name:     "gaps are tolerated",
			prefix:   "EVT",
			existing: []string{"EVT_0001", "EVT_0007"},
			want:     "EVT_0008",
		},
		{
			name:     "other prefixes ignored",
			prefix:   "LNK",
			existing: []string{"OBS_0042", "EVT_0099", "LNK_0002"},
			want:     "LNK_0003",
		},
		{
			name:     "malformed ids ignored",
			prefix:   "TGT",
			existing: []string{"TGT_abc", "TGT_", "TGT-0005", "TGT_0002"},
			want:     "TGT_0003",
		},
		{
			name:     "only malformed ids",
			prefix:   "TGT",
			existing: []string{"TGT_abc", "garbage"},
			want:     "TGT_0001",
		},
		{
			name:     "width grows past four digits",
			prefix:   "OBS",
			existing: []string{"OBS_9999"},
			want:     "OBS_10000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextRecordID(tt.prefix, tt.existing); got != tt.want {
				t.Errorf("NextRecordID(%q, %v) = %q, want %q", tt.prefix, tt.existing, got, tt.want)
			}
		})
	}
}

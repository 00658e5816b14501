package types

import "testing"

func TestParsePriority(t *testing.T) {
	cases := []struct {
		raw     string
		want    Priority
		wantErr bool
	}{
		{raw: "High", want: PriorityHigh},
		{raw: "Medium", want: PriorityMedium},
		{raw: "Low", want: PriorityLow},
		{raw: "high", wantErr: true},
		{raw: "Urgent", wantErr: true},
		{raw: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParsePriority(tc.raw)
		if (err != nil) != tc.wantErr {
			t.Fatalf("ParsePriority(%q): err %v, wantErr %v", tc.raw, err, tc.wantErr)
		}
		if got != tc.want {
			t.Fatalf("ParsePriority(%q): got %q want %q", tc.raw, got, tc.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	cases := []struct {
		raw     string
		want    Status
		wantErr bool
	}{
		{raw: "Pending", want: StatusPending},
		{raw: "Completed", want: StatusCompleted},
		{raw: "Done", wantErr: true},
		{raw: "completed", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseStatus(tc.raw)
		if (err != nil) != tc.wantErr {
			t.Fatalf("ParseStatus(%q): err %v, wantErr %v", tc.raw, err, tc.wantErr)
		}
		if got != tc.want {
			t.Fatalf("ParseStatus(%q): got %q want %q", tc.raw, got, tc.want)
		}
	}
}

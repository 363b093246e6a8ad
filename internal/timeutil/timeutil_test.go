package timeutil

import (
	"errors"
	"testing"

	"github.com/vodseek/vodseek/internal/domain"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "unix", input: "1657871396", want: 1657871396},
		{name: "rfc3339", input: "2022-07-15T07:49:56+00:00", want: 1657871396},
		{name: "with utc tag", input: "2022-07-15 07:49:56 UTC", want: 1657871396},
		{name: "without utc tag", input: "2022-07-15 07:49:56", want: 1657871396},
		{name: "without seconds", input: "15-07-2022 07:49", want: 1657871340},
		{name: "garbage", input: "2022-07-15 0749", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidTimestamp) {
					t.Fatalf("ParseTimestamp(%q) err = %v, want ErrInvalidTimestamp", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimestamp(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseTimestamp(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

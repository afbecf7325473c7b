package domain

import (
	"errors"
	"testing"
)

func TestParseDestination(t *testing.T) {
	tests := []struct {
		in      string
		want    Destination
		wantErr bool
	}{
		{"10.0.0.2:5001", Destination{Host: "10.0.0.2", Port: 5001}, false},
		{"replica.internal:80", Destination{Host: "replica.internal", Port: 80}, false},
		{"[::1]:5001", Destination{Host: "::1", Port: 5001}, false},
		{"10.0.0.2", Destination{}, true},
		{":5001", Destination{}, true},
		{"host:0", Destination{}, true},
		{"host:70000", Destination{}, true},
		{"host:http", Destination{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDestination(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDestination(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("error = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseDestination(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDestination_Addr(t *testing.T) {
	d := Destination{Host: "::1", Port: 5001}
	if got := d.Addr(); got != "[::1]:5001" {
		t.Errorf("Addr() = %q, want [::1]:5001", got)
	}
}

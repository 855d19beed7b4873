package source

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/evanofslack/zone-update/provider"
)

type failing struct{}

func (failing) Records(context.Context) ([]Record, error) { return nil, errors.New("unreachable") }

func TestMerge(t *testing.T) {
	www := Record{Host: "www", Type: provider.A, Value: "10.0.0.1"}
	docs := Record{Host: "docs", Type: provider.CNAME, Value: "pages.example.net"}

	tests := []struct {
		name        string
		sources     Merge
		expected    []Record
		expectError bool
	}{
		{
			name:     "concatenates in order",
			sources:  Merge{Static{www}, Static{docs}},
			expected: []Record{www, docs},
		},
		{
			name:     "identical duplicates collapse",
			sources:  Merge{Static{www}, Static{www, docs}},
			expected: []Record{www, docs},
		},
		{
			name:        "conflicting duplicate",
			sources:     Merge{Static{www}, Static{{Host: "www", Type: provider.A, Value: "10.0.0.2"}}},
			expectError: true,
		},
		{
			name:     "same host different type",
			sources:  Merge{Static{www, {Host: "www", Type: provider.AAAA, Value: "::1"}}},
			expected: []Record{www, {Host: "www", Type: provider.AAAA, Value: "::1"}},
		},
		{
			name:        "source error",
			sources:     Merge{Static{www}, failing{}},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.sources.Records(context.Background())
			if (err != nil) != tt.expectError {
				t.Fatalf("Expected error: %v, got: %v", tt.expectError, err)
			}
			if !tt.expectError && !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestStaticCopies(t *testing.T) {
	s := Static{{Host: "www", Type: provider.A, Value: "10.0.0.1"}}
	got, _ := s.Records(context.Background())
	got[0].Value = "changed"
	if s[0].Value != "10.0.0.1" {
		t.Error("Static handed out its backing array")
	}
}

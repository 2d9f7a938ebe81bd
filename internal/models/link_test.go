package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrapeRequestUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ScrapeRequest
	}{
		{
			name: "snake case",
			in:   `{"target_url":"https://example.com","max_pages":3,"filter_pattern":"/v/","use_proxy":true}`,
			want: ScrapeRequest{TargetURL: "https://example.com", MaxPages: 3, FilterPattern: "/v/", UseProxy: true},
		},
		{
			name: "camel case",
			in:   `{"targetUrl":"https://example.com","maxPages":2,"filterPattern":"watch","useProxy":true}`,
			want: ScrapeRequest{TargetURL: "https://example.com", MaxPages: 2, FilterPattern: "watch", UseProxy: true},
		},
		{
			name: "snake case wins",
			in:   `{"target_url":"https://a.example.com","targetUrl":"https://b.example.com","maxPages":4}`,
			want: ScrapeRequest{TargetURL: "https://a.example.com", MaxPages: 4},
		},
		{
			name: "unknown keys ignored",
			in:   `{"targetUrl":"https://example.com","depth":9}`,
			want: ScrapeRequest{TargetURL: "https://example.com"},
		},
		{
			name: "empty object",
			in:   `{}`,
			want: ScrapeRequest{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ScrapeRequest
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScrapeRequestUnmarshalRejectsWrongTypes(t *testing.T) {
	var got ScrapeRequest
	assert.Error(t, json.Unmarshal([]byte(`{"maxPages":"ten"}`), &got))
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &got))
}

func TestScrapeRequestMarshalUsesSnakeCase(t *testing.T) {
	data, err := json.Marshal(ScrapeRequest{TargetURL: "https://example.com", MaxPages: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"target_url":"https://example.com","max_pages":1,"use_proxy":false}`, string(data))
}

package github

import (
	"context"
	"testing"
)

func TestNextPage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		link string
		want string
	}{
		{"empty", "", ""},
		{
			"next and last",
			`<https://api.github.com/repositories/1/releases?page=2>; rel="next", <https://api.github.com/repositories/1/releases?page=5>; rel="last"`,
			"https://api.github.com/repositories/1/releases?page=2",
		},
		{
			"only prev",
			`<https://api.github.com/repositories/1/releases?page=1>; rel="prev"`,
			"",
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := NextPage(tc.link); got != tc.want {
				t.Fatalf("NextPage: got %q want %q", got, tc.want)
			}
		})
	}
}

func TestNewRequestHeaders(t *testing.T) {
	t.Setenv("MINGWUP_GITHUB_TOKEN", "tok")

	req, err := NewRequest(context.Background(), DefaultReleasesURL, UserAgent("1.2.3"))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if got := req.Header.Get("User-Agent"); got != "mingwup/1.2.3" {
		t.Fatalf("User-Agent: got %q", got)
	}
	if got := req.Header.Get("Authorization"); got != "Bearer tok" {
		t.Fatalf("Authorization: got %q", got)
	}
	if got := req.Header.Get("Accept"); got != "application/vnd.github+json" {
		t.Fatalf("Accept: got %q", got)
	}

	other, err := NewRequest(context.Background(), "http://127.0.0.1/releases", "ua")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if other.Header.Get("Authorization") != "" {
		t.Fatalf("token must not leak to non-github hosts")
	}
}

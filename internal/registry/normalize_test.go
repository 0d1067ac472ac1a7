package registry

import "testing"

func TestNormalizeIdentity(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"@ProAmazon1", "@proamazon1", true},
		{"https://t.me/proamazon1", "@proamazon1", true},
		{"https://t.me/AmazonSvoboda/1", "@amazonsvoboda", true},
		{"t.me/jobs_feed", "@jobs_feed", true},
		{"tg://resolve?domain=jobs_feed", "@jobs_feed", true},
		{"-1001234567890", "-1001234567890", true},
		{"987654", "987654", true},
		{"  @spaced  ", "@spaced", true},
		{"https://www.facebook.com/groups/12345", "", false},
		{"@x", "", false}, // too short for a handle
		{"", "", false},
		{"not a source", "", false},
	}

	for _, tc := range cases {
		got, ok := NormalizeIdentity(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("NormalizeIdentity(%q) = %q,%v; want %q,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

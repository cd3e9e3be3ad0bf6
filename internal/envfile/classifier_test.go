package envfile

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		varName string
		value   string
		want    bool
	}{
		{
			name:    "api key by name",
			varName: "API_KEY",
			value:   "sk_live_abcdef1234567890",
			want:    true,
		},
		{
			name:    "plain config flag",
			varName: "DEBUG",
			value:   "true",
			want:    false,
		},
		{
			name:    "password by name",
			varName: "DB_PASSWORD",
			value:   "hunter2",
			want:    true,
		},
		{
			name:    "auth hint lowercase",
			varName: "oauth_client",
			value:   "abc",
			want:    true,
		},
		{
			name:    "credential hint",
			varName: "GCP_CREDENTIALS",
			value:   "x",
			want:    true,
		},
		{
			name:    "empty value never secret",
			varName: "STRIPE_SECRET_KEY",
			value:   "",
			want:    false,
		},
		{
			name:    "high entropy value with neutral name",
			varName: "CONN",
			value:   "Zm9vYmFyYmF6cXV4MTIzNDU2Nzg5MA==",
			want:    true,
		},
		{
			name:    "long but purely alphabetic value",
			varName: "DESCRIPTION",
			value:   "thisisjustaverylongwordwithoutdigits",
			want:    false,
		},
		{
			name:    "short neutral value",
			varName: "PORT",
			value:   "8080",
			want:    false,
		},
		{
			name:    "private key hint",
			varName: "SIGNING_PRIVATE_PEM",
			value:   "x",
			want:    true,
		},
		{
			name:    "token hint mixed case",
			varName: "GitHub_Token",
			value:   "ghp_x",
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.varName, tt.value)
			if got != tt.want {
				t.Errorf("Classify(%q, %q) = %v, want %v", tt.varName, tt.value, got, tt.want)
			}
		})
	}
}

// Classification must be deterministic and order-independent: calling it
// repeatedly or interleaved with other pairs never changes a result.
func TestClassifyDeterministic(t *testing.T) {
	pairs := []struct{ name, value string }{
		{"API_KEY", "sk_live_abcdef1234567890"},
		{"DEBUG", "true"},
		{"SESSION_TOKEN", "xyz"},
		{"HOST", "localhost"},
	}

	baseline := make([]bool, len(pairs))
	for i, p := range pairs {
		baseline[i] = Classify(p.name, p.value)
	}

	// Re-run in reverse and interleaved order.
	for round := 0; round < 3; round++ {
		for i := len(pairs) - 1; i >= 0; i-- {
			if got := Classify(pairs[i].name, pairs[i].value); got != baseline[i] {
				t.Fatalf("round %d: Classify(%q) changed from %v to %v", round, pairs[i].name, baseline[i], got)
			}
		}
	}
}

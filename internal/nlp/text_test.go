package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"url removed", "Buy $AAPL now https://t.co/abc123 ok", "Buy $AAPL now ok"},
		{"www removed", "see www.example.com/page for more", "see for more"},
		{"mention removed", "@trader42 TSLA to the moon", "TSLA to the moon"},
		{"email kept", "mail me at bob@example.com", "mail me at bob@example.com"},
		{"zero width", "NVDA\u200bcalls", "NVDA calls"},
		{"whitespace collapsed", "  a \n\t b  ", "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}

func TestEnsureTicker(t *testing.T) {
	assert.Equal(t, "AAPL", EnsureTicker(" aapl "))
	assert.Equal(t, "BRK.B", EnsureTicker("brk.b"))
	assert.Equal(t, "RDS-A", EnsureTicker("$rds-a"))
	assert.Equal(t, "", EnsureTicker("  $$ "))
}

func TestContentTokens(t *testing.T) {
	tokens := ContentTokens("The iPhone sales are GREAT and a 5G launch is near")
	assert.Equal(t, []string{"iphone", "sales", "great", "5g", "launch"}, tokens)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcd…", Truncate("abcdefgh", 5))
	assert.Equal(t, "", Truncate("abc", 0))
}

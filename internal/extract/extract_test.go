package extract

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestVisibleText_StripsNonContent(t *testing.T) {
	t.Parallel()

	html := `<html><head><style>p{color:red}</style></head>
<body><p>First   paragraph.</p><script>var x = "hidden";</script>
<noscript>enable js</noscript><p>Second paragraph.</p></body></html>`

	text, err := VisibleText(html)
	require.NoError(t, err)
	require.Equal(t, "First paragraph. Second paragraph.", text)
}

func TestVisibleText_NoBody(t *testing.T) {
	t.Parallel()

	text, err := VisibleText("just a fragment")
	require.NoError(t, err)
	require.Equal(t, "just a fragment", text)
}

func TestCollapse(t *testing.T) {
	t.Parallel()

	require.Equal(t, "a b c", Collapse("  a\n\tb \r\n  c  "))
	require.Equal(t, "", Collapse("   \n\t "))
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 100)
	require.Len(t, Truncate(long, 30), 30)
	require.Equal(t, long, Truncate(long, 100))
	require.Equal(t, long, Truncate(long, 0))
	require.Equal(t, "abc", Truncate("abc", 10))
}

func TestTruncate_CountsRunesNotBytes(t *testing.T) {
	t.Parallel()

	require.Equal(t, "əəə", Truncate("əəəə", 3))

	az := strings.Repeat("bəyanat ", 20)
	got := Truncate(az, 100)
	require.Equal(t, 100, utf8.RuneCountInString(got))
	require.True(t, utf8.ValidString(got))
	require.Equal(t, az, Truncate(az, utf8.RuneCountInString(az)))
}

package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlobStore_PutObject(t *testing.T) {
	t.Parallel()

	s := NewBlobStore()
	uri, err := s.PutObject(context.Background(), "raw/abc.txt", "text/plain; charset=utf-8", []byte("article text"))
	require.NoError(t, err)
	require.Equal(t, "memory://raw/abc.txt", uri)

	data, ok := s.Object("raw/abc.txt")
	require.True(t, ok)
	require.Equal(t, []byte("article text"), data)
}

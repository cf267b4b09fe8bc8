package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct{ id string }

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "42", CreatedAt: "2026-01-02T03:04:05.123Z"})
	require.NoError(t, err)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "42", cursor.ID)
	assert.Equal(t, "2026-01-02T03:04:05.123Z", cursor.CreatedAt)

	_, err = DecodeCursor("not base64!")
	assert.Error(t, err)
}

func TestBuildCursorPageInfo(t *testing.T) {
	data := []*item{{"a"}, {"b"}, {"c"}}
	info := BuildCursorPageInfo(data, 2, func(i *item) string { return i.id })
	assert.True(t, info.HasMore)
	assert.Equal(t, "b", info.NextPageToken)

	info = BuildCursorPageInfo(data[:1], 2, func(i *item) string { return i.id })
	assert.False(t, info.HasMore)

	info = BuildCursorPageInfo([]*item{}, 2, func(i *item) string { return i.id })
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}

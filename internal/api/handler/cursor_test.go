package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/farmhand/internal/api/storage"
)

func TestJobCursorRoundTrip(t *testing.T) {
	want := storage.JobCursor{CreatedAt: time.Date(2026, 5, 1, 8, 30, 0, 123, time.UTC), ID: 77}

	got, err := DecodeJobCursor(EncodeJobCursor(want))
	require.NoError(t, err)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, want.ID, got.ID)
}

func TestDecodeJobCursor_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		cursor string
	}{
		{name: "not base64", cursor: "%%%"},
		{name: "missing separator", cursor: "MTIz"},
		{name: "non numeric id", cursor: "MTIzfGFiYw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJobCursor(tt.cursor)
			assert.Error(t, err)
		})
	}

	c, err := DecodeJobCursor("")
	require.NoError(t, err)
	assert.Nil(t, c)
}

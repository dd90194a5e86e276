package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompose(t *testing.T) {
	calls := 0
	mockExecCommand(t, &calls)

	dir := t.TempDir()
	videoPath := filepath.Join(dir, "video.mp4")
	logoPath := filepath.Join(dir, "logo.png")
	assert.NoError(t, os.WriteFile(videoPath, []byte("video"), 0644))
	assert.NoError(t, os.WriteFile(logoPath, []byte("logo"), 0644))

	c := NewComposer()
	outputPath, err := c.Compose(context.Background(), videoPath, logoPath, "Hello")

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, dir, filepath.Dir(outputPath), "output must land next to the input")
	assert.True(t, strings.HasPrefix(filepath.Base(outputPath), "processed_"))
	assert.True(t, strings.HasSuffix(outputPath, ".mp4"))

	data, err := os.ReadFile(outputPath)
	assert.NoError(t, err)
	assert.Equal(t, "ffmpeg video", string(data))
}

func TestEscapeDrawtext(t *testing.T) {
	assert.Equal(t, `plain text`, escapeDrawtext("plain text"))
	assert.Equal(t, `it\'s 50\% off\: now`, escapeDrawtext("it's 50% off: now"))
	assert.Equal(t, `back\\slash`, escapeDrawtext(`back\slash`))
}

package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Composer overlays a logo and a caption onto a video with ffmpeg. The
// output keeps the source duration and audio track.
type Composer struct{}

func NewComposer() *Composer {
	return &Composer{}
}

// Compose renders videoPath with the logo in the top-right corner and
// overlayText centered, writing a new mp4 next to the input.
func (c *Composer) Compose(ctx context.Context, videoPath, logoPath, overlayText string) (string, error) {
	outputPath := filepath.Join(filepath.Dir(videoPath), fmt.Sprintf("processed_%s.mp4", uuid.New().String()))

	filter := fmt.Sprintf(
		"[1:v][0:v]scale2ref=oh*mdar:main_h*0.1[logo][base];"+
			"[base][logo]overlay=W-w-10:10[branded];"+
			"[branded]drawtext=text='%s':fontcolor=white:fontsize=40:borderw=2:bordercolor=black:x=(w-text_w)/2:y=(h-text_h)/2[vout]",
		escapeDrawtext(overlayText),
	)

	cmd := execCommandContext(ctx, "ffmpeg", "-y",
		"-i", videoPath,
		"-i", logoPath,
		"-filter_complex", filter,
		"-map", "[vout]",
		"-map", "0:a?",
		"-c:v", "libx264",
		"-c:a", "aac",
		"-pix_fmt", "yuv420p",
		outputPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(outputPath)
		return "", fmt.Errorf("failed to execute ffmpeg: %w, output: %s", err, string(output))
	}

	if _, err := os.Stat(outputPath); err != nil {
		return "", fmt.Errorf("ffmpeg reported success but %s is missing: %w", outputPath, err)
	}
	return outputPath, nil
}

// escapeDrawtext quotes characters with special meaning inside an ffmpeg
// drawtext argument.
func escapeDrawtext(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return r.Replace(s)
}

package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"regexp"
	"time"
)

var execCommandContext = exec.CommandContext

var tiktokURLPattern = regexp.MustCompile(`tiktok\.com`)

// Downloader fetches a remote video into a local .mp4 file. TikTok URLs go
// through a no-watermark resolver first and fall back to yt-dlp on any
// failure; everything else goes straight to yt-dlp.
type Downloader struct {
	httpClient *http.Client
	// resolverURL is the no-watermark resolver endpoint. Overridable in tests.
	resolverURL string
}

func NewDownloader() *Downloader {
	return &Downloader{
		httpClient: &http.Client{
			Timeout: 30 * time.Minute, // videos can be large
		},
		resolverURL: "https://www.tikwm.com/api/",
	}
}

// Download fetches the video at srcURL and writes it to destPrefix + ".mp4".
func (d *Downloader) Download(ctx context.Context, srcURL, destPrefix string) (string, error) {
	if tiktokURLPattern.MatchString(srcURL) {
		log.Printf("TikTok URL detected, trying no-watermark download: %s", srcURL)
		path, err := d.downloadTikTok(ctx, srcURL, destPrefix)
		if err == nil {
			return path, nil
		}
		log.Printf("TikTok download failed: %v, falling back to yt-dlp", err)
	}
	return d.downloadYtDlp(ctx, srcURL, destPrefix)
}

type resolverResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Play string `json:"play"`
	} `json:"data"`
}

// downloadTikTok asks the resolver for a watermark-free stream URL and
// downloads it directly.
func (d *Downloader) downloadTikTok(ctx context.Context, srcURL, destPrefix string) (string, error) {
	reqURL := fmt.Sprintf("%s?url=%s&hd=1", d.resolverURL, url.QueryEscape(srcURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create resolver request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolver request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("resolver returned status %d", resp.StatusCode)
	}

	var parsed resolverResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode resolver response: %w", err)
	}
	if parsed.Code != 0 || parsed.Data.Play == "" {
		return "", fmt.Errorf("resolver rejected url: %s", parsed.Msg)
	}

	return d.downloadDirect(ctx, parsed.Data.Play, destPrefix)
}

func (d *Downloader) downloadDirect(ctx context.Context, streamURL, destPrefix string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download video: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	destPath := destPrefix + ".mp4"
	f, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", destPath, err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(destPath)
		return "", fmt.Errorf("failed to write %s: %w", destPath, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("failed to close %s: %w", destPath, err)
	}
	return destPath, nil
}

// downloadYtDlp shells out to yt-dlp, merging best video+audio into mp4.
func (d *Downloader) downloadYtDlp(ctx context.Context, srcURL, destPrefix string) (string, error) {
	destPath := destPrefix + ".mp4"
	cmd := execCommandContext(ctx, "yt-dlp",
		"-o", destPath,
		"-f", "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best",
		"--merge-output-format", "mp4",
		"--no-playlist",
		srcURL,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		// yt-dlp may have written a partial file or merge temp before dying.
		os.Remove(destPath)
		os.Remove(destPath + ".part")
		return "", fmt.Errorf("failed to execute yt-dlp: %w, output: %s", err, string(output))
	}

	if _, err := os.Stat(destPath); err != nil {
		return "", fmt.Errorf("yt-dlp reported success but %s is missing: %w", destPath, err)
	}
	return destPath, nil
}

package publish

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// YouTube uploads the clip via the Data API v3. It needs the local file:
// the API takes a resumable upload stream, not a URL. Credentials come from
// a pre-issued refresh token (the OAuth consent flow is out of scope).
type YouTube struct {
	oauthConfig *oauth2.Config
	token       *oauth2.Token
	categoryID  string
	privacy     string
}

func NewYouTube(clientID, clientSecret, refreshToken string) *YouTube {
	return &YouTube{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL: "https://oauth2.googleapis.com/token",
			},
			Scopes: []string{youtube.YoutubeUploadScope},
		},
		token:      &oauth2.Token{RefreshToken: refreshToken},
		categoryID: "22", // People & Blogs
		privacy:    "public",
	}
}

func (y *YouTube) Publish(ctx context.Context, targetID string, artifact Artifact, caption string) (*Result, error) {
	f, err := os.Open(artifact.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open video file: %w", err)
	}
	defer f.Close()

	client := y.oauthConfig.Client(ctx, y.token)
	svc, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       caption,
			Description: caption,
			CategoryId:  y.categoryID,
			ChannelId:   targetID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: y.privacy,
		},
	}

	call := svc.Videos.Insert([]string{"snippet", "status"}, video)
	uploaded, err := call.Media(f).Do()
	if err != nil {
		return nil, fmt.Errorf("youtube upload failed: %w", err)
	}
	return &Result{PostID: uploaded.Id}, nil
}

func (y *YouTube) Moderated() bool { return false }

package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrPostNotFound = errors.New("post not found")

const defaultGraphBaseURL = "https://graph.facebook.com/v19.0"

// GraphClient is a minimal Facebook Graph API client covering video
// publishing, post status reads and post deletion.
type GraphClient struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
}

func NewGraphClient(accessToken string) *GraphClient {
	return &GraphClient{
		httpClient:  &http.Client{Timeout: 5 * time.Minute},
		baseURL:     defaultGraphBaseURL,
		accessToken: accessToken,
	}
}

type graphError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// PublishVideo posts a video by public URL to a page or group feed and
// returns the platform-assigned post id.
func (g *GraphClient) PublishVideo(ctx context.Context, edgeID, fileURL, caption string) (string, error) {
	form := url.Values{}
	form.Set("file_url", fileURL)
	form.Set("description", caption)
	form.Set("access_token", g.accessToken)

	endpoint := fmt.Sprintf("%s/%s/videos", g.baseURL, edgeID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("graph request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var ge graphError
		_ = json.NewDecoder(resp.Body).Decode(&ge)
		return "", fmt.Errorf("graph publish to %s failed: status %d: %s", edgeID, resp.StatusCode, ge.Error.Message)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode graph response: %w", err)
	}
	return result.ID, nil
}

// IsPostPublished reads the post's is_published flag. A code-100 graph
// error means the post id is unknown, reported as ErrPostNotFound.
func (g *GraphClient) IsPostPublished(ctx context.Context, postID string) (bool, error) {
	endpoint := fmt.Sprintf("%s/%s?fields=is_published&access_token=%s", g.baseURL, postID, url.QueryEscape(g.accessToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("graph request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var ge graphError
		_ = json.NewDecoder(resp.Body).Decode(&ge)
		if ge.Error.Code == 100 || resp.StatusCode == http.StatusNotFound {
			return false, ErrPostNotFound
		}
		return false, fmt.Errorf("graph status read for %s failed: status %d: %s", postID, resp.StatusCode, ge.Error.Message)
	}

	var result struct {
		IsPublished bool `json:"is_published"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("failed to decode graph response: %w", err)
	}
	return result.IsPublished, nil
}

// DeletePost removes a post. Deleting an already-gone post is not an error.
func (g *GraphClient) DeletePost(ctx context.Context, postID string) error {
	endpoint := fmt.Sprintf("%s/%s?access_token=%s", g.baseURL, postID, url.QueryEscape(g.accessToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graph request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var ge graphError
		_ = json.NewDecoder(resp.Body).Decode(&ge)
		if ge.Error.Code == 100 || resp.StatusCode == http.StatusNotFound {
			return nil
		}
		return fmt.Errorf("graph delete of %s failed: status %d: %s", postID, resp.StatusCode, ge.Error.Message)
	}
	return nil
}

// Page is one entry in the operator's managed-page listing.
type Page struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListManagedPages fetches the pages the access token can manage. This is
// how operators discover the ids to configure as publishing targets.
func (g *GraphClient) ListManagedPages(ctx context.Context) ([]Page, error) {
	endpoint := fmt.Sprintf("%s/me/accounts?access_token=%s", g.baseURL, url.QueryEscape(g.accessToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graph request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var ge graphError
		_ = json.NewDecoder(resp.Body).Decode(&ge)
		return nil, fmt.Errorf("graph page listing failed: status %d: %s", resp.StatusCode, ge.Error.Message)
	}

	var result struct {
		Data []Page `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode graph response: %w", err)
	}
	return result.Data, nil
}

// FacebookPage publishes to page feeds. Page posts go live immediately, so
// there is no moderation step to track.
type FacebookPage struct {
	graph *GraphClient
}

func NewFacebookPage(graph *GraphClient) *FacebookPage {
	return &FacebookPage{graph: graph}
}

func (p *FacebookPage) Publish(ctx context.Context, targetID string, artifact Artifact, caption string) (*Result, error) {
	postID, err := p.graph.PublishVideo(ctx, targetID, artifact.PublicURL, caption)
	if err != nil {
		return nil, err
	}
	return &Result{PostID: postID}, nil
}

func (p *FacebookPage) Moderated() bool { return false }

// FacebookGroup publishes to group feeds. Group admins can reject posts
// after submission, so every successful publish enters the approval ledger.
type FacebookGroup struct {
	graph *GraphClient
}

func NewFacebookGroup(graph *GraphClient) *FacebookGroup {
	return &FacebookGroup{graph: graph}
}

func (p *FacebookGroup) Publish(ctx context.Context, targetID string, artifact Artifact, caption string) (*Result, error) {
	postID, err := p.graph.PublishVideo(ctx, targetID, artifact.PublicURL, caption)
	if err != nil {
		return nil, err
	}
	return &Result{PostID: postID}, nil
}

func (p *FacebookGroup) Moderated() bool { return true }

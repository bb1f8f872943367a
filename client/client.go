// Package client is a small Go client for the vidtube HTTP API. It wraps the
// paginated list endpoints and provides a page accumulator (Pager) and a
// fetch trigger (Trigger) for building infinite-scroll style consumers.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Comment is a comment as returned by the API.
type Comment struct {
	ID           string    `json:"id"`
	VideoID      string    `json:"video_id"`
	ParentID     *string   `json:"parent_id,omitempty"`
	Content      string    `json:"content"`
	LikeCount    int64     `json:"like_count"`
	DislikeCount int64     `json:"dislike_count"`
	ReplyCount   int64     `json:"reply_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Video is a video as returned by the API.
type Video struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	Description  *string   `json:"description"`
	Visibility   string    `json:"visibility"`
	Status       string    `json:"status"`
	PlaybackID   *string   `json:"playback_id"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	ViewCount    int64     `json:"view_count"`
	LikeCount    int64     `json:"like_count"`
	CommentCount int64     `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// APIError is a structured error response from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// Client calls the vidtube HTTP API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CommentPage is one page of a comment listing.
type CommentPage struct {
	Comments   []Comment `json:"comments"`
	NextCursor *string   `json:"next_cursor,omitempty"`
	HasMore    bool      `json:"has_more"`
	TotalCount int64     `json:"total_count"`
}

// VideoPage is one page of a video listing.
type VideoPage struct {
	Videos     []Video `json:"videos"`
	NextCursor *string `json:"next_cursor,omitempty"`
	HasMore    bool    `json:"has_more"`
}

// ListComments fetches one page of comments for a video. parentID, when
// non-empty, scopes the listing to replies of that comment.
func (c *Client) ListComments(ctx context.Context, videoID, parentID string, cursor *string, limit int) (*CommentPage, error) {
	q := pageQuery(cursor, limit)
	if parentID != "" {
		q.Set("parent", parentID)
	}
	var page CommentPage
	if err := c.get(ctx, "/videos/"+videoID+"/comments", q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListStudioVideos fetches one page of the authenticated user's own videos,
// drafts and private items included.
func (c *Client) ListStudioVideos(ctx context.Context, cursor *string, limit int) (*VideoPage, error) {
	var page VideoPage
	if err := c.get(ctx, "/studio/videos", pageQuery(cursor, limit), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListSuggestions fetches one page of suggested videos for a watch page.
func (c *Client) ListSuggestions(ctx context.Context, videoID string, cursor *string, limit int) (*VideoPage, error) {
	var page VideoPage
	if err := c.get(ctx, "/videos/"+videoID+"/suggestions", pageQuery(cursor, limit), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CommentsPager returns a Pager over a video's comments (or a comment's
// replies when parentID is non-empty).
func (c *Client) CommentsPager(videoID, parentID string, limit int) *Pager[Comment] {
	return NewPager(func(ctx context.Context, cursor *string) ([]Comment, *string, error) {
		page, err := c.ListComments(ctx, videoID, parentID, cursor, limit)
		if err != nil {
			return nil, nil, err
		}
		return page.Comments, page.NextCursor, nil
	}, func(cm Comment) string { return cm.ID })
}

// StudioVideosPager returns a Pager over the authenticated user's videos.
func (c *Client) StudioVideosPager(limit int) *Pager[Video] {
	return NewPager(func(ctx context.Context, cursor *string) ([]Video, *string, error) {
		page, err := c.ListStudioVideos(ctx, cursor, limit)
		if err != nil {
			return nil, nil, err
		}
		return page.Videos, page.NextCursor, nil
	}, func(v Video) string { return v.ID })
}

// SuggestionsPager returns a Pager over a watch page's suggested videos.
func (c *Client) SuggestionsPager(videoID string, limit int) *Pager[Video] {
	return NewPager(func(ctx context.Context, cursor *string) ([]Video, *string, error) {
		page, err := c.ListSuggestions(ctx, videoID, cursor, limit)
		if err != nil {
			return nil, nil, err
		}
		return page.Videos, page.NextCursor, nil
	}, func(v Video) string { return v.ID })
}

func pageQuery(cursor *string, limit int) url.Values {
	q := url.Values{}
	if cursor != nil {
		q.Set("cursor", *cursor)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var envelope struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(body, &envelope) == nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}

	return json.Unmarshal(body, out)
}

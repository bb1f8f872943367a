package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

// ============================================================================
// Test Configuration
// ============================================================================

var (
	baseURL = getEnv("TEST_BASE_URL", "http://localhost:8080")
)

// Test user credentials (from seeds/test_pagination.sql)
const (
	creatorUsername = "creator_test"
	viewerUsername  = "viewer_test"
	testPassword    = "password123"
)

// ============================================================================
// HTTP Client Helpers
// ============================================================================

type apiClient struct {
	client  *http.Client
	baseURL string
	token   string
}

func newClient() *apiClient {
	return &apiClient{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
	}
}

func (c *apiClient) withToken(token string) *apiClient {
	c.token = token
	return c
}

func (c *apiClient) get(path string) (*http.Response, error) {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.client.Do(req)
}

func (c *apiClient) post(path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest("POST", c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.client.Do(req)
}

func parseJSON(resp *http.Response, v interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(v)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ============================================================================
// Login Helper
// ============================================================================

func login(t *testing.T, username, password string) string {
	client := newClient()
	resp, err := client.post("/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Login failed with status %d: %s", resp.StatusCode, body)
	}

	var result struct {
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	if err := parseJSON(resp, &result); err != nil {
		t.Fatalf("Parse login response: %v", err)
	}
	return result.Tokens.AccessToken
}

// seededVideoID finds the seed video by listing the creator's studio videos.
func seededVideoID(t *testing.T) string {
	token := login(t, creatorUsername, testPassword)
	client := newClient().withToken(token)

	resp, err := client.get("/studio/videos?limit=1")
	if err != nil {
		t.Fatalf("List studio videos: %v", err)
	}
	var list struct {
		Videos []struct {
			ID string `json:"id"`
		} `json:"videos"`
	}
	if err := parseJSON(resp, &list); err != nil {
		t.Fatalf("Parse studio videos: %v", err)
	}
	if len(list.Videos) == 0 {
		t.Skip("No seeded videos found, run seeds/test_pagination.sql first")
	}
	return list.Videos[0].ID
}

// ============================================================================
// TEST CASES
// ============================================================================

// TestCommentPagination walks a seeded comment collection page by page and
// verifies no comment is duplicated or skipped across page boundaries.
func TestCommentPagination(t *testing.T) {
	// Prerequisites: run seeds/test_pagination.sql first.
	// The seed video carries 7 top-level comments.
	videoID := seededVideoID(t)
	client := newClient()

	type commentPage struct {
		Comments []struct {
			ID        string    `json:"id"`
			UpdatedAt time.Time `json:"updated_at"`
		} `json:"comments"`
		NextCursor *string `json:"next_cursor"`
		HasMore    bool    `json:"has_more"`
		TotalCount int64   `json:"total_count"`
	}

	seen := map[string]bool{}
	var lastUpdated *time.Time
	cursor := ""
	pages := 0

	for {
		path := fmt.Sprintf("/videos/%s/comments?limit=3", videoID)
		if cursor != "" {
			path += "&cursor=" + cursor
		}
		resp, err := client.get(path)
		if err != nil {
			t.Fatalf("Get comments page %d: %v", pages+1, err)
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			t.Fatalf("Get comments failed: %d - %s", resp.StatusCode, body)
		}

		var page commentPage
		if err := parseJSON(resp, &page); err != nil {
			t.Fatalf("Parse page %d: %v", pages+1, err)
		}
		pages++

		for _, cm := range page.Comments {
			if seen[cm.ID] {
				t.Errorf("Comment %s appears on more than one page", cm.ID)
			}
			seen[cm.ID] = true
			if lastUpdated != nil && cm.UpdatedAt.After(*lastUpdated) {
				t.Errorf("Comment %s out of order: %v after %v", cm.ID, cm.UpdatedAt, *lastUpdated)
			}
			u := cm.UpdatedAt
			lastUpdated = &u
		}

		if !page.HasMore {
			if page.NextCursor != nil {
				t.Error("Final page carries a next_cursor")
			}
			break
		}
		if page.NextCursor == nil {
			t.Fatal("has_more set but next_cursor missing")
		}
		cursor = *page.NextCursor
		if pages > 10 {
			t.Fatal("Pagination did not terminate")
		}
	}

	if len(seen) != 7 {
		t.Errorf("Walked %d distinct comments, want 7", len(seen))
	}
	t.Logf("✓ Walked %d comments over %d pages", len(seen), pages)
}

// TestCommentPaginationRejectsBadInput checks validation happens before any
// storage access.
func TestCommentPaginationRejectsBadInput(t *testing.T) {
	videoID := seededVideoID(t)
	client := newClient()

	cases := []struct {
		name string
		path string
	}{
		{"LimitZero", fmt.Sprintf("/videos/%s/comments?limit=0", videoID)},
		{"LimitTooLarge", fmt.Sprintf("/videos/%s/comments?limit=101", videoID)},
		{"LimitNonNumeric", fmt.Sprintf("/videos/%s/comments?limit=abc", videoID)},
		{"MalformedCursor", fmt.Sprintf("/videos/%s/comments?cursor=%%21%%21not-a-cursor", videoID)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := client.get(tc.path)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("Status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

// TestStudioListingRequiresAuth verifies the owner-scoped listing is not
// publicly reachable.
func TestStudioListingRequiresAuth(t *testing.T) {
	client := newClient()
	resp, err := client.get("/studio/videos")
	if err != nil {
		t.Fatalf("Get studio videos: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Status = %d, want 401", resp.StatusCode)
	}
}

// TestSuggestionsExcludeReference verifies the watch page's suggestion list
// never contains the video being watched.
func TestSuggestionsExcludeReference(t *testing.T) {
	videoID := seededVideoID(t)
	client := newClient()

	resp, err := client.get(fmt.Sprintf("/videos/%s/suggestions?limit=10", videoID))
	if err != nil {
		t.Fatalf("Get suggestions: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Get suggestions failed: %d - %s", resp.StatusCode, body)
	}

	var list struct {
		Videos []struct {
			ID         string `json:"id"`
			Visibility string `json:"visibility"`
		} `json:"videos"`
	}
	if err := parseJSON(resp, &list); err != nil {
		t.Fatalf("Parse suggestions: %v", err)
	}

	for _, v := range list.Videos {
		if v.ID == videoID {
			t.Errorf("Reference video %s appeared in its own suggestions", videoID)
		}
		if v.Visibility != "public" {
			t.Errorf("Non-public video %s in suggestions", v.ID)
		}
	}
	t.Logf("✓ %d suggestions, reference excluded", len(list.Videos))
}

// TestSubscriptionFeed verifies the cached feed is served to a subscriber
// and supports cursoring.
func TestSubscriptionFeed(t *testing.T) {
	// Viewer is seeded as a subscriber of creator.
	token := login(t, viewerUsername, testPassword)
	client := newClient().withToken(token)

	resp, err := client.get("/feed?limit=2")
	if err != nil {
		t.Fatalf("Get feed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Get feed failed: %d - %s", resp.StatusCode, body)
	}

	var page1 struct {
		Videos []struct {
			ID string `json:"id"`
		} `json:"videos"`
		NextCursor *string `json:"next_cursor"`
	}
	if err := parseJSON(resp, &page1); err != nil {
		t.Fatalf("Parse feed: %v", err)
	}
	if len(page1.Videos) == 0 {
		t.Skip("Feed empty, run seeds/test_pagination.sql first")
	}
	if page1.NextCursor == nil {
		t.Log("Single-page feed, pagination not exercised")
		return
	}

	resp, err = client.get("/feed?limit=2&cursor=" + *page1.NextCursor)
	if err != nil {
		t.Fatalf("Get feed page 2: %v", err)
	}
	var page2 struct {
		Videos []struct {
			ID string `json:"id"`
		} `json:"videos"`
	}
	if err := parseJSON(resp, &page2); err != nil {
		t.Fatalf("Parse feed page 2: %v", err)
	}

	page1IDs := map[string]bool{}
	for _, v := range page1.Videos {
		page1IDs[v.ID] = true
	}
	for _, v := range page2.Videos {
		if page1IDs[v.ID] {
			t.Errorf("Video %s appears in both feed pages", v.ID)
		}
	}
	t.Log("✓ Feed pagination test passed")
}

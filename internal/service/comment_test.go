package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"vidtube/internal/model"
	"vidtube/internal/pagination"
)

// videoExists is a VideoRepository stub where every video exists.
func videoExists(ctx context.Context, videoID uuid.UUID) (bool, error) {
	return true, nil
}

// =============================================================================
// CREATE VALIDATION TESTS
// =============================================================================
//
// The write-path rejections all happen before the transaction opens, so no
// database is needed to exercise them.

func TestCommentService_Create_EmptyContent(t *testing.T) {
	svc := NewCommentService(&mockCommentRepository{}, &mockVideoRepository{existsFn: videoExists}, &mockUserRepository{}, nil)

	_, err := svc.Create(context.Background(), uuid.New(), uuid.New(), model.CreateCommentRequest{Content: ""})
	if !errors.Is(err, model.ErrContentRequired) {
		t.Errorf("error = %v, want %v", err, model.ErrContentRequired)
	}
}

func TestCommentService_Create_ContentTooLong(t *testing.T) {
	svc := NewCommentService(&mockCommentRepository{}, &mockVideoRepository{existsFn: videoExists}, &mockUserRepository{}, nil)

	long := strings.Repeat("a", model.MaxCommentLength+1)
	_, err := svc.Create(context.Background(), uuid.New(), uuid.New(), model.CreateCommentRequest{Content: long})
	if !errors.Is(err, model.ErrContentTooLong) {
		t.Errorf("error = %v, want %v", err, model.ErrContentTooLong)
	}
}

func TestCommentService_Create_VideoNotFound(t *testing.T) {
	svc := NewCommentService(&mockCommentRepository{}, &mockVideoRepository{}, &mockUserRepository{}, nil)

	_, err := svc.Create(context.Background(), uuid.New(), uuid.New(), model.CreateCommentRequest{Content: "hello"})
	if !errors.Is(err, model.ErrVideoNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrVideoNotFound)
	}
}

func TestCommentService_Create_ReplyToReply(t *testing.T) {
	videoID := uuid.New()
	topLevelID := uuid.New()
	replyID := uuid.New()

	mockComments := &mockCommentRepository{
		getByIDFn: func(ctx context.Context, commentID uuid.UUID) (*model.Comment, error) {
			if commentID == replyID {
				return &model.Comment{ID: replyID, VideoID: videoID, ParentID: &topLevelID}, nil
			}
			return nil, model.ErrCommentNotFound
		},
	}
	svc := NewCommentService(mockComments, &mockVideoRepository{existsFn: videoExists}, &mockUserRepository{}, nil)

	// The tree is two levels deep. Replying to a reply must be rejected.
	_, err := svc.Create(context.Background(), videoID, uuid.New(), model.CreateCommentRequest{
		Content:  "nested reply",
		ParentID: &replyID,
	})
	if !errors.Is(err, model.ErrReplyDepthExceeded) {
		t.Errorf("error = %v, want %v", err, model.ErrReplyDepthExceeded)
	}
}

func TestCommentService_Create_ParentOnDifferentVideo(t *testing.T) {
	videoID := uuid.New()
	otherVideoID := uuid.New()
	parentID := uuid.New()

	mockComments := &mockCommentRepository{
		getByIDFn: func(ctx context.Context, commentID uuid.UUID) (*model.Comment, error) {
			return &model.Comment{ID: parentID, VideoID: otherVideoID}, nil
		},
	}
	svc := NewCommentService(mockComments, &mockVideoRepository{existsFn: videoExists}, &mockUserRepository{}, nil)

	_, err := svc.Create(context.Background(), videoID, uuid.New(), model.CreateCommentRequest{
		Content:  "reply",
		ParentID: &parentID,
	})
	if !errors.Is(err, model.ErrParentWrongVideo) {
		t.Errorf("error = %v, want %v", err, model.ErrParentWrongVideo)
	}
}

func TestCommentService_Create_ParentNotFound(t *testing.T) {
	parentID := uuid.New()
	svc := NewCommentService(&mockCommentRepository{}, &mockVideoRepository{existsFn: videoExists}, &mockUserRepository{}, nil)

	_, err := svc.Create(context.Background(), uuid.New(), uuid.New(), model.CreateCommentRequest{
		Content:  "reply",
		ParentID: &parentID,
	})
	if !errors.Is(err, model.ErrCommentNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrCommentNotFound)
	}
}

// =============================================================================
// LIST TESTS
// =============================================================================

func TestCommentService_ListByVideo(t *testing.T) {
	videoID := uuid.New()
	now := time.Now()

	page := []model.Comment{
		{ID: uuid.New(), VideoID: videoID, Content: "newest", UpdatedAt: now},
		{ID: uuid.New(), VideoID: videoID, Content: "older", UpdatedAt: now.Add(-time.Minute)},
	}
	next := &pagination.Cursor{ID: page[1].ID, UpdatedAt: page[1].UpdatedAt}

	mockComments := &mockCommentRepository{
		listByVideoFn: func(ctx context.Context, vID uuid.UUID, parentID *uuid.UUID, cursor *pagination.Cursor, limit int) ([]model.Comment, *pagination.Cursor, bool, error) {
			return page, next, true, nil
		},
		countFn: func(ctx context.Context, vID uuid.UUID, parentID *uuid.UUID) (int64, error) {
			return 42, nil
		},
	}
	svc := NewCommentService(mockComments, &mockVideoRepository{existsFn: videoExists}, &mockUserRepository{}, nil)

	resp, err := svc.ListByVideo(context.Background(), videoID, nil, nil, 2, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(resp.Comments) != 2 {
		t.Errorf("got %d comments, want 2", len(resp.Comments))
	}
	if !resp.HasMore {
		t.Error("expected has_more = true")
	}
	if resp.TotalCount != 42 {
		t.Errorf("total_count = %d, want 42", resp.TotalCount)
	}
	if resp.NextCursor == nil {
		t.Fatal("expected next cursor")
	}

	// The cursor must round-trip to the last item of the page.
	decoded, err := pagination.Decode(*resp.NextCursor)
	if err != nil {
		t.Fatalf("cursor should decode: %v", err)
	}
	if decoded.ID != page[1].ID {
		t.Errorf("cursor id = %s, want %s", decoded.ID, page[1].ID)
	}
}

func TestCommentService_ListByVideo_LimitValidation(t *testing.T) {
	svc := NewCommentService(&mockCommentRepository{}, &mockVideoRepository{existsFn: videoExists}, &mockUserRepository{}, nil)

	for _, limit := range []int{0, -1, pagination.MaxLimit + 1} {
		_, err := svc.ListByVideo(context.Background(), uuid.New(), nil, nil, limit, nil)
		if !errors.Is(err, pagination.ErrInvalidLimit) {
			t.Errorf("limit %d: error = %v, want %v", limit, err, pagination.ErrInvalidLimit)
		}
	}
}

func TestCommentService_ListByVideo_ReplyThreadIsolation(t *testing.T) {
	videoID := uuid.New()
	parentID := uuid.New()

	var gotParentID *uuid.UUID
	mockComments := &mockCommentRepository{
		getByIDFn: func(ctx context.Context, commentID uuid.UUID) (*model.Comment, error) {
			return &model.Comment{ID: parentID, VideoID: videoID}, nil
		},
		listByVideoFn: func(ctx context.Context, vID uuid.UUID, pID *uuid.UUID, cursor *pagination.Cursor, limit int) ([]model.Comment, *pagination.Cursor, bool, error) {
			gotParentID = pID
			return nil, nil, false, nil
		},
	}
	svc := NewCommentService(mockComments, &mockVideoRepository{existsFn: videoExists}, &mockUserRepository{}, nil)

	if _, err := svc.ListByVideo(context.Background(), videoID, &parentID, nil, 20, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotParentID == nil || *gotParentID != parentID {
		t.Error("reply listing should be scoped to the parent comment")
	}
}

func TestCommentService_ListByVideo_ParentOnDifferentVideo(t *testing.T) {
	videoID := uuid.New()
	parentID := uuid.New()

	mockComments := &mockCommentRepository{
		getByIDFn: func(ctx context.Context, commentID uuid.UUID) (*model.Comment, error) {
			return &model.Comment{ID: parentID, VideoID: uuid.New()}, nil
		},
	}
	svc := NewCommentService(mockComments, &mockVideoRepository{existsFn: videoExists}, &mockUserRepository{}, nil)

	_, err := svc.ListByVideo(context.Background(), videoID, &parentID, nil, 20, nil)
	if !errors.Is(err, model.ErrParentWrongVideo) {
		t.Errorf("error = %v, want %v", err, model.ErrParentWrongVideo)
	}
}

func TestCommentService_ListByVideo_ViewerReactions(t *testing.T) {
	videoID := uuid.New()
	viewerID := uuid.New()
	likedID := uuid.New()

	page := []model.Comment{
		{ID: likedID, VideoID: videoID, Content: "liked one"},
		{ID: uuid.New(), VideoID: videoID, Content: "no reaction"},
	}

	mockComments := &mockCommentRepository{
		listByVideoFn: func(ctx context.Context, vID uuid.UUID, parentID *uuid.UUID, cursor *pagination.Cursor, limit int) ([]model.Comment, *pagination.Cursor, bool, error) {
			return page, nil, false, nil
		},
		getReactionsFn: func(ctx context.Context, userID uuid.UUID, commentIDs []uuid.UUID) (map[uuid.UUID]string, error) {
			return map[uuid.UUID]string{likedID: model.ReactionLike}, nil
		},
	}
	svc := NewCommentService(mockComments, &mockVideoRepository{existsFn: videoExists}, &mockUserRepository{}, nil)

	resp, err := svc.ListByVideo(context.Background(), videoID, nil, nil, 20, &viewerID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Comments[0].ViewerReaction == nil || *resp.Comments[0].ViewerReaction != model.ReactionLike {
		t.Error("liked comment should carry the viewer's reaction")
	}
	if resp.Comments[1].ViewerReaction != nil {
		t.Error("unreacted comment should not carry a reaction")
	}
}

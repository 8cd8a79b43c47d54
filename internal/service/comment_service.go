package service

import (
	"context"
	"time"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/thread"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	isAdmin     func(ctx context.Context, userID uint) (bool, error)
}

type CreateCommentInput struct {
	UserID   uint
	PostID   uint
	ParentID *uint
	Content  string
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Content   string
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

type ThreadInput struct {
	PostID   uint
	ViewerID uint
	Limit    int
	Offset   int
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
		isAdmin:     isAdmin,
	}
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, in.PostID, 0); err != nil {
		return nil, err
	}
	const maxCommentLen = 10000

	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	parentID, err := s.resolveParent(ctx, in.PostID, in.ParentID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Content:  in.Content,
		UserID:   in.UserID,
		PostID:   in.PostID,
		ParentID: parentID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	return s.commentRepo.GetByID(ctx, comment.ID)
}

// resolveParent validates the requested parent and returns the parent ID the
// new comment is stored under. Threads hold at most two reply tiers, so a
// reply to a nested reply is attached to that reply's own parent instead.
func (s *CommentService) resolveParent(ctx context.Context, postID uint, requested *uint) (*uint, error) {
	if requested == nil {
		return nil, nil
	}

	parent, err := s.commentRepo.GetByID(ctx, *requested)
	if err != nil {
		return nil, err
	}
	if parent.PostID != postID {
		return nil, models.NewValidationError("Parent comment belongs to a different post")
	}
	if parent.IsDeleted() {
		return nil, models.NewValidationError("Cannot reply to a deleted comment")
	}
	if parent.ParentID == nil {
		return requested, nil
	}

	anchor, err := s.commentRepo.GetByID(ctx, *parent.ParentID)
	if err != nil {
		return nil, err
	}
	if anchor.ParentID != nil {
		// parent is already at max depth; attach alongside it
		return parent.ParentID, nil
	}
	return requested, nil
}

// GetThread loads one page of a post's comment thread: root comments, their
// direct replies, and the replies to those, joined with author profiles and
// the viewer's likes, then assembled into display order.
func (s *CommentService) GetThread(ctx context.Context, in ThreadInput) ([]models.CommentGroup, error) {
	if _, err := s.postRepo.GetByID(ctx, in.PostID, 0); err != nil {
		return nil, err
	}

	limit := in.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}

	topLevel, err := s.commentRepo.ListTopLevel(ctx, in.PostID, limit, offset)
	if err != nil {
		return nil, err
	}

	direct, err := s.commentRepo.ListByParentIDs(ctx, commentIDs(topLevel))
	if err != nil {
		return nil, err
	}
	nested, err := s.commentRepo.ListByParentIDs(ctx, commentIDs(direct))
	if err != nil {
		return nil, err
	}

	profiles, err := s.userRepo.ProfilesByIDs(ctx, authorIDs(topLevel, direct, nested))
	if err != nil {
		return nil, err
	}

	var likedIDs map[uint]struct{}
	if in.ViewerID != 0 {
		allIDs := append(commentIDs(topLevel), commentIDs(direct)...)
		allIDs = append(allIDs, commentIDs(nested)...)
		likedIDs, err = s.commentRepo.LikedCommentIDs(ctx, in.ViewerID, allIDs)
		if err != nil {
			return nil, err
		}
	}

	groups := thread.Assemble(thread.Input{
		TopLevel:      topLevel,
		DirectReplies: direct,
		NestedReplies: nested,
		Profiles:      profiles,
		LikedIDs:      likedIDs,
	})
	middleware.ThreadsAssembled.Inc()
	return groups, nil
}

func commentIDs(comments []models.Comment) []uint {
	ids := make([]uint, len(comments))
	for i := range comments {
		ids[i] = comments[i].ID
	}
	return ids
}

func authorIDs(groups ...[]models.Comment) []uint {
	seen := make(map[uint]struct{})
	var ids []uint
	for _, comments := range groups {
		for i := range comments {
			if _, ok := seen[comments[i].UserID]; ok {
				continue
			}
			seen[comments[i].UserID] = struct{}{}
			ids = append(ids, comments[i].UserID)
		}
	}
	return ids
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}

	if comment.UserID != in.UserID {
		return nil, models.NewUnauthorizedError("You can only update your own comments")
	}
	if comment.IsDeleted() {
		return nil, models.NewValidationError("Cannot edit a deleted comment")
	}
	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}

	comment.Content = in.Content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}

	return s.commentRepo.GetByID(ctx, comment.ID)
}

// DeleteComment soft-deletes: the row keeps its place so existing replies
// stay attached, and readers see a redacted tombstone.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}

	if comment.UserID != in.UserID {
		if s.isAdmin == nil {
			return nil, models.NewUnauthorizedError("You can only delete your own comments")
		}
		admin, err := s.isAdmin(ctx, in.UserID)
		if err != nil {
			return nil, err
		}
		if !admin {
			return nil, models.NewUnauthorizedError("You can only delete your own comments")
		}
	}

	if err := s.commentRepo.SoftDelete(ctx, in.CommentID, time.Now().UTC()); err != nil {
		return nil, err
	}

	return s.commentRepo.GetByID(ctx, in.CommentID)
}

func (s *CommentService) ToggleLike(ctx context.Context, userID, commentID uint) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.IsDeleted() {
		return nil, models.NewValidationError("Cannot like a deleted comment")
	}

	liked, err := s.commentRepo.LikedCommentIDs(ctx, userID, []uint{commentID})
	if err != nil {
		return nil, err
	}

	if _, ok := liked[commentID]; ok {
		err = s.commentRepo.Unlike(ctx, userID, commentID)
	} else {
		err = s.commentRepo.Like(ctx, userID, commentID)
	}
	if err != nil {
		return nil, err
	}

	return s.commentRepo.GetByID(ctx, commentID)
}

package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn          func(context.Context, *models.Comment) error
	getByIDFn         func(context.Context, uint) (*models.Comment, error)
	listTopLevelFn    func(context.Context, uint, int, int) ([]models.Comment, error)
	listByParentsFn   func(context.Context, []uint) ([]models.Comment, error)
	countByPostFn     func(context.Context, uint) (int64, error)
	updateFn          func(context.Context, *models.Comment) error
	softDeleteFn      func(context.Context, uint, time.Time) error
	likeFn            func(context.Context, uint, uint) error
	unlikeFn          func(context.Context, uint, uint) error
	likedCommentIDsFn func(context.Context, uint, []uint) (map[uint]struct{}, error)
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListTopLevel(ctx context.Context, postID uint, limit, offset int) ([]models.Comment, error) {
	return s.listTopLevelFn(ctx, postID, limit, offset)
}
func (s *commentRepoStub) ListByParentIDs(ctx context.Context, parentIDs []uint) ([]models.Comment, error) {
	return s.listByParentsFn(ctx, parentIDs)
}
func (s *commentRepoStub) CountByPost(ctx context.Context, postID uint) (int64, error) {
	return s.countByPostFn(ctx, postID)
}
func (s *commentRepoStub) Update(ctx context.Context, comment *models.Comment) error {
	return s.updateFn(ctx, comment)
}
func (s *commentRepoStub) SoftDelete(ctx context.Context, id uint, at time.Time) error {
	return s.softDeleteFn(ctx, id, at)
}
func (s *commentRepoStub) Like(ctx context.Context, userID, commentID uint) error {
	return s.likeFn(ctx, userID, commentID)
}
func (s *commentRepoStub) Unlike(ctx context.Context, userID, commentID uint) error {
	return s.unlikeFn(ctx, userID, commentID)
}
func (s *commentRepoStub) LikedCommentIDs(ctx context.Context, userID uint, commentIDs []uint) (map[uint]struct{}, error) {
	return s.likedCommentIDsFn(ctx, userID, commentIDs)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:  func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		listTopLevelFn: func(_ context.Context, _ uint, _, _ int) ([]models.Comment, error) {
			return []models.Comment{}, nil
		},
		listByParentsFn: func(_ context.Context, _ []uint) ([]models.Comment, error) {
			return []models.Comment{}, nil
		},
		countByPostFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		updateFn:      func(_ context.Context, _ *models.Comment) error { return nil },
		softDeleteFn:  func(_ context.Context, _ uint, _ time.Time) error { return nil },
		likeFn:        func(_ context.Context, _, _ uint) error { return nil },
		unlikeFn:      func(_ context.Context, _, _ uint) error { return nil },
		likedCommentIDsFn: func(_ context.Context, _ uint, _ []uint) (map[uint]struct{}, error) {
			return map[uint]struct{}{}, nil
		},
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn          func(context.Context, uint) (*models.User, error)
	getByIDWithPostsFn func(context.Context, uint, int) (*models.User, error)
	getByEmailFn       func(context.Context, string) (*models.User, error)
	getByUsernameFn    func(context.Context, string) (*models.User, error)
	profilesByIDsFn    func(context.Context, []uint) (map[uint]models.Profile, error)
	createFn           func(context.Context, *models.User) error
	updateFn           func(context.Context, *models.User) error
	deleteFn           func(context.Context, uint) error
	listFn             func(context.Context, int, int) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByIDWithPosts(ctx context.Context, id uint, limit int) (*models.User, error) {
	return s.getByIDWithPostsFn(ctx, id, limit)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) ProfilesByIDs(ctx context.Context, ids []uint) (map[uint]models.Profile, error) {
	return s.profilesByIDsFn(ctx, ids)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: "user"}, nil
		},
		getByIDWithPostsFn: func(_ context.Context, id uint, _ int) (*models.User, error) {
			return &models.User{ID: id}, nil
		},
		getByEmailFn:    func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByUsernameFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		profilesByIDsFn: func(_ context.Context, ids []uint) (map[uint]models.Profile, error) {
			profiles := make(map[uint]models.Profile, len(ids))
			for _, id := range ids {
				profiles[id] = models.Profile{UserID: id, Username: "user"}
			}
			return profiles, nil
		},
		createFn: func(_ context.Context, _ *models.User) error { return nil },
		updateFn: func(_ context.Context, _ *models.User) error { return nil },
		deleteFn: func(_ context.Context, _ uint) error { return nil },
		listFn:   func(_ context.Context, _, _ int) ([]models.User, error) { return nil, nil },
	}
}

func uintPtr(v uint) *uint { return &v }

func TestCommentService_CreateComment_Validation(t *testing.T) {
	t.Parallel()

	svc := NewCommentService(noopCommentRepo(), noopPostRepo(), noopUserRepo(), nil)
	ctx := context.Background()

	t.Run("empty content", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CreateComment(ctx, CreateCommentInput{UserID: 1, PostID: 1})
		assertValidationError(t, err)
	})

	t.Run("content too long", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CreateComment(ctx, CreateCommentInput{
			UserID:  1,
			PostID:  1,
			Content: strings.Repeat("x", 10001),
		})
		assertValidationError(t, err)
	})

	t.Run("post not found propagates repo error", func(t *testing.T) {
		t.Parallel()
		repoErr := errors.New("post not found")
		postRepo := noopPostRepo()
		postRepo.getByIDFn = func(_ context.Context, _, _ uint) (*models.Post, error) {
			return nil, repoErr
		}
		svc2 := NewCommentService(noopCommentRepo(), postRepo, noopUserRepo(), nil)
		_, err := svc2.CreateComment(ctx, CreateCommentInput{UserID: 1, PostID: 99, Content: "hi"})
		assert.ErrorIs(t, err, repoErr)
	})
}

func TestCommentService_CreateComment_ParentRules(t *testing.T) {
	t.Parallel()

	// Thread shape: comment 1 is top-level, 2 replies to 1, 3 replies to 2.
	now := time.Now().UTC()
	stored := map[uint]*models.Comment{
		1: {ID: 1, PostID: 1, UserID: 5, Content: "root"},
		2: {ID: 2, PostID: 1, UserID: 6, Content: "reply", ParentID: uintPtr(1)},
		3: {ID: 3, PostID: 1, UserID: 7, Content: "nested", ParentID: uintPtr(2)},
		4: {ID: 4, PostID: 2, UserID: 5, Content: "other post"},
		5: {ID: 5, PostID: 1, UserID: 5, Content: "", DeletedAt: &now},
	}

	newRepo := func() *commentRepoStub {
		repo := noopCommentRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Comment, error) {
			if c, ok := stored[id]; ok {
				copied := *c
				return &copied, nil
			}
			return nil, models.NewNotFoundError("Comment", id)
		}
		return repo
	}

	t.Run("reply to top-level comment keeps requested parent", func(t *testing.T) {
		t.Parallel()
		repo := newRepo()
		var created *models.Comment
		repo.createFn = func(_ context.Context, c *models.Comment) error {
			c.ID = 100
			created = c
			return nil
		}
		lookup := repo.getByIDFn
		repo.getByIDFn = func(ctx context.Context, id uint) (*models.Comment, error) {
			if created != nil && id == created.ID {
				copied := *created
				return &copied, nil
			}
			return lookup(ctx, id)
		}
		svc := NewCommentService(repo, noopPostRepo(), noopUserRepo(), nil)
		_, err := svc.CreateComment(context.Background(), CreateCommentInput{
			UserID: 9, PostID: 1, ParentID: uintPtr(1), Content: "hi",
		})
		require.NoError(t, err)
		require.NotNil(t, created.ParentID)
		assert.Equal(t, uint(1), *created.ParentID)
	})

	t.Run("reply to direct reply nests under it", func(t *testing.T) {
		t.Parallel()
		repo := newRepo()
		var created *models.Comment
		repo.createFn = func(_ context.Context, c *models.Comment) error {
			c.ID = 101
			created = c
			return nil
		}
		lookup := repo.getByIDFn
		repo.getByIDFn = func(ctx context.Context, id uint) (*models.Comment, error) {
			if created != nil && id == created.ID {
				copied := *created
				return &copied, nil
			}
			return lookup(ctx, id)
		}
		svc := NewCommentService(repo, noopPostRepo(), noopUserRepo(), nil)
		_, err := svc.CreateComment(context.Background(), CreateCommentInput{
			UserID: 9, PostID: 1, ParentID: uintPtr(2), Content: "hi",
		})
		require.NoError(t, err)
		require.NotNil(t, created.ParentID)
		assert.Equal(t, uint(2), *created.ParentID)
	})

	t.Run("reply to nested reply is re-parented to its parent", func(t *testing.T) {
		t.Parallel()
		repo := newRepo()
		var created *models.Comment
		repo.createFn = func(_ context.Context, c *models.Comment) error {
			c.ID = 102
			created = c
			return nil
		}
		lookup := repo.getByIDFn
		repo.getByIDFn = func(ctx context.Context, id uint) (*models.Comment, error) {
			if created != nil && id == created.ID {
				copied := *created
				return &copied, nil
			}
			return lookup(ctx, id)
		}
		svc := NewCommentService(repo, noopPostRepo(), noopUserRepo(), nil)
		_, err := svc.CreateComment(context.Background(), CreateCommentInput{
			UserID: 9, PostID: 1, ParentID: uintPtr(3), Content: "hi",
		})
		require.NoError(t, err)
		require.NotNil(t, created.ParentID)
		assert.Equal(t, uint(2), *created.ParentID)
	})

	t.Run("parent from another post is rejected", func(t *testing.T) {
		t.Parallel()
		svc := NewCommentService(newRepo(), noopPostRepo(), noopUserRepo(), nil)
		_, err := svc.CreateComment(context.Background(), CreateCommentInput{
			UserID: 9, PostID: 1, ParentID: uintPtr(4), Content: "hi",
		})
		assertValidationError(t, err)
	})

	t.Run("reply to deleted comment is rejected", func(t *testing.T) {
		t.Parallel()
		svc := NewCommentService(newRepo(), noopPostRepo(), noopUserRepo(), nil)
		_, err := svc.CreateComment(context.Background(), CreateCommentInput{
			UserID: 9, PostID: 1, ParentID: uintPtr(5), Content: "hi",
		})
		assertValidationError(t, err)
	})
}

func TestCommentService_GetThread(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	repo := noopCommentRepo()
	repo.listTopLevelFn = func(_ context.Context, postID uint, _, _ int) ([]models.Comment, error) {
		return []models.Comment{
			{ID: 2, PostID: postID, UserID: 11, Content: "second root", CreatedAt: base.Add(time.Hour)},
			{ID: 1, PostID: postID, UserID: 10, Content: "first root", CreatedAt: base},
		}, nil
	}
	repo.listByParentsFn = func(_ context.Context, parentIDs []uint) ([]models.Comment, error) {
		switch {
		case len(parentIDs) > 0 && parentIDs[0] == 2:
			// direct replies to the two roots
			return []models.Comment{
				{ID: 3, PostID: 1, UserID: 12, Content: "reply", ParentID: uintPtr(1), CreatedAt: base.Add(2 * time.Hour)},
			}, nil
		case len(parentIDs) > 0 && parentIDs[0] == 3:
			// nested replies under the direct replies
			return []models.Comment{
				{ID: 4, PostID: 1, UserID: 13, Content: "nested", ParentID: uintPtr(3), CreatedAt: base.Add(3 * time.Hour)},
			}, nil
		default:
			return []models.Comment{}, nil
		}
	}
	var likedQueryIDs []uint
	repo.likedCommentIDsFn = func(_ context.Context, _ uint, ids []uint) (map[uint]struct{}, error) {
		likedQueryIDs = ids
		return map[uint]struct{}{3: {}}, nil
	}

	svc := NewCommentService(repo, noopPostRepo(), noopUserRepo(), nil)
	groups, err := svc.GetThread(context.Background(), ThreadInput{PostID: 1, ViewerID: 7})
	require.NoError(t, err)

	require.Len(t, groups, 2)
	assert.Equal(t, uint(2), groups[0].ID)
	assert.Equal(t, uint(1), groups[1].ID)

	// Both reply tiers land flattened under the first root.
	require.Len(t, groups[1].Replies, 2)
	assert.Equal(t, uint(4), groups[1].Replies[0].ID)
	assert.Equal(t, uint(3), groups[1].Replies[1].ID)

	// Nested reply carries a back-reference to the reply it answered.
	require.NotNil(t, groups[1].Replies[0].InReplyTo)
	assert.Equal(t, uint(3), groups[1].Replies[0].InReplyTo.CommentID)

	// The viewer's liked set covers every fetched comment.
	assert.ElementsMatch(t, []uint{1, 2, 3, 4}, likedQueryIDs)
	assert.True(t, groups[1].Replies[1].Liked)

	// Authors resolve to profiles.
	assert.Equal(t, "user", groups[0].Author.Username)
}

func TestCommentService_GetThread_AnonymousSkipsLikeLookup(t *testing.T) {
	t.Parallel()

	repo := noopCommentRepo()
	called := false
	repo.likedCommentIDsFn = func(_ context.Context, _ uint, _ []uint) (map[uint]struct{}, error) {
		called = true
		return nil, nil
	}

	svc := NewCommentService(repo, noopPostRepo(), noopUserRepo(), nil)
	groups, err := svc.GetThread(context.Background(), ThreadInput{PostID: 1})
	require.NoError(t, err)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
	assert.False(t, called)
}

func TestCommentService_UpdateComment_Ownership(t *testing.T) {
	t.Parallel()

	t.Run("non-owner cannot update", func(t *testing.T) {
		t.Parallel()
		commentRepo := noopCommentRepo()
		commentRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Comment, error) {
			return &models.Comment{ID: 1, UserID: 10}, nil
		}
		svc := NewCommentService(commentRepo, noopPostRepo(), noopUserRepo(), nil)
		_, err := svc.UpdateComment(context.Background(), UpdateCommentInput{UserID: 1, CommentID: 1, Content: "new"})
		assertUnauthorizedError(t, err)
	})

	t.Run("deleted comment cannot be edited", func(t *testing.T) {
		t.Parallel()
		now := time.Now().UTC()
		commentRepo := noopCommentRepo()
		commentRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Comment, error) {
			return &models.Comment{ID: 1, UserID: 1, DeletedAt: &now}, nil
		}
		svc := NewCommentService(commentRepo, noopPostRepo(), noopUserRepo(), nil)
		_, err := svc.UpdateComment(context.Background(), UpdateCommentInput{UserID: 1, CommentID: 1, Content: "new"})
		assertValidationError(t, err)
	})

	t.Run("owner can update content", func(t *testing.T) {
		t.Parallel()
		storedContent := "old"
		commentRepo := noopCommentRepo()
		commentRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Comment, error) {
			return &models.Comment{ID: 1, UserID: 1, Content: storedContent}, nil
		}
		commentRepo.updateFn = func(_ context.Context, c *models.Comment) error {
			storedContent = c.Content
			return nil
		}
		svc := NewCommentService(commentRepo, noopPostRepo(), noopUserRepo(), nil)
		comment, err := svc.UpdateComment(context.Background(), UpdateCommentInput{UserID: 1, CommentID: 1, Content: "updated"})
		require.NoError(t, err)
		assert.Equal(t, "updated", comment.Content)
	})
}

func TestCommentService_DeleteComment_Ownership(t *testing.T) {
	t.Parallel()

	t.Run("owner delete is a soft delete", func(t *testing.T) {
		t.Parallel()
		var softDeleted bool
		commentRepo := noopCommentRepo()
		commentRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Comment, error) {
			return &models.Comment{ID: 1, UserID: 1}, nil
		}
		commentRepo.softDeleteFn = func(_ context.Context, id uint, _ time.Time) error {
			softDeleted = true
			assert.Equal(t, uint(1), id)
			return nil
		}
		svc := NewCommentService(commentRepo, noopPostRepo(), noopUserRepo(), nil)
		_, err := svc.DeleteComment(context.Background(), DeleteCommentInput{UserID: 1, CommentID: 1})
		require.NoError(t, err)
		assert.True(t, softDeleted)
	})

	t.Run("non-owner without isAdmin returns unauthorized", func(t *testing.T) {
		t.Parallel()
		commentRepo := noopCommentRepo()
		commentRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Comment, error) {
			return &models.Comment{ID: 1, UserID: 10}, nil
		}
		svc := NewCommentService(commentRepo, noopPostRepo(), noopUserRepo(), nil)
		_, err := svc.DeleteComment(context.Background(), DeleteCommentInput{UserID: 1, CommentID: 1})
		assertUnauthorizedError(t, err)
	})

	t.Run("admin can delete another user's comment", func(t *testing.T) {
		t.Parallel()
		commentRepo := noopCommentRepo()
		commentRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Comment, error) {
			return &models.Comment{ID: 1, UserID: 10}, nil
		}
		isAdmin := func(_ context.Context, _ uint) (bool, error) { return true, nil }
		svc := NewCommentService(commentRepo, noopPostRepo(), noopUserRepo(), isAdmin)
		_, err := svc.DeleteComment(context.Background(), DeleteCommentInput{UserID: 1, CommentID: 1})
		require.NoError(t, err)
	})

	t.Run("isAdmin error propagates", func(t *testing.T) {
		t.Parallel()
		commentRepo := noopCommentRepo()
		commentRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Comment, error) {
			return &models.Comment{ID: 1, UserID: 10}, nil
		}
		adminErr := errors.New("admin check failed")
		isAdmin := func(_ context.Context, _ uint) (bool, error) { return false, adminErr }
		svc := NewCommentService(commentRepo, noopPostRepo(), noopUserRepo(), isAdmin)
		_, err := svc.DeleteComment(context.Background(), DeleteCommentInput{UserID: 1, CommentID: 1})
		assert.ErrorIs(t, err, adminErr)
	})
}

func TestCommentService_ToggleLike_DeletedCommentRejected(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	commentRepo := noopCommentRepo()
	commentRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Comment, error) {
		return &models.Comment{ID: 1, UserID: 5, DeletedAt: &now}, nil
	}
	svc := NewCommentService(commentRepo, noopPostRepo(), noopUserRepo(), nil)
	_, err := svc.ToggleLike(context.Background(), 1, 1)
	assertValidationError(t, err)
}

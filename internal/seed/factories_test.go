package seed

import (
	"testing"
	"time"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPost_TimestampWithinSpread(t *testing.T) {
	opts := Options{DryRun: true, MaxDays: 30}
	f := NewFactory(nil, opts)
	user := &models.User{ID: 1}

	p := f.BuildPost(user)
	require.NotEmpty(t, p.Title)
	require.NotEmpty(t, p.Content)
	assert.Equal(t, uint(1), p.UserID)

	if time.Since(p.CreatedAt) > (time.Duration(opts.MaxDays)+1)*24*time.Hour {
		t.Fatalf("created_at too old: %v", p.CreatedAt)
	}
}

func TestCreateUser_DryRunAssignsSyntheticIDs(t *testing.T) {
	f := NewFactory(nil, Options{DryRun: true, SkipBcrypt: true})

	first, err := f.CreateUser()
	require.NoError(t, err)
	second, err := f.CreateUser()
	require.NoError(t, err)

	assert.NotZero(t, first.ID)
	assert.Greater(t, second.ID, first.ID)
	assert.Equal(t, "password123", first.Password)
}

func TestCreateReply_SetsParent(t *testing.T) {
	db := openTestDB(t)
	f := NewFactory(db, Options{SkipBcrypt: true})

	user, err := f.CreateUser()
	require.NoError(t, err)
	post, err := f.CreatePost(user)
	require.NoError(t, err)
	root, err := f.CreateComment(user, post)
	require.NoError(t, err)

	reply, err := f.CreateReply(user, root)
	require.NoError(t, err)

	require.NotNil(t, reply.ParentID)
	assert.Equal(t, root.ID, *reply.ParentID)
	assert.Equal(t, post.ID, reply.PostID)
}

func TestSoftDeleteComment_KeepsRow(t *testing.T) {
	db := openTestDB(t)
	f := NewFactory(db, Options{SkipBcrypt: true})

	user, err := f.CreateUser()
	require.NoError(t, err)
	post, err := f.CreatePost(user)
	require.NoError(t, err)
	comment, err := f.CreateComment(user, post)
	require.NoError(t, err)

	require.NoError(t, f.SoftDeleteComment(comment))

	// The row must stay queryable so replies keep their anchor.
	var got models.Comment
	require.NoError(t, db.First(&got, comment.ID).Error)
	assert.NotNil(t, got.DeletedAt)
	assert.True(t, got.IsDeleted())
}

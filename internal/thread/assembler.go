// Package thread assembles flat comment fetches into the two-tier reply
// structure the post detail view renders. The transform is pure: it performs
// no I/O, never mutates its inputs, and is deterministic for identical input.
package thread

import (
	"sort"

	"inkwell/internal/models"
)

// Input carries the independently-fetched collections for one page of a
// post's thread. Assembly must not run until every field has been resolved;
// partial input silently under-populates reply lists rather than failing.
type Input struct {
	// TopLevel is one pagination window of top-level comments,
	// already ordered newest first.
	TopLevel []models.Comment
	// DirectReplies holds every comment whose parent is in TopLevel, unsorted.
	DirectReplies []models.Comment
	// NestedReplies holds every comment whose parent is in DirectReplies, unsorted.
	NestedReplies []models.Comment
	// Profiles maps author ID to display profile. Missing entries degrade
	// to a placeholder, never an error.
	Profiles map[uint]models.Profile
	// LikedIDs is the set of comment IDs the current viewer has liked.
	// Empty for unauthenticated viewers.
	LikedIDs map[uint]struct{}
}

// Assemble builds the ordered CommentGroup list for display.
//
// Each top-level comment owns a flat reply list merging its direct replies
// and their second-tier replies, sorted newest first (ties broken by ID
// descending). Nested replies carry a back-reference to the direct reply they
// answer; direct replies carry none. A nested reply whose parent is absent
// from DirectReplies is dropped. Replies whose top-level ancestor is outside
// the current page are excluded by construction: they only become visible
// once their ancestor's page loads.
func Assemble(in Input) []models.CommentGroup {
	groups := make([]models.CommentGroup, 0, len(in.TopLevel))

	nestedByParent := make(map[uint][]models.Comment, len(in.NestedReplies))
	for _, n := range in.NestedReplies {
		if n.ParentID == nil {
			continue
		}
		nestedByParent[*n.ParentID] = append(nestedByParent[*n.ParentID], n)
	}

	directByParent := make(map[uint][]models.Comment, len(in.DirectReplies))
	for _, d := range in.DirectReplies {
		if d.ParentID == nil {
			continue
		}
		directByParent[*d.ParentID] = append(directByParent[*d.ParentID], d)
	}

	for _, top := range in.TopLevel {
		group := models.CommentGroup{
			Comment: decorate(top, in),
			Replies: []models.ReplyItem{},
		}

		for _, d := range directByParent[top.ID] {
			group.Replies = append(group.Replies, models.ReplyItem{
				Comment: decorate(d, in),
			})
			ref := replyRef(d, in)
			for _, n := range nestedByParent[d.ID] {
				group.Replies = append(group.Replies, models.ReplyItem{
					Comment:   decorate(n, in),
					InReplyTo: &models.ReplyRef{CommentID: ref.CommentID, Author: ref.Author},
				})
			}
		}

		sortReplies(group.Replies)
		groups = append(groups, group)
	}

	return groups
}

// decorate returns a display-ready copy of the comment: author profile
// attached, viewer like state resolved, like count floored at zero, and the
// body redacted when the comment is soft-deleted. The original is untouched.
func decorate(c models.Comment, in Input) models.Comment {
	profile, ok := in.Profiles[c.UserID]
	if !ok {
		profile = models.PlaceholderProfile(c.UserID)
	}
	c.Author = profile

	_, c.Liked = in.LikedIDs[c.ID]
	if c.LikesCount < 0 {
		c.LikesCount = 0
	}

	if c.IsDeleted() {
		c.Deleted = true
		c.Content = ""
	}

	return c
}

func replyRef(parent models.Comment, in Input) models.ReplyRef {
	profile, ok := in.Profiles[parent.UserID]
	if !ok {
		profile = models.PlaceholderProfile(parent.UserID)
	}
	return models.ReplyRef{CommentID: parent.ID, Author: profile}
}

// sortReplies orders a merged reply list newest first. Equal timestamps fall
// back to ID descending so repeated runs on identical input agree.
func sortReplies(replies []models.ReplyItem) {
	sort.SliceStable(replies, func(i, j int) bool {
		a, b := replies[i], replies[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

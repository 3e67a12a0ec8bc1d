package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"socal/internal/models"
)

func ptr(v uint) *uint { return &v }

func TestBuildCommentTree(t *testing.T) {
	base := time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC)
	at := func(min int) time.Time { return base.Add(time.Duration(min) * time.Minute) }
	user := models.User{Username: "alice"}

	comments := []models.Comment{
		{ID: 4, PostID: 1, ParentCommentID: ptr(1), Content: "reply b", CreatedAt: at(4), User: user},
		{ID: 1, PostID: 1, Content: "root old", CreatedAt: at(1), User: user},
		{ID: 5, PostID: 1, ParentCommentID: ptr(3), Content: "grandchild", CreatedAt: at(5), User: user},
		{ID: 2, PostID: 1, Content: "root new", CreatedAt: at(2), User: user},
		{ID: 3, PostID: 1, ParentCommentID: ptr(1), Content: "reply a", CreatedAt: at(3), User: user},
	}

	tree := BuildCommentTree(comments)
	if len(tree) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(tree))
	}
	if tree[0].ID != 2 || tree[1].ID != 1 {
		t.Fatalf("expected roots newest first, got %d, %d", tree[0].ID, tree[1].ID)
	}
	if len(tree[0].Replies) != 0 || tree[0].Replies == nil {
		t.Fatalf("expected empty non-nil replies for root 2")
	}

	replies := tree[1].Replies
	if len(replies) != 2 || replies[0].ID != 3 || replies[1].ID != 4 {
		t.Fatalf("unexpected replies: %+v", replies)
	}
	for _, r := range replies {
		if r.Replies == nil || len(r.Replies) != 0 {
			t.Fatalf("reply %d must carry an empty replies list", r.ID)
		}
		if r.UserName != "alice" {
			t.Fatalf("expected author name on reply, got %q", r.UserName)
		}
	}
}

func TestBuildCommentTreeIgnoresCycles(t *testing.T) {
	// Two comments pointing at each other have no root and are not shown.
	comments := []models.Comment{
		{ID: 1, ParentCommentID: ptr(2)},
		{ID: 2, ParentCommentID: ptr(1)},
	}
	if tree := BuildCommentTree(comments); len(tree) != 0 {
		t.Fatalf("expected no threads, got %+v", tree)
	}
}

func TestCreateReplyAndList(t *testing.T) {
	conn := newTestDB(t)
	users := NewUserService(conn)
	posts := NewPostService(conn)
	comments := NewCommentService(conn)
	ctx := context.Background()

	alice := mustRegister(t, users, "a@x.com", "alice")
	bob := mustRegister(t, users, "b@x.com", "bob")
	ap, bp := principalOf(alice), principalOf(bob)
	post, _ := posts.Create(ctx, ap, PostInput{Content: "x"})

	root, err := comments.Create(ctx, &ap, post.ID, CommentInput{Content: "root"})
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	if root.ParentCommentID != nil || root.UserName != "alice" || root.Replies == nil {
		t.Fatalf("unexpected root view: %+v", root)
	}

	reply, err := comments.Create(ctx, &bp, post.ID, CommentInput{Content: "reply", ParentCommentID: &root.ID})
	if err != nil {
		t.Fatalf("create reply: %v", err)
	}
	if reply.ParentCommentID == nil || *reply.ParentCommentID != root.ID {
		t.Fatalf("reply parent not set: %+v", reply)
	}

	list, err := comments.ListRoot(ctx, post.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != root.ID {
		t.Fatalf("expected only the root at top level, got %+v", list)
	}
	if len(list[0].Replies) != 1 || list[0].Replies[0].ID != reply.ID || list[0].Replies[0].UserName != "bob" {
		t.Fatalf("expected bob's reply nested under root, got %+v", list[0].Replies)
	}
	if len(list[0].Replies[0].Replies) != 0 {
		t.Fatalf("expected reply's replies to be empty")
	}

	empty, err := comments.ListRoot(ctx, post.ID+100)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected no comments for unknown post, got %v %+v", err, empty)
	}
}

func TestCreateCommentErrors(t *testing.T) {
	conn := newTestDB(t)
	users := NewUserService(conn)
	posts := NewPostService(conn)
	comments := NewCommentService(conn)
	ctx := context.Background()

	alice := mustRegister(t, users, "a@x.com", "alice")
	ap := principalOf(alice)
	first, _ := posts.Create(ctx, ap, PostInput{Content: "first"})
	second, _ := posts.Create(ctx, ap, PostInput{Content: "second"})
	onFirst, err := comments.Create(ctx, &ap, first.ID, CommentInput{Content: "root"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	tests := []struct {
		name      string
		principal *Principal
		postID    uint
		in        CommentInput
		want      error
	}{
		{"anonymous", nil, first.ID, CommentInput{Content: "x"}, ErrAuthentication},
		{"empty content", &ap, first.ID, CommentInput{}, ErrValidation},
		{"blank content", &ap, first.ID, CommentInput{Content: "   "}, ErrValidation},
		{"missing post", &ap, 999, CommentInput{Content: "x"}, ErrNotFound},
		{"missing parent", &ap, first.ID, CommentInput{Content: "x", ParentCommentID: ptr(999)}, ErrValidation},
		{"parent on other post", &ap, second.ID, CommentInput{Content: "x", ParentCommentID: &onFirst.ID}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := comments.Create(ctx, tt.principal, tt.postID, tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestDeleteCommentCascadesReplies(t *testing.T) {
	conn := newTestDB(t)
	users := NewUserService(conn)
	posts := NewPostService(conn)
	comments := NewCommentService(conn)
	ctx := context.Background()

	alice := mustRegister(t, users, "a@x.com", "alice")
	bob := mustRegister(t, users, "b@x.com", "bob")
	ap, bp := principalOf(alice), principalOf(bob)
	post, _ := posts.Create(ctx, ap, PostInput{Content: "x"})

	root, _ := comments.Create(ctx, &ap, post.ID, CommentInput{Content: "root"})
	reply, _ := comments.Create(ctx, &bp, post.ID, CommentInput{Content: "reply", ParentCommentID: &root.ID})
	if _, err := comments.Create(ctx, &ap, post.ID, CommentInput{Content: "deep", ParentCommentID: &reply.ID}); err != nil {
		t.Fatalf("deep reply: %v", err)
	}
	other, _ := comments.Create(ctx, &bp, post.ID, CommentInput{Content: "other root"})

	if err := comments.Delete(ctx, bp, root.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := comments.Delete(ctx, bp, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := comments.Delete(ctx, ap, root.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var remaining []models.Comment
	conn.Find(&remaining)
	if len(remaining) != 1 || remaining[0].ID != other.ID {
		t.Fatalf("expected only the unrelated root to remain, got %+v", remaining)
	}
}

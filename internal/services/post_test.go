package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"socal/internal/models"
)

func TestCreatePostOwnedByPrincipal(t *testing.T) {
	conn := newTestDB(t)
	users := NewUserService(conn)
	posts := NewPostService(conn)
	alice := mustRegister(t, users, "a@x.com", "alice")

	view, err := posts.Create(context.Background(), principalOf(alice), PostInput{
		Content:   "hello **world**",
		MediaURL:  "https://cdn.example/cat.png",
		MediaType: "image",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if view.UserID != alice.ID || view.UserName != "alice" || view.UserEmail != "a@x.com" {
		t.Fatalf("unexpected owner fields: %+v", view)
	}
	if !view.IsAvailable {
		t.Fatalf("expected new post to be available")
	}
	if !strings.Contains(view.ContentHTML, "<strong>world</strong>") {
		t.Fatalf("expected rendered markdown, got %q", view.ContentHTML)
	}

	got, err := posts.Get(context.Background(), view.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Content != "hello **world**" || got.MediaType != "image" {
		t.Fatalf("unexpected post: %+v", got)
	}
}

func TestCreatePostValidation(t *testing.T) {
	conn := newTestDB(t)
	posts := NewPostService(conn)
	alice := mustRegister(t, NewUserService(conn), "a@x.com", "alice")

	tests := []struct {
		name string
		in   PostInput
	}{
		{"empty content", PostInput{}},
		{"blank content", PostInput{Content: " \n\t "}},
		{"long content", PostInput{Content: strings.Repeat("x", 1001)}},
		{"long media url", PostInput{Content: "x", MediaURL: strings.Repeat("u", 501)}},
		{"long media type", PostInput{Content: "x", MediaType: strings.Repeat("t", 51)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := posts.Create(context.Background(), principalOf(alice), tt.in); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestCreatePostForDeletedAccount(t *testing.T) {
	posts := NewPostService(newTestDB(t))
	_, err := posts.Create(context.Background(), Principal{ID: 99}, PostInput{Content: "x"})
	if !errors.Is(err, ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
}

func TestListPostsNewestFirst(t *testing.T) {
	conn := newTestDB(t)
	posts := NewPostService(conn)
	alice := mustRegister(t, NewUserService(conn), "a@x.com", "alice")

	for _, content := range []string{"first", "second", "third"} {
		if _, err := posts.Create(context.Background(), principalOf(alice), PostInput{Content: content}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	list, err := posts.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].Content != "third" || list[2].Content != "first" {
		t.Fatalf("unexpected order: %+v", list)
	}
}

func TestUpdateAndDeleteOwnership(t *testing.T) {
	conn := newTestDB(t)
	users := NewUserService(conn)
	posts := NewPostService(conn)
	ctx := context.Background()

	alice := mustRegister(t, users, "a@x.com", "alice")
	bob := mustRegister(t, users, "b@x.com", "bob")
	post, err := posts.Create(ctx, principalOf(alice), PostInput{Content: "original"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	edit := PostInput{Content: "edited", MediaURL: "https://cdn.example/v.mp4", MediaType: "video"}
	if err := posts.Update(ctx, principalOf(bob), post.ID, edit); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for bob update, got %v", err)
	}
	if err := posts.Update(ctx, principalOf(bob), post.ID, PostInput{}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for bob update with invalid body, got %v", err)
	}
	if err := posts.Update(ctx, principalOf(alice), post.ID, PostInput{}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for alice update with invalid body, got %v", err)
	}
	if err := posts.Delete(ctx, principalOf(bob), post.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for bob delete, got %v", err)
	}

	if err := posts.Update(ctx, principalOf(alice), post.ID, edit); err != nil {
		t.Fatalf("alice update: %v", err)
	}
	got, _ := posts.Get(ctx, post.ID)
	if got.Content != "edited" || got.MediaType != "video" || got.UserID != alice.ID {
		t.Fatalf("unexpected post after update: %+v", got)
	}

	if err := posts.Delete(ctx, principalOf(alice), post.ID); err != nil {
		t.Fatalf("alice delete: %v", err)
	}
	if _, err := posts.Get(ctx, post.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMissingPostReportedBeforeOwnership(t *testing.T) {
	conn := newTestDB(t)
	posts := NewPostService(conn)
	stranger := Principal{ID: 12345}
	ctx := context.Background()

	if err := posts.Update(ctx, stranger, 999, PostInput{Content: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
	if err := posts.Update(ctx, stranger, 999, PostInput{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update with invalid body, got %v", err)
	}
	if err := posts.Delete(ctx, stranger, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}
	if err := posts.SetAvailability(ctx, 999, false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on availability, got %v", err)
	}
}

func TestAvailabilityHasNoOwnershipCheck(t *testing.T) {
	conn := newTestDB(t)
	users := NewUserService(conn)
	posts := NewPostService(conn)
	ctx := context.Background()

	alice := mustRegister(t, users, "a@x.com", "alice")
	post, _ := posts.Create(ctx, principalOf(alice), PostInput{Content: "x"})

	if err := posts.SetAvailability(ctx, post.ID, false); err != nil {
		t.Fatalf("set availability: %v", err)
	}
	got, _ := posts.Get(ctx, post.ID)
	if got.IsAvailable {
		t.Fatalf("expected post to be unavailable")
	}
	if err := posts.SetAvailability(ctx, post.ID, true); err != nil {
		t.Fatalf("set availability: %v", err)
	}
	got, _ = posts.Get(ctx, post.ID)
	if !got.IsAvailable {
		t.Fatalf("expected post to be available again")
	}
}

func TestDeletePostRemovesComments(t *testing.T) {
	conn := newTestDB(t)
	users := NewUserService(conn)
	posts := NewPostService(conn)
	comments := NewCommentService(conn)
	ctx := context.Background()

	alice := mustRegister(t, users, "a@x.com", "alice")
	p := principalOf(alice)
	post, _ := posts.Create(ctx, p, PostInput{Content: "x"})
	root, err := comments.Create(ctx, &p, post.ID, CommentInput{Content: "root"})
	if err != nil {
		t.Fatalf("comment: %v", err)
	}
	reply, err := comments.Create(ctx, &p, post.ID, CommentInput{Content: "reply", ParentCommentID: &root.ID})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if _, err := comments.Create(ctx, &p, post.ID, CommentInput{Content: "deep", ParentCommentID: &reply.ID}); err != nil {
		t.Fatalf("deep reply: %v", err)
	}

	if err := posts.Delete(ctx, p, post.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var n int64
	conn.Model(&models.Comment{}).Count(&n)
	if n != 0 {
		t.Fatalf("expected comments removed with post, %d left", n)
	}
}

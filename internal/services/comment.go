package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"socal/internal/models"

	"gorm.io/gorm"
)

type CommentInput struct {
	Content         string `json:"content" validate:"required,notblank"`
	ParentCommentID *uint  `json:"parentCommentId"`
}

// CommentView is one node of the rendered thread. Replies are only filled for
// top-level comments; below that the slice is always empty.
type CommentView struct {
	ID              uint          `json:"id"`
	PostID          uint          `json:"postId"`
	ParentCommentID *uint         `json:"parentCommentId"`
	Content         string        `json:"content"`
	CreatedAt       time.Time     `json:"createdAt"`
	UserName        string        `json:"userName"`
	Replies         []CommentView `json:"replies"`
}

func newCommentView(c models.Comment) CommentView {
	return CommentView{
		ID:              c.ID,
		PostID:          c.PostID,
		ParentCommentID: c.ParentCommentID,
		Content:         c.Content,
		CreatedAt:       c.CreatedAt,
		UserName:        c.User.Username,
		Replies:         []CommentView{},
	}
}

// BuildCommentTree shapes the comments of one post into top-level threads.
// It groups by parent id in a single pass instead of following object links,
// so a bad parent chain can never loop. Top-level comments come newest first,
// their direct replies oldest first, and replies of replies are dropped.
func BuildCommentTree(comments []models.Comment) []CommentView {
	ordered := make([]models.Comment, len(comments))
	copy(ordered, comments)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	var roots []models.Comment
	children := make(map[uint][]models.Comment)
	for _, c := range ordered {
		if c.ParentCommentID == nil {
			roots = append(roots, c)
			continue
		}
		children[*c.ParentCommentID] = append(children[*c.ParentCommentID], c)
	}

	views := make([]CommentView, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		view := newCommentView(roots[i])
		for _, reply := range children[roots[i].ID] {
			view.Replies = append(view.Replies, newCommentView(reply))
		}
		views = append(views, view)
	}
	return views
}

type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

// ListRoot returns the threads of a post. An unknown post has no comments.
func (s *CommentService) ListRoot(ctx context.Context, postID uint) ([]CommentView, error) {
	var comments []models.Comment
	if err := s.db.WithContext(ctx).Preload("User").
		Where("post_id = ?", postID).
		Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return BuildCommentTree(comments), nil
}

// Create adds a comment, or a reply when in.ParentCommentID is set. The parent
// has to be a comment on the same post.
func (s *CommentService) Create(ctx context.Context, principal *Principal, postID uint, in CommentInput) (CommentView, error) {
	if principal == nil {
		return CommentView{}, fmt.Errorf("%w: sign in to comment", ErrAuthentication)
	}
	if err := validateInput(in); err != nil {
		return CommentView{}, err
	}

	var comment models.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		author, err := findAuthor(tx, *principal)
		if err != nil {
			return err
		}
		if _, err := findPost(tx, postID); err != nil {
			return err
		}
		if in.ParentCommentID != nil {
			var parent models.Comment
			err := tx.First(&parent, *in.ParentCommentID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && parent.PostID != postID) {
				return fmt.Errorf("%w: parent comment %d is not on post %d", ErrValidation, *in.ParentCommentID, postID)
			}
			if err != nil {
				return fmt.Errorf("find parent comment: %w", err)
			}
		}

		comment = models.Comment{
			PostID:          postID,
			ParentCommentID: in.ParentCommentID,
			UserID:          author.ID,
			Content:         in.Content,
		}
		if err := tx.Omit("Post", "ParentComment", "User").Create(&comment).Error; err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
		comment.User = *author
		return nil
	})
	if err != nil {
		return CommentView{}, err
	}
	return newCommentView(comment), nil
}

// Delete removes a comment owned by principal and all replies below it.
func (s *CommentService) Delete(ctx context.Context, principal Principal, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		err := tx.First(&comment, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: comment %d", ErrNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("find comment: %w", err)
		}
		if err := authorizeOwner(principal, comment.UserID); err != nil {
			return err
		}
		return deleteCommentTrees(tx, []uint{comment.ID})
	})
}

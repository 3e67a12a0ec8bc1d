package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"socal/internal/models"
	"socal/internal/utils"

	"gorm.io/gorm"
)

// PostInput is the writable part of a post. The owner is never taken from
// the client.
type PostInput struct {
	Content   string `json:"content" validate:"required,notblank,max=1000"`
	MediaURL  string `json:"mediaUrl" validate:"max=500"`
	MediaType string `json:"mediaType" validate:"max=50"`
}

type PostView struct {
	ID          uint      `json:"id"`
	Content     string    `json:"content"`
	ContentHTML string    `json:"contentHtml"`
	MediaURL    string    `json:"mediaUrl"`
	MediaType   string    `json:"mediaType"`
	CreatedAt   time.Time `json:"createdAt"`
	UserID      uint      `json:"userId"`
	UserName    string    `json:"userName"`
	UserEmail   string    `json:"userEmail"`
	IsAvailable bool      `json:"isAvailable"`
}

// NewPostView expects post.User to be loaded.
func NewPostView(post models.Post) PostView {
	return PostView{
		ID:          post.ID,
		Content:     post.Content,
		ContentHTML: utils.RenderMarkdown(post.Content),
		MediaURL:    post.MediaURL,
		MediaType:   post.MediaType,
		CreatedAt:   post.CreatedAt,
		UserID:      post.UserID,
		UserName:    post.User.Username,
		UserEmail:   post.User.Email,
		IsAvailable: post.IsAvailable,
	}
}

type PostService struct {
	db *gorm.DB
}

func NewPostService(db *gorm.DB) *PostService {
	return &PostService{db: db}
}

// List returns every post, newest first.
func (s *PostService) List(ctx context.Context) ([]PostView, error) {
	var posts []models.Post
	if err := s.db.WithContext(ctx).Preload("User").
		Order("created_at DESC, id DESC").
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	views := make([]PostView, len(posts))
	for i, p := range posts {
		views[i] = NewPostView(p)
	}
	return views, nil
}

func (s *PostService) Get(ctx context.Context, id uint) (PostView, error) {
	post, err := findPost(s.db.WithContext(ctx).Preload("User"), id)
	if err != nil {
		return PostView{}, err
	}
	return NewPostView(*post), nil
}

func (s *PostService) Create(ctx context.Context, principal Principal, in PostInput) (PostView, error) {
	if err := validateInput(in); err != nil {
		return PostView{}, err
	}
	author, err := findAuthor(s.db.WithContext(ctx), principal)
	if err != nil {
		return PostView{}, err
	}
	post := models.Post{
		Content:     in.Content,
		MediaURL:    in.MediaURL,
		MediaType:   in.MediaType,
		UserID:      author.ID,
		IsAvailable: true,
	}
	if err := s.db.WithContext(ctx).Omit("User").Create(&post).Error; err != nil {
		return PostView{}, fmt.Errorf("create post: %w", err)
	}
	post.User = *author
	return NewPostView(post), nil
}

// Update replaces content and media of a post owned by principal. A missing
// post or a foreign owner is reported before the input is checked.
func (s *PostService) Update(ctx context.Context, principal Principal, id uint, in PostInput) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := findPost(tx, id)
		if err != nil {
			return err
		}
		if err := authorizeOwner(principal, post.UserID); err != nil {
			return err
		}
		if err := validateInput(in); err != nil {
			return err
		}
		if err := tx.Model(post).Updates(map[string]any{
			"content":    in.Content,
			"media_url":  in.MediaURL,
			"media_type": in.MediaType,
		}).Error; err != nil {
			return fmt.Errorf("update post: %w", err)
		}
		return nil
	})
}

// SetAvailability flips the availability flag. Any authenticated caller may
// do this; there is no ownership check.
func (s *PostService) SetAvailability(ctx context.Context, id uint, available bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := findPost(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Model(post).Update("is_available", available).Error; err != nil {
			return fmt.Errorf("update availability: %w", err)
		}
		return nil
	})
}

func (s *PostService) Delete(ctx context.Context, principal Principal, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := findPost(tx, id)
		if err != nil {
			return err
		}
		if err := authorizeOwner(principal, post.UserID); err != nil {
			return err
		}
		return deletePosts(tx, []uint{post.ID})
	})
}

func findPost(tx *gorm.DB, id uint) (*models.Post, error) {
	var post models.Post
	err := tx.First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: post %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("find post: %w", err)
	}
	return &post, nil
}

// findAuthor loads the principal's account. Tokens outlive deleted
// accounts, so a missing row is an authentication failure.
func findAuthor(tx *gorm.DB, principal Principal) (*models.User, error) {
	var user models.User
	err := tx.First(&user, principal.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: account no longer exists", ErrAuthentication)
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// authorizeOwner runs after the resource lookup, so a missing resource is
// reported as not found before ownership is considered.
func authorizeOwner(principal Principal, ownerID uint) error {
	if principal.ID != ownerID {
		return fmt.Errorf("%w: not the owner", ErrForbidden)
	}
	return nil
}

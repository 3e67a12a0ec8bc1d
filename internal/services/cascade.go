package services

import (
	"fmt"

	"socal/internal/models"

	"gorm.io/gorm"
)

// cascadeBatchSize caps the ids bound into one IN clause. SQLite limits the
// number of host parameters per statement. Tests lower it.
var cascadeBatchSize = 500

// chunkIDs splits ids into slices of at most size elements.
func chunkIDs(ids []uint, size int) [][]uint {
	if size <= 0 {
		size = len(ids)
	}
	var chunks [][]uint
	for len(ids) > size {
		chunks = append(chunks, ids[:size:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}

// pluckIDs collects the ids of rows whose column matches one of values.
func pluckIDs(tx *gorm.DB, model any, where string, values []uint) ([]uint, error) {
	var out []uint
	for _, chunk := range chunkIDs(values, cascadeBatchSize) {
		var ids []uint
		if err := tx.Model(model).Where(where, chunk).Pluck("id", &ids).Error; err != nil {
			return nil, err
		}
		out = append(out, ids...)
	}
	return out, nil
}

// deleteIn removes rows whose column matches one of values, in batches.
func deleteIn(tx *gorm.DB, model any, where string, values []uint) error {
	for _, chunk := range chunkIDs(values, cascadeBatchSize) {
		if err := tx.Where(where, chunk).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

// commentLevels walks the reply tree below roots one depth at a time.
// levels[0] is roots, levels[n] holds the replies n steps down.
func commentLevels(tx *gorm.DB, roots []uint) ([][]uint, error) {
	seen := make(map[uint]bool, len(roots))
	var levels [][]uint
	frontier := roots
	for len(frontier) > 0 {
		levels = append(levels, frontier)
		for _, id := range frontier {
			seen[id] = true
		}

		children, err := pluckIDs(tx, &models.Comment{}, "parent_comment_id IN ?", frontier)
		if err != nil {
			return nil, fmt.Errorf("load replies: %w", err)
		}

		next := children[:0]
		for _, id := range children {
			if !seen[id] {
				next = append(next, id)
			}
		}
		frontier = next
	}
	return levels, nil
}

// deleteCommentTrees removes the given comments and every reply below them,
// deepest replies first.
func deleteCommentTrees(tx *gorm.DB, roots []uint) error {
	if len(roots) == 0 {
		return nil
	}
	levels, err := commentLevels(tx, roots)
	if err != nil {
		return err
	}
	for i := len(levels) - 1; i >= 0; i-- {
		if err := deleteIn(tx, &models.Comment{}, "id IN ?", levels[i]); err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
	}
	return nil
}

// deletePosts removes posts together with all of their comments.
func deletePosts(tx *gorm.DB, postIDs []uint) error {
	if len(postIDs) == 0 {
		return nil
	}
	roots, err := pluckIDs(tx, &models.Comment{}, "post_id IN ? AND parent_comment_id IS NULL", postIDs)
	if err != nil {
		return fmt.Errorf("load comments: %w", err)
	}
	if err := deleteCommentTrees(tx, roots); err != nil {
		return err
	}
	// Anything left was attached to a missing parent.
	if err := deleteIn(tx, &models.Comment{}, "post_id IN ?", postIDs); err != nil {
		return fmt.Errorf("delete comments: %w", err)
	}
	if err := deleteIn(tx, &models.Post{}, "id IN ?", postIDs); err != nil {
		return fmt.Errorf("delete posts: %w", err)
	}
	return nil
}

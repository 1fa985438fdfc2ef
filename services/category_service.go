package services

import (
	"fmt"
	"sync"
	"time"

	"abstract-review-api/config"
	"abstract-review-api/models"
)

// Read-only category lookups with a short in-memory cache. Categories are
// display and validation data only; decision logic never inspects them.

var (
	categoryCacheMu sync.RWMutex
	categoryCache   *categoryCacheEntry
	categoryTTL     = 5 * time.Minute
)

type categoryCacheEntry struct {
	categories []models.Category
	byID       map[int]models.Category
	fetchedAt  time.Time
}

func loadCategories(force bool) (*categoryCacheEntry, error) {
	categoryCacheMu.RLock()
	cached := categoryCache
	categoryCacheMu.RUnlock()

	if cached != nil && !force && time.Since(cached.fetchedAt) < categoryTTL {
		return cached, nil
	}

	categoryCacheMu.Lock()
	defer categoryCacheMu.Unlock()

	if categoryCache != nil && !force && time.Since(categoryCache.fetchedAt) < categoryTTL {
		return categoryCache, nil
	}

	var rows []models.Category
	if err := config.DB.Preload("SubTopics", "delete_at IS NULL").
		Where("delete_at IS NULL").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	byID := make(map[int]models.Category, len(rows))
	for _, category := range rows {
		byID[category.CategoryID] = category
	}

	entry := &categoryCacheEntry{
		categories: rows,
		byID:       byID,
		fetchedAt:  time.Now(),
	}
	categoryCache = entry
	return entry, nil
}

// ClearCategoryCache invalidates the in-memory category cache.
func ClearCategoryCache() {
	categoryCacheMu.Lock()
	defer categoryCacheMu.Unlock()
	categoryCache = nil
}

// GetCategories returns all categories with caching support.
func GetCategories() ([]models.Category, error) {
	entry, err := loadCategories(false)
	if err != nil {
		return nil, err
	}
	return entry.categories, nil
}

// GetCategory returns one category with its sub topics.
func GetCategory(categoryID int) (*models.Category, error) {
	entry, err := loadCategories(false)
	if err != nil {
		return nil, err
	}
	if category, ok := entry.byID[categoryID]; ok {
		return &category, nil
	}

	// Force refresh cache once before giving up
	entry, err = loadCategories(true)
	if err != nil {
		return nil, err
	}
	if category, ok := entry.byID[categoryID]; ok {
		return &category, nil
	}
	return nil, fmt.Errorf("category %d not found", categoryID)
}

// GetCategoriesForEvent returns the categories scoped to one event.
func GetCategoriesForEvent(eventID int) ([]models.Category, error) {
	entry, err := loadCategories(false)
	if err != nil {
		return nil, err
	}
	scoped := make([]models.Category, 0, len(entry.categories))
	for _, category := range entry.categories {
		if category.EventID == eventID {
			scoped = append(scoped, category)
		}
	}
	return scoped, nil
}

package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"commhub/models"

	"github.com/google/uuid"
)

// DraftStorage persists staged compositions as JSON files, one directory per
// user. Staged attachment bytes are excluded from the JSON and written as
// sibling blob files so a recovered draft keeps its files.
type DraftStorage struct {
	baseDir string
}

// NewDraftStorage creates a new draft storage instance
func NewDraftStorage(baseDir string) *DraftStorage {
	return &DraftStorage{
		baseDir: baseDir,
	}
}

// getDraftDir returns the drafts directory for a user
func (ds *DraftStorage) getDraftDir(userID string) string {
	return filepath.Join(ds.baseDir, "drafts", userID)
}

func (ds *DraftStorage) blobDir(userID, draftID string) string {
	return filepath.Join(ds.getDraftDir(userID), draftID+".attachments")
}

// SaveDraft saves or updates a draft
func (ds *DraftStorage) SaveDraft(userID, draftID string, draft *models.Draft) error {
	dir := ds.getDraftDir(userID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create draft directory: %w", err)
	}

	// Generate new ID if not provided
	if draftID == "" {
		draftID = uuid.New().String()
		draft.CreatedAt = time.Now()
	}
	draft.ID = draftID
	draft.UserID = userID
	draft.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(draft, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	filePath := filepath.Join(dir, draftID+".json")
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write draft file: %w", err)
	}

	return ds.writeBlobs(userID, draftID, draft.Attachments)
}

// writeBlobs replaces the staged attachment bytes on disk.
func (ds *DraftStorage) writeBlobs(userID, draftID string, attachments []models.Attachment) error {
	dir := ds.blobDir(userID, draftID)
	if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear attachment blobs: %w", err)
	}

	staged := false
	for _, a := range attachments {
		if a.Staged() {
			staged = true
			break
		}
	}
	if !staged {
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create attachment directory: %w", err)
	}
	for _, a := range attachments {
		if !a.Staged() {
			continue
		}
		path := filepath.Join(dir, a.ID)
		if err := os.WriteFile(path, a.Content, 0644); err != nil {
			return fmt.Errorf("failed to write attachment blob: %w", err)
		}
	}
	return nil
}

// GetDraft retrieves a specific draft
func (ds *DraftStorage) GetDraft(userID, draftID string) (*models.Draft, error) {
	filePath := filepath.Join(ds.getDraftDir(userID), draftID+".json")

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("draft not found")
		}
		return nil, fmt.Errorf("failed to read draft: %w", err)
	}

	var draft models.Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}

	// Re-hydrate staged attachment bytes.
	blobs := ds.blobDir(userID, draftID)
	for i := range draft.Attachments {
		content, err := os.ReadFile(filepath.Join(blobs, draft.Attachments[i].ID))
		if err == nil {
			draft.Attachments[i].Content = content
		}
	}

	return &draft, nil
}

// GetDrafts retrieves all drafts for a user, newest first.
func (ds *DraftStorage) GetDrafts(userID string) ([]*models.Draft, error) {
	dir := ds.getDraftDir(userID)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read drafts directory: %w", err)
	}

	var drafts []*models.Draft
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		draftID := entry.Name()[:len(entry.Name())-5]
		draft, err := ds.GetDraft(userID, draftID)
		if err != nil {
			continue // Skip invalid drafts
		}

		drafts = append(drafts, draft)
	}

	sort.Slice(drafts, func(i, j int) bool {
		return drafts[i].UpdatedAt.After(drafts[j].UpdatedAt)
	})

	return drafts, nil
}

// DeleteDraft deletes a draft and its attachment blobs.
func (ds *DraftStorage) DeleteDraft(userID, draftID string) error {
	filePath := filepath.Join(ds.getDraftDir(userID), draftID+".json")

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("draft not found")
		}
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	if err := os.RemoveAll(ds.blobDir(userID, draftID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete attachment blobs: %w", err)
	}

	return nil
}

// DeleteAllDrafts deletes all drafts for a user
func (ds *DraftStorage) DeleteAllDrafts(userID string) error {
	dir := ds.getDraftDir(userID)

	if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete drafts: %w", err)
	}

	return nil
}

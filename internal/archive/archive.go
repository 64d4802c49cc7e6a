// Package archive keeps the raw scraped tenders as JSON files on disk, one
// file per tender. The archive is the source for re-embedding after an
// embedding model change.
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xhad/tendermatch/internal/models"
)

type Archive struct {
	dir string
}

func New(dir string) (*Archive, error) {
	if dir == "" {
		dir = "./data/raw_tenders"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %v", err)
	}
	return &Archive{dir: dir}, nil
}

func (a *Archive) Dir() string {
	return a.dir
}

// Save writes one tender as <id>.json, overwriting any previous version.
func (a *Archive) Save(tender models.Tender) error {
	if tender.ID == "" {
		return fmt.Errorf("tender has no ID")
	}

	data, err := json.MarshalIndent(tender, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tender %s: %v", tender.ID, err)
	}

	path := filepath.Join(a.dir, tender.ID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write tender %s: %v", tender.ID, err)
	}
	return nil
}

// SaveAll archives a batch, stopping at the first failure.
func (a *Archive) SaveAll(tenders []models.Tender) error {
	for _, tender := range tenders {
		if err := a.Save(tender); err != nil {
			return err
		}
	}
	return nil
}

// Load reads one archived tender by ID.
func (a *Archive) Load(id string) (models.Tender, error) {
	data, err := os.ReadFile(filepath.Join(a.dir, id+".json"))
	if err != nil {
		return models.Tender{}, fmt.Errorf("failed to read tender %s: %v", id, err)
	}

	var tender models.Tender
	if err := json.Unmarshal(data, &tender); err != nil {
		return models.Tender{}, fmt.Errorf("failed to parse tender %s: %v", id, err)
	}
	return tender, nil
}

// List returns every archived tender. Files that fail to parse are skipped.
func (a *Archive) List() ([]models.Tender, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive directory: %v", err)
	}

	var tenders []models.Tender
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")
		tender, err := a.Load(id)
		if err != nil {
			continue
		}
		tenders = append(tenders, tender)
	}
	return tenders, nil
}

// Count returns the number of archived tenders.
func (a *Archive) Count() (int, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read archive directory: %v", err)
	}

	count := 0
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			count++
		}
	}
	return count, nil
}

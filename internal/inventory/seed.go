package inventory

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/erazemk/zaloga/internal/model"
)

// Seed is the starting data for a mock-mode session.
type Seed struct {
	Master model.MasterData
	Items  []model.Item
}

type seedFile struct {
	Categories []string   `yaml:"categories"`
	Locations  []string   `yaml:"locations"`
	Items      []seedItem `yaml:"items"`
}

type seedItem struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Category  string `yaml:"category"`
	Location  string `yaml:"location"`
	Qty       int    `yaml:"qty"`
	Unit      string `yaml:"unit"`
	Threshold *int   `yaml:"threshold"`
	Status    string `yaml:"status"`
	PhotoURLs string `yaml:"photo_urls"`
}

// LoadSeed reads mock seed data from a YAML file. Items without a status are
// active, items without a unit get the default unit, and all items are
// stamped with now.
func LoadSeed(path string, now time.Time) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}

	seed := &Seed{Master: model.MasterData{Categories: f.Categories, Locations: f.Locations}}
	for i, si := range f.Items {
		if si.ID == "" || si.Name == "" {
			return nil, fmt.Errorf("seed item %d: id and name required", i+1)
		}
		if si.Qty < 0 {
			return nil, fmt.Errorf("seed item %s: negative qty", si.ID)
		}
		item := model.Item{
			ID:        si.ID,
			Name:      si.Name,
			Category:  si.Category,
			Location:  si.Location,
			Qty:       si.Qty,
			Unit:      si.Unit,
			Threshold: si.Threshold,
			Status:    si.Status,
			UpdatedAt: now,
			PhotoURLs: si.PhotoURLs,
		}
		if item.Unit == "" {
			item.Unit = model.DefaultUnit
		}
		if item.Status == "" {
			item.Status = model.ItemStatusActive
		}
		seed.Items = append(seed.Items, item)
	}
	return seed, nil
}

// DefaultSeed is the demo data shown when no seed file is configured.
func DefaultSeed(now time.Time) *Seed {
	threshold := 5
	return &Seed{
		Master: model.MasterData{
			Categories: []string{"給湯器", "配管部材", "電材", "木材"},
			Locations:  []string{"倉庫A", "車両1", "現場"},
		},
		Items: []model.Item{
			{ID: "mock1", Name: "ピュアレストQR", Category: "配管部材", Location: "倉庫A", Qty: 10, Unit: "台", Status: model.ItemStatusActive, UpdatedAt: now},
			{ID: "mock2", Name: "VVFケーブル 2.0-3C", Category: "電材", Location: "車両1", Qty: 2, Unit: "巻", Status: model.ItemStatusActive, Threshold: &threshold, UpdatedAt: now},
		},
	}
}

// Load replaces the store contents with the seed.
func (s *Store) Load(seed *Seed) {
	s.ReplaceMaster(seed.Master)
	s.ReplaceItems(seed.Items)
}

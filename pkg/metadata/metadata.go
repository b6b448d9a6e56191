package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"inatscraper/pkg/inaturalist"
	"inatscraper/pkg/storage"
)

// ManifestSuffix is appended to a species folder's path to name its manifest.
// The manifest sits next to the folder so the folder holds only images.
const ManifestSuffix = ".attributions.json"

// PathFor returns the manifest path for the species folder dir
func PathFor(dir string) string {
	return filepath.Clean(dir) + ManifestSuffix
}

// Entry records where a saved image came from and who may be credited
type Entry struct {
	FileName       string    `json:"file_name"`
	ObservationID  int64     `json:"observation_id"`
	PhotoIndex     int       `json:"photo_index"`
	PhotoID        int64     `json:"photo_id"`
	SourceURL      string    `json:"source_url"`
	LicenseCode    string    `json:"license_code,omitempty"`
	Attribution    string    `json:"attribution,omitempty"`
	TaxonName      string    `json:"taxon_name,omitempty"`
	Observer       string    `json:"observer,omitempty"`
	ObservationURI string    `json:"observation_uri,omitempty"`
	ObservedOn     string    `json:"observed_on,omitempty"`
	DownloadedAt   time.Time `json:"downloaded_at"`
}

// FromObservation builds the entry for the index-th (1-based) photo of obs
func FromObservation(obs inaturalist.Observation, index int, sourceURL, fileName string) Entry {
	entry := Entry{
		FileName:       fileName,
		ObservationID:  obs.ID,
		PhotoIndex:     index,
		SourceURL:      sourceURL,
		TaxonName:      obs.TaxonName(),
		Observer:       obs.ObserverLogin(),
		ObservationURI: obs.URI,
		ObservedOn:     obs.ObservedOn,
		DownloadedAt:   time.Now().UTC(),
	}
	if index >= 1 && index <= len(obs.Photos) {
		photo := obs.Photos[index-1]
		entry.PhotoID = photo.ID
		entry.LicenseCode = photo.LicenseCode
		entry.Attribution = photo.Attribution
	}
	return entry
}

// Manifest is the attribution list for one species folder
type Manifest struct {
	Species string    `json:"species"`
	Updated time.Time `json:"updated"`
	Entries []Entry   `json:"entries"`

	dir   string
	index map[string]int
	dirty bool
}

// Load reads the manifest belonging to the species folder dir, or starts an
// empty one if none exists. A Manifest is owned by a single species run and
// is not safe for concurrent use.
func Load(dir, species string) (*Manifest, error) {
	m := &Manifest{Species: species, dir: dir, index: map[string]int{}}

	data, err := os.ReadFile(PathFor(dir))
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", PathFor(dir), err)
	}
	if m.Species == "" {
		m.Species = species
	}
	for i, e := range m.Entries {
		m.index[e.FileName] = i
	}
	return m, nil
}

// Add records e, replacing any earlier entry for the same file
func (m *Manifest) Add(e Entry) {
	if i, ok := m.index[e.FileName]; ok {
		m.Entries[i] = e
	} else {
		m.index[e.FileName] = len(m.Entries)
		m.Entries = append(m.Entries, e)
	}
	m.dirty = true
}

// Len returns the number of entries
func (m *Manifest) Len() int {
	return len(m.Entries)
}

// Get returns the entry for fileName
func (m *Manifest) Get(fileName string) (Entry, bool) {
	i, ok := m.index[fileName]
	if !ok {
		return Entry{}, false
	}
	return m.Entries[i], true
}

// Prune drops entries whose image file no longer exists and returns how many went
func (m *Manifest) Prune() int {
	kept := m.Entries[:0]
	removed := 0
	for _, e := range m.Entries {
		if storage.Exists(filepath.Join(m.dir, e.FileName)) {
			kept = append(kept, e)
		} else {
			removed++
		}
	}
	m.Entries = kept
	m.reindex()
	if removed > 0 {
		m.dirty = true
	}
	return removed
}

// Save writes the manifest if anything changed since Load
func (m *Manifest) Save() error {
	if !m.dirty {
		return nil
	}

	sort.Slice(m.Entries, func(i, j int) bool {
		if m.Entries[i].ObservationID != m.Entries[j].ObservationID {
			return m.Entries[i].ObservationID > m.Entries[j].ObservationID
		}
		return m.Entries[i].PhotoIndex < m.Entries[j].PhotoIndex
	})
	m.reindex()
	m.Updated = time.Now().UTC()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if _, err := storage.WriteAtomic(PathFor(m.dir), bytes.NewReader(data), storage.Limits{}); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	m.dirty = false
	return nil
}

func (m *Manifest) reindex() {
	m.index = make(map[string]int, len(m.Entries))
	for i, e := range m.Entries {
		m.index[e.FileName] = i
	}
}

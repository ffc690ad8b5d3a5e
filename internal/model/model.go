// Package model holds the canonical records shared by the adapters, the
// extractor, the requirement builder and the scorer.
package model

import (
	"fmt"
	"strings"
)

// StorageType is the canonical storage technology of a listing.
type StorageType string

const (
	StorageSSD  StorageType = "SSD"
	StorageHDD  StorageType = "HDD"
	StorageNVMe StorageType = "NVMe SSD"
)

// ParseStorageType maps free-form storage vocabulary onto the canonical set.
func ParseStorageType(raw string) (StorageType, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "":
		return "", false
	case strings.Contains(s, "nvme"):
		return StorageNVMe, true
	case strings.Contains(s, "ssd"), strings.Contains(s, "m.2"), strings.Contains(s, "solido"), strings.Contains(s, "sólido"):
		return StorageSSD, true
	case strings.Contains(s, "hdd"), strings.Contains(s, "disco duro"), strings.Contains(s, "hard"):
		return StorageHDD, true
	}
	return "", false
}

// CPUBrand is the canonical processor vendor.
type CPUBrand string

const (
	CPUIntel CPUBrand = "Intel"
	CPUAMD   CPUBrand = "AMD"
	CPUApple CPUBrand = "Apple"
)

// ParseCPUBrand returns the vendor named in raw, if any. Family names such as
// "Ryzen" alone do not name a vendor.
func ParseCPUBrand(raw string) (CPUBrand, bool) {
	s := strings.ToLower(raw)
	switch {
	case strings.Contains(s, "intel"):
		return CPUIntel, true
	case strings.Contains(s, "amd"):
		return CPUAMD, true
	case strings.Contains(s, "apple"):
		return CPUApple, true
	}
	return "", false
}

// Specification is the canonical hardware record every store is normalized into.
// Unknown fields stay nil.
type Specification struct {
	RAMGB       *int         `json:"ram_gb"`
	StorageGB   *int         `json:"storage_gb"`
	StorageType *StorageType `json:"storage_type"`
	CPUBrand    *CPUBrand    `json:"cpu_brand"`
	CPUModel    *string      `json:"cpu_model"`
	GPUModel    *string      `json:"gpu_model"`
	GPURequired bool         `json:"gpu_required"`
}

// RawListing is what a store search page yields for one product card.
type RawListing struct {
	Name     string   `json:"name"`
	Price    *float64 `json:"price"`
	URL      string   `json:"url"`
	ImageURL string   `json:"image_url,omitempty"`
	Store    string   `json:"store"`
}

// ProductDetail is the full record read from a product page.
// A nil Specifications means the adapter left extraction to the caller.
type ProductDetail struct {
	Name           string         `json:"name"`
	Price          *float64       `json:"price"`
	URL            string         `json:"url"`
	ImageURL       string         `json:"image_url,omitempty"`
	Store          string         `json:"store"`
	Description    string         `json:"description,omitempty"`
	Specifications *Specification `json:"specifications"`
}

// Merge overlays detail on top of the search listing. Non-empty detail fields win.
func Merge(listing RawListing, detail *ProductDetail) ProductDetail {
	out := ProductDetail{
		Name:     listing.Name,
		Price:    listing.Price,
		URL:      listing.URL,
		ImageURL: listing.ImageURL,
		Store:    listing.Store,
	}
	if detail == nil {
		return out
	}
	if detail.Name != "" {
		out.Name = detail.Name
	}
	if detail.Price != nil {
		out.Price = detail.Price
	}
	if detail.URL != "" {
		out.URL = detail.URL
	}
	if detail.ImageURL != "" {
		out.ImageURL = detail.ImageURL
	}
	if detail.Store != "" {
		out.Store = detail.Store
	}
	out.Description = detail.Description
	out.Specifications = detail.Specifications
	return out
}

// Weights distributes the score across the five criteria.
type Weights struct {
	Price   float64 `json:"price"`
	RAM     float64 `json:"ram"`
	CPU     float64 `json:"cpu"`
	GPU     float64 `json:"gpu"`
	Storage float64 `json:"storage"`
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.Price + w.RAM + w.CPU + w.GPU + w.Storage
}

// Validate rejects negative weights and totals above one.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{"price": w.Price, "ram": w.RAM, "cpu": w.CPU, "gpu": w.GPU, "storage": w.Storage} {
		if v < 0 {
			return fmt.Errorf("%w: %s weight is negative", ErrInvalidWeights, name)
		}
	}
	// tolerate float rounding of decimal tables
	if w.Sum() > 1+1e-9 {
		return fmt.Errorf("%w: weights sum to %.3f", ErrInvalidWeights, w.Sum())
	}
	return nil
}

// RequirementProfile is the concrete threshold set derived from one request.
type RequirementProfile struct {
	MinRAMGB          int          `json:"min_ram_gb"`
	MinStorageGB      int          `json:"min_storage_gb"`
	StorageType       *StorageType `json:"storage_type,omitempty"`
	CPUBrand          *CPUBrand    `json:"cpu_brand,omitempty"`
	GPURequired       bool         `json:"gpu_required"`
	DesiredGPUKeyword string       `json:"desired_gpu_keyword,omitempty"`
	MinPrice          *float64     `json:"min_price,omitempty"`
	MaxPrice          *float64     `json:"max_price,omitempty"`
	PreferStore       string       `json:"prefer_store,omitempty"`
	Weights           Weights      `json:"weights"`
}

// Disqualified is the score sentinel for candidates excluded outright.
const Disqualified = -1.0

// ScoredCandidate pairs a product with its score.
type ScoredCandidate struct {
	Category    string        `json:"category"`
	Description string        `json:"description"`
	Details     ProductDetail `json:"details"`
	Score       float64       `json:"score"`
}

// Entry returns the response-list form of the candidate.
func (c ScoredCandidate) Entry() Entry {
	details := c.Details
	score := c.Score
	return Entry{
		Kind:        EntryProduct,
		Category:    c.Category,
		Description: c.Description,
		Details:     &details,
		Score:       &score,
	}
}

// EntryKind tags each element of a recommendation response.
type EntryKind string

const (
	EntryProduct  EntryKind = "product"
	EntryInfo     EntryKind = "info"
	EntryError    EntryKind = "error"
	EntryAdvisory EntryKind = "advisory"
)

// Entry is one element of the list returned to callers.
type Entry struct {
	Kind        EntryKind      `json:"kind"`
	Category    string         `json:"category"`
	Description string         `json:"description"`
	Details     *ProductDetail `json:"details,omitempty"`
	Score       *float64       `json:"score,omitempty"`
}

// InfoEntry builds an informational entry with no product attached.
func InfoEntry(category, description string) Entry {
	return Entry{Kind: EntryInfo, Category: category, Description: description}
}

// ErrorEntry builds a user-facing error entry.
func ErrorEntry(description string) Entry {
	return Entry{Kind: EntryError, Category: "Error", Description: description}
}

// Translation is the result handed over by the translation collaborator.
type Translation struct {
	Success        bool   `json:"success"`
	TranslatedText string `json:"translated_text"`
	ErrorMessage   string `json:"error_message,omitempty"`
}

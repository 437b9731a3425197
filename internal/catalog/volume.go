package catalog

import (
	"strings"

	"shelf-service/internal/model"
)

type volumeList struct {
	TotalItems int      `json:"totalItems"`
	Items      []volume `json:"items"`
}

type volume struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title         string     `json:"title"`
	Authors       []string   `json:"authors"`
	Description   *string    `json:"description"`
	Categories    []string   `json:"categories"`
	AverageRating *float64   `json:"averageRating"`
	ImageLinks    imageLinks `json:"imageLinks"`
}

type imageLinks struct {
	SmallThumbnail string `json:"smallThumbnail"`
	Thumbnail      string `json:"thumbnail"`
}

// toUpsert maps a volume onto a mirror write. Fields the upstream omitted stay nil so a
// sparse response never blanks data already mirrored.
func (v volume) toUpsert() model.BookUpsert {
	info := v.VolumeInfo
	u := model.BookUpsert{
		ID:          v.ID,
		Description: info.Description,
		Rating:      info.AverageRating,
	}

	if info.Title != "" {
		title := info.Title
		u.Title = &title
	}
	if len(info.Authors) > 0 {
		authors := strings.Join(info.Authors, ", ")
		u.Authors = &authors
	}
	if img := info.ImageLinks.Thumbnail; img != "" {
		u.Image = &img
	} else if img := info.ImageLinks.SmallThumbnail; img != "" {
		u.Image = &img
	}
	if info.Categories != nil {
		u.Categories = splitCategories(info.Categories)
	}

	return u
}

// splitCategories flattens hierarchical labels like "Fiction / Fantasy / Epic" into their
// distinct parts.
func splitCategories(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		for _, part := range strings.Split(c, "/") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if _, ok := seen[part]; ok {
				continue
			}
			seen[part] = struct{}{}
			out = append(out, part)
		}
	}
	return out
}

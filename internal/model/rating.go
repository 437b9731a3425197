package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Rating struct {
	ID        int64     `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	BookID    string    `db:"book_id" json:"book_id"`
	Rating    int       `db:"rating" json:"rating"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RatingSummary is the caller's stored rating plus the book aggregate after the write.
type RatingSummary struct {
	Rating  int     `json:"rating"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// MeanRating is the arithmetic mean of ratings. ok is false for an empty slice.
func MeanRating(ratings []int) (mean float64, ok bool) {
	if len(ratings) == 0 {
		return 0, false
	}

	sum := 0
	for _, r := range ratings {
		sum += r
	}

	return float64(sum) / float64(len(ratings)), true
}

// NormalizeRating floors fractional input and reports whether the result is in range.
func NormalizeRating(v float64) (int, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}

	r := math.Floor(v)
	if r < MinRating || r > MaxRating {
		return 0, false
	}

	return int(r), true
}

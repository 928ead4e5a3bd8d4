package domain

import (
	"fmt"
	"regexp"
	"time"
)

type CommentID string

type City string

const (
	CityNewYork      City = "New York"
	CityLosAngeles   City = "Los Angeles"
	CityChicago      City = "Chicago"
	CitySanFrancisco City = "San Francisco"
	CityMiami        City = "Miami"
)

const DefaultCity = CityNewYork

// Cities lists the selectable cities in display order.
var Cities = []City{CityNewYork, CityLosAngeles, CityChicago, CitySanFrancisco, CityMiami}

var commentText = regexp.MustCompile(`^[a-zA-Z0-9 ]+$`)

func ParseCity(s string) (City, error) {
	for _, c := range Cities {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCity, s)
}

// ValidateCommentText admits only non-empty ASCII letters, digits and spaces.
func ValidateCommentText(text string) error {
	if text == "" {
		return ErrEmptyComment
	}
	if !commentText.MatchString(text) {
		return ErrInvalidCharacters
	}
	return nil
}

// Comment is a moderated, city tagged note. Likes and Dislikes only grow while
// the comment is listed.
type Comment struct {
	ID          CommentID `json:"id"`
	Text        string    `json:"text"`
	City        City      `json:"city"`
	Likes       int       `json:"likes"`
	Dislikes    int       `json:"dislikes"`
	Translation string    `json:"translation,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Package pagination implements opaque cursor paging over
// (created_at, id) ordered listings.
package pagination

import (
	"encoding/base64"
	"encoding/json"
)

type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size,default=50" validate:"gte=1,lte=250"`
}

// Cursor is the decoded position of a page boundary.
type Cursor struct {
	ID        string `json:"id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type PageInfo struct {
	NextPageToken string `json:"next_page_token,omitempty"`
	HasMore       bool   `json:"has_more"`
}

func EncodeCursor(c Cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func DecodeCursor(token string) (*Cursor, error) {
	b, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, err
	}
	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// BuildPageInfo trims an over-fetched result set (limit+1 rows) and
// produces the token for the next page.
func BuildPageInfo[T any](items []T, limit int, cursorOf func(T) string) ([]T, PageInfo) {
	if len(items) <= limit {
		return items, PageInfo{HasMore: false}
	}
	items = items[:limit]
	return items, PageInfo{
		HasMore:       true,
		NextPageToken: cursorOf(items[len(items)-1]),
	}
}

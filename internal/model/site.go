package model

import "time"

// WeddingInfo is the single row of couple details shown on the home page.
type WeddingInfo struct {
	Partner1Name   string    `json:"partner1_name"`
	Partner2Name   string    `json:"partner2_name"`
	WeddingDate    string    `json:"wedding_date"`
	Location       string    `json:"location"`
	Hashtag        string    `json:"hashtag"`
	WelcomeTitle   string    `json:"welcome_title"`
	WelcomeMessage string    `json:"welcome_message"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Names returns "Partner1 & Partner2".
func (w WeddingInfo) Names() string {
	return w.Partner1Name + " & " + w.Partner2Name
}

func (w WeddingInfo) DisplayDate() string {
	return Event{Date: w.WeddingDate}.DisplayDate()
}

// Milestone is one entry of the couple's story timeline.
type Milestone struct {
	ID          int64     `json:"id"`
	Year        string    `json:"year"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type MilestoneInput struct {
	Year        string `json:"year"`
	Title       string `json:"title"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

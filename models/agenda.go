package models

// AgendaStatus enum
type AgendaStatus string

const (
	AgendaUnderReview AgendaStatus = "Under Review"
	AgendaInProgress  AgendaStatus = "In Progress"
	AgendaCompleted   AgendaStatus = "Completed"
)

func (s AgendaStatus) Valid() bool {
	switch s {
	case AgendaUnderReview, AgendaInProgress, AgendaCompleted:
		return true
	}
	return false
}

// AgendaCategory enum
type AgendaCategory string

const (
	Infrastructure AgendaCategory = "Infrastructure"
	Sanitation     AgendaCategory = "Sanitation"
	PublicSafety   AgendaCategory = "Public Safety"
	ParksAndRec    AgendaCategory = "Parks & Rec"
)

func (c AgendaCategory) Valid() bool {
	switch c {
	case Infrastructure, Sanitation, PublicSafety, ParksAndRec:
		return true
	}
	return false
}

// AgendaItem is one entry of the mayor's public agenda
type AgendaItem struct {
	ID          int            `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      AgendaStatus   `json:"status"`
	Category    AgendaCategory `json:"category"`
}

// Announcement is a dated notice shown on the welcome page.
type Announcement struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Date    string `json:"date"`
	Content string `json:"content"`
}

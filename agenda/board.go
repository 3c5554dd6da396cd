// Package agenda serves the mayor's agenda board and the welcome-page
// announcements.
package agenda

import (
	"strings"

	"civicsync-web/models"
)

var items = []models.AgendaItem{
	{
		ID:          1,
		Title:       "Repair Potholes on Main Street",
		Description: "Multiple reports of deep potholes causing vehicle damage near the downtown area.",
		Status:      models.AgendaInProgress,
		Category:    models.Infrastructure,
	},
	{
		ID:          2,
		Title:       "Increase Garbage Collection Frequency in Park Slope",
		Description: "Overflowing public bins have been reported, requesting an additional pickup day.",
		Status:      models.AgendaUnderReview,
		Category:    models.Sanitation,
	},
	{
		ID:          3,
		Title:       "Install New Streetlights on 5th Ave",
		Description: "Community request for better lighting to improve safety after dark.",
		Status:      models.AgendaCompleted,
		Category:    models.PublicSafety,
	},
	{
		ID:          4,
		Title:       "Upgrade Playground Equipment at Central Park",
		Description: "Old swings and slides need replacement to meet modern safety standards.",
		Status:      models.AgendaInProgress,
		Category:    models.ParksAndRec,
	},
	{
		ID:          5,
		Title:       "Graffiti Removal Program Expansion",
		Description: "Proposal to expand the city-wide graffiti cleanup initiative to more neighborhoods.",
		Status:      models.AgendaUnderReview,
		Category:    models.Sanitation,
	},
	{
		ID:          6,
		Title:       "Crosswalk Repainting at Elm & Oak Intersection",
		Description: "Faded crosswalk lines are creating a hazard for pedestrians.",
		Status:      models.AgendaCompleted,
		Category:    models.Infrastructure,
	},
}

var announcements = []models.Announcement{
	{
		ID:      1,
		Title:   "Town Hall Meeting on Public Transport",
		Date:    "July 28, 2024",
		Content: "Join the Mayor for a discussion on improving our city's public transportation system. The meeting will be held at City Hall at 7 PM.",
	},
	{
		ID:      2,
		Title:   "Summer Streets Program Kick-off",
		Date:    "July 25, 2024",
		Content: "Park Avenue will be closed to traffic and open to the public for recreation this Saturday from 7 AM to 1 PM. Enjoy walking, biking, and more!",
	},
	{
		ID:      3,
		Title:   "New Recycling Guidelines",
		Date:    "July 22, 2024",
		Content: "Please be aware of the new city-wide recycling guidelines effective August 1st. Details can be found on the sanitation department website.",
	},
	{
		ID:      4,
		Title:   "Community Garden Volunteer Day",
		Date:    "July 20, 2024",
		Content: "Lend a hand at the East Village Community Garden this Sunday. All are welcome, no experience necessary. Tools will be provided.",
	},
}

// Items returns a copy of the agenda dataset.
func Items() []models.AgendaItem {
	return append([]models.AgendaItem(nil), items...)
}

// Announcements returns a copy of the welcome-page announcements, newest first.
func Announcements() []models.Announcement {
	return append([]models.Announcement(nil), announcements...)
}

// Filter keeps items whose title or description contains term, ignoring
// case. An empty term keeps everything.
func Filter(list []models.AgendaItem, term string) []models.AgendaItem {
	term = strings.ToLower(term)
	out := make([]models.AgendaItem, 0, len(list))
	for _, item := range list {
		if term == "" ||
			strings.Contains(strings.ToLower(item.Title), term) ||
			strings.Contains(strings.ToLower(item.Description), term) {
			out = append(out, item)
		}
	}
	return out
}

// Board is the three-column view of the agenda.
type Board struct {
	UnderReview []models.AgendaItem `json:"underReview"`
	InProgress  []models.AgendaItem `json:"inProgress"`
	Completed   []models.AgendaItem `json:"completed"`
}

// Group splits items by status, keeping input order within each column.
func Group(list []models.AgendaItem) Board {
	b := Board{
		UnderReview: []models.AgendaItem{},
		InProgress:  []models.AgendaItem{},
		Completed:   []models.AgendaItem{},
	}
	for _, item := range list {
		switch item.Status {
		case models.AgendaUnderReview:
			b.UnderReview = append(b.UnderReview, item)
		case models.AgendaInProgress:
			b.InProgress = append(b.InProgress, item)
		case models.AgendaCompleted:
			b.Completed = append(b.Completed, item)
		}
	}
	return b
}

// Search filters the dataset and groups the result.
func Search(term string) Board {
	return Group(Filter(Items(), term))
}

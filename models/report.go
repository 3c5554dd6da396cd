package models

import (
	"time"
)

// ReportStatus enum
type ReportStatus string

const (
	Received    ReportStatus = "Received"
	UnderReview ReportStatus = "Under Review"
	Actioned    ReportStatus = "Actioned"
)

var reportStatusOrder = []ReportStatus{Received, UnderReview, Actioned}

// Rank returns the ordinal position of the status, or -1 when unknown.
func (s ReportStatus) Rank() int {
	for i, v := range reportStatusOrder {
		if v == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the known statuses.
func (s ReportStatus) Valid() bool {
	return s.Rank() >= 0
}

// Next returns the status that follows s. ok is false for the final status.
func (s ReportStatus) Next() (next ReportStatus, ok bool) {
	r := s.Rank()
	if r < 0 || r+1 >= len(reportStatusOrder) {
		return s, false
	}
	return reportStatusOrder[r+1], true
}

// MessageKey is the translation key used to display the status.
func (s ReportStatus) MessageKey() string {
	switch s {
	case Received:
		return "report.status.received"
	case UnderReview:
		return "report.status.underreview"
	case Actioned:
		return "report.status.actioned"
	}
	return string(s)
}

// MediaKind enum
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Satisfaction enum
type Satisfaction string

const (
	Satisfied   Satisfaction = "satisfied"
	Unsatisfied Satisfaction = "unsatisfied"
)

func (s Satisfaction) Valid() bool {
	return s == Satisfied || s == Unsatisfied
}

// Location is a pinned coordinate attached to a report.
type Location struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// Reporter holds the optional identity captured by the location dialog.
type Reporter struct {
	Name     string `bson:"name" json:"name"`
	District string `bson:"district" json:"district"`
	Contact  string `bson:"contact,omitempty" json:"contact,omitempty"`
}

// Feedback is the citizen's verdict on an actioned report.
type Feedback struct {
	Satisfaction Satisfaction `bson:"satisfaction" json:"satisfaction"`
	Comments     string       `bson:"comments,omitempty" json:"comments,omitempty"`
}

// SubmittedReport represents a visual report submitted from one browser
type SubmittedReport struct {
	ID         int64        `bson:"_id" json:"id"`
	PreviewURL string       `bson:"previewUrl" json:"previewUrl"`
	MediaKind  MediaKind    `bson:"mediaKind" json:"mediaKind"`
	Prompt     string       `bson:"prompt" json:"prompt"`
	Status     ReportStatus `bson:"status" json:"status"`
	CreatedAt  time.Time    `bson:"createdAt" json:"createdAt"`
	Location   *Location    `bson:"location,omitempty" json:"location,omitempty"`
	Reporter   *Reporter    `bson:"reporter,omitempty" json:"reporter,omitempty"`
	Feedback   *Feedback    `bson:"feedback,omitempty" json:"feedback,omitempty"`
}

// Clone returns a deep copy so callers never share pointers with the owner.
func (r SubmittedReport) Clone() SubmittedReport {
	if r.Location != nil {
		loc := *r.Location
		r.Location = &loc
	}
	if r.Reporter != nil {
		rep := *r.Reporter
		r.Reporter = &rep
	}
	if r.Feedback != nil {
		fb := *r.Feedback
		r.Feedback = &fb
	}
	return r
}

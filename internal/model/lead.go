package model

import "time"

// LeadStatus represents where a lead sits in the outreach lifecycle.
type LeadStatus string

const (
	StatusNew       LeadStatus = "new"
	StatusSaved     LeadStatus = "saved"
	StatusContacted LeadStatus = "contacted"
	StatusResponded LeadStatus = "responded"
	StatusMeeting   LeadStatus = "meeting"
	StatusClosed    LeadStatus = "closed"
	StatusDead      LeadStatus = "dead"
)

// CallOutcome is the recorded result of the most recent call to a lead.
type CallOutcome string

const (
	OutcomeInterested    CallOutcome = "interested"
	OutcomeCallBack      CallOutcome = "call_back"
	OutcomeVoicemail     CallOutcome = "voicemail"
	OutcomeNotInterested CallOutcome = "not_interested"
	OutcomeNoAnswer      CallOutcome = "no_answer"
	OutcomeWrongNumber   CallOutcome = "wrong_number"
)

// WebsiteQuality is a coarse classification of a lead's web presence.
type WebsiteQuality string

const (
	WebsiteNone   WebsiteQuality = "none"
	WebsitePoor   WebsiteQuality = "poor"
	WebsiteDecent WebsiteQuality = "decent"
)

// Lead represents a business prospect.
//
// The pair (lowercased BusinessName, lowercased City) is unique among
// persisted leads; the store rejects a second insert with the same pair.
type Lead struct {
	ID             string         `json:"id"`
	BusinessName   string         `json:"business_name"`
	Category       string         `json:"category"`
	Address        string         `json:"address"`
	City           string         `json:"city"`
	State          string         `json:"state"`
	Phone          string         `json:"phone,omitempty"`
	Email          string         `json:"email,omitempty"`
	GoogleRating   float64        `json:"google_rating,omitempty"`
	ReviewCount    int            `json:"review_count"`
	HasWebsite     bool           `json:"has_website"`
	WebsiteURL     string         `json:"website_url,omitempty"`
	WebsiteQuality WebsiteQuality `json:"website_quality"`
	LeadScore      int            `json:"lead_score"`
	Status         LeadStatus     `json:"status"`
	CallOutcome    CallOutcome    `json:"call_outcome,omitempty"`
	CallbackDate   *time.Time     `json:"callback_date,omitempty"`
	Tags           []string       `json:"tags,omitempty"`
	ClaimedBy      string         `json:"claimed_by,omitempty"`
	MapsURL        string         `json:"maps_url,omitempty"`

	// AlreadySaved flags a reconciled search result that matches a
	// persisted lead. It stays visible in the result list but is not
	// inserted again.
	AlreadySaved bool `json:"already_saved,omitempty"`

	// Version guards the read-modify-write rescore against concurrent
	// engagement events on the same lead.
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DailyPick is an ephemeral top-N snapshot of auto-discovered leads.
// The whole set is replaced on each discovery run, never merged.
type DailyPick struct {
	ID           string    `json:"id"`
	BusinessName string    `json:"business_name"`
	Category     string    `json:"category"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	Phone        string    `json:"phone,omitempty"`
	WebsiteURL   string    `json:"website_url,omitempty"`
	LeadScore    int       `json:"lead_score"`
	Rank         int       `json:"rank"`
	PickedAt     time.Time `json:"picked_at"`
}

package domain

import (
	"time"
)

// Status is the lifecycle state shared by every soft-deletable entity.
// Rows are never physically removed; a deleted row is only hidden from reads.
type Status int

const (
	StatusActive Status = iota
	StatusDeleted
)

func (s Status) String() string {
	if s == StatusDeleted {
		return "deleted"
	}
	return "active"
}

// Flags returns the persisted (is_active, is_deleted) pair for the status.
func (s Status) Flags() (isActive, isDeleted bool) {
	return s == StatusActive, s == StatusDeleted
}

// StatusFromFlags maps the persisted flag pair back to a Status.
// Any pair other than (true, false) is treated as deleted.
func StatusFromFlags(isActive, isDeleted bool) Status {
	if isActive && !isDeleted {
		return StatusActive
	}
	return StatusDeleted
}

// UserActionType discriminates what a UserAction groups.
type UserActionType int64

// UserActionSpotTag groups the tag edges of a spot.
const UserActionSpotTag UserActionType = 1

// Spot is a user-created geo-located place.
type Spot struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user"`
	Name        string    `json:"name"`
	Location    GeoPoint  `json:"location"`
	Country     string    `json:"country"`
	CountryCode string    `json:"country_code"`
	State       string    `json:"state"`
	City        string    `json:"city"`
	FullAddress string    `json:"full_address"`
	PostalCode  string    `json:"postal_code"`
	Status      Status    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// SpotInput carries the raw fields of a spot-creation request.
// Lat and Lng stay strings until validation so malformed values can be
// reported per field.
type SpotInput struct {
	UserID      int64    `json:"user"`
	Name        string   `json:"name"`
	Country     string   `json:"country"`
	CountryCode string   `json:"country_code"`
	State       string   `json:"state"`
	City        string   `json:"city"`
	FullAddress string   `json:"full_address"`
	PostalCode  string   `json:"postal_code"`
	Lat         string   `json:"lat"`
	Lng         string   `json:"lng"`
	TagList     []string `json:"tag_list,omitempty"`
}

// Tag is a reusable label attachable to spots.
type Tag struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Status    Status    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// TagRef is the (id, name) pair returned when listing the tags of a spot.
type TagRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UserAction anchors the edges of one spot for one action type.
type UserAction struct {
	ID     int64          `json:"id"`
	Type   UserActionType `json:"type_user_action"`
	SpotID int64          `json:"spot"`
	Status Status         `json:"-"`
}

// SpotTag is one (spot, tag) edge, addressed through its UserAction.
type SpotTag struct {
	ID           int64  `json:"id"`
	UserActionID int64  `json:"user_action"`
	TagID        int64  `json:"tag"`
	Status       Status `json:"-"`
}

// SpotDetails is a spot together with its active tags.
type SpotDetails struct {
	Spot Spot     `json:"spot"`
	Tags []TagRef `json:"tagList"`
}

// DetachResult reports what a tag detach touched.
type DetachResult struct {
	TagIDs    []int64 `json:"tag_ids"`
	Collected int     `json:"collected"`
}

// Address is the raw reverse-geocoding result. Each optional field is nil
// when the provider did not return it.
type Address struct {
	Country     *string
	CountryCode *string
	State       *string
	City        *string
	PostalCode  *string
	DisplayName *string
}

// PlaceInformation is the always-populated address derived from a coordinate.
type PlaceInformation struct {
	CountryName string `json:"country_name"`
	CountryCode string `json:"country_code"`
	StateName   string `json:"state_name"`
	CityName    string `json:"city_name"`
	PostalCode  string `json:"postal_code"`
	FullAddress string `json:"full_address"`
}

// Placeholders used when geocoding cannot supply a value.
const (
	UndefinedValue    = "undefined"
	UndefinedNotFound = "undefined. Not found information"
)

// SpotEvent is published when a spot is created or destroyed.
type SpotEvent struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	SpotID     int64     `json:"spot_id"`
	UserID     int64     `json:"user_id"`
	Name       string    `json:"name"`
	Location   GeoPoint  `json:"location"`
	TagIDs     []int64   `json:"tag_ids,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Spot event kinds.
const (
	SpotEventCreated = "created"
	SpotEventDeleted = "deleted"
)

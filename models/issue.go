package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	StatusPending = "pending"
	StatusSolved  = "solved"
)

// GeoPoint is a GeoJSON point; Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
}

func NewGeoPoint(lat, lon float64) *GeoPoint {
	return &GeoPoint{Type: "Point", Coordinates: []float64{lon, lat}}
}

func (p *GeoPoint) Latitude() float64  { return p.Coordinates[1] }
func (p *GeoPoint) Longitude() float64 { return p.Coordinates[0] }

// Issue is a citizen report with its image stored in S3 and metadata in MongoDB
type Issue struct {
	ID             bson.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID         string        `json:"user_id" bson:"user_id"`
	UserName       string        `json:"user_name,omitempty" bson:"user_name,omitempty"`
	Caption        string        `json:"caption" bson:"caption"`
	Category       string        `json:"category" bson:"category"`
	ImageKey       string        `json:"image_key" bson:"image_key"`
	ImageURL       string        `json:"image_url" bson:"image_url"`
	Location       *GeoPoint     `json:"location,omitempty" bson:"location,omitempty"`
	Address        string        `json:"address,omitempty" bson:"address,omitempty"`
	Status         string        `json:"status" bson:"status"`
	MunicipalReply string        `json:"municipal_reply,omitempty" bson:"municipal_reply,omitempty"`
	Deadline       *time.Time    `json:"deadline,omitempty" bson:"deadline,omitempty"`
	CreatedAt      time.Time     `json:"created_at" bson:"created_at"`
	SolvedAt       *time.Time    `json:"solved_at,omitempty" bson:"solved_at,omitempty"`
}

// Overdue reports whether a pending issue is past its desired resolution date.
func (i *Issue) Overdue(now time.Time) bool {
	return i.Status == StatusPending && i.Deadline != nil && now.After(*i.Deadline)
}

// IssueFilter selects issues for listing and reports. Zero values mean "any".
type IssueFilter struct {
	Status   string
	Category string
	UserID   string
	From     time.Time
	To       time.Time
	Page     int
	Limit    int
}

type IssueStats struct {
	Total           int64            `json:"total"`
	Pending         int64            `json:"pending"`
	Solved          int64            `json:"solved"`
	Overdue         int64            `json:"overdue"`
	ResolvedPercent float64          `json:"resolved_percent"`
	ByCategory      map[string]int64 `json:"by_category"`
	Monthly         []MonthlyStats   `json:"monthly"`
}

type MonthlyStats struct {
	Month   string `json:"month" bson:"_id"`
	Total   int64  `json:"total" bson:"total"`
	Solved  int64  `json:"solved" bson:"solved"`
	Pending int64  `json:"pending" bson:"pending"`
}

// IssueEvent is a live change notification for the issues collection.
type IssueEvent struct {
	Operation string `json:"operation"`
	IssueID   string `json:"issue_id"`
	Issue     *Issue `json:"issue,omitempty"`
}

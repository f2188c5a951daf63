package model

import "time"

// NoData is the sentinel shown when a statistic is undefined
const NoData = "-"

// ModeStat is the most frequent value and how often it occurs
type ModeStat struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// HistogramBar is the count for one scale value
type HistogramBar struct {
	Label int `json:"label"`
	Count int `json:"count"`
	// Width is Count relative to the tallest bar, 0-100
	Width float64 `json:"width"`
}

// RatingStats is the statistic bundle for one rating question
type RatingStats struct {
	QuestionID string         `json:"questionId"`
	Text       string         `json:"text"`
	ScaleMax   int            `json:"scaleMax"`
	Count      int            `json:"count"` // numeric values considered
	Average    string         `json:"average"`
	Median     string         `json:"median"`
	Mode       ModeStat       `json:"mode"`
	HighShare  string         `json:"highShare"`
	LowShare   string         `json:"lowShare"`
	Histogram  []HistogramBar `json:"histogram"`
}

// Comment is one non-empty text answer
type Comment struct {
	ResponseID string     `json:"responseId"`
	QuestionID string     `json:"questionId"`
	Text       string     `json:"text"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
}

// Dashboard is the full aggregated view handed to the presentation layer
type Dashboard struct {
	Generation     uint64        `json:"generation"`
	TotalResponses int           `json:"totalResponses"`
	HighThreshold  int           `json:"highThreshold"`
	LowThreshold   int           `json:"lowThreshold"`
	Questions      []Question    `json:"questions"`
	Ratings        []RatingStats `json:"ratings"`
	Comments       []Comment     `json:"comments"`
	SearchTerm     string        `json:"searchTerm,omitempty"`
	AccessPINSet   bool          `json:"accessPinSet"`
	ComputedAt     time.Time     `json:"computedAt"`
}

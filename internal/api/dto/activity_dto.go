package dto

import (
	"time"

	"github.com/spec-kit/squad-service/internal/domain"
)

// ActivityRequest payload for creating or replacing an activity.
type ActivityRequest struct {
	Type        domain.ActivityType `json:"type" validate:"required,activitytype"`
	Title       string              `json:"title" validate:"notblank,max=120"`
	Description string              `json:"description" validate:"max=2000"`
	Location    string              `json:"location" validate:"max=200"`
	Opponent    *string             `json:"opponent" validate:"omitempty,max=120"`
	StartsAt    time.Time           `json:"starts_at" validate:"required"`
	EndsAt      time.Time           `json:"ends_at" validate:"required,gtfield=StartsAt"`
}

// ActivityRangeQuery bounds activity listings.
type ActivityRangeQuery struct {
	From time.Time `json:"from" validate:"required"`
	To   time.Time `json:"to" validate:"required,gtfield=From"`
}

// ActivityResponse describes a calendar entry.
type ActivityResponse struct {
	ID          string              `json:"id"`
	TeamID      string              `json:"team_id"`
	Type        domain.ActivityType `json:"type"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Location    string              `json:"location"`
	Opponent    *string             `json:"opponent"`
	StartsAt    time.Time           `json:"starts_at"`
	EndsAt      time.Time           `json:"ends_at"`
	CreatedBy   string              `json:"created_by"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// CalendarBlock is an activity positioned on one day column.
type CalendarBlock struct {
	ActivityID    string  `json:"activity_id"`
	Title         string  `json:"title"`
	Type          string  `json:"type"`
	StartMinute   int     `json:"start_minute"`
	EndMinute     int     `json:"end_minute"`
	TopPercent    float64 `json:"top_percent"`
	HeightPercent float64 `json:"height_percent"`
	ClippedStart  bool    `json:"clipped_start"`
	ClippedEnd    bool    `json:"clipped_end"`
	Lane          int     `json:"lane"`
	Lanes         int     `json:"lanes"`
}

// CalendarDay is one column of the week grid.
type CalendarDay struct {
	Date   string          `json:"date"`
	Blocks []CalendarBlock `json:"blocks"`
}

// CalendarWeekResponse is the weekly grid plus the activities it shows.
type CalendarWeekResponse struct {
	WeekStart    string             `json:"week_start"`
	WeekEnd      string             `json:"week_end"`
	Timezone     string             `json:"timezone"`
	DayStartHour int                `json:"day_start_hour"`
	DayEndHour   int                `json:"day_end_hour"`
	Days         []CalendarDay      `json:"days"`
	Activities   []ActivityResponse `json:"activities"`
}

// Package calendar lays out team activities on a weekly grid. Positions are
// percentages of the visible day window so clients can render blocks with
// absolute CSS positioning.
package calendar

import (
	"math"
	"sort"
	"time"
)

// DaysPerWeek is the number of columns in the grid, Monday first.
const DaysPerWeek = 7

// DefaultMinHeightPercent keeps very short or clamped blocks clickable.
const DefaultMinHeightPercent = 2.5

// Options configures the visible window of every day column.
type Options struct {
	DayStartHour     int
	DayEndHour       int
	Location         *time.Location
	MinHeightPercent float64
}

func (o Options) normalized() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.DayStartHour < 0 || o.DayStartHour > 23 {
		o.DayStartHour = 0
	}
	if o.DayEndHour <= o.DayStartHour || o.DayEndHour > 24 {
		o.DayEndHour = 24
	}
	if o.MinHeightPercent <= 0 || o.MinHeightPercent > 100 {
		o.MinHeightPercent = DefaultMinHeightPercent
	}
	return o
}

// Item is anything with a time span that can be drawn on the grid.
type Item struct {
	ID    string
	Title string
	Kind  string
	Start time.Time
	End   time.Time
}

// Block is the per-day visual segment of an Item.
type Block struct {
	ItemID        string
	Title         string
	Kind          string
	Day           int
	StartMinute   int
	EndMinute     int
	TopPercent    float64
	HeightPercent float64
	ClippedStart  bool
	ClippedEnd    bool
	Lane          int
	Lanes         int

	start time.Time
	end   time.Time
}

// Day is one grid column.
type Day struct {
	Date   time.Time
	Blocks []Block
}

// Week is the laid-out grid.
type Week struct {
	Start        time.Time
	End          time.Time
	DayStartHour int
	DayEndHour   int
	Days         [DaysPerWeek]Day
}

// WeekStart returns Monday 00:00 of the week containing t, in loc.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	offset := (int(local.Weekday()) + 6) % 7
	y, m, d := local.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
}

// Range returns the [start, end) instant range covered by the week of t.
func Range(t time.Time, loc *time.Location) (time.Time, time.Time) {
	start := WeekStart(t, loc)
	return start, start.AddDate(0, 0, DaysPerWeek)
}

// Build positions items on the week that contains weekOf. Items are split at
// midnight; segments are clamped into the visible window of their day.
func Build(weekOf time.Time, items []Item, opts Options) Week {
	opts = opts.normalized()
	start, end := Range(weekOf, opts.Location)

	week := Week{
		Start:        start,
		End:          end,
		DayStartHour: opts.DayStartHour,
		DayEndHour:   opts.DayEndHour,
	}
	for d := 0; d < DaysPerWeek; d++ {
		week.Days[d] = Day{Date: start.AddDate(0, 0, d), Blocks: []Block{}}
	}

	for _, item := range items {
		if !item.End.After(item.Start) {
			continue
		}
		for d := 0; d < DaysPerWeek; d++ {
			dayStart := week.Days[d].Date
			dayEnd := dayStart.AddDate(0, 0, 1)
			block, ok := position(item, d, dayStart, dayEnd, opts)
			if ok {
				week.Days[d].Blocks = append(week.Days[d].Blocks, block)
			}
		}
	}

	for d := range week.Days {
		assignLanes(week.Days[d].Blocks)
	}
	return week
}

func position(item Item, day int, dayStart, dayEnd time.Time, opts Options) (Block, bool) {
	segStart := maxTime(item.Start, dayStart)
	segEnd := minTime(item.End, dayEnd)
	if !segEnd.After(segStart) {
		return Block{}, false
	}

	y, m, d := dayStart.Date()
	windowStart := time.Date(y, m, d, opts.DayStartHour, 0, 0, 0, opts.Location)
	windowEnd := time.Date(y, m, d, opts.DayEndHour, 0, 0, 0, opts.Location)
	windowLen := windowEnd.Sub(windowStart).Minutes()

	top := clamp(segStart.Sub(windowStart).Minutes()/windowLen*100, 0, 100)
	bottom := clamp(segEnd.Sub(windowStart).Minutes()/windowLen*100, 0, 100)
	if bottom-top < opts.MinHeightPercent {
		if top+opts.MinHeightPercent > 100 {
			top = 100 - opts.MinHeightPercent
			bottom = 100
		} else {
			bottom = top + opts.MinHeightPercent
		}
	}

	return Block{
		ItemID:        item.ID,
		Title:         item.Title,
		Kind:          item.Kind,
		Day:           day,
		StartMinute:   minutesSince(dayStart, segStart),
		EndMinute:     minutesSince(dayStart, segEnd),
		TopPercent:    round2(top),
		HeightPercent: round2(bottom - top),
		ClippedStart:  segStart.Before(windowStart) || item.Start.Before(dayStart),
		ClippedEnd:    segEnd.After(windowEnd) || item.End.After(dayEnd),
		Lane:          0,
		Lanes:         1,
		start:         segStart,
		end:           segEnd,
	}, true
}

// assignLanes gives overlapping blocks side-by-side lanes. Blocks that
// overlap transitively share the same lane count.
func assignLanes(blocks []Block) {
	if len(blocks) == 0 {
		return
	}
	sort.SliceStable(blocks, func(i, j int) bool {
		if !blocks[i].start.Equal(blocks[j].start) {
			return blocks[i].start.Before(blocks[j].start)
		}
		return blocks[i].end.After(blocks[j].end)
	})

	var (
		cluster    []int
		laneEnds   []time.Time
		clusterEnd time.Time
	)
	flush := func() {
		for _, idx := range cluster {
			blocks[idx].Lanes = len(laneEnds)
		}
		cluster = cluster[:0]
		laneEnds = laneEnds[:0]
	}

	for i := range blocks {
		if len(cluster) > 0 && !blocks[i].start.Before(clusterEnd) {
			flush()
		}
		lane := -1
		for l, laneEnd := range laneEnds {
			if !blocks[i].start.Before(laneEnd) {
				lane = l
				break
			}
		}
		if lane == -1 {
			lane = len(laneEnds)
			laneEnds = append(laneEnds, blocks[i].end)
		} else {
			laneEnds[lane] = blocks[i].end
		}
		blocks[i].Lane = lane
		cluster = append(cluster, i)
		if len(cluster) == 1 || blocks[i].end.After(clusterEnd) {
			clusterEnd = blocks[i].end
		}
	}
	flush()
}

func minutesSince(from, t time.Time) int {
	return int(t.Sub(from).Minutes())
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

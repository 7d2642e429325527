package calendar

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/gabedeluna/kambo-klarity/graph"
	"github.com/gabedeluna/kambo-klarity/models"
)

// slotGridMinutes is the step between candidate slot starts.
const slotGridMinutes = 30

// Service is the Google Calendar adapter: slot discovery against the
// practitioner's free/busy data plus event create/delete.
type Service struct {
	svc        *gcal.Service
	calendarID string
	timezone   *time.Location
	// bufferMinutes is the practitioner's configured gap between events.
	bufferMinutes int
	workdayStart  int
	workdayEnd    int
	logger        *zap.Logger
}

type Options struct {
	CredentialsFile string
	CalendarID      string
	Timezone        string
	BufferMinutes   int
	WorkdayStart    int
	WorkdayEnd      int
	Logger          *zap.Logger
}

func NewService(ctx context.Context, opts Options) (*Service, error) {
	svc, err := gcal.NewService(ctx, option.WithCredentialsFile(opts.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}
	loc, err := time.LoadLocation(opts.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar timezone %q: %w", opts.Timezone, err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		svc:           svc,
		calendarID:    opts.CalendarID,
		timezone:      loc,
		bufferMinutes: opts.BufferMinutes,
		workdayStart:  opts.WorkdayStart,
		workdayEnd:    opts.WorkdayEnd,
		logger:        logger,
	}, nil
}

// FindFreeSlots queries free/busy for the window and lays candidate slots of
// the requested duration onto a half-hour grid within working hours.
func (s *Service) FindFreeSlots(ctx context.Context, start, end time.Time, duration time.Duration) ([]models.Slot, error) {
	req := &gcal.FreeBusyRequest{
		TimeMin: start.Format(time.RFC3339),
		TimeMax: end.Format(time.RFC3339),
		Items:   []*gcal.FreeBusyRequestItem{{Id: s.calendarID}},
	}
	resp, err := s.svc.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, graph.NewToolError("free/busy query failed: %v", err)
	}

	cal, ok := resp.Calendars[s.calendarID]
	if !ok {
		return nil, graph.NewToolError("calendar %s missing from free/busy response", s.calendarID)
	}
	busy, err := parseBusyIntervals(cal.Busy)
	if err != nil {
		return nil, graph.NewToolError("unreadable busy interval: %v", err)
	}

	slots := buildFreeSlots(slotParams{
		windowStart:  start.In(s.timezone),
		windowEnd:    end.In(s.timezone),
		duration:     duration,
		busy:         busy,
		workdayStart: s.workdayStart,
		workdayEnd:   s.workdayEnd,
	})
	s.logger.Debug("free slot search complete",
		zap.Int("busyIntervals", len(busy)),
		zap.Int("slots", len(slots)))
	return slots, nil
}

// CreateEvent submits the event and returns the provider's event id. When
// the buffer between events is zero, the submitted end time is trimmed by
// one minute so the provider's free/busy view does not merge back-to-back
// sessions into one busy block. The booked duration the user sees is
// unaffected; only the calendar copy is shortened.
func (s *Service) CreateEvent(ctx context.Context, req graph.CalendarEventRequest) (string, error) {
	submittedEnd := adjustEventEnd(req.End, s.bufferMinutes)

	event := &gcal.Event{
		Summary:     req.Summary,
		Description: req.Description,
		Start: &gcal.EventDateTime{
			DateTime: req.Start.Format(time.RFC3339),
			TimeZone: s.timezone.String(),
		},
		End: &gcal.EventDateTime{
			DateTime: submittedEnd.Format(time.RFC3339),
			TimeZone: s.timezone.String(),
		},
	}
	created, err := s.svc.Events.Insert(s.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", graph.NewToolError("event insert failed: %v", err)
	}
	return created.Id, nil
}

// DeleteEvent removes a previously created event.
func (s *Service) DeleteEvent(ctx context.Context, eventID string) error {
	if err := s.svc.Events.Delete(s.calendarID, eventID).Context(ctx).Do(); err != nil {
		return graph.NewToolError("event delete failed: %v", err)
	}
	return nil
}

// adjustEventEnd trims the submitted end by one minute when no buffer is
// configured between events. With a real buffer the provider already keeps
// adjacent events distinct, so the end is left untouched.
func adjustEventEnd(end time.Time, bufferMinutes int) time.Time {
	if bufferMinutes == 0 {
		return end.Add(-time.Minute)
	}
	return end
}

type busyInterval struct {
	start time.Time
	end   time.Time
}

func parseBusyIntervals(periods []*gcal.TimePeriod) ([]busyInterval, error) {
	intervals := make([]busyInterval, 0, len(periods))
	for _, p := range periods {
		start, err := time.Parse(time.RFC3339, p.Start)
		if err != nil {
			return nil, err
		}
		end, err := time.Parse(time.RFC3339, p.End)
		if err != nil {
			return nil, err
		}
		intervals = append(intervals, busyInterval{start: start, end: end})
	}
	return intervals, nil
}

type slotParams struct {
	windowStart  time.Time
	windowEnd    time.Time
	duration     time.Duration
	busy         []busyInterval
	workdayStart int
	workdayEnd   int
}

// buildFreeSlots walks the window on a fixed grid and keeps every candidate
// that fits the working hours and overlaps no busy interval.
func buildFreeSlots(p slotParams) []models.Slot {
	var slots []models.Slot

	cursor := alignToGrid(p.windowStart)
	for ; cursor.Add(p.duration).Before(p.windowEnd) || cursor.Add(p.duration).Equal(p.windowEnd); cursor = cursor.Add(slotGridMinutes * time.Minute) {
		slotEnd := cursor.Add(p.duration)
		if cursor.Hour() < p.workdayStart || cursor.Hour() >= p.workdayEnd {
			continue
		}
		if slotEnd.Hour() > p.workdayEnd || (slotEnd.Hour() == p.workdayEnd && slotEnd.Minute() > 0) {
			continue
		}
		if overlapsAny(cursor, slotEnd, p.busy) {
			continue
		}
		slots = append(slots, models.Slot{Start: cursor, End: slotEnd})
	}
	return slots
}

// alignToGrid rounds up to the next grid step measured from local midnight,
// so zones whose UTC offset is not a multiple of the grid still get :00/:30
// local starts.
func alignToGrid(t time.Time) time.Time {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	step := slotGridMinutes * time.Minute
	aligned := midnight.Add(t.Sub(midnight).Truncate(step))
	if aligned.Before(t) {
		aligned = aligned.Add(step)
	}
	return aligned
}

func overlapsAny(start, end time.Time, busy []busyInterval) bool {
	for _, b := range busy {
		if start.Before(b.end) && b.start.Before(end) {
			return true
		}
	}
	return false
}

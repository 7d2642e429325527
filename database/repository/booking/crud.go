package bookingRepo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gabedeluna/kambo-klarity/models"
)

// Create inserts a new booking record and returns its ID.
func (r *mongoBookingRepo) Create(ctx context.Context, booking models.Booking) (string, error) {
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now()
	}
	if booking.Status == "" {
		booking.Status = models.BookingStatusConfirmed
	}

	if _, err := r.coll.InsertOne(ctx, booking); err != nil {
		return "", err
	}
	return booking.ID, nil
}

// GetByID returns a booking by its ID.
func (r *mongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// MarkLatestPendingCalendar flags the user's most recent confirmed booking
// as missing its calendar event so reconciliation can repair it.
func (r *mongoBookingRepo) MarkLatestPendingCalendar(ctx context.Context, telegramID string) error {
	opts := options.FindOneAndUpdate().SetSort(bson.M{"createdAt": -1})
	res := r.coll.FindOneAndUpdate(ctx,
		bson.M{"telegramId": telegramID, "status": models.BookingStatusConfirmed},
		bson.M{"$set": bson.M{"status": models.BookingStatusPendingCalendar}},
		opts,
	)
	if err := res.Err(); err != nil {
		return errors.New("no confirmed booking to flag for " + telegramID)
	}
	return nil
}

// PastSessionDates returns the start times of the user's previous bookings,
// newest first.
func (r *mongoBookingRepo) PastSessionDates(ctx context.Context, telegramID string) ([]time.Time, error) {
	opts := options.Find().SetSort(bson.M{"slot.start": -1})
	cursor, err := r.coll.Find(ctx, bson.M{"telegramId": telegramID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, err
	}
	dates := make([]time.Time, 0, len(bookings))
	for _, b := range bookings {
		dates = append(dates, b.Slot.Start)
	}
	return dates, nil
}

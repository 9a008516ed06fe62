// Package records keeps the local audit log of bookings submitted through
// this service. The upstream platform stays the source of truth for the
// appointments themselves; this log only answers "what did we book, when,
// for whom".
package records

import (
	"context"
	"time"

	"github.com/example/field-scheduler/internal/db"
)

type Booking struct {
	ID            int64
	UserID        int64
	AppointmentID string

	CustomerID    string
	CustomerName  string
	WorkTypeID    string
	WorkTypeName  string
	TerritoryID   string
	TerritoryName string
	ResourceID    string
	ResourceName  string

	Start   time.Time
	End     time.Time
	Subject string

	CreatedAt time.Time
}

type Repo struct{ db *db.DB }

func NewRepo(d *db.DB) *Repo { return &Repo{db: d} }

func (r *Repo) Create(ctx context.Context, b Booking) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
INSERT INTO bookings(user_id,appointment_id,customer_id,customer_name,work_type_id,work_type_name,territory_id,territory_name,resource_id,resource_name,starts_at,ends_at,subject)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
RETURNING id`,
		b.UserID, b.AppointmentID, b.CustomerID, b.CustomerName, b.WorkTypeID, b.WorkTypeName,
		b.TerritoryID, b.TerritoryName, b.ResourceID, b.ResourceName, b.Start, b.End, b.Subject,
	).Scan(&id)
	return id, db.WrapNotFound(err)
}

func (r *Repo) ListByUser(ctx context.Context, userID int64) ([]Booking, error) {
	rows, err := r.db.Query(ctx, `
SELECT id,user_id,appointment_id,customer_id,customer_name,work_type_id,work_type_name,territory_id,territory_name,resource_id,resource_name,starts_at,ends_at,subject,created_at
FROM bookings
WHERE user_id=$1
ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.AppointmentID, &b.CustomerID, &b.CustomerName,
			&b.WorkTypeID, &b.WorkTypeName, &b.TerritoryID, &b.TerritoryName,
			&b.ResourceID, &b.ResourceName, &b.Start, &b.End, &b.Subject, &b.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repo) GetByIDForUser(ctx context.Context, id, userID int64) (Booking, error) {
	var b Booking
	err := r.db.QueryRow(ctx, `
SELECT id,user_id,appointment_id,customer_id,customer_name,work_type_id,work_type_name,territory_id,territory_name,resource_id,resource_name,starts_at,ends_at,subject,created_at
FROM bookings
WHERE id=$1 AND user_id=$2`, id, userID).
		Scan(&b.ID, &b.UserID, &b.AppointmentID, &b.CustomerID, &b.CustomerName,
			&b.WorkTypeID, &b.WorkTypeName, &b.TerritoryID, &b.TerritoryName,
			&b.ResourceID, &b.ResourceName, &b.Start, &b.End, &b.Subject, &b.CreatedAt)
	if err != nil {
		return Booking{}, db.WrapNotFound(err)
	}
	return b, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/thera_backend/internal/domain"
	"github.com/Alijeyrad/thera_backend/internal/identity"
)

var fixedNow = time.Date(2030, 6, 3, 8, 0, 0, 0, time.UTC)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := New(db)
	s.now = func() time.Time { return fixedNow }
	return s, mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

func TestTranslate(t *testing.T) {
	assert.Nil(t, translate(nil))
	assert.ErrorIs(t, translate(sql.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, translate(&pq.Error{Code: "23505"}), ErrDuplicate)
	assert.ErrorIs(t, translate(&pq.Error{Code: "23P01"}), ErrOverlap)
	assert.ErrorIs(t, translate(&pq.Error{Code: "23503"}), ErrNotFound)

	other := errors.New("connection reset")
	assert.Equal(t, other, translate(other))
}

func TestPageNormalized(t *testing.T) {
	tests := []struct {
		in         Page
		wantLimit  uint
		wantOffset uint
	}{
		{Page{}, 20, 0},
		{Page{Page: 3, PerPage: 10}, 10, 20},
		{Page{Page: 2, PerPage: 500}, 20, 20},
		{Page{Page: -1, PerPage: 0}, 20, 0},
	}
	for _, tt := range tests {
		limit, offset := tt.in.limitOffset()
		assert.Equal(t, tt.wantLimit, limit, "%+v", tt.in)
		assert.Equal(t, tt.wantOffset, offset, "%+v", tt.in)
	}
}

func TestBookAppointmentInsertsWhenFree(t *testing.T) {
	s, mock := newMockStore(t)
	therapist, client := uuid.New(), uuid.New()
	start := fixedNow.Add(24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(q(`FROM "profiles"`) + ".*" + q("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(therapist.String()))
	mock.ExpectQuery(q(`SELECT "id" FROM "appointments"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(q(`INSERT INTO "appointments"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	a, err := s.BookAppointment(context.Background(), NewAppointment{
		ClientID: client, TherapistID: therapist, Start: start, End: start.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, a.Status)
	assert.Equal(t, domain.PaymentUnpaid, a.PaymentStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookAppointmentRejectsOverlap(t *testing.T) {
	s, mock := newMockStore(t)
	therapist := uuid.New()
	start := fixedNow.Add(24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(q("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(therapist.String()))
	mock.ExpectQuery(q(`SELECT "id" FROM "appointments"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	mock.ExpectRollback()

	_, err := s.BookAppointment(context.Background(), NewAppointment{
		ClientID: uuid.New(), TherapistID: therapist, Start: start, End: start.Add(time.Hour),
	})
	assert.ErrorIs(t, err, ErrOverlap)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookAppointmentExclusionViolation(t *testing.T) {
	s, mock := newMockStore(t)
	therapist := uuid.New()
	start := fixedNow.Add(24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(q("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(therapist.String()))
	mock.ExpectQuery(q(`SELECT "id" FROM "appointments"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(q(`INSERT INTO "appointments"`)).
		WillReturnError(&pq.Error{Code: "23P01"})
	mock.ExpectRollback()

	_, err := s.BookAppointment(context.Background(), NewAppointment{
		ClientID: uuid.New(), TherapistID: therapist, Start: start, End: start.Add(time.Hour),
	})
	assert.ErrorIs(t, err, ErrOverlap)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookAppointmentUnknownTherapist(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q("FOR UPDATE")).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := s.BookAppointment(context.Background(), NewAppointment{
		ClientID: uuid.New(), TherapistID: uuid.New(), Start: fixedNow, End: fixedNow.Add(time.Hour),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func appointmentRow(a domain.Appointment) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "client_id", "therapist_id", "start_time", "end_time", "status", "payment_status",
		"created_at", "updated_at", "cancelled_at", "completed_at",
	}).AddRow(
		a.ID.String(), a.ClientID.String(), a.TherapistID.String(), a.StartTime, a.EndTime,
		string(a.Status), string(a.PaymentStatus), a.CreatedAt, a.UpdatedAt, nil, nil,
	)
}

func TestTransitionAppointmentCompareAndSet(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery(q(`UPDATE "appointments" SET`) + ".*" + q(`"status" = $`) + ".*" + q("RETURNING")).
		WillReturnRows(appointmentRow(domain.Appointment{
			ID: id, ClientID: uuid.New(), TherapistID: uuid.New(),
			StartTime: fixedNow, EndTime: fixedNow.Add(time.Hour),
			Status: domain.StatusConfirmed, PaymentStatus: domain.PaymentUnpaid,
			CreatedAt: fixedNow, UpdatedAt: fixedNow,
		}))

	a, err := s.TransitionAppointment(context.Background(), id, domain.StatusPending, domain.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, a.Status)

	// The row moved on concurrently: nothing matches.
	mock.ExpectQuery(q(`UPDATE "appointments"`)).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = s.TransitionAppointment(context.Background(), id, domain.StatusPending, domain.StatusCancelled)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAppointmentsViewFiltersBeforePaging(t *testing.T) {
	s, mock := newMockStore(t)
	client := uuid.New()
	future := domain.Appointment{
		ID: uuid.New(), ClientID: client, TherapistID: uuid.New(),
		StartTime: fixedNow.Add(48 * time.Hour), EndTime: fixedNow.Add(49 * time.Hour),
		Status: domain.StatusPending, PaymentStatus: domain.PaymentUnpaid,
		CreatedAt: fixedNow, UpdatedAt: fixedNow,
	}

	mock.ExpectQuery(q(`FROM "appointments" WHERE`) + ".*" +
		q(`("start_time" > $`) + ".*" + q(`("status" != $`) + ".*" +
		q(`ORDER BY "start_time" ASC, "id" ASC LIMIT $`)).
		WillReturnRows(appointmentRow(future))

	up, err := s.ListAppointments(context.Background(), AppointmentFilter{
		ClientID: &client, View: ViewUpcoming, Now: fixedNow,
	})
	require.NoError(t, err)
	require.Len(t, up, 1)
	assert.Equal(t, future.ID, up[0].ID)

	mock.ExpectQuery(q(`FROM "appointments" WHERE`) + ".*" +
		q(`("start_time" <= $`) + ".*" + q(`OR ("status" = $`) + ".*" +
		q(`ORDER BY "start_time" DESC, "id" DESC LIMIT $`)).
		WillReturnRows(sqlmock.NewRows(nil))

	past, err := s.ListAppointments(context.Background(), AppointmentFilter{
		ClientID: &client, View: ViewPast, Now: fixedNow,
	})
	require.NoError(t, err)
	assert.Empty(t, past)

	_, err = s.ListAppointments(context.Background(), AppointmentFilter{View: "later"})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyBillingEventReplayIsNoop(t *testing.T) {
	s, mock := newMockStore(t)
	uid := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(q(`INSERT INTO "billing_events"`) + ".*" + q("ON CONFLICT DO NOTHING")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	applied, err := s.ApplyBillingEvent(context.Background(), BillingEffect{
		EventID: "evt_1", EventType: "checkout.session.completed", ActivateSubscriptionFor: &uid,
	})
	require.NoError(t, err)
	assert.False(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyBillingEventActivatesSubscription(t *testing.T) {
	s, mock := newMockStore(t)
	uid := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(q(`INSERT INTO "billing_events"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(`UPDATE "profiles" SET`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	applied, err := s.ApplyBillingEvent(context.Background(), BillingEffect{
		EventID: "evt_2", EventType: "checkout.session.completed", ActivateSubscriptionFor: &uid,
	})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyBillingEventRecordsPayment(t *testing.T) {
	s, mock := newMockStore(t)
	uid, appt := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(q(`INSERT INTO "billing_events"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(`UPDATE "appointments" SET`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(`INSERT INTO "payments"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	applied, err := s.ApplyBillingEvent(context.Background(), BillingEffect{
		EventID: "evt_3", EventType: "checkout.session.completed", MarkPaid: &appt,
		Payment: &NewPayment{UserID: uid, AppointmentID: &appt, Description: "Session fee", AmountCents: 8000, Currency: "gbp"},
	})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPaymentsNewestFirst(t *testing.T) {
	s, mock := newMockStore(t)
	uid, appt := uuid.New(), uuid.New()

	mock.ExpectQuery(q(`FROM "payments" WHERE ("user_id" = $1) ORDER BY "created_at" DESC, "id" DESC`)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "appointment_id", "description", "amount_cents", "currency", "created_at",
		}).
			AddRow(uuid.NewString(), uid.String(), appt.String(), "Session fee", int64(8000), "gbp", fixedNow).
			AddRow(uuid.NewString(), uid.String(), nil, "Subscription", int64(1500), "gbp", fixedNow.Add(-time.Hour)))

	list, err := s.ListPayments(context.Background(), uid, Page{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NotNil(t, list[0].AppointmentID)
	assert.Equal(t, appt, *list[0].AppointmentID)
	assert.Nil(t, list[1].AppointmentID)
	assert.Equal(t, int64(1500), list[1].AmountCents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedScopedToGroup(t *testing.T) {
	s, mock := newMockStore(t)
	group := "mothers"

	mock.ExpectQuery(q(`"p"."group_id"`) + ".*" + q(`WHERE ("p"."group_id" = $`)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "author_id", "full_name", "group_id", "body", "gratitude_count", "created_at", "has_given",
		}).AddRow(uuid.NewString(), uuid.NewString(), "Ana", group, "small win", 2, fixedNow, true))

	posts, err := s.Feed(context.Background(), uuid.New(), &group, Page{})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.NotNil(t, posts[0].GroupID)
	assert.Equal(t, group, *posts[0].GroupID)
	assert.True(t, posts[0].HasGivenGratitude)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertPostUnknownGroup(t *testing.T) {
	s, mock := newMockStore(t)
	group := "gardening"

	mock.ExpectExec(q(`INSERT INTO "posts"`)).WillReturnError(&pq.Error{Code: "23503"})

	_, err := s.InsertPost(context.Background(), uuid.New(), &group, "hello")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestToggleGratitudeAdds(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(q(`DELETE FROM "post_gratitude"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q(`INSERT INTO "post_gratitude"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q(`UPDATE "posts"`) + ".*" + q("gratitude_count + ")).
		WillReturnRows(sqlmock.NewRows([]string{"gratitude_count"}).AddRow(4))
	mock.ExpectCommit()

	given, count, err := s.ToggleGratitude(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.True(t, given)
	assert.Equal(t, 4, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleGratitudeRemoves(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(q(`DELETE FROM "post_gratitude"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q(`UPDATE "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"gratitude_count"}).AddRow(3))
	mock.ExpectCommit()

	given, count, err := s.ToggleGratitude(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.False(t, given)
	assert.Equal(t, 3, count)
}

func TestCreateAccountDuplicateEmail(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(q(`INSERT INTO "accounts"`)).WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	_, err := s.CreateAccount(context.Background(), NewAccount{
		Email: "Ada@Example.com", PasswordHash: "h", FullName: "Ada", Role: identity.RoleClient,
	})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAccountTherapistGetsDefaultAvailability(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(q(`INSERT INTO "accounts"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(`INSERT INTO "profiles"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	acc, err := s.CreateAccount(context.Background(), NewAccount{
		Email: " Grace@Example.com ", PasswordHash: "h", FullName: "Grace", Role: identity.RoleTherapist,
	})
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", acc.Email)
	assert.True(t, acc.Role.IsTherapist())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProfileScansArraysAndAvailability(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()

	rows := sqlmock.NewRows([]string{
		"id", "role", "full_name", "email", "avatar_url", "phone", "bio", "specialties",
		"hourly_rate_cents", "timezone", "availability", "subscription_status", "created_at", "updated_at",
	}).AddRow(
		id.String(), "therapist", "Grace Hopper", "grace@example.com", nil, "+447400123456", "CBT", "{anxiety,grief}",
		int64(9000), "Europe/London", `{"monday":{"enabled":true,"ranges":[{"start":"10:00","end":"12:00"}]}}`,
		"active", fixedNow, fixedNow,
	)
	mock.ExpectQuery(q(`FROM "profiles"`)).WillReturnRows(rows)

	p, err := s.GetProfile(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, p.Role.IsTherapist())
	assert.Equal(t, []string{"anxiety", "grief"}, p.Specialties)
	assert.Nil(t, p.AvatarURL)
	require.NotNil(t, p.Phone)
	require.NotNil(t, p.HourlyRateCents)
	assert.Equal(t, int64(9000), *p.HourlyRateCents)
	require.NotNil(t, p.Availability)
	assert.True(t, p.Availability.Monday.Enabled)
	assert.False(t, p.Availability.Tuesday.Enabled)
	assert.Equal(t, domain.SubscriptionActive, p.SubscriptionStatus)
}

func TestGetProfileNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(q(`FROM "profiles"`)).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetProfile(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConversationMarksReadThenLists(t *testing.T) {
	s, mock := newMockStore(t)
	viewer, other := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(q(`UPDATE "messages" SET`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q(`FROM "messages"`)).WillReturnRows(
		sqlmock.NewRows([]string{"id", "sender_id", "receiver_id", "body", "is_read", "created_at"}).
			AddRow(uuid.NewString(), other.String(), viewer.String(), "hello", true, fixedNow).
			AddRow(uuid.NewString(), viewer.String(), other.String(), "hi", false, fixedNow.Add(time.Minute)),
	)
	mock.ExpectCommit()

	msgs, err := s.Conversation(context.Background(), viewer, other)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].IsRead)
	assert.Equal(t, "hi", msgs[1].Body)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertSubscriberDuplicate(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(q(`INSERT INTO "newsletter_subscribers"`)).WillReturnError(&pq.Error{Code: "23505"})

	_, err := s.InsertSubscriber(context.Background(), "a@b.c", "hash")
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUnassignWithoutActiveAssignment(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(q(`UPDATE "assignments"`) + ".*" + q(`"ended_at" IS NULL`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Unassign(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

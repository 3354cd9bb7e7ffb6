package order

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock, redismock.ClientMock) {
	t.Helper()
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rdc, rdMock := redismock.NewClientMock()
	return NewStore(db, rdc), dbMock, rdMock
}

func orderColumns() []string {
	return []string{"id", "number", "user_id", "user_name", "courier_id",
		"status", "delivery_status", "total", "created_at", "updated_at"}
}

func TestUpdateStatus_AppliesTransition(t *testing.T) {
	s, dbMock, _ := newTestStore(t)
	now := time.Now().UTC()

	dbMock.ExpectBegin()
	dbMock.ExpectQuery(`SELECT status FROM orders WHERE id = \$1 FOR UPDATE`).
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(StatusConfirmed))
	dbMock.ExpectQuery(`UPDATE orders SET status`).
		WithArgs("o1", StatusPreparing, "", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(orderColumns()).
			AddRow("o1", "RB-0001", "u1", "Ana", "", StatusPreparing, "", 23.9, now, now))
	dbMock.ExpectCommit()

	o, prev, err := s.UpdateStatus(context.Background(), "o1", StatusPreparing, "")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, prev)
	assert.Equal(t, StatusPreparing, o.Status)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestUpdateStatus_TerminalOrderRefusesTransition(t *testing.T) {
	s, dbMock, _ := newTestStore(t)

	dbMock.ExpectBegin()
	dbMock.ExpectQuery(`SELECT status FROM orders WHERE id = \$1 FOR UPDATE`).
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(StatusDelivered))
	dbMock.ExpectRollback()

	_, _, err := s.UpdateStatus(context.Background(), "o1", StatusPreparing, "")
	assert.ErrorIs(t, err, ErrOrderClosed)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestUpdateStatus_UnknownOrder(t *testing.T) {
	s, dbMock, _ := newTestStore(t)

	dbMock.ExpectBegin()
	dbMock.ExpectQuery(`SELECT status FROM orders WHERE id = \$1 FOR UPDATE`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	dbMock.ExpectRollback()

	_, _, err := s.UpdateStatus(context.Background(), "missing", StatusPreparing, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	s, _, _ := newTestStore(t)

	_, _, err := s.UpdateStatus(context.Background(), "o1", "teleported", "")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestAssignCourier_BindsCourier(t *testing.T) {
	s, dbMock, _ := newTestStore(t)
	now := time.Now().UTC()

	dbMock.ExpectQuery(`UPDATE orders SET courier_id`).
		WithArgs("o1", "d1", DeliveryAssigned, sqlmock.AnyArg(), StatusDelivered, StatusCancelled).
		WillReturnRows(sqlmock.NewRows(orderColumns()).
			AddRow("o1", "RB-0001", "u1", "Ana", "d1", StatusConfirmed, DeliveryAssigned, 23.9, now, now))

	o, err := s.AssignCourier(context.Background(), "o1", "d1")
	require.NoError(t, err)
	assert.Equal(t, "d1", o.CourierID)
	assert.Equal(t, DeliveryAssigned, o.DeliveryStatus)
}

func TestAssignCourier_UnknownOrder(t *testing.T) {
	s, dbMock, _ := newTestStore(t)

	dbMock.ExpectQuery(`UPDATE orders SET courier_id`).
		WithArgs("missing", "d1", DeliveryAssigned, sqlmock.AnyArg(), StatusDelivered, StatusCancelled).
		WillReturnRows(sqlmock.NewRows(orderColumns()))
	dbMock.ExpectQuery(`SELECT status FROM orders WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	_, err := s.AssignCourier(context.Background(), "missing", "d1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssignCourier_TerminalOrder(t *testing.T) {
	s, dbMock, _ := newTestStore(t)

	dbMock.ExpectQuery(`UPDATE orders SET courier_id`).
		WithArgs("o1", "d1", DeliveryAssigned, sqlmock.AnyArg(), StatusDelivered, StatusCancelled).
		WillReturnRows(sqlmock.NewRows(orderColumns()))
	dbMock.ExpectQuery(`SELECT status FROM orders WHERE id = \$1`).
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(StatusDelivered))

	_, err := s.AssignCourier(context.Background(), "o1", "d1")
	assert.ErrorIs(t, err, ErrOrderClosed)
}

func TestGet_ServesActiveOrderFromSnapshot(t *testing.T) {
	s, dbMock, rdMock := newTestStore(t)

	rdMock.ExpectHGetAll("ord:o1").SetVal(map[string]string{
		"num": "RB-0001",
		"uid": "u1",
		"un":  "Ana",
		"cid": "",
		"st":  StatusPreparing,
		"ds":  "",
		"tot": "23.9",
		"ca":  "1700000000",
		"ua":  "1700000100",
	})

	o, err := s.Get(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, StatusPreparing, o.Status)
	assert.Equal(t, "RB-0001", o.Number)
	assert.Equal(t, 23.9, o.Total)
	assert.NoError(t, dbMock.ExpectationsWereMet(), "fast path must not touch Postgres")
}

func TestGet_FallsBackToPostgres(t *testing.T) {
	s, dbMock, rdMock := newTestStore(t)
	now := time.Now().UTC()

	rdMock.ExpectHGetAll("ord:o1").SetVal(map[string]string{})
	dbMock.ExpectQuery(`SELECT id, number, user_id, user_name, courier_id`).
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows(orderColumns()).
			AddRow("o1", "RB-0001", "u1", "Ana", "", StatusDelivered, "", 23.9, now, now))

	o, err := s.Get(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, o.Status)
}

func TestGet_UnknownOrder(t *testing.T) {
	s, dbMock, rdMock := newTestStore(t)

	rdMock.ExpectHGetAll("ord:missing").SetVal(map[string]string{})
	dbMock.ExpectQuery(`SELECT id, number, user_id, user_name, courier_id`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(orderColumns()))

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNextNumber_Formats(t *testing.T) {
	s, _, rdMock := newTestStore(t)

	rdMock.ExpectIncr("ord:seq").SetVal(42)

	num, err := s.NextNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "RB-0042", num)
}

func TestDeliveryTimer(t *testing.T) {
	s, _, rdMock := newTestStore(t)

	rdMock.ExpectSet("ord_t:o1", 1, 45*time.Minute).SetVal("OK")
	require.NoError(t, s.ArmDeliveryTimer(context.Background(), "o1", 45*time.Minute))

	rdMock.ExpectDel("ord_t:o1").SetVal(1)
	require.NoError(t, s.ClearDeliveryTimer(context.Background(), "o1"))

	assert.NoError(t, rdMock.ExpectationsWereMet())
}

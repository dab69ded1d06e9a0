package lending

import (
	"context"
	"errors"
	"testing"

	"itlend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// querierMock embeds the interface; only the methods a test sets are usable.
type querierMock struct {
	Querier
	existsFn func(ctx context.Context, model any, id uint) (bool, error)
}

func (m *querierMock) Exists(ctx context.Context, model any, id uint) (bool, error) {
	return m.existsFn(ctx, model, id)
}

func exists(found bool, err error) *querierMock {
	return &querierMock{existsFn: func(context.Context, any, uint) (bool, error) { return found, err }}
}

func TestGuardWrite(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	var g Guard

	t.Run("applied", func(t *testing.T) {
		err := g.Write(ctx, exists(false, nil), &models.Laptop{}, EntityLaptop, 1, func() (bool, error) { return true, nil })
		require.NoError(t, err)
	})

	t.Run("stale version", func(t *testing.T) {
		err := g.Write(ctx, exists(true, nil), &models.Laptop{}, EntityLaptop, 1, func() (bool, error) { return false, nil })
		var ce *ConflictError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, EntityLaptop, ce.Entity)
		assert.Equal(t, uint(1), ce.ID)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("row gone", func(t *testing.T) {
		err := g.Write(ctx, exists(false, nil), &models.Booking{}, EntityBooking, 9, func() (bool, error) { return false, nil })
		var nf *NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "9", nf.Key)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("duplicate key", func(t *testing.T) {
		err := g.Write(ctx, exists(true, nil), &models.Booking{}, EntityBooking, 2, func() (bool, error) { return false, ErrDuplicateKey })
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("store failure", func(t *testing.T) {
		err := g.Write(ctx, exists(true, nil), &models.Booking{}, EntityBooking, 2, func() (bool, error) { return false, boom })
		assert.ErrorIs(t, err, boom)

		err = g.Write(ctx, exists(false, boom), &models.Booking{}, EntityBooking, 2, func() (bool, error) { return false, nil })
		assert.ErrorIs(t, err, boom)
	})
}

func TestGuardUnique(t *testing.T) {
	var g Guard
	assert.NoError(t, g.Unique(FieldUsername, false, 0, 0))
	assert.NoError(t, g.Unique(FieldUsername, true, 4, 4))

	err := g.Unique(FieldUsername, true, 4, 0)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, FieldUsername, ve.Field)

	require.ErrorAs(t, g.Insert(FieldEmail, ErrDuplicateKey), &ve)
	assert.Equal(t, FieldEmail, ve.Field)
	assert.NoError(t, g.Insert(FieldEmail, nil))
}

func TestInfrastructureErrorHidesCause(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.5:5432: connection refused")
	err := infra("create booking", cause)

	assert.Equal(t, "create booking: infrastructure failure", err.Error())
	assert.ErrorIs(t, err, ErrInfrastructure)
	assert.ErrorIs(t, err, cause)

	// 领域错误原样透传
	ve := &ValidationError{Field: FieldID, Reason: "x"}
	assert.Same(t, ve, infra("op", ve))
	assert.Nil(t, infra("op", nil))
}

func TestCheckReportsJSONFieldNames(t *testing.T) {
	err := check(BookingInput{LaptopIdentificationNumber: "SN-1"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, FieldStudentUsername, ve.Field)
	assert.Equal(t, "is required", ve.Reason)

	err = check(TeacherInput{Email: "not-an-email"})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, FieldEmail, ve.Field)
}

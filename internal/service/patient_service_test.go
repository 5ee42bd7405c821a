package service

import (
	"context"
	"errors"
	"testing"

	"healthmon/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreatePatient(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewPatientService(store.Patients(), zap.NewNop())
	ctx := context.Background()

	_, err := svc.CreatePatient(ctx, MapFields{"name": "", "age": "40"})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "name", ve.Field)

	_, err = svc.CreatePatient(ctx, MapFields{"name": "   "})
	assert.True(t, IsValidation(err))

	id, err := svc.CreatePatient(ctx, MapFields{"name": " Jane Doe ", "age": "40"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)

	list, err := svc.ListPatients(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Jane Doe", list[1].Name)
	assert.Equal(t, 40, *list[1].Age)
}

func TestCreatePatient_AgeOptional(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewPatientService(store.Patients(), zap.NewNop())

	id, err := svc.CreatePatient(context.Background(), MapFields{"name": "No Age"})
	require.NoError(t, err)

	list, _ := svc.ListPatients(context.Background())
	assert.Equal(t, id, list[1].ID)
	assert.Nil(t, list[1].Age)

	_, err = svc.CreatePatient(context.Background(), MapFields{"name": "Bad Age", "age": "forty"})
	var pe *PayloadError
	assert.True(t, errors.As(err, &pe))
}

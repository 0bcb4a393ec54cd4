//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"hostguard/internal/directory/models"
	"hostguard/internal/directory/store"
	id "hostguard/pkg/domain"
	"hostguard/pkg/platform/sentinel"
	"hostguard/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(),
		"verification_request_incidents", "verification_requests", "security_incidents",
		"client_contacts", "client_name_aliases", "clients")
	s.Require().NoError(err)
}

func newClient(idNumber, first string) *models.Client {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Client{
		ID:        id.ClientID(uuid.New()),
		FirstName: first,
		IDNumber:  idNumber,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TestConcurrentIDNumberCollision verifies the unique index admits exactly one
// client per id number.
func (s *PostgresStoreSuite) TestConcurrentIDNumberCollision() {
	ctx := context.Background()
	const goroutines = 30
	var wg sync.WaitGroup
	var created, conflicts atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Create(ctx, newClient("12345678", "Race"))
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), created.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}

func (s *PostgresStoreSuite) TestEmptyIDNumberStoredAsNull() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, newClient("", "A")))
	s.Require().NoError(s.store.Create(ctx, newClient("", "B")))

	got, err := s.store.FindByIDNumber(ctx, "")
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *PostgresStoreSuite) TestFillBlankNames() {
	ctx := context.Background()
	c := newClient("87654321", "Keep")
	s.Require().NoError(s.store.Create(ctx, c))

	updated, err := s.store.FillBlankNames(ctx, &models.Client{ID: c.ID, FirstName: "Replace", LastName: "Added", UpdatedAt: time.Now()})
	s.Require().NoError(err)
	s.Equal("Keep", updated.FirstName)
	s.Equal("Added", updated.LastName)
}

func (s *PostgresStoreSuite) TestUpsertContactReplaces() {
	ctx := context.Background()
	c := newClient("11112222", "Contact")
	s.Require().NoError(s.store.Create(ctx, c))

	for _, v := range []string{"254700000001", "254700000002"} {
		_, err := s.store.UpsertContact(ctx, &models.ClientContact{
			ID: id.ContactID(uuid.New()), ClientID: c.ID, Type: models.ContactPhone, Value: v,
			CreatedAt: time.Now(), UpdatedAt: time.Now(),
		})
		s.Require().NoError(err)
	}

	contacts, err := s.store.ListContacts(ctx, c.ID)
	s.Require().NoError(err)
	s.Require().Len(contacts, 1)
	s.Equal("254700000002", contacts[0].Value)
}

func (s *PostgresStoreSuite) TestListByNameOrder() {
	ctx := context.Background()
	first := newClient("30000001", "Order")
	second := newClient("30000002", "ORDER")
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	s.Require().NoError(s.store.Create(ctx, first))
	s.Require().NoError(s.store.Create(ctx, second))

	got, err := s.store.ListByName(ctx, "order", "")
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(first.ID, got[0].ID)
}

//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sigcerh/internal/audit"
	"sigcerh/internal/platform/postgres"
	"sigcerh/internal/request/models"
	id "sigcerh/pkg/domain"
	"sigcerh/pkg/platform/sentinel"
	"sigcerh/pkg/platform/tx"
	"sigcerh/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg     *containers.PostgresContainer
	store  *PostgresStore
	audit  *audit.PostgresStore
	runner *tx.SQLRunner
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.Require().NoError(postgres.Migrate(context.Background(), s.pg.DB))
	s.store = NewPostgres(s.pg.DB)
	s.audit = audit.NewPostgres(s.pg.DB)
	s.runner = tx.NewSQLRunner(s.pg.DB, 5*time.Second)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(context.Background(), "audit_entries", "requests"))
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	r := newRequest(&s.Suite, "SIG-2024-0000PG01", now)
	recordID := id.NewRecordID()
	r.LinkRecord(recordID, now)
	s.Require().NoError(s.store.Create(ctx, r))

	got, err := s.store.FindByTrackingCode(ctx, r.TrackingCode)
	s.Require().NoError(err)
	s.Equal(r.ID, got.ID)
	s.Equal(models.StateRegistered, got.State)
	s.Require().NotNil(got.RecordID)
	s.Equal(recordID, *got.RecordID)
	s.True(got.Milestones.Submission.Reached())
	s.False(got.Milestones.Delivery.Reached())

	s.ErrorIs(s.store.Create(ctx, r), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestUpdateIsCompareAndSet() {
	ctx := context.Background()
	r := newRequest(&s.Suite, "SIG-2024-0000PG02", time.Now().UTC())
	s.Require().NoError(s.store.Create(ctx, r))

	r.ApplyTransition(models.StateDerivedToEditor, "mesa-1", "", nil, time.Now().UTC())
	s.Require().NoError(s.store.Update(ctx, r, 1))
	s.Equal(2, r.Version)

	s.ErrorIs(s.store.Update(ctx, r, 1), sentinel.ErrConflict)

	missing := newRequest(&s.Suite, "SIG-2024-0000PG03", time.Now().UTC())
	s.ErrorIs(s.store.Update(ctx, missing, 1), sentinel.ErrNotFound)

	listed, err := s.store.ListByState(ctx, models.StateDerivedToEditor, 10)
	s.Require().NoError(err)
	s.Len(listed, 1)
}

func (s *PostgresStoreSuite) TestAuditAppendRequiresTransaction() {
	ctx := context.Background()
	r := newRequest(&s.Suite, "SIG-2024-0000PG04", time.Now().UTC())
	s.Require().NoError(s.store.Create(ctx, r))

	entry := audit.NewEntry(r.ID, "", models.StateRegistered, "citizen-1", models.RolePublic, "", nil, time.Now().UTC())
	s.ErrorIs(s.audit.Append(ctx, entry), sentinel.ErrOutsideUnit)

	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.audit.Append(ctx, entry); err != nil {
			return err
		}
		next := audit.NewEntry(r.ID, models.StateRegistered, models.StateDerivedToEditor, "mesa-1", models.RoleMesaDePartes, "",
			map[string]string{"editor_id": "editor-4"}, time.Now().UTC())
		return s.audit.Append(ctx, next)
	})
	s.Require().NoError(err)

	entries, err := s.audit.ListByRequest(ctx, r.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Less(entries[0].Seq, entries[1].Seq)
	s.Nil(entries[0].FromState)
	s.Equal("editor-4", entries[1].Metadata["editor_id"])

	_, err = s.pg.DB.ExecContext(ctx, `DELETE FROM audit_entries WHERE request_id = $1`, r.ID.String())
	s.Error(err, "audit entries are append-only")
}

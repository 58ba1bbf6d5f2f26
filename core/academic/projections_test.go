package academic_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/academic"
	"github.com/trezcool/academia/core/account"
	"github.com/trezcool/academia/tests"
)

// accountlessStore fails every account lookup but the actor's with `err`.
type accountlessStore struct {
	academic.Store
	actorID int
	err     error
}

type accountlessRepo struct {
	academic.Repository
	actorID int
	err     error
}

func (s accountlessStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repo academic.Repository) error) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, repo academic.Repository) error {
		return fn(ctx, accountlessRepo{Repository: repo, actorID: s.actorID, err: s.err})
	})
}

func (r accountlessRepo) GetAccount(ctx context.Context, id int) (account.Account, error) {
	if id == r.actorID {
		return r.Repository.GetAccount(ctx, id)
	}
	return account.Account{}, r.err
}

func TestProjections_placeholders(t *testing.T) {
	_, store, w := setup(t)
	ctx := context.Background()

	_, err := testutil.NewService(store, new(testutil.Mailbox)).RecordAttendance(ctx, w.Admin, academic.NewAttendance{
		StudentID: w.Std1.ID, ClassGroupID: w.GroupA.ID, Date: today, Present: true,
	})
	require.NoError(t, err)

	svc := testutil.NewService(accountlessStore{Store: store, actorID: w.AdminAccount.ID, err: core.NewNotFoundError(academic.EntityAccount, 0)}, nil)

	std, err := svc.GetStudent(ctx, w.Admin, w.Std1.ID)
	require.NoError(t, err)
	assert.Equal(t, academic.PlaceholderName, std.FullName)
	assert.Empty(t, std.Email)
	assert.Equal(t, "CS-A", std.ClassGroupName)

	unenrolled, err := svc.GetStudent(ctx, w.Admin, w.Std3.ID)
	require.NoError(t, err)
	assert.Equal(t, academic.UnassignedName, unenrolled.ClassGroupName)
	assert.Equal(t, academic.UnassignedName, unenrolled.CourseName)

	crs, err := svc.GetCourse(ctx, w.Admin, w.CourseA.ID)
	require.NoError(t, err)
	assert.Equal(t, academic.PlaceholderName, crs.InstructorName)

	rows, err := svc.ListAttendance(ctx, w.Admin, academic.AttendanceQuery{})
	require.NoError(t, err)
	if assert.Len(t, rows, 1) {
		assert.Equal(t, academic.PlaceholderName, rows[0].StudentName)
		assert.Equal(t, "CS-A", rows[0].ClassGroupName)
	}

	sbj, err := svc.GetSubject(ctx, w.Admin, w.SubjectA.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{academic.PlaceholderName}, sbj.InstructorNames)
}

func TestProjections_storageError(t *testing.T) {
	_, store, w := setup(t)
	ctx := context.Background()

	down := core.NewUnavailableError(errors.New("connection refused"))
	svc := testutil.NewService(accountlessStore{Store: store, actorID: w.AdminAccount.ID, err: down}, nil)

	_, err := svc.ListStudents(ctx, w.Admin, academic.StudentQuery{})
	assert.True(t, core.IsKind(err, core.KindUnavailable), "error: %v", err)
}

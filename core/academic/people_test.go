package academic_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/academic"
	"github.com/trezcool/academia/core/account"
	inmemdb "github.com/trezcool/academia/storage/database/inmem"
	"github.com/trezcool/academia/tests"
)

func newAccount(email string) account.NewAccount {
	return account.NewAccount{Email: email, Password: "s3cr3t-pass", FirstName: "Dana", LastName: "Scully"}
}

func TestService_CreateStudent(t *testing.T) {
	store := inmemdb.NewStore(inmemdb.NewDB())
	w := testutil.NewWorld(t, store)
	mailbox := new(testutil.Mailbox)
	svc := testutil.NewService(store, mailbox)
	ctx := context.Background()

	tests := []struct {
		name      string
		actor     academic.Actor
		input     academic.NewStudent
		wantCode  string // empty for the default code
		wantGroup string
		wantKind  core.Kind
	}{
		{
			name:      "defaults",
			actor:     w.Admin,
			input:     academic.NewStudent{NewAccount: newAccount("dana@academia.local")},
			wantGroup: academic.UnassignedName,
		},
		{
			name:      "enrolled, with code",
			actor:     w.Admin,
			input:     academic.NewStudent{NewAccount: newAccount(" Dana@academia.local "), RegistrationCode: "REG-1", ClassGroupID: null.IntFrom(w.GroupA.ID)},
			wantCode:  "REG-1",
			wantGroup: "CS-A",
		},
		{
			name:     "email taken",
			actor:    w.Admin,
			input:    academic.NewStudent{NewAccount: newAccount("alice@academia.local")},
			wantKind: core.KindConflict,
		},
		{
			name:     "registration code taken",
			actor:    w.Admin,
			input:    academic.NewStudent{NewAccount: newAccount("fox@academia.local"), RegistrationCode: "REG-1"},
			wantKind: core.KindConflict,
		},
		{
			name:     "unknown class group",
			actor:    w.Admin,
			input:    academic.NewStudent{NewAccount: newAccount("fox@academia.local"), ClassGroupID: null.IntFrom(999)},
			wantKind: core.KindNotFound,
		},
		{
			name:     "invalid email",
			actor:    w.Admin,
			input:    academic.NewStudent{NewAccount: newAccount("fox")},
			wantKind: core.KindInvalidArgument,
		},
		{
			name:     "instructor",
			actor:    w.Instructor1,
			input:    academic.NewStudent{NewAccount: newAccount("fox@academia.local")},
			wantKind: core.KindForbidden,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sent := mailbox.Count()
			view, err := svc.CreateStudent(ctx, tt.actor, tt.input)
			if tt.wantKind != core.KindUnknown {
				assert.Equal(t, tt.wantKind, core.KindOf(err), "error: %v", err)
				assert.Equal(t, sent, mailbox.Count(), "no email on failure")
				return
			}
			require.NoError(t, err)

			wantCode := tt.wantCode
			if wantCode == "" {
				wantCode = fmt.Sprintf("STU%06d", view.AccountID)
			}
			assert.Equal(t, wantCode, view.RegistrationCode)
			assert.Equal(t, tt.wantGroup, view.ClassGroupName)
			assert.Equal(t, "Dana Scully", view.FullName)
			assert.Equal(t, academic.Day(testutil.Now), view.EnrolledOn)
			if assert.Equal(t, sent+1, mailbox.Count()) {
				msg := mailbox.Messages[sent]
				assert.Equal(t, "Welcome to Academia", msg.Subject)
				assert.Contains(t, msg.TextContent, "Hello Dana Scully,")
				assert.Contains(t, msg.TextContent, "Your student account has been created for you on Academia")
			}

			acc, err := store.GetAccount(ctx, view.AccountID)
			require.NoError(t, err)
			assert.Equal(t, account.RoleStudent, acc.Role)
			assert.NoError(t, acc.CheckPassword("s3cr3t-pass"))
		})
	}
}

func TestService_CreateInstructor(t *testing.T) {
	svc, _, w := setup(t)
	ctx := context.Background()

	view, err := svc.CreateInstructor(ctx, w.Admin, academic.NewInstructor{NewAccount: newAccount("mulder@academia.local")})
	require.NoError(t, err)
	assert.Equal(t, "General", view.Department)
	assert.Equal(t, fmt.Sprintf("PROF%06d", view.AccountID), view.EmployeeCode)
	assert.Zero(t, view.SubjectCount)

	_, err = svc.CreateInstructor(ctx, w.Admin, academic.NewInstructor{
		NewAccount:   newAccount("skinner@academia.local"),
		EmployeeCode: view.EmployeeCode,
	})
	assert.True(t, core.IsKind(err, core.KindConflict), "error: %v", err)

	// the failed provisioning left no account behind
	_, err = svc.CreateInstructor(ctx, w.Admin, academic.NewInstructor{
		NewAccount: newAccount("skinner@academia.local"),
		Department: "Physics",
	})
	require.NoError(t, err)
}

func TestService_Bootstrap(t *testing.T) {
	svc := testutil.NewService(inmemdb.NewStore(inmemdb.NewDB()), new(testutil.Mailbox))
	ctx := context.Background()

	view, err := svc.Bootstrap(ctx, academic.NewAdministrator{NewAccount: newAccount("root@academia.local")})
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("ADM%06d", view.AccountID), view.EmployeeCode)

	actor := academic.Actor{AccountID: view.AccountID, Role: account.RoleAdministrator}
	scope, err := svc.Scope(ctx, actor)
	require.NoError(t, err)
	assert.True(t, scope.Unrestricted())

	_, err = svc.Bootstrap(ctx, academic.NewAdministrator{NewAccount: newAccount("root@academia.local")})
	assert.True(t, core.IsKind(err, core.KindConflict), "error: %v", err)
}

func TestService_UpdateStudent(t *testing.T) {
	svc, _, w := setup(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		actor     academic.Actor
		input     academic.UpdateStudent
		wantGroup string
		wantKind  core.Kind
	}{
		{name: "instructor", actor: w.Instructor1, input: academic.UpdateStudent{LeaveClassGroup: true}, wantKind: core.KindForbidden},
		{name: "unknown class group", actor: w.Admin, input: academic.UpdateStudent{ClassGroupID: null.IntFrom(999)}, wantKind: core.KindNotFound},
		{name: "registration code taken", actor: w.Admin, input: academic.UpdateStudent{RegistrationCode: w.Std2.RegistrationCode}, wantKind: core.KindConflict},
		{name: "change class group", actor: w.Admin, input: academic.UpdateStudent{ClassGroupID: null.IntFrom(w.GroupB.ID)}, wantGroup: "MA-A"},
		{name: "leave class group", actor: w.Admin, input: academic.UpdateStudent{LeaveClassGroup: true}, wantGroup: academic.UnassignedName},
		{
			name:      "rename",
			actor:     w.Admin,
			input:     academic.UpdateStudent{UpdateNames: account.UpdateNames{FirstName: "Alicia"}},
			wantGroup: academic.UnassignedName,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := svc.UpdateStudent(ctx, tt.actor, w.Std1.ID, tt.input)
			if tt.wantKind != core.KindUnknown {
				assert.Equal(t, tt.wantKind, core.KindOf(err), "error: %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantGroup, view.ClassGroupName)
		})
	}

	view, err := svc.StudentProfile(ctx, w.Student1)
	require.NoError(t, err)
	assert.Equal(t, "Alicia Martin", view.FullName)
	assert.False(t, view.ClassGroupID.Valid)
}

func TestService_profiles(t *testing.T) {
	svc, _, w := setup(t)
	ctx := context.Background()

	std, err := svc.StudentProfile(ctx, w.Student1)
	require.NoError(t, err)
	assert.Equal(t, w.Std1.ID, std.ID)
	assert.Equal(t, "CS-A", std.ClassGroupName)
	assert.Equal(t, "Computer Science", std.CourseName)
	assert.Equal(t, null.IntFrom(w.CourseA.ID), std.CourseID)

	inst, err := svc.InstructorProfile(ctx, w.Instructor1)
	require.NoError(t, err)
	assert.Equal(t, w.Prof1.ID, inst.ID)
	assert.Equal(t, 1, inst.SubjectCount)
	assert.Equal(t, 1, inst.ClassGroupCount)

	_, err = svc.StudentProfile(ctx, w.Instructor1)
	assert.True(t, core.IsKind(err, core.KindForbidden), "error: %v", err)
	_, err = svc.InstructorProfile(ctx, w.Student1)
	assert.True(t, core.IsKind(err, core.KindForbidden), "error: %v", err)
}

func TestService_UpdateInstructor(t *testing.T) {
	svc, _, w := setup(t)
	ctx := context.Background()

	_, err := svc.UpdateInstructor(ctx, w.Instructor1, w.Prof1.ID, academic.UpdateInstructor{Department: "Physics"})
	assert.True(t, core.IsKind(err, core.KindForbidden), "error: %v", err)

	view, err := svc.UpdateInstructor(ctx, w.Admin, w.Prof1.ID, academic.UpdateInstructor{
		UpdateNames: account.UpdateNames{LastName: "Roe"},
		Department:  " Physics ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Physics", view.Department)
	assert.Equal(t, "Jane Roe", view.FullName)
}

func TestService_SetAccountActive(t *testing.T) {
	svc, _, w := setup(t)
	ctx := context.Background()

	_, err := svc.SetAccountActive(ctx, w.Instructor1, w.Std1Account.ID, false)
	assert.True(t, core.IsKind(err, core.KindForbidden), "error: %v", err)

	acc, err := svc.SetAccountActive(ctx, w.Admin, w.Std1Account.ID, false)
	require.NoError(t, err)
	assert.False(t, acc.IsActive)
	assert.Equal(t, testutil.Now, acc.UpdatedAt)

	_, err = svc.SetAccountActive(ctx, w.Admin, 999, true)
	assert.True(t, core.IsKind(err, core.KindNotFound), "error: %v", err)
}

func TestService_AdministratorProfile(t *testing.T) {
	svc, _, w := setup(t)
	ctx := context.Background()

	view, err := svc.AdministratorProfile(ctx, w.Admin)
	require.NoError(t, err)
	assert.Equal(t, w.AdminAccount.ID, view.AccountID)
	assert.Equal(t, "admin@academia.local", view.Email)
	assert.Equal(t, "Ada Admin", view.FullName)

	_, err = svc.AdministratorProfile(ctx, w.Instructor1)
	assert.True(t, core.IsKind(err, core.KindForbidden), "error: %v", err)
}

func TestService_ResetPassword(t *testing.T) {
	svc, store, w := setup(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		wantKind core.Kind
	}{
		{name: "unknown email", email: "nobody@academia.local", password: "n3w-s3cr3t", wantKind: core.KindNotFound},
		{name: "short password", email: "alice@academia.local", password: "short", wantKind: core.KindInvalidArgument},
		{name: "reset", email: " alice@academia.local ", password: "n3w-s3cr3t"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ResetPassword(ctx, tt.email, tt.password)
			if tt.wantKind != core.KindUnknown {
				assert.Equal(t, tt.wantKind, core.KindOf(err), "error: %v", err)
				return
			}
			require.NoError(t, err)
			acc, err := store.GetAccount(ctx, w.Std1Account.ID)
			require.NoError(t, err)
			assert.NoError(t, acc.CheckPassword(tt.password))
		})
	}
}

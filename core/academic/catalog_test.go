package academic_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/academic"
)

func TestService_CreateCourse(t *testing.T) {
	svc, _, w := setup(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		actor    academic.Actor
		input    academic.NewCourse
		wantKind core.Kind
	}{
		{name: "admin", actor: w.Admin, input: academic.NewCourse{Code: " PH101 ", Name: "Physics", Credits: 4, InstructorID: w.Prof2.ID}},
		{name: "code taken", actor: w.Admin, input: academic.NewCourse{Code: "CS101", Name: "Again", Credits: 4, InstructorID: w.Prof2.ID}, wantKind: core.KindConflict},
		{name: "unknown instructor", actor: w.Admin, input: academic.NewCourse{Code: "CH101", Name: "Chemistry", Credits: 4, InstructorID: 999}, wantKind: core.KindNotFound},
		{name: "too many credits", actor: w.Admin, input: academic.NewCourse{Code: "CH101", Name: "Chemistry", Credits: 11, InstructorID: w.Prof2.ID}, wantKind: core.KindInvalidArgument},
		{name: "code too long", actor: w.Admin, input: academic.NewCourse{Code: "CHEMISTRY-FOR-BEGINNERS", Name: "Chemistry", Credits: 2, InstructorID: w.Prof2.ID}, wantKind: core.KindInvalidArgument},
		{name: "instructor", actor: w.Instructor1, input: academic.NewCourse{Code: "CH101", Name: "Chemistry", Credits: 4, InstructorID: w.Prof1.ID}, wantKind: core.KindForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := svc.CreateCourse(ctx, tt.actor, tt.input)
			if tt.wantKind != core.KindUnknown {
				assert.Equal(t, tt.wantKind, core.KindOf(err), "error: %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "PH101", view.Code)
			assert.Equal(t, "John Smith", view.InstructorName)
			assert.Zero(t, view.SubjectCount)
		})
	}
}

func TestService_CreateSubject(t *testing.T) {
	svc, _, w := setup(t)
	ctx := context.Background()

	_, err := svc.CreateSubject(ctx, w.Admin, academic.NewSubject{CourseID: 999, Name: "Compilers"})
	assert.True(t, core.IsKind(err, core.KindNotFound), "error: %v", err)

	_, err = svc.CreateSubject(ctx, w.Admin, academic.NewSubject{CourseID: w.CourseA.ID, Name: "Compilers", MaterialURL: "not a url"})
	assert.True(t, core.IsKind(err, core.KindInvalidArgument), "error: %v", err)

	view, err := svc.CreateSubject(ctx, w.Admin, academic.NewSubject{
		CourseID:    w.CourseA.ID,
		Name:        "Compilers",
		MaterialURL: "https://academia.local/compilers.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "Computer Science", view.CourseName)
	assert.Empty(t, view.InstructorNames)

	// subjects of an own course are in scope
	view, err = svc.UpdateSubject(ctx, w.Instructor1, view.ID, academic.UpdateSubject{Name: "Compiler Design"})
	require.NoError(t, err)
	assert.Equal(t, "Compiler Design", view.Name)

	subjects, err := svc.ListSubjects(ctx, w.Admin, academic.SubjectQuery{CourseID: w.CourseA.ID})
	require.NoError(t, err)
	assert.Len(t, subjects, 2)

	_, err = svc.ListSubjects(ctx, w.Admin, academic.SubjectQuery{CourseID: 999})
	assert.True(t, core.IsKind(err, core.KindNotFound), "error: %v", err)
}

func TestService_ClassGroups(t *testing.T) {
	svc, _, w := setup(t)
	ctx := context.Background()

	_, err := svc.CreateClassGroup(ctx, w.Admin, academic.NewClassGroup{CourseID: w.CourseA.ID, InstructorID: null.IntFrom(999), Name: "CS-B"})
	assert.True(t, core.IsKind(err, core.KindNotFound), "error: %v", err)

	grp, err := svc.CreateClassGroup(ctx, w.Admin, academic.NewClassGroup{CourseID: w.CourseA.ID, Name: "CS-B"})
	require.NoError(t, err)
	assert.Equal(t, academic.UnassignedName, grp.InstructorName)
	assert.Equal(t, "Computer Science", grp.CourseName)
	assert.Zero(t, grp.StudentCount)

	schedule := "Mon 8:00-10:00"
	tests := []struct {
		name           string
		actor          academic.Actor
		input          academic.UpdateClassGroup
		wantInstructor string
		wantKind       core.Kind
	}{
		{name: "instructor of the course", actor: w.Instructor1, input: academic.UpdateClassGroup{Schedule: &schedule}, wantInstructor: academic.UnassignedName},
		{name: "instructor assigning", actor: w.Instructor1, input: academic.UpdateClassGroup{InstructorID: null.IntFrom(w.Prof1.ID)}, wantKind: core.KindForbidden},
		{name: "other instructor", actor: w.Instructor2, input: academic.UpdateClassGroup{Name: "MA-B"}, wantKind: core.KindForbidden},
		{name: "admin: unknown instructor", actor: w.Admin, input: academic.UpdateClassGroup{InstructorID: null.IntFrom(999)}, wantKind: core.KindNotFound},
		{name: "admin: assign", actor: w.Admin, input: academic.UpdateClassGroup{InstructorID: null.IntFrom(w.Prof2.ID)}, wantInstructor: "John Smith"},
		{name: "admin: unassign", actor: w.Admin, input: academic.UpdateClassGroup{ClearInstructor: true}, wantInstructor: academic.UnassignedName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := svc.UpdateClassGroup(ctx, tt.actor, grp.ID, tt.input)
			if tt.wantKind != core.KindUnknown {
				assert.Equal(t, tt.wantKind, core.KindOf(err), "error: %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantInstructor, view.InstructorName)
			assert.Equal(t, schedule, view.Schedule)
		})
	}

	groups, err := svc.ListClassGroups(ctx, w.Admin, academic.ClassGroupQuery{CourseID: w.CourseA.ID})
	require.NoError(t, err)
	assert.Len(t, groups, 2)
	groups, err = svc.ListClassGroups(ctx, w.Admin, academic.ClassGroupQuery{InstructorID: w.Prof2.ID})
	require.NoError(t, err)
	assert.Len(t, groups, 1)
}

func TestService_AssignInstructor(t *testing.T) {
	svc, _, w := setup(t)
	ctx := context.Background()

	// not yet teaching course A
	_, err := svc.RecordMark(ctx, w.Instructor2, academic.NewMark{StudentID: w.Std1.ID, SubjectID: w.SubjectA.ID, Score: 75})
	assert.True(t, core.IsKind(err, core.KindForbidden), "error: %v", err)

	tests := []struct {
		name     string
		actor    academic.Actor
		input    academic.NewAssignment
		wantKind core.Kind
	}{
		{name: "instructor", actor: w.Instructor1, input: academic.NewAssignment{InstructorID: w.Prof2.ID, SubjectID: w.SubjectA.ID}, wantKind: core.KindForbidden},
		{name: "unknown subject", actor: w.Admin, input: academic.NewAssignment{InstructorID: w.Prof2.ID, SubjectID: 999}, wantKind: core.KindNotFound},
		{name: "unknown instructor", actor: w.Admin, input: academic.NewAssignment{InstructorID: 999, SubjectID: w.SubjectA.ID}, wantKind: core.KindNotFound},
		{name: "missing subject", actor: w.Admin, input: academic.NewAssignment{InstructorID: w.Prof2.ID}, wantKind: core.KindInvalidArgument},
		{name: "admin", actor: w.Admin, input: academic.NewAssignment{InstructorID: w.Prof2.ID, SubjectID: w.SubjectA.ID}},
		{name: "already assigned", actor: w.Admin, input: academic.NewAssignment{InstructorID: w.Prof2.ID, SubjectID: w.SubjectA.ID}, wantKind: core.KindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := svc.AssignInstructor(ctx, tt.actor, tt.input)
			if tt.wantKind != core.KindUnknown {
				assert.Equal(t, tt.wantKind, core.KindOf(err), "error: %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "John Smith", view.InstructorName)
			assert.Equal(t, "Algorithms", view.SubjectName)
			assert.Equal(t, "Computer Science", view.CourseName)
		})
	}

	// the assignment extends the instructor's scope to the students of the course
	_, err = svc.RecordMark(ctx, w.Instructor2, academic.NewMark{StudentID: w.Std1.ID, SubjectID: w.SubjectA.ID, Score: 75})
	require.NoError(t, err)

	sbj, err := svc.GetSubject(ctx, w.Admin, w.SubjectA.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Jane Doe", "John Smith"}, sbj.InstructorNames)

	require.NoError(t, svc.UnassignInstructor(ctx, w.Admin, w.Prof2.ID, w.SubjectA.ID))
	err = svc.UnassignInstructor(ctx, w.Admin, w.Prof2.ID, w.SubjectA.ID)
	assert.True(t, core.IsKind(err, core.KindNotFound), "error: %v", err)
}

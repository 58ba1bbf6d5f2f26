package tests

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core/academic"
	"github.com/trezcool/academia/tests"
)

func Test_catalogApi_courses(t *testing.T) {
	app := setup(t)
	w := app.world
	ctx := context.Background()

	all, err := app.svc.ListCourses(ctx, w.Admin)
	require.NoError(t, err)
	own, err := app.svc.ListCourses(ctx, w.Instructor1)
	require.NoError(t, err)
	courseA, err := app.svc.GetCourse(ctx, w.Admin, w.CourseA.ID)
	require.NoError(t, err)
	_, outOfScope := app.svc.GetCourse(ctx, w.Student1, w.CourseB.ID)
	_, studentRead := app.svc.GetCourse(ctx, w.Student1, w.CourseA.ID)
	_, handOver := app.svc.UpdateCourse(ctx, w.Instructor1, w.CourseA.ID, academic.UpdateCourse{InstructorID: &w.Prof2.ID})

	tests := []httpTest{
		{name: "Auth required", path: "/v1/courses", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Get all", path: "/v1/courses", token: getToken(t, w.Admin), wantData: marchallObj(t, all)},
		{name: "Instructor scope", path: "/v1/courses", token: getToken(t, w.Instructor1), wantData: marchallObj(t, own)},
		{name: "Student scope", path: "/v1/courses", token: getToken(t, w.Student1), wantData: []byte(`[]`)},
		{name: "Student without group", path: "/v1/courses", token: getToken(t, w.Student3), wantData: []byte(`[]`)},
		{name: "Retrieve", path: fmt.Sprintf("/v1/courses/%d", w.CourseA.ID), token: getToken(t, w.Instructor1), wantData: marchallObj(t, courseA)},
		{
			name: "Retrieve (student)", path: fmt.Sprintf("/v1/courses/%d", w.CourseA.ID), token: getToken(t, w.Student1),
			wantCode: http.StatusForbidden, wantData: errData(t, studentRead),
		},
		{
			name: "Retrieve (out of scope)", path: fmt.Sprintf("/v1/courses/%d", w.CourseB.ID), token: getToken(t, w.Student1),
			wantCode: http.StatusForbidden, wantData: errData(t, outOfScope),
		},
		{
			name: "Hand over (admin required)", method: http.MethodPut, path: fmt.Sprintf("/v1/courses/%d", w.CourseA.ID),
			body: marchallObj(t, map[string]int{"instructor_id": w.Prof2.ID}), token: getToken(t, w.Instructor1),
			wantCode: http.StatusForbidden, wantData: errData(t, handOver),
		},
		{
			name: "Invalid credits", method: http.MethodPut, path: fmt.Sprintf("/v1/courses/%d", w.CourseA.ID),
			body: []byte(`{"credits": 11}`), token: getToken(t, w.Instructor1), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"credits": "credits must be 10 or less"}),
		},
	}
	app.run(t, tests)

	t.Run("Create", func(t *testing.T) {
		body := marchallObj(t, academic.NewCourse{Code: "PH101", Name: "Physics", Credits: 4, InstructorID: w.Prof1.ID})

		req, rec := newAuthRequest(http.MethodPost, "/v1/courses", getToken(t, w.Admin), body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var crs academic.CourseView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &crs))
		assert.Equal(t, "PH101", crs.Code)
		assert.Equal(t, "Jane Doe", crs.InstructorName)
		assert.Zero(t, crs.SubjectCount)

		req, rec = newAuthRequest(http.MethodPost, "/v1/courses", getToken(t, w.Admin), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: `course code "PH101" is already used`}),
		}, rec)
	})

	t.Run("Update by responsible instructor", func(t *testing.T) {
		path := fmt.Sprintf("/v1/courses/%d", w.CourseA.ID)
		req, rec := newAuthRequest(http.MethodPut, path, getToken(t, w.Instructor1), []byte(`{"name": "Informatics", "credits": 5}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var crs academic.CourseView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &crs))
		assert.Equal(t, "Informatics", crs.Name)
		assert.Equal(t, 5, crs.Credits)
		assert.Equal(t, w.CourseA.Code, crs.Code)
	})

	t.Run("Delete", func(t *testing.T) {
		path := fmt.Sprintf("/v1/courses/%d", w.CourseB.ID)
		req, rec := newAuthRequest(http.MethodDelete, path, getToken(t, w.Instructor2))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		req, rec = newAuthRequest(http.MethodDelete, path, getToken(t, w.Admin))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNoContent}, rec)

		req, rec = newAuthRequest(http.MethodGet, path, getToken(t, w.Admin))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		// subjects and class groups go with their course
		_, err := app.svc.GetSubject(ctx, w.Admin, w.SubjectB.ID)
		assert.Error(t, err)
		_, err = app.svc.GetClassGroup(ctx, w.Admin, w.GroupB.ID)
		assert.Error(t, err)
	})
}

func Test_catalogApi_subjects(t *testing.T) {
	app := setup(t)
	w := app.world
	ctx := context.Background()

	all, err := app.svc.ListSubjects(ctx, w.Admin, academic.SubjectQuery{})
	require.NoError(t, err)
	ofCourseB, err := app.svc.ListSubjects(ctx, w.Admin, academic.SubjectQuery{CourseID: w.CourseB.ID})
	require.NoError(t, err)
	assigned, err := app.svc.ListSubjects(ctx, w.Instructor2, academic.SubjectQuery{})
	require.NoError(t, err)
	subjectA, err := app.svc.GetSubject(ctx, w.Student1, w.SubjectA.ID)
	require.NoError(t, err)

	tests := []httpTest{
		{name: "Get all", path: "/v1/subjects", token: getToken(t, w.Admin), wantData: marchallObj(t, all)},
		{
			name: "course_id", path: fmt.Sprintf("/v1/subjects?course_id=%d", w.CourseB.ID),
			token: getToken(t, w.Admin), wantData: marchallObj(t, ofCourseB),
		},
		{name: "Instructor scope", path: "/v1/subjects", token: getToken(t, w.Instructor2), wantData: marchallObj(t, assigned)},
		{name: "Retrieve", path: fmt.Sprintf("/v1/subjects/%d", w.SubjectA.ID), token: getToken(t, w.Student1), wantData: marchallObj(t, subjectA)},
		{
			name: "Create (admin required)", method: http.MethodPost, path: "/v1/subjects", token: getToken(t, w.Instructor1),
			body:     marchallObj(t, academic.NewSubject{CourseID: w.CourseA.ID, Name: "Databases"}),
			wantCode: http.StatusForbidden,
			wantData: errData(t, func() error {
				_, err := app.svc.CreateSubject(ctx, w.Instructor1, academic.NewSubject{CourseID: w.CourseA.ID, Name: "Databases"})
				return err
			}()),
		},
		{
			name: "Create (unknown course)", method: http.MethodPost, path: "/v1/subjects", token: getToken(t, w.Admin),
			body: marchallObj(t, academic.NewSubject{CourseID: 999, Name: "Databases"}), wantCode: http.StatusNotFound,
			wantData: errData(t, func() error {
				_, err := app.svc.CreateSubject(ctx, w.Admin, academic.NewSubject{CourseID: 999, Name: "Databases"})
				return err
			}()),
		},
		{
			name: "Create (invalid url)", method: http.MethodPost, path: "/v1/subjects", token: getToken(t, w.Admin),
			body:     marchallObj(t, academic.NewSubject{CourseID: w.CourseA.ID, Name: "Databases", MaterialURL: "lol"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"material_url": "material_url must be a valid URL"}),
		},
	}
	app.run(t, tests)

	t.Run("Create", func(t *testing.T) {
		body := marchallObj(t, academic.NewSubject{CourseID: w.CourseA.ID, Name: "Databases"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/subjects", getToken(t, w.Admin), body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var sbj academic.SubjectView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sbj))
		assert.Equal(t, "Databases", sbj.Name)
		assert.Equal(t, w.CourseA.Name, sbj.CourseName)
		assert.Empty(t, sbj.InstructorNames)
	})
}

func Test_catalogApi_classGroups(t *testing.T) {
	app := setup(t)
	w := app.world
	ctx := context.Background()

	all, err := app.svc.ListClassGroups(ctx, w.Admin, academic.ClassGroupQuery{})
	require.NoError(t, err)
	byInstructor, err := app.svc.ListClassGroups(ctx, w.Admin, academic.ClassGroupQuery{InstructorID: w.Prof2.ID})
	require.NoError(t, err)
	groupA, err := app.svc.GetClassGroup(ctx, w.Instructor1, w.GroupA.ID)
	require.NoError(t, err)
	_, outOfScope := app.svc.GetClassGroup(ctx, w.Instructor1, w.GroupB.ID)

	tests := []httpTest{
		{name: "Get all", path: "/v1/classgroups", token: getToken(t, w.Admin), wantData: marchallObj(t, all)},
		{
			name: "instructor_id", path: fmt.Sprintf("/v1/classgroups?instructor_id=%d", w.Prof2.ID),
			token: getToken(t, w.Admin), wantData: marchallObj(t, byInstructor),
		},
		{name: "Retrieve", path: fmt.Sprintf("/v1/classgroups/%d", w.GroupA.ID), token: getToken(t, w.Instructor1), wantData: marchallObj(t, groupA)},
		{
			name: "Retrieve (out of scope)", path: fmt.Sprintf("/v1/classgroups/%d", w.GroupB.ID), token: getToken(t, w.Instructor1),
			wantCode: http.StatusForbidden, wantData: errData(t, outOfScope),
		},
	}
	app.run(t, tests)

	t.Run("Clear instructor", func(t *testing.T) {
		path := fmt.Sprintf("/v1/classgroups/%d", w.GroupB.ID)
		req, rec := newAuthRequest(http.MethodPut, path, getToken(t, w.Admin), []byte(`{"clear_instructor": true}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var grp academic.ClassGroupView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grp))
		assert.False(t, grp.InstructorID.Valid)
		assert.Equal(t, academic.UnassignedName, grp.InstructorName)
	})
}

func Test_catalogApi_assignments(t *testing.T) {
	app := setup(t)
	w := app.world
	ctx := context.Background()

	all, err := app.svc.ListAssignments(ctx, w.Admin, academic.AssignmentQuery{})
	require.NoError(t, err)
	ofProf1, err := app.svc.ListAssignments(ctx, w.Admin, academic.AssignmentQuery{InstructorID: w.Prof1.ID})
	require.NoError(t, err)

	tests := []httpTest{
		{name: "Get all", path: "/v1/assignments", token: getToken(t, w.Admin), wantData: marchallObj(t, all)},
		{
			name: "instructor_id", path: fmt.Sprintf("/v1/assignments?instructor_id=%d", w.Prof1.ID),
			token: getToken(t, w.Admin), wantData: marchallObj(t, ofProf1),
		},
		{
			name: "Duplicate", method: http.MethodPost, path: "/v1/assignments", token: getToken(t, w.Admin),
			body:     marchallObj(t, academic.NewAssignment{InstructorID: w.Prof1.ID, SubjectID: w.SubjectA.ID}),
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: fmt.Sprintf("instructor %d is already assigned to subject %d", w.Prof1.ID, w.SubjectA.ID)}),
		},
		{
			name: "Assign", method: http.MethodPost, path: "/v1/assignments", token: getToken(t, w.Admin),
			body:     marchallObj(t, academic.NewAssignment{InstructorID: w.Prof1.ID, SubjectID: w.SubjectB.ID}),
			wantCode: http.StatusCreated,
			wantData: marchallObj(t, map[string]interface{}{
				"instructor_id":   w.Prof1.ID,
				"subject_id":      w.SubjectB.ID,
				"created_at":      testutil.Now,
				"instructor_name": "Jane Doe",
				"subject_name":    w.SubjectB.Name,
				"course_id":       w.CourseB.ID,
				"course_name":     w.CourseB.Name,
			}),
		},
		{
			name: "Unassign", method: http.MethodDelete, path: fmt.Sprintf("/v1/assignments/%d/%d", w.Prof1.ID, w.SubjectB.ID),
			token: getToken(t, w.Admin), wantCode: http.StatusNoContent,
		},
		{
			name: "Unassign (unknown)", method: http.MethodDelete, path: fmt.Sprintf("/v1/assignments/%d/%d", w.Prof1.ID, w.SubjectB.ID),
			token: getToken(t, w.Admin), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: fmt.Sprintf("instructor assignment %d/%d not found", w.Prof1.ID, w.SubjectB.ID)}),
		},
	}
	app.run(t, tests)
}

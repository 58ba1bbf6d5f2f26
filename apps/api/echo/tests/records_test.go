package tests

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core/academic"
	"github.com/trezcool/academia/tests"
)

func Test_recordsApi_attendance(t *testing.T) {
	app := setup(t)
	w := app.world
	ctx := context.Background()

	yesterday := testutil.Now.AddDate(0, 0, -1)
	lastWeek := testutil.Now.AddDate(0, 0, -7)
	for _, day := range []time.Time{lastWeek, yesterday} {
		_, err := app.svc.RecordAttendance(ctx, w.Admin, academic.NewAttendance{
			StudentID: w.Std1.ID, ClassGroupID: w.GroupA.ID, Date: day, Present: true,
		})
		require.NoError(t, err)
	}
	_, err := app.svc.RecordAttendance(ctx, w.Admin, academic.NewAttendance{
		StudentID: w.Std2.ID, ClassGroupID: w.GroupB.ID, Date: yesterday,
	})
	require.NoError(t, err)

	all, err := app.svc.ListAttendance(ctx, w.Admin, academic.AttendanceQuery{})
	require.NoError(t, err)
	own, err := app.svc.ListAttendance(ctx, w.Student1, academic.AttendanceQuery{})
	require.NoError(t, err)
	recent, err := app.svc.ListAttendance(ctx, w.Admin, academic.AttendanceQuery{From: yesterday})
	require.NoError(t, err)
	_, notTaught := app.svc.ListAttendance(ctx, w.Instructor1, academic.AttendanceQuery{ClassGroupID: w.GroupB.ID})

	path := func(query string) string { return "/v1/attendance" + query }
	tests := []httpTest{
		{name: "Auth required", path: path(""), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Get all", path: path(""), token: getToken(t, w.Admin), wantData: marchallObj(t, all)},
		{name: "Student scope", path: path(""), token: getToken(t, w.Student1), wantData: marchallObj(t, own)},
		{name: "Instructor scope", path: path(""), token: getToken(t, w.Instructor1), wantData: marchallObj(t, own)},
		{
			name: "from (date)", path: path("?from=" + yesterday.Format("2006-01-02")),
			token: getToken(t, w.Admin), wantData: marchallObj(t, recent),
		},
		{
			name: "from (RFC 3339)", path: path("?from=" + yesterday.Format(time.RFC3339)),
			token: getToken(t, w.Admin), wantData: marchallObj(t, recent),
		},
		{
			name: "from (invalid)", path: path("?from=lol"), token: getToken(t, w.Admin), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"from": "must be a date formatted as YYYY-MM-DD"}),
		},
		{
			name: "class_group_id (not taught)", path: path(fmt.Sprintf("?class_group_id=%d", w.GroupB.ID)),
			token: getToken(t, w.Instructor1), wantCode: http.StatusForbidden, wantData: errData(t, notTaught),
		},
	}
	app.run(t, tests)

	t.Run("Record", func(t *testing.T) {
		body := marchallObj(t, academic.NewAttendance{StudentID: w.Std1.ID, ClassGroupID: w.GroupA.ID, Date: testutil.Now})

		req, rec := newAuthRequest(http.MethodPost, path(""), getToken(t, w.Instructor1), body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var att academic.AttendanceView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &att))
		assert.False(t, att.Present)
		assert.Equal(t, "Alice Martin", att.StudentName)
		assert.Equal(t, w.GroupA.Name, att.ClassGroupName)

		// one record per student, class group and day
		req, rec = newAuthRequest(http.MethodPost, path(""), getToken(t, w.Instructor1), body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code)

		req, rec = newAuthRequest(http.MethodPut, path(fmt.Sprintf("/%d", att.ID)), getToken(t, w.Instructor1), []byte(`{"present": true}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &att))
		assert.True(t, att.Present)

		req, rec = newAuthRequest(http.MethodDelete, path(fmt.Sprintf("/%d", att.ID)), getToken(t, w.Instructor1))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		req, rec = newAuthRequest(http.MethodDelete, path(fmt.Sprintf("/%d", att.ID)), getToken(t, w.Admin))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNoContent}, rec)
	})

	t.Run("Calendar date", func(t *testing.T) {
		body := []byte(fmt.Sprintf(`{"student_id": %d, "class_group_id": %d, "date": "2024-03-12", "present": true}`, w.Std1.ID, w.GroupA.ID))
		req, rec := newAuthRequest(http.MethodPost, path(""), getToken(t, w.Instructor1), body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var att academic.AttendanceView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &att))
		assert.Equal(t, time.Date(2024, time.March, 12, 0, 0, 0, 0, time.UTC), att.Day.UTC())
		assert.True(t, att.Present)

		body = []byte(fmt.Sprintf(`{"student_id": %d, "class_group_id": %d, "date": "12/03/2024"}`, w.Std1.ID, w.GroupA.ID))
		req, rec = newAuthRequest(http.MethodPost, path(""), getToken(t, w.Instructor1), body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Future date", func(t *testing.T) {
		body := marchallObj(t, academic.NewAttendance{StudentID: w.Std1.ID, ClassGroupID: w.GroupA.ID, Date: testutil.Now.AddDate(0, 0, 1)})
		req, rec := newAuthRequest(http.MethodPost, path(""), getToken(t, w.Admin), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"date": "attendance cannot be recorded for a future date"}),
		}, rec)
	})

	t.Run("Student may not record", func(t *testing.T) {
		body := marchallObj(t, academic.NewAttendance{StudentID: w.Std1.ID, ClassGroupID: w.GroupA.ID, Date: lastWeek.AddDate(0, 0, 1)})
		req, rec := newAuthRequest(http.MethodPost, path(""), getToken(t, w.Student1), body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func Test_recordsApi_marks(t *testing.T) {
	app := setup(t)
	w := app.world
	ctx := context.Background()

	mrk, err := app.svc.RecordMark(ctx, w.Admin, academic.NewMark{StudentID: w.Std2.ID, SubjectID: w.SubjectB.ID, Score: 64})
	require.NoError(t, err)
	all, err := app.svc.ListMarks(ctx, w.Admin, academic.MarkQuery{})
	require.NoError(t, err)
	_, outOfScope := app.svc.ListMarks(ctx, w.Student1, academic.MarkQuery{StudentID: w.Std2.ID})

	tests := []httpTest{
		{name: "Get all", path: "/v1/marks", token: getToken(t, w.Admin), wantData: marchallObj(t, all)},
		{name: "Own marks", path: "/v1/marks", token: getToken(t, w.Student2), wantData: marchallObj(t, all)},
		{name: "Other's marks", path: "/v1/marks", token: getToken(t, w.Student1), wantData: []byte(`[]`)},
		{
			name: "student_id (out of scope)", path: fmt.Sprintf("/v1/marks?student_id=%d", w.Std2.ID), token: getToken(t, w.Student1),
			wantCode: http.StatusForbidden, wantData: errData(t, outOfScope),
		},
		{
			name: "Invalid score", method: http.MethodPut, path: fmt.Sprintf("/v1/marks/%d", mrk.ID), token: getToken(t, w.Instructor2),
			body: []byte(`{"score": 100.5}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"score": "score must be between 0 and 100"}),
		},
	}
	app.run(t, tests)

	t.Run("Record", func(t *testing.T) {
		body := marchallObj(t, academic.NewMark{StudentID: w.Std1.ID, SubjectID: w.SubjectA.ID, Score: 90})

		req, rec := newAuthRequest(http.MethodPost, "/v1/marks", getToken(t, w.Instructor2), body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, "subject not assigned to the instructor")

		req, rec = newAuthRequest(http.MethodPost, "/v1/marks", getToken(t, w.Instructor1), body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var view academic.MarkView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		assert.Equal(t, "A", view.Grade)
		assert.Equal(t, "Algorithms", view.SubjectName)

		req, rec = newAuthRequest(http.MethodPost, "/v1/marks", getToken(t, w.Instructor1), body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("Resit", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, fmt.Sprintf("/v1/marks/%d", mrk.ID), getToken(t, w.Instructor2), []byte(`{"score": 79.99}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var view academic.MarkView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		assert.Equal(t, 79.99, view.Score)
		assert.Equal(t, "C", view.Grade)
	})
}

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
	"github.com/trezcool/academia/core/account"
)

func Test_server_home(t *testing.T) {
	app := setup(t)

	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Academia API!", rec.Body.String())

	req, rec = newRequest(http.MethodGet, "/metrics")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "academia_http_requests_total")
}

func Test_peopleApi_me(t *testing.T) {
	app := setup(t)
	w := app.world
	ctx := context.Background()

	adm, err := app.svc.AdministratorProfile(ctx, w.Admin)
	require.NoError(t, err)
	inst, err := app.svc.InstructorProfile(ctx, w.Instructor1)
	require.NoError(t, err)
	std, err := app.svc.StudentProfile(ctx, w.Student1)
	require.NoError(t, err)

	orphan := academic.Actor{AccountID: 999, Role: account.RoleStudent, Email: "ghost@academia.local"}
	_, orphanErr := app.svc.StudentProfile(ctx, orphan)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/me", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Invalid token", path: "/v1/me", token: "lol", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidToken)},
		{name: "Administrator", path: "/v1/me", token: getToken(t, w.Admin), wantData: marchallObj(t, adm)},
		{name: "Instructor", path: "/v1/me", token: getToken(t, w.Instructor1), wantData: marchallObj(t, inst)},
		{name: "Student", path: "/v1/me", token: getToken(t, w.Student1), wantData: marchallObj(t, std)},
		{
			name: "Profile missing", path: "/v1/me", token: getToken(t, orphan),
			wantCode: http.StatusForbidden, wantData: errData(t, orphanErr),
		},
	}
	app.run(t, tests)
}

func Test_peopleApi_students(t *testing.T) {
	app := setup(t)
	w := app.world
	ctx := context.Background()

	all, err := app.svc.ListStudents(ctx, w.Admin, academic.StudentQuery{})
	require.NoError(t, err)
	groupA, err := app.svc.ListStudents(ctx, w.Admin, academic.StudentQuery{ClassGroupID: w.GroupA.ID})
	require.NoError(t, err)
	taught, err := app.svc.ListStudents(ctx, w.Instructor1, academic.StudentQuery{})
	require.NoError(t, err)
	std1, err := app.svc.GetStudent(ctx, w.Admin, w.Std1.ID)
	require.NoError(t, err)
	_, outOfScope := app.svc.GetStudent(ctx, w.Student1, w.Std2.ID)
	_, missing := app.svc.GetStudent(ctx, w.Admin, 999)

	adminToken := getToken(t, w.Admin)
	tests := []httpTest{
		{name: "Auth required", path: "/v1/students", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Get all", path: "/v1/students", token: adminToken, wantData: marchallObj(t, all)},
		{
			name: "class_group_id", path: fmt.Sprintf("/v1/students?class_group_id=%d", w.GroupA.ID),
			token: adminToken, wantData: marchallObj(t, groupA),
		},
		{
			name: "class_group_id (invalid)", path: "/v1/students?class_group_id=lol", token: adminToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"class_group_id": "must be a positive integer"}),
		},
		{name: "Instructor scope", path: "/v1/students", token: getToken(t, w.Instructor1), wantData: marchallObj(t, taught)},
		{name: "Retrieve", path: fmt.Sprintf("/v1/students/%d", w.Std1.ID), token: adminToken, wantData: marchallObj(t, std1)},
		{name: "Retrieve (own)", path: fmt.Sprintf("/v1/students/%d", w.Std1.ID), token: getToken(t, w.Student1), wantData: marchallObj(t, std1)},
		{
			name: "Retrieve (out of scope)", path: fmt.Sprintf("/v1/students/%d", w.Std2.ID), token: getToken(t, w.Student1),
			wantCode: http.StatusForbidden, wantData: errData(t, outOfScope),
		},
		{name: "Retrieve (unknown)", path: "/v1/students/999", token: adminToken, wantCode: http.StatusNotFound, wantData: errData(t, missing)},
		{name: "Retrieve (invalid id)", path: "/v1/students/lol", token: adminToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
	}
	app.run(t, tests)
}

func Test_peopleApi_createStudent(t *testing.T) {
	app := setup(t)
	w := app.world

	body := marchallObj(t, map[string]interface{}{
		"email":          "dave@academia.local",
		"password":       "Pa$$w0rd!",
		"first_name":     "Dave",
		"last_name":      "Bernard",
		"class_group_id": w.GroupA.ID,
	})

	t.Run("Admin required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/students", getToken(t, w.Instructor1), body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Invalid data", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/students", getToken(t, w.Admin), []byte(`{"email": "lol"}`))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var fields map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fields))
		assert.Contains(t, fields, "email")
		assert.Contains(t, fields, "password")
	})

	t.Run("Created", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/students", getToken(t, w.Admin), body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var std academic.StudentView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &std))
		assert.Equal(t, "dave@academia.local", std.Email)
		assert.Equal(t, "Dave Bernard", std.FullName)
		assert.Equal(t, fmt.Sprintf("STU%06d", std.AccountID), std.RegistrationCode)
		assert.Equal(t, w.GroupA.Name, std.ClassGroupName)
		assert.Equal(t, w.CourseA.Name, std.CourseName)
		assert.Equal(t, 1, app.mailbox.Count())
	})

	t.Run("Duplicate email", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/students", getToken(t, w.Admin), body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: `an account with email "dave@academia.local" already exists`}),
		}, rec)
	})
}

func Test_peopleApi_instructors(t *testing.T) {
	app := setup(t)
	w := app.world
	ctx := context.Background()

	all, err := app.svc.ListInstructors(ctx, w.Admin)
	require.NoError(t, err)
	prof1, err := app.svc.GetInstructor(ctx, w.Admin, w.Prof1.ID)
	require.NoError(t, err)

	tests := []httpTest{
		{name: "Get all", path: "/v1/instructors", token: getToken(t, w.Admin), wantData: marchallObj(t, all)},
		{name: "Retrieve", path: fmt.Sprintf("/v1/instructors/%d", w.Prof1.ID), token: getToken(t, w.Instructor1), wantData: marchallObj(t, prof1)},
		{
			name: "Delete (admin required)", method: http.MethodDelete, path: fmt.Sprintf("/v1/instructors/%d", w.Prof2.ID),
			token: getToken(t, w.Instructor2), wantCode: http.StatusForbidden,
			wantData: errData(t, app.svc.DeleteInstructor(ctx, w.Instructor2, w.Prof2.ID)),
		},
	}
	app.run(t, tests)

	t.Run("Update", func(t *testing.T) {
		path := fmt.Sprintf("/v1/instructors/%d", w.Prof1.ID)
		req, rec := newAuthRequest(http.MethodPut, path, getToken(t, w.Admin), []byte(`{"department": "Informatics"}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var inst academic.InstructorView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inst))
		assert.Equal(t, "Informatics", inst.Department)
		assert.Equal(t, prof1.FullName, inst.FullName)
	})
}

func Test_peopleApi_accounts(t *testing.T) {
	app := setup(t)
	w := app.world
	ctx := context.Background()
	adminToken := getToken(t, w.Admin)

	tests := []httpTest{
		{
			name: "Admin required", method: http.MethodPost, path: fmt.Sprintf("/v1/accounts/%d/deactivate", w.Std1Account.ID),
			token: getToken(t, w.Instructor1), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Delete (unknown)", method: http.MethodDelete, path: "/v1/accounts/999", token: adminToken,
			wantCode: http.StatusNotFound, wantData: errData(t, app.svc.DeleteAccount(ctx, w.Admin, 999)),
		},
		{
			name: "Delete", method: http.MethodDelete, path: fmt.Sprintf("/v1/accounts/%d", w.Std1Account.ID), token: adminToken,
			wantCode: http.StatusNoContent,
		},
	}
	app.run(t, tests)

	t.Run("Deactivate", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/accounts/%d/deactivate", w.Instructor2.AccountID), adminToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var acc account.Account
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &acc))
		assert.False(t, acc.IsActive)

		req, rec = newAuthRequest(http.MethodGet, "/v1/me", getToken(t, w.Instructor2))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, "a deactivated account is rejected")

		req, rec = newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/accounts/%d/activate", w.Instructor2.AccountID), adminToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		req, rec = newAuthRequest(http.MethodGet, "/v1/me", getToken(t, w.Instructor2))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	_, err := app.svc.GetStudent(ctx, w.Admin, w.Std1.ID)
	assert.Error(t, err, "the student profile is deleted with its account")
}

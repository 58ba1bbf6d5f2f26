package academic

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/academia/core"
)

// Entity names, as used in errors and deletion rules.
const (
	EntityAccount       = "account"
	EntityAdministrator = "administrator"
	EntityInstructor    = "instructor"
	EntityStudent       = "student"
	EntityCourse        = "course"
	EntitySubject       = "subject"
	EntityClassGroup    = "class group"
	EntityAttendance    = "attendance record"
	EntityMark          = "mark record"
	EntityAssignment    = "instructor assignment"
)

type Administrator struct {
	ID           int       `json:"id" db:"id"`
	AccountID    int       `json:"account_id" db:"account_id"`
	EmployeeCode string    `json:"employee_code" db:"employee_code"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type Instructor struct {
	ID           int       `json:"id" db:"id"`
	AccountID    int       `json:"account_id" db:"account_id"`
	EmployeeCode string    `json:"employee_code" db:"employee_code"`
	Department   string    `json:"department" db:"department"`
	JoinedOn     time.Time `json:"joined_on" db:"joined_on"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type Student struct {
	ID               int       `json:"id" db:"id"`
	AccountID        int       `json:"account_id" db:"account_id"`
	RegistrationCode string    `json:"registration_code" db:"registration_code"`
	ClassGroupID     null.Int  `json:"class_group_id" db:"class_group_id"` // nullified when the group is deleted
	EnrolledOn       time.Time `json:"enrolled_on" db:"enrolled_on"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

type Course struct {
	ID           int       `json:"id" db:"id"`
	Code         string    `json:"code" db:"code"`
	Name         string    `json:"name" db:"name"`
	Description  string    `json:"description" db:"description"`
	Credits      int       `json:"credits" db:"credits"`
	InstructorID int       `json:"instructor_id" db:"instructor_id"` // responsible instructor; restricts its deletion
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type Subject struct {
	ID          int       `json:"id" db:"id"`
	CourseID    int       `json:"course_id" db:"course_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	MaterialURL string    `json:"material_url" db:"material_url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type ClassGroup struct {
	ID           int       `json:"id" db:"id"`
	CourseID     int       `json:"course_id" db:"course_id"`
	InstructorID null.Int  `json:"instructor_id" db:"instructor_id"` // nullified when the instructor is deleted
	Name         string    `json:"name" db:"name"`
	Schedule     string    `json:"schedule" db:"schedule"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type Attendance struct {
	ID           int         `json:"id" db:"id"`
	StudentID    int         `json:"student_id" db:"student_id"`
	ClassGroupID int         `json:"class_group_id" db:"class_group_id"`
	Day          time.Time   `json:"day" db:"day"` // see Day()
	Present      bool        `json:"present" db:"present"`
	Remarks      null.String `json:"remarks" db:"remarks"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

type Mark struct {
	ID        int       `json:"id" db:"id"`
	StudentID int       `json:"student_id" db:"student_id"`
	SubjectID int       `json:"subject_id" db:"subject_id"`
	Score     float64   `json:"score" db:"score"`
	Grade     string    `json:"grade" db:"grade"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Assignment links an instructor to a subject; the pair is the key.
type Assignment struct {
	InstructorID int       `json:"instructor_id" db:"instructor_id"`
	SubjectID    int       `json:"subject_id" db:"subject_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Day truncates t to its calendar date, as midnight UTC.
// The date is read in t's own location so "2024-03-01T23:30:00-05:00" is March 1st.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateLayout is the calendar date format of date inputs.
const DateLayout = "2006-01-02"

// ParseDate reads a calendar date (2006-01-02) or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.Errorf("parsing date %q", s)
	}
	return t, nil
}

// Inputs

type NewCourse struct {
	Code         string `json:"code" validate:"required,max=20"`
	Name         string `json:"name" validate:"required,max=200"`
	Description  string `json:"description" validate:"max=1000"`
	Credits      int    `json:"credits" validate:"gte=1,lte=10"`
	InstructorID int    `json:"instructor_id" validate:"required"`
}

func (nc *NewCourse) Validate() error {
	nc.Code = core.CleanString(nc.Code)
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	return core.ValidateStruct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
// Only administrators may change the responsible instructor.
type UpdateCourse struct {
	Name         string  `json:"name" validate:"max=200"`
	Description  *string `json:"description" validate:"omitempty,max=1000"`
	Credits      *int    `json:"credits" validate:"omitempty,gte=1,lte=10"`
	InstructorID *int    `json:"instructor_id"`
}

func (uc *UpdateCourse) Validate() error {
	uc.Name = core.CleanString(uc.Name)
	return core.ValidateStruct(uc)
}

type NewSubject struct {
	CourseID    int    `json:"course_id" validate:"required"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	MaterialURL string `json:"material_url" validate:"omitempty,url"`
}

func (ns *NewSubject) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	ns.Description = core.CleanString(ns.Description)
	ns.MaterialURL = core.CleanString(ns.MaterialURL)
	return core.ValidateStruct(ns)
}

type UpdateSubject struct {
	Name        string  `json:"name" validate:"max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	MaterialURL *string `json:"material_url" validate:"omitempty,url"`
}

func (us *UpdateSubject) Validate() error {
	us.Name = core.CleanString(us.Name)
	return core.ValidateStruct(us)
}

type NewClassGroup struct {
	CourseID     int      `json:"course_id" validate:"required"`
	InstructorID null.Int `json:"instructor_id"`
	Name         string   `json:"name" validate:"required,max=100"`
	Schedule     string   `json:"schedule" validate:"max=200"`
}

func (ng *NewClassGroup) Validate() error {
	ng.Name = core.CleanString(ng.Name)
	ng.Schedule = core.CleanString(ng.Schedule)
	return core.ValidateStruct(ng)
}

// UpdateClassGroup defines what information may be provided to modify an existing ClassGroup.
// A null InstructorID is ignored, use ClearInstructor to unassign. Only administrators may change the instructor.
type UpdateClassGroup struct {
	Name            string   `json:"name" validate:"max=100"`
	Schedule        *string  `json:"schedule" validate:"omitempty,max=200"`
	InstructorID    null.Int `json:"instructor_id"`
	ClearInstructor bool     `json:"clear_instructor"`
}

func (ug *UpdateClassGroup) Validate() error {
	ug.Name = core.CleanString(ug.Name)
	return core.ValidateStruct(ug)
}

type NewAttendance struct {
	StudentID    int         `json:"student_id" validate:"required"`
	ClassGroupID int         `json:"class_group_id" validate:"required"`
	Date         time.Time   `json:"date" validate:"required"`
	Present      bool        `json:"present"`
	Remarks      null.String `json:"remarks"`
}

// UnmarshalJSON reads "date" with ParseDate.
func (na *NewAttendance) UnmarshalJSON(data []byte) error {
	type plain NewAttendance
	aux := struct {
		*plain
		Date string `json:"date"`
	}{plain: (*plain)(na)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	na.Date = time.Time{}
	if aux.Date == "" {
		return nil
	}
	d, err := ParseDate(aux.Date)
	if err != nil {
		return core.NewInvalidArgumentError("date", "must be a date formatted as YYYY-MM-DD")
	}
	na.Date = d
	return nil
}

type UpdateAttendance struct {
	Present *bool       `json:"present"`
	Remarks null.String `json:"remarks"`
}

type NewMark struct {
	StudentID int     `json:"student_id" validate:"required"`
	SubjectID int     `json:"subject_id" validate:"required"`
	Score     float64 `json:"score"`
}

// UpdateMark is the resit path: the score is replaced and the grade recomputed.
type UpdateMark struct {
	Score float64 `json:"score"`
}

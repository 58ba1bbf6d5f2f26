package academic

import (
	"context"
	"time"

	"github.com/trezcool/academia/core/account"
)

// Filters select rows by foreign key. A nil slice leaves the column unfiltered,
// a non-nil empty slice matches nothing.
type (
	StudentFilter struct {
		IDs           []int
		AccountIDs    []int
		ClassGroupIDs []int
	}

	InstructorFilter struct {
		IDs []int
	}

	CourseFilter struct {
		IDs           []int
		InstructorIDs []int
	}

	SubjectFilter struct {
		IDs       []int
		CourseIDs []int
	}

	ClassGroupFilter struct {
		IDs           []int
		CourseIDs     []int
		InstructorIDs []int
	}

	AttendanceFilter struct {
		IDs           []int
		StudentIDs    []int
		ClassGroupIDs []int
		From          time.Time // inclusive day, zero means unbounded
		To            time.Time // inclusive day, zero means unbounded
	}

	MarkFilter struct {
		IDs        []int
		StudentIDs []int
		SubjectIDs []int
	}

	AssignmentFilter struct {
		InstructorIDs []int
		SubjectIDs    []int
	}
)

// Repository is the persistence boundary of the academic records.
// Lookups by key return a core.KindNotFound error when nothing matches.
// Writes return errors wrapping core.ErrUniqueViolation or core.ErrForeignKeyViolation when a constraint fails,
// and a core.KindUnavailable error when the store cannot be reached.
type Repository interface {
	CreateAccount(ctx context.Context, acc account.Account) (account.Account, error)
	GetAccount(ctx context.Context, id int) (account.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (account.Account, error)
	// ListAccounts returns the accounts with the given ids; all accounts if none given.
	ListAccounts(ctx context.Context, ids ...int) ([]account.Account, error)
	UpdateAccount(ctx context.Context, acc account.Account) (account.Account, error)
	DeleteAccount(ctx context.Context, id int) error

	CreateAdministrator(ctx context.Context, adm Administrator) (Administrator, error)
	GetAdministratorByAccount(ctx context.Context, accountID int) (Administrator, error)
	DeleteAdministrator(ctx context.Context, id int) error

	CreateInstructor(ctx context.Context, inst Instructor) (Instructor, error)
	GetInstructor(ctx context.Context, id int) (Instructor, error)
	GetInstructorByAccount(ctx context.Context, accountID int) (Instructor, error)
	ListInstructors(ctx context.Context, filter InstructorFilter) ([]Instructor, error)
	UpdateInstructor(ctx context.Context, inst Instructor) (Instructor, error)
	DeleteInstructor(ctx context.Context, id int) error

	CreateStudent(ctx context.Context, std Student) (Student, error)
	GetStudent(ctx context.Context, id int) (Student, error)
	GetStudentByAccount(ctx context.Context, accountID int) (Student, error)
	GetStudentByRegistrationCode(ctx context.Context, code string) (Student, error)
	ListStudents(ctx context.Context, filter StudentFilter) ([]Student, error)
	UpdateStudent(ctx context.Context, std Student) (Student, error)
	// ClearStudentsClassGroup nullifies the class group of its enrolled students and returns how many were changed.
	ClearStudentsClassGroup(ctx context.Context, classGroupID int) (int, error)
	DeleteStudent(ctx context.Context, id int) error

	CreateCourse(ctx context.Context, crs Course) (Course, error)
	GetCourse(ctx context.Context, id int) (Course, error)
	GetCourseByCode(ctx context.Context, code string) (Course, error)
	ListCourses(ctx context.Context, filter CourseFilter) ([]Course, error)
	UpdateCourse(ctx context.Context, crs Course) (Course, error)
	DeleteCourse(ctx context.Context, id int) error

	CreateSubject(ctx context.Context, sbj Subject) (Subject, error)
	GetSubject(ctx context.Context, id int) (Subject, error)
	ListSubjects(ctx context.Context, filter SubjectFilter) ([]Subject, error)
	UpdateSubject(ctx context.Context, sbj Subject) (Subject, error)
	DeleteSubject(ctx context.Context, id int) error

	CreateClassGroup(ctx context.Context, grp ClassGroup) (ClassGroup, error)
	GetClassGroup(ctx context.Context, id int) (ClassGroup, error)
	ListClassGroups(ctx context.Context, filter ClassGroupFilter) ([]ClassGroup, error)
	UpdateClassGroup(ctx context.Context, grp ClassGroup) (ClassGroup, error)
	// ClearClassGroupsInstructor nullifies the instructor of its class groups and returns how many were changed.
	ClearClassGroupsInstructor(ctx context.Context, instructorID int) (int, error)
	DeleteClassGroup(ctx context.Context, id int) error

	CreateAttendance(ctx context.Context, att Attendance) (Attendance, error)
	GetAttendance(ctx context.Context, id int) (Attendance, error)
	GetAttendanceByKey(ctx context.Context, studentID, classGroupID int, day time.Time) (Attendance, error)
	ListAttendance(ctx context.Context, filter AttendanceFilter) ([]Attendance, error)
	UpdateAttendance(ctx context.Context, att Attendance) (Attendance, error)
	DeleteAttendance(ctx context.Context, filter AttendanceFilter) (int, error)

	CreateMark(ctx context.Context, mrk Mark) (Mark, error)
	GetMark(ctx context.Context, id int) (Mark, error)
	GetMarkByKey(ctx context.Context, studentID, subjectID int) (Mark, error)
	ListMarks(ctx context.Context, filter MarkFilter) ([]Mark, error)
	UpdateMark(ctx context.Context, mrk Mark) (Mark, error)
	DeleteMarks(ctx context.Context, filter MarkFilter) (int, error)

	CreateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
	ListAssignments(ctx context.Context, filter AssignmentFilter) ([]Assignment, error)
	DeleteAssignments(ctx context.Context, filter AssignmentFilter) (int, error)
}

// Store is a Repository able to run a function atomically.
type Store interface {
	Repository

	// WithinTx runs fn in a transaction, committed if fn returns nil and rolled back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}

package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/academic"
	"github.com/trezcool/academia/core/account"
)

// Now is the fixed time of the test clock.
var Now = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

func NewConfig() *core.Config {
	return &core.Config{
		AppName:   "Academia",
		Env:       "test",
		TestMode:  true,
		SecretKey: "test-secret-key",
		Server: core.ServerConfig{
			JWTExpirationDelta: time.Hour,
		},
		Records: core.RecordsConfig{
			RegistrationPrefix:  "STU",
			InstructorPrefix:    "PROF",
			AdministratorPrefix: "ADM",
			DefaultDepartment:   "General",
		},
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func NewLogger() core.Logger { return nopLogger{} }

// Mailbox is a core.EmailService recording the messages sent.
type Mailbox struct {
	mu       sync.Mutex
	Messages []*core.EmailMessage
}

var _ core.EmailService = (*Mailbox)(nil)

func (m *Mailbox) SendMessages(messages ...*core.EmailMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, messages...)
}

func (m *Mailbox) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Messages)
}

// NewService returns a Service on `store` with the test clock. A nil mailbox disables emails.
func NewService(store academic.Store, mailbox *Mailbox) *academic.Service {
	var mailSvc core.EmailService
	if mailbox != nil {
		mailSvc = mailbox
	}
	return academic.NewService(store, NewConfig(), core.FixedClock(Now), NewLogger(), mailSvc)
}

func ActorOf(acc account.Account) academic.Actor {
	return academic.Actor{AccountID: acc.ID, Role: acc.Role, Email: acc.Email}
}

func CreateAccount(t *testing.T, repo academic.Repository, email, firstName, lastName string, role account.Role) account.Account {
	t.Helper()
	acc, err := repo.CreateAccount(context.Background(), account.Account{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Role:      role,
		IsActive:  true,
		CreatedAt: Now,
		UpdatedAt: Now,
	})
	if err != nil {
		t.Fatalf("CreateAccount() failed: %v", err)
	}
	return acc
}

func CreateAdministrator(t *testing.T, repo academic.Repository, email string) (account.Account, academic.Administrator) {
	t.Helper()
	acc := CreateAccount(t, repo, email, "Ada", "Admin", account.RoleAdministrator)
	adm, err := repo.CreateAdministrator(context.Background(), academic.Administrator{
		AccountID:    acc.ID,
		EmployeeCode: fmt.Sprintf("ADM%06d", acc.ID),
		CreatedAt:    Now,
	})
	if err != nil {
		t.Fatalf("CreateAdministrator() failed: %v", err)
	}
	return acc, adm
}

func CreateInstructor(t *testing.T, repo academic.Repository, email, firstName, lastName string) (account.Account, academic.Instructor) {
	t.Helper()
	acc := CreateAccount(t, repo, email, firstName, lastName, account.RoleInstructor)
	inst, err := repo.CreateInstructor(context.Background(), academic.Instructor{
		AccountID:    acc.ID,
		EmployeeCode: fmt.Sprintf("PROF%06d", acc.ID),
		Department:   "General",
		JoinedOn:     academic.Day(Now),
		CreatedAt:    Now,
		UpdatedAt:    Now,
	})
	if err != nil {
		t.Fatalf("CreateInstructor() failed: %v", err)
	}
	return acc, inst
}

func CreateStudent(t *testing.T, repo academic.Repository, email, firstName, lastName string, classGroupID null.Int) (account.Account, academic.Student) {
	t.Helper()
	acc := CreateAccount(t, repo, email, firstName, lastName, account.RoleStudent)
	std, err := repo.CreateStudent(context.Background(), academic.Student{
		AccountID:        acc.ID,
		RegistrationCode: fmt.Sprintf("STU%06d", acc.ID),
		ClassGroupID:     classGroupID,
		EnrolledOn:       academic.Day(Now),
		CreatedAt:        Now,
		UpdatedAt:        Now,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return acc, std
}

func CreateCourse(t *testing.T, repo academic.Repository, code, name string, instructorID int) academic.Course {
	t.Helper()
	crs, err := repo.CreateCourse(context.Background(), academic.Course{
		Code:         code,
		Name:         name,
		Credits:      3,
		InstructorID: instructorID,
		CreatedAt:    Now,
		UpdatedAt:    Now,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

func CreateSubject(t *testing.T, repo academic.Repository, courseID int, name string) academic.Subject {
	t.Helper()
	sbj, err := repo.CreateSubject(context.Background(), academic.Subject{
		CourseID:  courseID,
		Name:      name,
		CreatedAt: Now,
		UpdatedAt: Now,
	})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	return sbj
}

func CreateClassGroup(t *testing.T, repo academic.Repository, courseID int, instructorID null.Int, name string) academic.ClassGroup {
	t.Helper()
	grp, err := repo.CreateClassGroup(context.Background(), academic.ClassGroup{
		CourseID:     courseID,
		InstructorID: instructorID,
		Name:         name,
		CreatedAt:    Now,
		UpdatedAt:    Now,
	})
	if err != nil {
		t.Fatalf("CreateClassGroup() failed: %v", err)
	}
	return grp
}

func Assign(t *testing.T, repo academic.Repository, instructorID, subjectID int) {
	t.Helper()
	_, err := repo.CreateAssignment(context.Background(), academic.Assignment{
		InstructorID: instructorID,
		SubjectID:    subjectID,
		CreatedAt:    Now,
	})
	if err != nil {
		t.Fatalf("Assign() failed: %v", err)
	}
}

// World is a small school: two courses, each with a responsible instructor teaching its only subject
// and its only class group, one enrolled student per group and one unenrolled student.
type World struct {
	Admin       academic.Actor
	Instructor1 academic.Actor
	Instructor2 academic.Actor
	Student1    academic.Actor
	Student2    academic.Actor
	Student3    academic.Actor

	Prof1, Prof2       academic.Instructor
	Std1, Std2, Std3   academic.Student
	CourseA, CourseB   academic.Course
	SubjectA, SubjectB academic.Subject
	GroupA, GroupB     academic.ClassGroup
	AdminAccount       account.Account
	Std1Account        account.Account
	Prof1Account       account.Account
}

func NewWorld(t *testing.T, repo academic.Repository) *World {
	t.Helper()
	w := new(World)

	w.AdminAccount, _ = CreateAdministrator(t, repo, "admin@academia.local")
	w.Admin = ActorOf(w.AdminAccount)

	var acc account.Account
	w.Prof1Account, w.Prof1 = CreateInstructor(t, repo, "jane@academia.local", "Jane", "Doe")
	w.Instructor1 = ActorOf(w.Prof1Account)
	acc, w.Prof2 = CreateInstructor(t, repo, "john@academia.local", "John", "Smith")
	w.Instructor2 = ActorOf(acc)

	w.CourseA = CreateCourse(t, repo, "CS101", "Computer Science", w.Prof1.ID)
	w.CourseB = CreateCourse(t, repo, "MA101", "Mathematics", w.Prof2.ID)
	w.SubjectA = CreateSubject(t, repo, w.CourseA.ID, "Algorithms")
	w.SubjectB = CreateSubject(t, repo, w.CourseB.ID, "Algebra")
	Assign(t, repo, w.Prof1.ID, w.SubjectA.ID)
	Assign(t, repo, w.Prof2.ID, w.SubjectB.ID)
	w.GroupA = CreateClassGroup(t, repo, w.CourseA.ID, null.IntFrom(w.Prof1.ID), "CS-A")
	w.GroupB = CreateClassGroup(t, repo, w.CourseB.ID, null.IntFrom(w.Prof2.ID), "MA-A")

	w.Std1Account, w.Std1 = CreateStudent(t, repo, "alice@academia.local", "Alice", "Martin", null.IntFrom(w.GroupA.ID))
	w.Student1 = ActorOf(w.Std1Account)
	acc, w.Std2 = CreateStudent(t, repo, "bob@academia.local", "Bob", "Durand", null.IntFrom(w.GroupB.ID))
	w.Student2 = ActorOf(acc)
	acc, w.Std3 = CreateStudent(t, repo, "carol@academia.local", "Carol", "Petit", null.Int{})
	w.Student3 = ActorOf(acc)
	return w
}

package academic

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/account"
)

type (
	NewAdministrator struct {
		account.NewAccount
		EmployeeCode string `json:"employee_code" validate:"max=20"`
	}

	NewInstructor struct {
		account.NewAccount
		EmployeeCode string    `json:"employee_code" validate:"max=20"`
		Department   string    `json:"department" validate:"max=100"`
		JoinedOn     time.Time `json:"joined_on"`
	}

	// UpdateInstructor defines what information may be provided to modify an existing Instructor.
	UpdateInstructor struct {
		account.UpdateNames
		Department string `json:"department" validate:"max=100"`
	}

	NewStudent struct {
		account.NewAccount
		RegistrationCode string    `json:"registration_code" validate:"max=20"`
		ClassGroupID     null.Int  `json:"class_group_id"`
		EnrolledOn       time.Time `json:"enrolled_on"`
	}

	// UpdateStudent defines what information may be provided to modify an existing Student.
	// A null ClassGroupID is ignored, use LeaveClassGroup to unenroll.
	UpdateStudent struct {
		account.UpdateNames
		RegistrationCode string   `json:"registration_code" validate:"max=20"`
		ClassGroupID     null.Int `json:"class_group_id"`
		LeaveClassGroup  bool     `json:"leave_class_group"`
	}

	StudentQuery struct {
		ClassGroupID int `query:"class_group_id"`
	}
)

func (na *NewAdministrator) Validate() error {
	na.Clean()
	na.EmployeeCode = core.CleanString(na.EmployeeCode)
	return core.ValidateStruct(na)
}

func (ni *NewInstructor) Validate() error {
	ni.Clean()
	ni.EmployeeCode = core.CleanString(ni.EmployeeCode)
	ni.Department = core.CleanString(ni.Department)
	return core.ValidateStruct(ni)
}

func (ns *NewStudent) Validate() error {
	ns.Clean()
	ns.RegistrationCode = core.CleanString(ns.RegistrationCode)
	return core.ValidateStruct(ns)
}

// createAccount inserts the account of a new profile, rejecting a taken email with a core.KindConflict error.
func (svc *Service) createAccount(ctx context.Context, repo Repository, na account.NewAccount, role account.Role) (account.Account, error) {
	conflictMsg := fmt.Sprintf("an account with email %q already exists", na.Email)
	if _, err := repo.GetAccountByEmail(ctx, na.Email); err == nil {
		return account.Account{}, core.NewConflictError(EntityAccount, conflictMsg)
	} else if !core.IsKind(err, core.KindNotFound) {
		return account.Account{}, errors.Wrap(err, "checking email uniqueness")
	}
	acc, err := na.Build(role, svc.now())
	if err != nil {
		return account.Account{}, errors.Wrap(err, "building account")
	}
	acc, err = repo.CreateAccount(ctx, acc)
	if err != nil {
		return account.Account{}, uniqueConflict(err, EntityAccount, conflictMsg)
	}
	return acc, nil
}

func codeOrDefault(code, prefix string, accountID int) string {
	if code != "" {
		return code
	}
	return fmt.Sprintf("%s%06d", prefix, accountID)
}

func dayOrToday(t time.Time, now time.Time) time.Time {
	if t.IsZero() {
		return Day(now)
	}
	return Day(t)
}

// CreateAdministrator provisions an administrator account and profile. Administrators only.
func (svc *Service) CreateAdministrator(ctx context.Context, actor Actor, na NewAdministrator) (AdministratorView, error) {
	if err := na.Validate(); err != nil {
		return AdministratorView{}, err
	}
	var view AdministratorView
	err := svc.adminOnly(ctx, actor, EntityAdministrator, OpCreate, func(ctx context.Context, repo Repository) error {
		var err error
		view, err = svc.createAdministrator(ctx, repo, na)
		return err
	})
	if err == nil {
		svc.sendWelcome(view.Email, view.FullName, account.RoleAdministrator)
	}
	return view, err
}

// Bootstrap provisions an administrator without an acting administrator, for the first account of a deployment.
func (svc *Service) Bootstrap(ctx context.Context, na NewAdministrator) (AdministratorView, error) {
	if err := na.Validate(); err != nil {
		return AdministratorView{}, err
	}
	var view AdministratorView
	err := svc.store.WithinTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		view, err = svc.createAdministrator(ctx, repo, na)
		return err
	})
	return view, err
}

func (svc *Service) createAdministrator(ctx context.Context, repo Repository, na NewAdministrator) (AdministratorView, error) {
	acc, err := svc.createAccount(ctx, repo, na.NewAccount, account.RoleAdministrator)
	if err != nil {
		return AdministratorView{}, err
	}
	code := codeOrDefault(na.EmployeeCode, svc.conf.AdministratorPrefix, acc.ID)
	adm, err := repo.CreateAdministrator(ctx, Administrator{AccountID: acc.ID, EmployeeCode: code, CreatedAt: acc.CreatedAt})
	if err != nil {
		return AdministratorView{}, uniqueConflict(err, EntityAdministrator, fmt.Sprintf("employee code %q is taken", code))
	}
	return newProjector(repo).administratorView(ctx, adm)
}

// CreateInstructor provisions an instructor account and profile. Administrators only.
func (svc *Service) CreateInstructor(ctx context.Context, actor Actor, ni NewInstructor) (InstructorView, error) {
	if err := ni.Validate(); err != nil {
		return InstructorView{}, err
	}
	var view InstructorView
	err := svc.adminOnly(ctx, actor, EntityInstructor, OpCreate, func(ctx context.Context, repo Repository) error {
		acc, err := svc.createAccount(ctx, repo, ni.NewAccount, account.RoleInstructor)
		if err != nil {
			return err
		}
		dept := ni.Department
		if dept == "" {
			dept = svc.conf.DefaultDepartment
		}
		code := codeOrDefault(ni.EmployeeCode, svc.conf.InstructorPrefix, acc.ID)
		inst, err := repo.CreateInstructor(ctx, Instructor{
			AccountID:    acc.ID,
			EmployeeCode: code,
			Department:   dept,
			JoinedOn:     dayOrToday(ni.JoinedOn, acc.CreatedAt),
			CreatedAt:    acc.CreatedAt,
			UpdatedAt:    acc.CreatedAt,
		})
		if err != nil {
			return uniqueConflict(err, EntityInstructor, fmt.Sprintf("employee code %q is taken", code))
		}
		view, err = newProjector(repo).instructorView(ctx, inst)
		return err
	})
	if err == nil {
		svc.sendWelcome(view.Email, view.FullName, account.RoleInstructor)
	}
	return view, err
}

// CreateStudent provisions a student account and profile, optionally enrolled in a class group. Administrators only.
func (svc *Service) CreateStudent(ctx context.Context, actor Actor, ns NewStudent) (StudentView, error) {
	if err := ns.Validate(); err != nil {
		return StudentView{}, err
	}
	var view StudentView
	err := svc.adminOnly(ctx, actor, EntityStudent, OpCreate, func(ctx context.Context, repo Repository) error {
		if ns.ClassGroupID.Valid {
			if _, err := repo.GetClassGroup(ctx, ns.ClassGroupID.Int); err != nil {
				return err
			}
		}
		if ns.RegistrationCode != "" {
			if err := checkRegistrationCode(ctx, repo, ns.RegistrationCode, 0); err != nil {
				return err
			}
		}
		acc, err := svc.createAccount(ctx, repo, ns.NewAccount, account.RoleStudent)
		if err != nil {
			return err
		}
		code := codeOrDefault(ns.RegistrationCode, svc.conf.RegistrationPrefix, acc.ID)
		std, err := repo.CreateStudent(ctx, Student{
			AccountID:        acc.ID,
			RegistrationCode: code,
			ClassGroupID:     ns.ClassGroupID,
			EnrolledOn:       dayOrToday(ns.EnrolledOn, acc.CreatedAt),
			CreatedAt:        acc.CreatedAt,
			UpdatedAt:        acc.CreatedAt,
		})
		if err != nil {
			err = uniqueConflict(err, EntityStudent, registrationConflict(code))
			return missingReference(err, EntityClassGroup, ns.ClassGroupID.Int)
		}
		view, err = newProjector(repo).studentView(ctx, std)
		return err
	})
	if err == nil {
		svc.sendWelcome(view.Email, view.FullName, account.RoleStudent)
	}
	return view, err
}

func registrationConflict(code string) string {
	return fmt.Sprintf("registration code %q is already used", code)
}

// checkRegistrationCode rejects a code used by a student other than `exclID`.
func checkRegistrationCode(ctx context.Context, repo Repository, code string, exclID int) error {
	std, err := repo.GetStudentByRegistrationCode(ctx, code)
	if err == nil && std.ID != exclID {
		return core.NewConflictError(EntityStudent, registrationConflict(code))
	}
	if err != nil && !core.IsKind(err, core.KindNotFound) {
		return errors.Wrap(err, "checking registration code")
	}
	return nil
}

// GetStudent returns a student visible to the actor.
func (svc *Service) GetStudent(ctx context.Context, actor Actor, id int) (StudentView, error) {
	var view StudentView
	err := svc.scoped(ctx, actor, func(ctx context.Context, repo Repository, scope *Scope) error {
		std, err := repo.GetStudent(ctx, id)
		if err != nil {
			return err
		}
		if err = scope.Check(EntityStudent, OpRead, std.ID); err != nil {
			return err
		}
		view, err = newProjector(repo).studentView(ctx, std)
		return err
	})
	return view, err
}

// ListStudents lists the students visible to the actor, optionally those of one class group.
func (svc *Service) ListStudents(ctx context.Context, actor Actor, q StudentQuery) ([]StudentView, error) {
	var views []StudentView
	err := svc.scoped(ctx, actor, func(ctx context.Context, repo Repository, scope *Scope) error {
		if q.ClassGroupID != 0 && !scope.Unrestricted() {
			if _, err := repo.GetClassGroup(ctx, q.ClassGroupID); err != nil {
				return err
			}
			if err := scope.Check(EntityClassGroup, OpRead, q.ClassGroupID); err != nil {
				return err
			}
		}
		students, err := repo.ListStudents(ctx, StudentFilter{
			IDs:           scope.StudentIDs(),
			ClassGroupIDs: optionalID(q.ClassGroupID),
		})
		if err != nil {
			return errors.Wrap(err, "listing students")
		}
		views, err = project(ctx, students, newProjector(repo).studentView)
		return err
	})
	return views, err
}

// StudentProfile returns the profile of the acting student.
func (svc *Service) StudentProfile(ctx context.Context, actor Actor) (StudentView, error) {
	var view StudentView
	err := svc.scoped(ctx, actor, func(ctx context.Context, repo Repository, scope *Scope) error {
		if scope.StudentID == 0 {
			return core.NewForbiddenError(EntityStudent, "only students have a student profile")
		}
		std, err := repo.GetStudent(ctx, scope.StudentID)
		if err != nil {
			return err
		}
		view, err = newProjector(repo).studentView(ctx, std)
		return err
	})
	return view, err
}

// UpdateStudent changes the names, registration code or class group of a student. Administrators only.
func (svc *Service) UpdateStudent(ctx context.Context, actor Actor, id int, us UpdateStudent) (StudentView, error) {
	us.RegistrationCode = core.CleanString(us.RegistrationCode)
	if err := core.ValidateStruct(us); err != nil {
		return StudentView{}, err
	}
	var view StudentView
	err := svc.scoped(ctx, actor, func(ctx context.Context, repo Repository, scope *Scope) error {
		std, err := repo.GetStudent(ctx, id)
		if err != nil {
			return err
		}
		if err = scope.Check(EntityStudent, OpUpdate, std.ID); err != nil {
			return err
		}

		if us.RegistrationCode != "" && us.RegistrationCode != std.RegistrationCode {
			if err = checkRegistrationCode(ctx, repo, us.RegistrationCode, std.ID); err != nil {
				return err
			}
			std.RegistrationCode = us.RegistrationCode
		}
		switch {
		case us.LeaveClassGroup:
			std.ClassGroupID = null.Int{}
		case us.ClassGroupID.Valid:
			if _, err = repo.GetClassGroup(ctx, us.ClassGroupID.Int); err != nil {
				return err
			}
			std.ClassGroupID = us.ClassGroupID
		}
		now := svc.now()
		std.UpdatedAt = now
		code, groupID := std.RegistrationCode, std.ClassGroupID.Int
		if std, err = repo.UpdateStudent(ctx, std); err != nil {
			err = uniqueConflict(err, EntityStudent, registrationConflict(code))
			return missingReference(err, EntityClassGroup, groupID)
		}
		if err = svc.updateNames(ctx, repo, std.AccountID, us.UpdateNames, now); err != nil {
			return err
		}
		view, err = newProjector(repo).studentView(ctx, std)
		return err
	})
	return view, err
}

// DeleteStudent deletes a student with its account, attendance and marks. Administrators only.
func (svc *Service) DeleteStudent(ctx context.Context, actor Actor, id int) error {
	return svc.adminOnly(ctx, actor, EntityStudent, OpDelete, func(ctx context.Context, repo Repository) error {
		std, err := repo.GetStudent(ctx, id)
		if err != nil {
			return err
		}
		return deleteCascading(ctx, repo, EntityAccount, std.AccountID)
	})
}

// GetInstructor returns an instructor: any for administrators, themselves for instructors.
func (svc *Service) GetInstructor(ctx context.Context, actor Actor, id int) (InstructorView, error) {
	var view InstructorView
	err := svc.scoped(ctx, actor, func(ctx context.Context, repo Repository, scope *Scope) error {
		inst, err := repo.GetInstructor(ctx, id)
		if err != nil {
			return err
		}
		if err = scope.Check(EntityInstructor, OpRead, inst.ID); err != nil {
			return err
		}
		view, err = newProjector(repo).instructorView(ctx, inst)
		return err
	})
	return view, err
}

// ListInstructors lists all instructors. Administrators only.
func (svc *Service) ListInstructors(ctx context.Context, actor Actor) ([]InstructorView, error) {
	var views []InstructorView
	err := svc.adminOnly(ctx, actor, EntityInstructor, OpRead, func(ctx context.Context, repo Repository) error {
		instructors, err := repo.ListInstructors(ctx, InstructorFilter{})
		if err != nil {
			return errors.Wrap(err, "listing instructors")
		}
		views, err = project(ctx, instructors, newProjector(repo).instructorView)
		return err
	})
	return views, err
}

// InstructorProfile returns the profile of the acting instructor.
func (svc *Service) InstructorProfile(ctx context.Context, actor Actor) (InstructorView, error) {
	var view InstructorView
	err := svc.scoped(ctx, actor, func(ctx context.Context, repo Repository, scope *Scope) error {
		if scope.InstructorID == 0 {
			return core.NewForbiddenError(EntityInstructor, "only instructors have an instructor profile")
		}
		inst, err := repo.GetInstructor(ctx, scope.InstructorID)
		if err != nil {
			return err
		}
		view, err = newProjector(repo).instructorView(ctx, inst)
		return err
	})
	return view, err
}

// UpdateInstructor changes the names or department of an instructor. Administrators only.
func (svc *Service) UpdateInstructor(ctx context.Context, actor Actor, id int, ui UpdateInstructor) (InstructorView, error) {
	ui.Department = core.CleanString(ui.Department)
	if err := core.ValidateStruct(ui); err != nil {
		return InstructorView{}, err
	}
	var view InstructorView
	err := svc.adminOnly(ctx, actor, EntityInstructor, OpUpdate, func(ctx context.Context, repo Repository) error {
		inst, err := repo.GetInstructor(ctx, id)
		if err != nil {
			return err
		}
		now := svc.now()
		if ui.Department != "" {
			inst.Department = ui.Department
			inst.UpdatedAt = now
			if inst, err = repo.UpdateInstructor(ctx, inst); err != nil {
				return errors.Wrap(err, "updating instructor")
			}
		}
		if err = svc.updateNames(ctx, repo, inst.AccountID, ui.UpdateNames, now); err != nil {
			return err
		}
		view, err = newProjector(repo).instructorView(ctx, inst)
		return err
	})
	return view, err
}

// DeleteInstructor deletes an instructor with its account.
// It is rejected with a core.KindConflict error while the instructor is responsible for a course.
func (svc *Service) DeleteInstructor(ctx context.Context, actor Actor, id int) error {
	return svc.adminOnly(ctx, actor, EntityInstructor, OpDelete, func(ctx context.Context, repo Repository) error {
		inst, err := repo.GetInstructor(ctx, id)
		if err != nil {
			return err
		}
		return deleteCascading(ctx, repo, EntityAccount, inst.AccountID)
	})
}

// SetAccountActive activates or deactivates an account. Administrators only.
func (svc *Service) SetAccountActive(ctx context.Context, actor Actor, accountID int, active bool) (account.Account, error) {
	var acc account.Account
	err := svc.adminOnly(ctx, actor, EntityAccount, OpUpdate, func(ctx context.Context, repo Repository) error {
		var err error
		if acc, err = repo.GetAccount(ctx, accountID); err != nil {
			return err
		}
		acc.IsActive = active
		acc.UpdatedAt = svc.now()
		acc, err = repo.UpdateAccount(ctx, acc)
		return errors.Wrap(err, "updating account")
	})
	return acc, err
}

// AdministratorProfile returns the profile of the acting administrator.
func (svc *Service) AdministratorProfile(ctx context.Context, actor Actor) (AdministratorView, error) {
	var view AdministratorView
	err := svc.adminOnly(ctx, actor, EntityAdministrator, OpRead, func(ctx context.Context, repo Repository) error {
		adm, err := repo.GetAdministratorByAccount(ctx, actor.AccountID)
		if err != nil {
			return err
		}
		view, err = newProjector(repo).administratorView(ctx, adm)
		return err
	})
	return view, err
}

// ResetPassword sets a new password on the account of `email`, for operators without an acting administrator.
func (svc *Service) ResetPassword(ctx context.Context, email, password string) error {
	np := account.NewPassword{Password: password}
	if err := np.Validate(); err != nil {
		return err
	}
	return svc.store.WithinTx(ctx, func(ctx context.Context, repo Repository) error {
		acc, err := repo.GetAccountByEmail(ctx, core.CleanString(email))
		if err != nil {
			return err
		}
		if err = acc.SetPassword(np.Password); err != nil {
			return errors.Wrap(err, "hashing password")
		}
		acc.UpdatedAt = svc.now()
		_, err = repo.UpdateAccount(ctx, acc)
		return errors.Wrap(err, "updating account password")
	})
}

func (svc *Service) updateNames(ctx context.Context, repo Repository, accountID int, un account.UpdateNames, now time.Time) error {
	if core.CleanString(un.FirstName) == "" && core.CleanString(un.LastName) == "" {
		return nil
	}
	acc, err := repo.GetAccount(ctx, accountID)
	if err != nil {
		if core.IsKind(err, core.KindNotFound) {
			return nil // nothing to rename
		}
		return errors.Wrap(err, "loading account")
	}
	un.Apply(&acc)
	acc.UpdatedAt = now
	if _, err = repo.UpdateAccount(ctx, acc); err != nil {
		return errors.Wrap(err, "updating account names")
	}
	return nil
}

func (svc *Service) sendWelcome(email, name string, role account.Role) {
	if svc.mailSvc == nil || email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: name, Address: email}},
		Subject: "Welcome to " + svc.appName,
		TextContent: fmt.Sprintf(
			"Hello %s,\r\n\r\nYour %s account has been created for you on %s with this email address.\r\n",
			name, role, svc.appName,
		),
	})
}

package academic

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/account"
)

// Actor is the verified identity attached to an authenticated request.
type Actor struct {
	AccountID int
	Role      account.Role
	Email     string
}

func (a Actor) IsAdministrator() bool { return a.Role == account.RoleAdministrator }
func (a Actor) IsInstructor() bool    { return a.Role == account.RoleInstructor }
func (a Actor) IsStudent() bool       { return a.Role == account.RoleStudent }

type Operation uint8

const (
	OpRead Operation = iota
	OpCreate
	OpUpdate
	OpDelete
)

func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "read"
	}
}

type idSet map[int]struct{}

func newIDSet(vals ...int) idSet {
	s := make(idSet, len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

func (s idSet) has(id int) bool {
	_, ok := s[id]
	return ok
}

func (s idSet) add(vals ...int) {
	for _, v := range vals {
		s[v] = struct{}{}
	}
}

// list returns the ids as a non-nil slice so it can be used as a filter matching nothing when empty.
func (s idSet) list() []int {
	res := make([]int, 0, len(s))
	for id := range s {
		res = append(res, id)
	}
	return res
}

// Scope is the subset of the entity graph an actor may observe or change.
// Administrators are unrestricted; the sets are only computed for instructors and students.
type Scope struct {
	Actor        Actor
	InstructorID int // set for instructors
	StudentID    int // set for students

	unrestricted bool

	courses     idSet // instructor: responsible or assigned; student: own course
	ownCourses  idSet // instructor: responsible only
	classGroups idSet // instructor: own groups and groups of own courses; student: own group
	subjects    idSet // instructor: assigned and subjects of own courses; student: subjects of own course
	students    idSet // instructor: students of in-scope class groups; student: self
}

// Resolver computes the Scope of an actor from the current state of the Repository.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) Resolver {
	return Resolver{repo: repo}
}

func (r Resolver) Scope(ctx context.Context, actor Actor) (*Scope, error) {
	acc, err := r.repo.GetAccount(ctx, actor.AccountID)
	if err != nil {
		if core.IsKind(err, core.KindNotFound) {
			return nil, core.NewForbiddenError(EntityAccount, fmt.Sprintf("account %d does not exist", actor.AccountID))
		}
		return nil, errors.Wrapf(err, "loading account %d", actor.AccountID)
	}
	if !acc.IsActive {
		return nil, core.NewForbiddenError(EntityAccount, fmt.Sprintf("account %d is deactivated", acc.ID))
	}

	switch actor.Role {
	case account.RoleAdministrator:
		if _, err := r.repo.GetAdministratorByAccount(ctx, actor.AccountID); err != nil {
			return nil, profileErr(actor, err)
		}
		return &Scope{Actor: actor, unrestricted: true}, nil
	case account.RoleInstructor:
		return r.instructorScope(ctx, actor)
	case account.RoleStudent:
		return r.studentScope(ctx, actor)
	default:
		return nil, core.NewForbiddenError(EntityAccount, fmt.Sprintf("unknown role %q", actor.Role))
	}
}

func profileErr(actor Actor, err error) error {
	if core.IsKind(err, core.KindNotFound) {
		return core.NewForbiddenError(EntityAccount, fmt.Sprintf("account %d has no %s profile", actor.AccountID, actor.Role))
	}
	return errors.Wrapf(err, "loading %s profile of account %d", actor.Role, actor.AccountID)
}

func (r Resolver) instructorScope(ctx context.Context, actor Actor) (*Scope, error) {
	inst, err := r.repo.GetInstructorByAccount(ctx, actor.AccountID)
	if err != nil {
		return nil, profileErr(actor, err)
	}
	s := &Scope{
		Actor:        actor,
		InstructorID: inst.ID,
		courses:      newIDSet(),
		ownCourses:   newIDSet(),
		classGroups:  newIDSet(),
		subjects:     newIDSet(),
		students:     newIDSet(),
	}

	owned, err := r.repo.ListCourses(ctx, CourseFilter{InstructorIDs: ids(inst.ID)})
	if err != nil {
		return nil, errors.Wrap(err, "listing responsible courses")
	}
	s.ownCourses.add(courseIDs(owned)...)
	s.courses.add(courseIDs(owned)...)

	// class groups it teaches and those of its courses
	groups, err := r.repo.ListClassGroups(ctx, ClassGroupFilter{InstructorIDs: ids(inst.ID)})
	if err != nil {
		return nil, errors.Wrap(err, "listing taught class groups")
	}
	courseGroups, err := r.repo.ListClassGroups(ctx, ClassGroupFilter{CourseIDs: s.ownCourses.list()})
	if err != nil {
		return nil, errors.Wrap(err, "listing class groups of responsible courses")
	}
	for _, g := range append(groups, courseGroups...) {
		s.classGroups.add(g.ID)
		s.courses.add(g.CourseID)
	}

	// subjects assigned to it and those of its courses
	asgs, err := r.repo.ListAssignments(ctx, AssignmentFilter{InstructorIDs: ids(inst.ID)})
	if err != nil {
		return nil, errors.Wrap(err, "listing assignments")
	}
	assigned := newIDSet()
	for _, a := range asgs {
		assigned.add(a.SubjectID)
	}
	subjects, err := r.repo.ListSubjects(ctx, SubjectFilter{IDs: assigned.list()})
	if err != nil {
		return nil, errors.Wrap(err, "listing assigned subjects")
	}
	courseSubjects, err := r.repo.ListSubjects(ctx, SubjectFilter{CourseIDs: s.ownCourses.list()})
	if err != nil {
		return nil, errors.Wrap(err, "listing subjects of responsible courses")
	}
	markCourses := newIDSet()
	for _, sbj := range append(subjects, courseSubjects...) {
		s.subjects.add(sbj.ID)
		s.courses.add(sbj.CourseID)
		markCourses.add(sbj.CourseID)
	}

	// students enrolled in its class groups, or in a group of a course where it teaches a subject
	markGroups, err := r.repo.ListClassGroups(ctx, ClassGroupFilter{CourseIDs: markCourses.list()})
	if err != nil {
		return nil, errors.Wrap(err, "listing class groups of taught subjects")
	}
	studentGroups := newIDSet(s.classGroups.list()...)
	studentGroups.add(classGroupIDs(markGroups)...)
	students, err := r.repo.ListStudents(ctx, StudentFilter{ClassGroupIDs: studentGroups.list()})
	if err != nil {
		return nil, errors.Wrap(err, "listing students")
	}
	for _, std := range students {
		s.students.add(std.ID)
	}
	return s, nil
}

func (r Resolver) studentScope(ctx context.Context, actor Actor) (*Scope, error) {
	std, err := r.repo.GetStudentByAccount(ctx, actor.AccountID)
	if err != nil {
		return nil, profileErr(actor, err)
	}
	s := &Scope{
		Actor:       actor,
		StudentID:   std.ID,
		courses:     newIDSet(),
		ownCourses:  newIDSet(),
		classGroups: newIDSet(),
		subjects:    newIDSet(),
		students:    newIDSet(std.ID),
	}
	if !std.ClassGroupID.Valid {
		return s, nil
	}
	grp, err := r.repo.GetClassGroup(ctx, std.ClassGroupID.Int)
	if err != nil {
		if core.IsKind(err, core.KindNotFound) {
			return s, nil
		}
		return nil, errors.Wrap(err, "loading own class group")
	}
	s.classGroups.add(grp.ID)
	s.courses.add(grp.CourseID)
	subjects, err := r.repo.ListSubjects(ctx, SubjectFilter{CourseIDs: ids(grp.CourseID)})
	if err != nil {
		return nil, errors.Wrap(err, "listing subjects of own course")
	}
	for _, sbj := range subjects {
		s.subjects.add(sbj.ID)
	}
	return s, nil
}

func (s *Scope) Unrestricted() bool { return s.unrestricted }

// Allows is the capability check for (role, entity, operation).
// id is ignored for OpCreate. For attendance and marks, pass the student id; see AllowsAttendance and AllowsMark.
func (s *Scope) Allows(entity string, op Operation, id int) bool {
	if s.unrestricted {
		return true
	}
	if s.Actor.IsStudent() {
		if op != OpRead {
			return false
		}
		switch entity {
		case EntityStudent, EntityAttendance, EntityMark:
			return s.students.has(id)
		case EntitySubject:
			return s.subjects.has(id)
		default:
			return false
		}
	}

	// instructor
	if op == OpCreate || op == OpDelete {
		switch entity {
		case EntityAttendance, EntityMark:
			return op == OpCreate && s.students.has(id)
		default:
			return false
		}
	}
	switch entity {
	case EntityInstructor:
		return op == OpRead && id == s.InstructorID
	case EntityCourse:
		if op == OpUpdate {
			return s.ownCourses.has(id)
		}
		return s.courses.has(id)
	case EntityClassGroup:
		return s.classGroups.has(id)
	case EntitySubject:
		return s.subjects.has(id)
	case EntityStudent:
		return op == OpRead && s.students.has(id)
	case EntityAttendance, EntityMark:
		return s.students.has(id)
	default:
		return false
	}
}

// Check returns a core.KindForbidden error when Allows is false.
func (s *Scope) Check(entity string, op Operation, id int) error {
	if s.Allows(entity, op, id) {
		return nil
	}
	if op == OpCreate {
		return core.NewForbiddenError(entity, fmt.Sprintf("%s may not create %s records", s.Actor.Role, entity))
	}
	return core.NewForbiddenError(entity, fmt.Sprintf("%s %d is out of scope for %s %s", entity, id, s.Actor.Role, op))
}

// CheckCourseFilter rejects a list filter on a course outside the scope.
func (s *Scope) CheckCourseFilter(id int) error {
	if s.unrestricted || s.courses.has(id) {
		return nil
	}
	return core.NewForbiddenError(EntityCourse, fmt.Sprintf("%s %d is out of scope for %s %s", EntityCourse, id, s.Actor.Role, OpRead))
}

// AllowsAttendance checks access to the attendance of `std` in `grp`.
// Instructors need the group in scope and the student enrolled in it.
func (s *Scope) AllowsAttendance(op Operation, std Student, grp ClassGroup) error {
	if s.unrestricted {
		return nil
	}
	if s.Actor.IsStudent() {
		return s.Check(EntityAttendance, op, std.ID)
	}
	if !s.classGroups.has(grp.ID) {
		return s.Check(EntityClassGroup, OpRead, grp.ID)
	}
	if !std.ClassGroupID.Valid || std.ClassGroupID.Int != grp.ID {
		return core.NewForbiddenError(EntityStudent, fmt.Sprintf("student %d is not enrolled in class group %d", std.ID, grp.ID))
	}
	return s.Check(EntityAttendance, op, std.ID)
}

// AllowsMark checks access to the mark of `std` in `sbj`.
// Instructors need the subject in scope and the student enrolled in a class group of the subject's course.
func (s *Scope) AllowsMark(op Operation, std Student, stdGroup *ClassGroup, sbj Subject) error {
	if s.unrestricted {
		return nil
	}
	if s.Actor.IsStudent() {
		return s.Check(EntityMark, op, std.ID)
	}
	if !s.subjects.has(sbj.ID) {
		return s.Check(EntitySubject, OpRead, sbj.ID)
	}
	if stdGroup == nil || stdGroup.CourseID != sbj.CourseID {
		return core.NewForbiddenError(EntityStudent, fmt.Sprintf("student %d does not take subject %d", std.ID, sbj.ID))
	}
	return s.Check(EntityMark, op, std.ID)
}

// Filters narrow list queries to the scope. A nil slice means unrestricted.

func (s *Scope) CourseIDs() []int {
	if s.unrestricted {
		return nil
	}
	if s.Actor.IsStudent() {
		return []int{} // students only see the subjects of their course
	}
	return s.courses.list()
}

func (s *Scope) ClassGroupIDs() []int {
	if s.unrestricted {
		return nil
	}
	if s.Actor.IsStudent() {
		return []int{} // students do not list class groups
	}
	return s.classGroups.list()
}

func (s *Scope) SubjectIDs() []int {
	if s.unrestricted {
		return nil
	}
	return s.subjects.list()
}

func (s *Scope) StudentIDs() []int {
	if s.unrestricted {
		return nil
	}
	return s.students.list()
}

// intersect narrows a requested filter to the scope's ids.
func intersect(requested, allowed []int) []int {
	if allowed == nil {
		return requested
	}
	if requested == nil {
		return allowed
	}
	set := newIDSet(allowed...)
	res := make([]int, 0, len(requested))
	for _, id := range requested {
		if set.has(id) {
			res = append(res, id)
		}
	}
	return res
}

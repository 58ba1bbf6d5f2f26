package academic

import (
	"context"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/account"
)

const (
	// PlaceholderName stands for a name whose account (or linked entity) could not be loaded.
	PlaceholderName = "N/A"
	// UnassignedName stands for a null instructor or class group reference.
	UnassignedName = "Unassigned"
)

type (
	AdministratorView struct {
		Administrator
		Email    string `json:"email"`
		FullName string `json:"full_name"`
	}

	InstructorView struct {
		Instructor
		Email           string `json:"email"`
		FirstName       string `json:"first_name"`
		LastName        string `json:"last_name"`
		FullName        string `json:"full_name"`
		SubjectCount    int    `json:"subject_count"`
		ClassGroupCount int    `json:"class_group_count"`
	}

	StudentView struct {
		Student
		Email          string   `json:"email"`
		FirstName      string   `json:"first_name"`
		LastName       string   `json:"last_name"`
		FullName       string   `json:"full_name"`
		ClassGroupName string   `json:"class_group_name"`
		CourseID       null.Int `json:"course_id"`
		CourseName     string   `json:"course_name"`
	}

	CourseView struct {
		Course
		InstructorName string `json:"instructor_name"`
		SubjectCount   int    `json:"subject_count"`
	}

	SubjectView struct {
		Subject
		CourseName      string   `json:"course_name"`
		InstructorNames []string `json:"instructor_names"`
	}

	ClassGroupView struct {
		ClassGroup
		CourseName     string `json:"course_name"`
		InstructorName string `json:"instructor_name"`
		StudentCount   int    `json:"student_count"`
	}

	AttendanceView struct {
		Attendance
		StudentName    string `json:"student_name"`
		ClassGroupName string `json:"class_group_name"`
	}

	MarkView struct {
		Mark
		StudentName string `json:"student_name"`
		SubjectName string `json:"subject_name"`
	}

	AssignmentView struct {
		Assignment
		InstructorName string `json:"instructor_name"`
		SubjectName    string `json:"subject_name"`
		CourseID       int    `json:"course_id"`
		CourseName     string `json:"course_name"`
	}
)

// projector resolves the names of linked entities while shaping views.
// Lookups are cached for the lifetime of one operation. A missing linked row resolves to PlaceholderName;
// any other storage error is returned.
type projector struct {
	repo        Repository
	accounts    map[int]*account.Account
	instructors map[int]*Instructor
	students    map[int]*Student
	courses     map[int]*Course
	subjects    map[int]*Subject
	groups      map[int]*ClassGroup
}

func newProjector(repo Repository) *projector {
	return &projector{
		repo:        repo,
		accounts:    make(map[int]*account.Account),
		instructors: make(map[int]*Instructor),
		students:    make(map[int]*Student),
		courses:     make(map[int]*Course),
		subjects:    make(map[int]*Subject),
		groups:      make(map[int]*ClassGroup),
	}
}

// lookup loads a row through `get`, caching misses as nil.
func lookup[T any](ctx context.Context, cache map[int]*T, id int, get func(context.Context, int) (T, error)) (*T, error) {
	if v, ok := cache[id]; ok {
		return v, nil
	}
	v, err := get(ctx, id)
	if err != nil {
		if core.IsKind(err, core.KindNotFound) {
			cache[id] = nil
			return nil, nil
		}
		return nil, err
	}
	cache[id] = &v
	return &v, nil
}

func (p *projector) account(ctx context.Context, id int) (*account.Account, error) {
	return lookup(ctx, p.accounts, id, p.repo.GetAccount)
}

func (p *projector) accountName(ctx context.Context, id int) (string, error) {
	acc, err := p.account(ctx, id)
	if err != nil || acc == nil {
		return PlaceholderName, err
	}
	if name := acc.FullName(); name != "" {
		return name, nil
	}
	return PlaceholderName, nil
}

func (p *projector) instructorName(ctx context.Context, id int) (string, error) {
	inst, err := lookup(ctx, p.instructors, id, p.repo.GetInstructor)
	if err != nil || inst == nil {
		return PlaceholderName, err
	}
	return p.accountName(ctx, inst.AccountID)
}

func (p *projector) optionalInstructorName(ctx context.Context, id null.Int) (string, error) {
	if !id.Valid {
		return UnassignedName, nil
	}
	return p.instructorName(ctx, id.Int)
}

func (p *projector) studentName(ctx context.Context, id int) (string, error) {
	std, err := lookup(ctx, p.students, id, p.repo.GetStudent)
	if err != nil || std == nil {
		return PlaceholderName, err
	}
	return p.accountName(ctx, std.AccountID)
}

func (p *projector) course(ctx context.Context, id int) (*Course, error) {
	return lookup(ctx, p.courses, id, p.repo.GetCourse)
}

func (p *projector) courseName(ctx context.Context, id int) (string, error) {
	crs, err := p.course(ctx, id)
	if err != nil || crs == nil {
		return PlaceholderName, err
	}
	return crs.Name, nil
}

func (p *projector) subject(ctx context.Context, id int) (*Subject, error) {
	return lookup(ctx, p.subjects, id, p.repo.GetSubject)
}

func (p *projector) subjectName(ctx context.Context, id int) (string, error) {
	sbj, err := p.subject(ctx, id)
	if err != nil || sbj == nil {
		return PlaceholderName, err
	}
	return sbj.Name, nil
}

func (p *projector) group(ctx context.Context, id int) (*ClassGroup, error) {
	return lookup(ctx, p.groups, id, p.repo.GetClassGroup)
}

func (p *projector) groupName(ctx context.Context, id int) (string, error) {
	grp, err := p.group(ctx, id)
	if err != nil || grp == nil {
		return PlaceholderName, err
	}
	return grp.Name, nil
}

// Views

func (p *projector) administratorView(ctx context.Context, adm Administrator) (AdministratorView, error) {
	view := AdministratorView{Administrator: adm, FullName: PlaceholderName}
	acc, err := p.account(ctx, adm.AccountID)
	if err != nil {
		return view, err
	}
	if acc != nil {
		view.Email = acc.Email
		view.FullName = acc.FullName()
	}
	return view, nil
}

func (p *projector) instructorView(ctx context.Context, inst Instructor) (InstructorView, error) {
	view := InstructorView{Instructor: inst, FullName: PlaceholderName}
	acc, err := p.account(ctx, inst.AccountID)
	if err != nil {
		return view, err
	}
	if acc != nil {
		view.Email = acc.Email
		view.FirstName = acc.FirstName
		view.LastName = acc.LastName
		view.FullName = acc.FullName()
	}

	asgs, err := p.repo.ListAssignments(ctx, AssignmentFilter{InstructorIDs: ids(inst.ID)})
	if err != nil {
		return view, err
	}
	view.SubjectCount = len(asgs)
	groups, err := p.repo.ListClassGroups(ctx, ClassGroupFilter{InstructorIDs: ids(inst.ID)})
	if err != nil {
		return view, err
	}
	view.ClassGroupCount = len(groups)
	return view, nil
}

func (p *projector) studentView(ctx context.Context, std Student) (StudentView, error) {
	view := StudentView{Student: std, FullName: PlaceholderName, ClassGroupName: UnassignedName, CourseName: UnassignedName}
	acc, err := p.account(ctx, std.AccountID)
	if err != nil {
		return view, err
	}
	if acc != nil {
		view.Email = acc.Email
		view.FirstName = acc.FirstName
		view.LastName = acc.LastName
		view.FullName = acc.FullName()
	}
	if !std.ClassGroupID.Valid {
		return view, nil
	}
	grp, err := p.group(ctx, std.ClassGroupID.Int)
	if err != nil {
		return view, err
	}
	if grp == nil {
		view.ClassGroupName = PlaceholderName
		view.CourseName = PlaceholderName
		return view, nil
	}
	view.ClassGroupName = grp.Name
	view.CourseID = null.IntFrom(grp.CourseID)
	view.CourseName, err = p.courseName(ctx, grp.CourseID)
	return view, err
}

func (p *projector) courseView(ctx context.Context, crs Course) (CourseView, error) {
	view := CourseView{Course: crs}
	var err error
	if view.InstructorName, err = p.instructorName(ctx, crs.InstructorID); err != nil {
		return view, err
	}
	subjects, err := p.repo.ListSubjects(ctx, SubjectFilter{CourseIDs: ids(crs.ID)})
	if err != nil {
		return view, err
	}
	view.SubjectCount = len(subjects)
	return view, nil
}

func (p *projector) subjectView(ctx context.Context, sbj Subject) (SubjectView, error) {
	view := SubjectView{Subject: sbj, InstructorNames: []string{}}
	var err error
	if view.CourseName, err = p.courseName(ctx, sbj.CourseID); err != nil {
		return view, err
	}
	asgs, err := p.repo.ListAssignments(ctx, AssignmentFilter{SubjectIDs: ids(sbj.ID)})
	if err != nil {
		return view, err
	}
	for _, a := range asgs {
		name, err := p.instructorName(ctx, a.InstructorID)
		if err != nil {
			return view, err
		}
		view.InstructorNames = append(view.InstructorNames, name)
	}
	return view, nil
}

func (p *projector) classGroupView(ctx context.Context, grp ClassGroup) (ClassGroupView, error) {
	view := ClassGroupView{ClassGroup: grp}
	var err error
	if view.CourseName, err = p.courseName(ctx, grp.CourseID); err != nil {
		return view, err
	}
	if view.InstructorName, err = p.optionalInstructorName(ctx, grp.InstructorID); err != nil {
		return view, err
	}
	students, err := p.repo.ListStudents(ctx, StudentFilter{ClassGroupIDs: ids(grp.ID)})
	if err != nil {
		return view, err
	}
	view.StudentCount = len(students)
	return view, nil
}

func (p *projector) attendanceView(ctx context.Context, att Attendance) (AttendanceView, error) {
	view := AttendanceView{Attendance: att}
	var err error
	if view.StudentName, err = p.studentName(ctx, att.StudentID); err != nil {
		return view, err
	}
	view.ClassGroupName, err = p.groupName(ctx, att.ClassGroupID)
	return view, err
}

func (p *projector) markView(ctx context.Context, mrk Mark) (MarkView, error) {
	view := MarkView{Mark: mrk}
	var err error
	if view.StudentName, err = p.studentName(ctx, mrk.StudentID); err != nil {
		return view, err
	}
	view.SubjectName, err = p.subjectName(ctx, mrk.SubjectID)
	return view, err
}

func (p *projector) assignmentView(ctx context.Context, asg Assignment) (AssignmentView, error) {
	view := AssignmentView{Assignment: asg, CourseName: PlaceholderName}
	var err error
	if view.InstructorName, err = p.instructorName(ctx, asg.InstructorID); err != nil {
		return view, err
	}
	sbj, err := p.subject(ctx, asg.SubjectID)
	if err != nil {
		return view, err
	}
	if sbj == nil {
		view.SubjectName = PlaceholderName
		return view, nil
	}
	view.SubjectName = sbj.Name
	view.CourseID = sbj.CourseID
	view.CourseName, err = p.courseName(ctx, sbj.CourseID)
	return view, err
}

// project shapes each row of `rows` with `view`.
func project[T, V any](ctx context.Context, rows []T, view func(context.Context, T) (V, error)) ([]V, error) {
	res := make([]V, 0, len(rows))
	for _, row := range rows {
		v, err := view(ctx, row)
		if err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, nil
}

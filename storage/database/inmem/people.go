package inmemdb

import (
	"context"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/academic"
)

func (t *tables) checkInstructor(inst academic.Instructor) error {
	if _, ok := t.accounts[inst.AccountID]; !ok {
		return fkErr("instructor account %d", inst.AccountID)
	}
	for _, other := range t.instructors {
		if other.ID == inst.ID {
			continue
		}
		if other.AccountID == inst.AccountID {
			return uniqueErr("instructor account %d", inst.AccountID)
		}
		if other.EmployeeCode == inst.EmployeeCode {
			return uniqueErr("instructor employee code %q", inst.EmployeeCode)
		}
	}
	return nil
}

func (s *store) CreateInstructor(_ context.Context, inst academic.Instructor) (academic.Instructor, error) {
	defer s.lock()()
	t := s.db.t

	inst.ID = 0
	if err := t.checkInstructor(inst); err != nil {
		return academic.Instructor{}, err
	}
	inst.ID = t.nextID()
	t.instructors[inst.ID] = inst
	return inst, nil
}

func (s *store) GetInstructor(_ context.Context, id int) (academic.Instructor, error) {
	defer s.lock()()
	return getRow(s.db.t.instructors, academic.EntityInstructor, id)
}

func (s *store) GetInstructorByAccount(_ context.Context, accountID int) (academic.Instructor, error) {
	defer s.lock()()
	for _, inst := range s.db.t.instructors {
		if inst.AccountID == accountID {
			return inst, nil
		}
	}
	return academic.Instructor{}, core.NewNotFoundError(academic.EntityInstructor, accountID)
}

func (s *store) ListInstructors(_ context.Context, filter academic.InstructorFilter) ([]academic.Instructor, error) {
	defer s.lock()()
	return selectRows(s.db.t.instructors, func(inst academic.Instructor) bool { return matches(filter.IDs, inst.ID) }), nil
}

func (s *store) UpdateInstructor(_ context.Context, inst academic.Instructor) (academic.Instructor, error) {
	defer s.lock()()
	t := s.db.t

	if _, ok := t.instructors[inst.ID]; !ok {
		return academic.Instructor{}, core.NewNotFoundError(academic.EntityInstructor, inst.ID)
	}
	if err := t.checkInstructor(inst); err != nil {
		return academic.Instructor{}, err
	}
	t.instructors[inst.ID] = inst
	return inst, nil
}

// DeleteInstructor fails while a course, class group or assignment still references the instructor.
func (s *store) DeleteInstructor(_ context.Context, id int) error {
	defer s.lock()()
	t := s.db.t

	for _, crs := range t.courses {
		if crs.InstructorID == id {
			return fkErr("instructor %d referenced by course %d", id, crs.ID)
		}
	}
	for _, grp := range t.groups {
		if grp.InstructorID.Valid && grp.InstructorID.Int == id {
			return fkErr("instructor %d referenced by class group %d", id, grp.ID)
		}
	}
	for key := range t.assignments {
		if key.instructorID == id {
			return fkErr("instructor %d referenced by assignment to subject %d", id, key.subjectID)
		}
	}
	delete(t.instructors, id)
	return nil
}

func (t *tables) checkStudent(std academic.Student) error {
	if _, ok := t.accounts[std.AccountID]; !ok {
		return fkErr("student account %d", std.AccountID)
	}
	if std.ClassGroupID.Valid {
		if _, ok := t.groups[std.ClassGroupID.Int]; !ok {
			return fkErr("student class group %d", std.ClassGroupID.Int)
		}
	}
	for _, other := range t.students {
		if other.ID == std.ID {
			continue
		}
		if other.AccountID == std.AccountID {
			return uniqueErr("student account %d", std.AccountID)
		}
		if other.RegistrationCode == std.RegistrationCode {
			return uniqueErr("student registration code %q", std.RegistrationCode)
		}
	}
	return nil
}

func (s *store) CreateStudent(_ context.Context, std academic.Student) (academic.Student, error) {
	defer s.lock()()
	t := s.db.t

	std.ID = 0
	if err := t.checkStudent(std); err != nil {
		return academic.Student{}, err
	}
	std.ID = t.nextID()
	t.students[std.ID] = std
	return std, nil
}

func (s *store) GetStudent(_ context.Context, id int) (academic.Student, error) {
	defer s.lock()()
	return getRow(s.db.t.students, academic.EntityStudent, id)
}

func (s *store) GetStudentByAccount(_ context.Context, accountID int) (academic.Student, error) {
	defer s.lock()()
	for _, std := range s.db.t.students {
		if std.AccountID == accountID {
			return std, nil
		}
	}
	return academic.Student{}, core.NewNotFoundError(academic.EntityStudent, accountID)
}

func (s *store) GetStudentByRegistrationCode(_ context.Context, code string) (academic.Student, error) {
	defer s.lock()()
	for _, std := range s.db.t.students {
		if std.RegistrationCode == code {
			return std, nil
		}
	}
	return academic.Student{}, core.NewNotFoundError(academic.EntityStudent, code)
}

func (s *store) ListStudents(_ context.Context, filter academic.StudentFilter) ([]academic.Student, error) {
	defer s.lock()()
	return selectRows(s.db.t.students, func(std academic.Student) bool {
		return matches(filter.IDs, std.ID) &&
			matches(filter.AccountIDs, std.AccountID) &&
			matchesNull(filter.ClassGroupIDs, std.ClassGroupID.Int, std.ClassGroupID.Valid)
	}), nil
}

func (s *store) UpdateStudent(_ context.Context, std academic.Student) (academic.Student, error) {
	defer s.lock()()
	t := s.db.t

	if _, ok := t.students[std.ID]; !ok {
		return academic.Student{}, core.NewNotFoundError(academic.EntityStudent, std.ID)
	}
	if err := t.checkStudent(std); err != nil {
		return academic.Student{}, err
	}
	t.students[std.ID] = std
	return std, nil
}

func (s *store) ClearStudentsClassGroup(_ context.Context, classGroupID int) (int, error) {
	defer s.lock()()
	t := s.db.t

	n := 0
	for id, std := range t.students {
		if std.ClassGroupID.Valid && std.ClassGroupID.Int == classGroupID {
			std.ClassGroupID.Valid, std.ClassGroupID.Int = false, 0
			t.students[id] = std
			n++
		}
	}
	return n, nil
}

// DeleteStudent fails while attendance or marks still reference the student.
func (s *store) DeleteStudent(_ context.Context, id int) error {
	defer s.lock()()
	t := s.db.t

	for _, att := range t.attendance {
		if att.StudentID == id {
			return fkErr("student %d referenced by attendance record %d", id, att.ID)
		}
	}
	for _, mrk := range t.marks {
		if mrk.StudentID == id {
			return fkErr("student %d referenced by mark record %d", id, mrk.ID)
		}
	}
	delete(t.students, id)
	return nil
}

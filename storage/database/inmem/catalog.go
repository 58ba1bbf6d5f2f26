package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/academic"
)

func (t *tables) checkCourse(crs academic.Course) error {
	if _, ok := t.instructors[crs.InstructorID]; !ok {
		return fkErr("course instructor %d", crs.InstructorID)
	}
	for _, other := range t.courses {
		if other.ID != crs.ID && other.Code == crs.Code {
			return uniqueErr("course code %q", crs.Code)
		}
	}
	return nil
}

func (s *store) CreateCourse(_ context.Context, crs academic.Course) (academic.Course, error) {
	defer s.lock()()
	t := s.db.t

	crs.ID = 0
	if err := t.checkCourse(crs); err != nil {
		return academic.Course{}, err
	}
	crs.ID = t.nextID()
	t.courses[crs.ID] = crs
	return crs, nil
}

func (s *store) GetCourse(_ context.Context, id int) (academic.Course, error) {
	defer s.lock()()
	return getRow(s.db.t.courses, academic.EntityCourse, id)
}

func (s *store) GetCourseByCode(_ context.Context, code string) (academic.Course, error) {
	defer s.lock()()
	for _, crs := range s.db.t.courses {
		if crs.Code == code {
			return crs, nil
		}
	}
	return academic.Course{}, core.NewNotFoundError(academic.EntityCourse, code)
}

func (s *store) ListCourses(_ context.Context, filter academic.CourseFilter) ([]academic.Course, error) {
	defer s.lock()()
	return selectRows(s.db.t.courses, func(crs academic.Course) bool {
		return matches(filter.IDs, crs.ID) && matches(filter.InstructorIDs, crs.InstructorID)
	}), nil
}

func (s *store) UpdateCourse(_ context.Context, crs academic.Course) (academic.Course, error) {
	defer s.lock()()
	t := s.db.t

	if _, ok := t.courses[crs.ID]; !ok {
		return academic.Course{}, core.NewNotFoundError(academic.EntityCourse, crs.ID)
	}
	if err := t.checkCourse(crs); err != nil {
		return academic.Course{}, err
	}
	t.courses[crs.ID] = crs
	return crs, nil
}

// DeleteCourse fails while subjects or class groups still reference the course.
func (s *store) DeleteCourse(_ context.Context, id int) error {
	defer s.lock()()
	t := s.db.t

	for _, sbj := range t.subjects {
		if sbj.CourseID == id {
			return fkErr("course %d referenced by subject %d", id, sbj.ID)
		}
	}
	for _, grp := range t.groups {
		if grp.CourseID == id {
			return fkErr("course %d referenced by class group %d", id, grp.ID)
		}
	}
	delete(t.courses, id)
	return nil
}

func (s *store) CreateSubject(_ context.Context, sbj academic.Subject) (academic.Subject, error) {
	defer s.lock()()
	t := s.db.t

	if _, ok := t.courses[sbj.CourseID]; !ok {
		return academic.Subject{}, fkErr("subject course %d", sbj.CourseID)
	}
	sbj.ID = t.nextID()
	t.subjects[sbj.ID] = sbj
	return sbj, nil
}

func (s *store) GetSubject(_ context.Context, id int) (academic.Subject, error) {
	defer s.lock()()
	return getRow(s.db.t.subjects, academic.EntitySubject, id)
}

func (s *store) ListSubjects(_ context.Context, filter academic.SubjectFilter) ([]academic.Subject, error) {
	defer s.lock()()
	return selectRows(s.db.t.subjects, func(sbj academic.Subject) bool {
		return matches(filter.IDs, sbj.ID) && matches(filter.CourseIDs, sbj.CourseID)
	}), nil
}

func (s *store) UpdateSubject(_ context.Context, sbj academic.Subject) (academic.Subject, error) {
	defer s.lock()()
	t := s.db.t

	if _, ok := t.subjects[sbj.ID]; !ok {
		return academic.Subject{}, core.NewNotFoundError(academic.EntitySubject, sbj.ID)
	}
	if _, ok := t.courses[sbj.CourseID]; !ok {
		return academic.Subject{}, fkErr("subject course %d", sbj.CourseID)
	}
	t.subjects[sbj.ID] = sbj
	return sbj, nil
}

// DeleteSubject fails while marks or assignments still reference the subject.
func (s *store) DeleteSubject(_ context.Context, id int) error {
	defer s.lock()()
	t := s.db.t

	for _, mrk := range t.marks {
		if mrk.SubjectID == id {
			return fkErr("subject %d referenced by mark record %d", id, mrk.ID)
		}
	}
	for key := range t.assignments {
		if key.subjectID == id {
			return fkErr("subject %d referenced by assignment of instructor %d", id, key.instructorID)
		}
	}
	delete(t.subjects, id)
	return nil
}

func (t *tables) checkClassGroup(grp academic.ClassGroup) error {
	if _, ok := t.courses[grp.CourseID]; !ok {
		return fkErr("class group course %d", grp.CourseID)
	}
	if grp.InstructorID.Valid {
		if _, ok := t.instructors[grp.InstructorID.Int]; !ok {
			return fkErr("class group instructor %d", grp.InstructorID.Int)
		}
	}
	return nil
}

func (s *store) CreateClassGroup(_ context.Context, grp academic.ClassGroup) (academic.ClassGroup, error) {
	defer s.lock()()
	t := s.db.t

	if err := t.checkClassGroup(grp); err != nil {
		return academic.ClassGroup{}, err
	}
	grp.ID = t.nextID()
	t.groups[grp.ID] = grp
	return grp, nil
}

func (s *store) GetClassGroup(_ context.Context, id int) (academic.ClassGroup, error) {
	defer s.lock()()
	return getRow(s.db.t.groups, academic.EntityClassGroup, id)
}

func (s *store) ListClassGroups(_ context.Context, filter academic.ClassGroupFilter) ([]academic.ClassGroup, error) {
	defer s.lock()()
	return selectRows(s.db.t.groups, func(grp academic.ClassGroup) bool {
		return matches(filter.IDs, grp.ID) &&
			matches(filter.CourseIDs, grp.CourseID) &&
			matchesNull(filter.InstructorIDs, grp.InstructorID.Int, grp.InstructorID.Valid)
	}), nil
}

func (s *store) UpdateClassGroup(_ context.Context, grp academic.ClassGroup) (academic.ClassGroup, error) {
	defer s.lock()()
	t := s.db.t

	if _, ok := t.groups[grp.ID]; !ok {
		return academic.ClassGroup{}, core.NewNotFoundError(academic.EntityClassGroup, grp.ID)
	}
	if err := t.checkClassGroup(grp); err != nil {
		return academic.ClassGroup{}, err
	}
	t.groups[grp.ID] = grp
	return grp, nil
}

func (s *store) ClearClassGroupsInstructor(_ context.Context, instructorID int) (int, error) {
	defer s.lock()()
	t := s.db.t

	n := 0
	for id, grp := range t.groups {
		if grp.InstructorID.Valid && grp.InstructorID.Int == instructorID {
			grp.InstructorID.Valid, grp.InstructorID.Int = false, 0
			t.groups[id] = grp
			n++
		}
	}
	return n, nil
}

// DeleteClassGroup fails while attendance or enrolled students still reference the group.
func (s *store) DeleteClassGroup(_ context.Context, id int) error {
	defer s.lock()()
	t := s.db.t

	for _, att := range t.attendance {
		if att.ClassGroupID == id {
			return fkErr("class group %d referenced by attendance record %d", id, att.ID)
		}
	}
	for _, std := range t.students {
		if std.ClassGroupID.Valid && std.ClassGroupID.Int == id {
			return fkErr("class group %d referenced by student %d", id, std.ID)
		}
	}
	delete(t.groups, id)
	return nil
}

func (s *store) CreateAssignment(_ context.Context, asg academic.Assignment) (academic.Assignment, error) {
	defer s.lock()()
	t := s.db.t

	if _, ok := t.instructors[asg.InstructorID]; !ok {
		return academic.Assignment{}, fkErr("assignment instructor %d", asg.InstructorID)
	}
	if _, ok := t.subjects[asg.SubjectID]; !ok {
		return academic.Assignment{}, fkErr("assignment subject %d", asg.SubjectID)
	}
	key := assignmentKey{instructorID: asg.InstructorID, subjectID: asg.SubjectID}
	if _, ok := t.assignments[key]; ok {
		return academic.Assignment{}, uniqueErr("assignment of instructor %d to subject %d", asg.InstructorID, asg.SubjectID)
	}
	t.assignments[key] = asg
	return asg, nil
}

func (t *tables) selectAssignments(filter academic.AssignmentFilter) []assignmentKey {
	keys := make([]assignmentKey, 0)
	for key := range t.assignments {
		if matches(filter.InstructorIDs, key.instructorID) && matches(filter.SubjectIDs, key.subjectID) {
			keys = append(keys, key)
		}
	}
	return keys
}

func (s *store) ListAssignments(_ context.Context, filter academic.AssignmentFilter) ([]academic.Assignment, error) {
	defer s.lock()()
	t := s.db.t

	keys := t.selectAssignments(filter)
	res := make([]academic.Assignment, 0, len(keys))
	for _, key := range keys {
		res = append(res, t.assignments[key])
	}
	sortAssignments(res)
	return res, nil
}

func (s *store) DeleteAssignments(_ context.Context, filter academic.AssignmentFilter) (int, error) {
	defer s.lock()()
	t := s.db.t

	keys := t.selectAssignments(filter)
	for _, key := range keys {
		delete(t.assignments, key)
	}
	return len(keys), nil
}

func sortAssignments(asgs []academic.Assignment) {
	sort.Slice(asgs, func(i, j int) bool {
		if asgs[i].InstructorID != asgs[j].InstructorID {
			return asgs[i].InstructorID < asgs[j].InstructorID
		}
		return asgs[i].SubjectID < asgs[j].SubjectID
	})
}

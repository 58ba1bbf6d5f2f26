package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/trezcool/academia/core/academic"
)

func (s *store) CreateCourse(ctx context.Context, crs academic.Course) (academic.Course, error) {
	id, err := s.insert(ctx, `
		INSERT INTO courses (code, name, description, credits, instructor_id, created_at, updated_at)
		VALUES (:code, :name, :description, :credits, :instructor_id, :created_at, :updated_at)
		RETURNING id`, crs)
	if err != nil {
		return academic.Course{}, translate(err, "creating course %q", crs.Code)
	}
	crs.ID = id
	return crs, nil
}

func (s *store) GetCourse(ctx context.Context, id int) (academic.Course, error) {
	var crs academic.Course
	err := s.get(ctx, &crs, academic.EntityCourse, id, "SELECT * FROM courses WHERE id = ?", id)
	return crs, err
}

func (s *store) GetCourseByCode(ctx context.Context, code string) (academic.Course, error) {
	var crs academic.Course
	err := s.get(ctx, &crs, academic.EntityCourse, code, "SELECT * FROM courses WHERE code = ?", code)
	return crs, err
}

func (s *store) ListCourses(ctx context.Context, filter academic.CourseFilter) ([]academic.Course, error) {
	w := new(where).in("id", filter.IDs).in("instructor_id", filter.InstructorIDs)
	courses := make([]academic.Course, 0)
	err := s.list(ctx, &courses, "courses", w, "id")
	return courses, err
}

func (s *store) UpdateCourse(ctx context.Context, crs academic.Course) (academic.Course, error) {
	err := s.update(ctx, `
		UPDATE courses
		SET code = :code, name = :name, description = :description, credits = :credits,
			instructor_id = :instructor_id, updated_at = :updated_at
		WHERE id = :id`, crs, academic.EntityCourse, crs.ID)
	if err != nil {
		return academic.Course{}, err
	}
	return crs, nil
}

func (s *store) DeleteCourse(ctx context.Context, id int) error {
	_, err := s.delete(ctx, "courses", new(where).and(sq.Eq{"id": id}))
	return err
}

func (s *store) CreateSubject(ctx context.Context, sbj academic.Subject) (academic.Subject, error) {
	id, err := s.insert(ctx, `
		INSERT INTO subjects (course_id, name, description, material_url, created_at, updated_at)
		VALUES (:course_id, :name, :description, :material_url, :created_at, :updated_at)
		RETURNING id`, sbj)
	if err != nil {
		return academic.Subject{}, translate(err, "creating subject %q", sbj.Name)
	}
	sbj.ID = id
	return sbj, nil
}

func (s *store) GetSubject(ctx context.Context, id int) (academic.Subject, error) {
	var sbj academic.Subject
	err := s.get(ctx, &sbj, academic.EntitySubject, id, "SELECT * FROM subjects WHERE id = ?", id)
	return sbj, err
}

func (s *store) ListSubjects(ctx context.Context, filter academic.SubjectFilter) ([]academic.Subject, error) {
	w := new(where).in("id", filter.IDs).in("course_id", filter.CourseIDs)
	subjects := make([]academic.Subject, 0)
	err := s.list(ctx, &subjects, "subjects", w, "id")
	return subjects, err
}

func (s *store) UpdateSubject(ctx context.Context, sbj academic.Subject) (academic.Subject, error) {
	err := s.update(ctx, `
		UPDATE subjects
		SET course_id = :course_id, name = :name, description = :description, material_url = :material_url,
			updated_at = :updated_at
		WHERE id = :id`, sbj, academic.EntitySubject, sbj.ID)
	if err != nil {
		return academic.Subject{}, err
	}
	return sbj, nil
}

func (s *store) DeleteSubject(ctx context.Context, id int) error {
	_, err := s.delete(ctx, "subjects", new(where).and(sq.Eq{"id": id}))
	return err
}

func (s *store) CreateClassGroup(ctx context.Context, grp academic.ClassGroup) (academic.ClassGroup, error) {
	id, err := s.insert(ctx, `
		INSERT INTO class_groups (course_id, instructor_id, name, schedule, created_at, updated_at)
		VALUES (:course_id, :instructor_id, :name, :schedule, :created_at, :updated_at)
		RETURNING id`, grp)
	if err != nil {
		return academic.ClassGroup{}, translate(err, "creating class group %q", grp.Name)
	}
	grp.ID = id
	return grp, nil
}

func (s *store) GetClassGroup(ctx context.Context, id int) (academic.ClassGroup, error) {
	var grp academic.ClassGroup
	err := s.get(ctx, &grp, academic.EntityClassGroup, id, "SELECT * FROM class_groups WHERE id = ?", id)
	return grp, err
}

func (s *store) ListClassGroups(ctx context.Context, filter academic.ClassGroupFilter) ([]academic.ClassGroup, error) {
	w := new(where).
		in("id", filter.IDs).
		in("course_id", filter.CourseIDs).
		in("instructor_id", filter.InstructorIDs)

	groups := make([]academic.ClassGroup, 0)
	err := s.list(ctx, &groups, "class_groups", w, "id")
	return groups, err
}

func (s *store) UpdateClassGroup(ctx context.Context, grp academic.ClassGroup) (academic.ClassGroup, error) {
	err := s.update(ctx, `
		UPDATE class_groups
		SET course_id = :course_id, instructor_id = :instructor_id, name = :name, schedule = :schedule,
			updated_at = :updated_at
		WHERE id = :id`, grp, academic.EntityClassGroup, grp.ID)
	if err != nil {
		return academic.ClassGroup{}, err
	}
	return grp, nil
}

func (s *store) ClearClassGroupsInstructor(ctx context.Context, instructorID int) (int, error) {
	res, err := s.ex.ExecContext(ctx, "UPDATE class_groups SET instructor_id = NULL WHERE instructor_id = $1", instructorID)
	if err != nil {
		return 0, translate(err, "clearing instructor %d of class groups", instructorID)
	}
	n, err := res.RowsAffected()
	return int(n), translate(err, "clearing instructor %d of class groups", instructorID)
}

func (s *store) DeleteClassGroup(ctx context.Context, id int) error {
	_, err := s.delete(ctx, "class_groups", new(where).and(sq.Eq{"id": id}))
	return err
}

func (s *store) CreateAssignment(ctx context.Context, asg academic.Assignment) (academic.Assignment, error) {
	_, err := s.ex.NamedExecContext(ctx, `
		INSERT INTO instructor_assignments (instructor_id, subject_id, created_at)
		VALUES (:instructor_id, :subject_id, :created_at)`, asg)
	if err != nil {
		return academic.Assignment{}, translate(err, "assigning instructor %d to subject %d", asg.InstructorID, asg.SubjectID)
	}
	return asg, nil
}

func assignmentWhere(filter academic.AssignmentFilter) *where {
	return new(where).in("instructor_id", filter.InstructorIDs).in("subject_id", filter.SubjectIDs)
}

func (s *store) ListAssignments(ctx context.Context, filter academic.AssignmentFilter) ([]academic.Assignment, error) {
	assignments := make([]academic.Assignment, 0)
	err := s.list(ctx, &assignments, "instructor_assignments", assignmentWhere(filter), "instructor_id, subject_id")
	return assignments, err
}

func (s *store) DeleteAssignments(ctx context.Context, filter academic.AssignmentFilter) (int, error) {
	return s.delete(ctx, "instructor_assignments", assignmentWhere(filter))
}

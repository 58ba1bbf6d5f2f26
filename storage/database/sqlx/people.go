package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/trezcool/academia/core/academic"
)

func normalizeInstructor(inst *academic.Instructor) {
	inst.JoinedOn = academic.Day(inst.JoinedOn)
}

func normalizeStudent(std *academic.Student) {
	std.EnrolledOn = academic.Day(std.EnrolledOn)
}

func (s *store) CreateInstructor(ctx context.Context, inst academic.Instructor) (academic.Instructor, error) {
	normalizeInstructor(&inst)
	id, err := s.insert(ctx, `
		INSERT INTO instructors (account_id, employee_code, department, joined_on, created_at, updated_at)
		VALUES (:account_id, :employee_code, :department, :joined_on, :created_at, :updated_at)
		RETURNING id`, inst)
	if err != nil {
		return academic.Instructor{}, translate(err, "creating instructor of account %d", inst.AccountID)
	}
	inst.ID = id
	return inst, nil
}

func (s *store) getInstructor(ctx context.Context, key interface{}, query string, args ...interface{}) (academic.Instructor, error) {
	var inst academic.Instructor
	if err := s.get(ctx, &inst, academic.EntityInstructor, key, query, args...); err != nil {
		return academic.Instructor{}, err
	}
	normalizeInstructor(&inst)
	return inst, nil
}

func (s *store) GetInstructor(ctx context.Context, id int) (academic.Instructor, error) {
	return s.getInstructor(ctx, id, "SELECT * FROM instructors WHERE id = ?", id)
}

func (s *store) GetInstructorByAccount(ctx context.Context, accountID int) (academic.Instructor, error) {
	return s.getInstructor(ctx, accountID, "SELECT * FROM instructors WHERE account_id = ?", accountID)
}

func (s *store) ListInstructors(ctx context.Context, filter academic.InstructorFilter) ([]academic.Instructor, error) {
	instructors := make([]academic.Instructor, 0)
	if err := s.list(ctx, &instructors, "instructors", new(where).in("id", filter.IDs), "id"); err != nil {
		return nil, err
	}
	for i := range instructors {
		normalizeInstructor(&instructors[i])
	}
	return instructors, nil
}

func (s *store) UpdateInstructor(ctx context.Context, inst academic.Instructor) (academic.Instructor, error) {
	normalizeInstructor(&inst)
	err := s.update(ctx, `
		UPDATE instructors
		SET employee_code = :employee_code, department = :department, joined_on = :joined_on, updated_at = :updated_at
		WHERE id = :id`, inst, academic.EntityInstructor, inst.ID)
	if err != nil {
		return academic.Instructor{}, err
	}
	return inst, nil
}

func (s *store) DeleteInstructor(ctx context.Context, id int) error {
	_, err := s.delete(ctx, "instructors", new(where).and(sq.Eq{"id": id}))
	return err
}

func (s *store) CreateStudent(ctx context.Context, std academic.Student) (academic.Student, error) {
	normalizeStudent(&std)
	id, err := s.insert(ctx, `
		INSERT INTO students (account_id, registration_code, class_group_id, enrolled_on, created_at, updated_at)
		VALUES (:account_id, :registration_code, :class_group_id, :enrolled_on, :created_at, :updated_at)
		RETURNING id`, std)
	if err != nil {
		return academic.Student{}, translate(err, "creating student of account %d", std.AccountID)
	}
	std.ID = id
	return std, nil
}

func (s *store) getStudent(ctx context.Context, key interface{}, query string, args ...interface{}) (academic.Student, error) {
	var std academic.Student
	if err := s.get(ctx, &std, academic.EntityStudent, key, query, args...); err != nil {
		return academic.Student{}, err
	}
	normalizeStudent(&std)
	return std, nil
}

func (s *store) GetStudent(ctx context.Context, id int) (academic.Student, error) {
	return s.getStudent(ctx, id, "SELECT * FROM students WHERE id = ?", id)
}

func (s *store) GetStudentByAccount(ctx context.Context, accountID int) (academic.Student, error) {
	return s.getStudent(ctx, accountID, "SELECT * FROM students WHERE account_id = ?", accountID)
}

func (s *store) GetStudentByRegistrationCode(ctx context.Context, code string) (academic.Student, error) {
	return s.getStudent(ctx, code, "SELECT * FROM students WHERE registration_code = ?", code)
}

func (s *store) ListStudents(ctx context.Context, filter academic.StudentFilter) ([]academic.Student, error) {
	w := new(where).
		in("id", filter.IDs).
		in("account_id", filter.AccountIDs).
		in("class_group_id", filter.ClassGroupIDs)

	students := make([]academic.Student, 0)
	if err := s.list(ctx, &students, "students", w, "id"); err != nil {
		return nil, err
	}
	for i := range students {
		normalizeStudent(&students[i])
	}
	return students, nil
}

func (s *store) UpdateStudent(ctx context.Context, std academic.Student) (academic.Student, error) {
	normalizeStudent(&std)
	err := s.update(ctx, `
		UPDATE students
		SET registration_code = :registration_code, class_group_id = :class_group_id,
			enrolled_on = :enrolled_on, updated_at = :updated_at
		WHERE id = :id`, std, academic.EntityStudent, std.ID)
	if err != nil {
		return academic.Student{}, err
	}
	return std, nil
}

func (s *store) ClearStudentsClassGroup(ctx context.Context, classGroupID int) (int, error) {
	res, err := s.ex.ExecContext(ctx, "UPDATE students SET class_group_id = NULL WHERE class_group_id = $1", classGroupID)
	if err != nil {
		return 0, translate(err, "clearing class group %d of students", classGroupID)
	}
	n, err := res.RowsAffected()
	return int(n), translate(err, "clearing class group %d of students", classGroupID)
}

func (s *store) DeleteStudent(ctx context.Context, id int) error {
	_, err := s.delete(ctx, "students", new(where).and(sq.Eq{"id": id}))
	return err
}

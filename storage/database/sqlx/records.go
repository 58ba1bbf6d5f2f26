package sqlxrepos

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/trezcool/academia/core/academic"
)

// attendanceRow binds the day as a DATE.
type attendanceRow struct {
	academic.Attendance
	DayDate string `db:"day_date"`
}

func (s *store) CreateAttendance(ctx context.Context, att academic.Attendance) (academic.Attendance, error) {
	att.Day = academic.Day(att.Day)
	id, err := s.insert(ctx, `
		INSERT INTO attendance (student_id, class_group_id, day, present, remarks, created_at, updated_at)
		VALUES (:student_id, :class_group_id, :day_date, :present, :remarks, :created_at, :updated_at)
		RETURNING id`, attendanceRow{Attendance: att, DayDate: day(att.Day)})
	if err != nil {
		return academic.Attendance{}, translate(err, "creating attendance of student %d", att.StudentID)
	}
	att.ID = id
	return att, nil
}

func (s *store) getAttendance(ctx context.Context, key interface{}, query string, args ...interface{}) (academic.Attendance, error) {
	var att academic.Attendance
	if err := s.get(ctx, &att, academic.EntityAttendance, key, query, args...); err != nil {
		return academic.Attendance{}, err
	}
	att.Day = academic.Day(att.Day)
	return att, nil
}

func (s *store) GetAttendance(ctx context.Context, id int) (academic.Attendance, error) {
	return s.getAttendance(ctx, id, "SELECT * FROM attendance WHERE id = ?", id)
}

func (s *store) GetAttendanceByKey(ctx context.Context, studentID, classGroupID int, d time.Time) (academic.Attendance, error) {
	key := fmt.Sprintf("%d/%d/%s", studentID, classGroupID, day(d))
	return s.getAttendance(ctx, key,
		"SELECT * FROM attendance WHERE student_id = ? AND class_group_id = ? AND day = ?::date",
		studentID, classGroupID, day(d))
}

func attendanceWhere(filter academic.AttendanceFilter) *where {
	w := new(where).
		in("id", filter.IDs).
		in("student_id", filter.StudentIDs).
		in("class_group_id", filter.ClassGroupIDs)
	if !filter.From.IsZero() {
		w.and(sq.GtOrEq{"day": day(filter.From)})
	}
	if !filter.To.IsZero() {
		w.and(sq.LtOrEq{"day": day(filter.To)})
	}
	return w
}

func (s *store) ListAttendance(ctx context.Context, filter academic.AttendanceFilter) ([]academic.Attendance, error) {
	rows := make([]academic.Attendance, 0)
	if err := s.list(ctx, &rows, "attendance", attendanceWhere(filter), "id"); err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Day = academic.Day(rows[i].Day)
	}
	return rows, nil
}

func (s *store) UpdateAttendance(ctx context.Context, att academic.Attendance) (academic.Attendance, error) {
	att.Day = academic.Day(att.Day)
	err := s.update(ctx, `
		UPDATE attendance
		SET student_id = :student_id, class_group_id = :class_group_id, day = :day_date, present = :present,
			remarks = :remarks, updated_at = :updated_at
		WHERE id = :id`, attendanceRow{Attendance: att, DayDate: day(att.Day)}, academic.EntityAttendance, att.ID)
	if err != nil {
		return academic.Attendance{}, err
	}
	return att, nil
}

func (s *store) DeleteAttendance(ctx context.Context, filter academic.AttendanceFilter) (int, error) {
	return s.delete(ctx, "attendance", attendanceWhere(filter))
}

func (s *store) CreateMark(ctx context.Context, mrk academic.Mark) (academic.Mark, error) {
	id, err := s.insert(ctx, `
		INSERT INTO marks (student_id, subject_id, score, grade, created_at, updated_at)
		VALUES (:student_id, :subject_id, :score, :grade, :created_at, :updated_at)
		RETURNING id`, mrk)
	if err != nil {
		return academic.Mark{}, translate(err, "creating mark of student %d", mrk.StudentID)
	}
	mrk.ID = id
	return mrk, nil
}

func (s *store) GetMark(ctx context.Context, id int) (academic.Mark, error) {
	var mrk academic.Mark
	err := s.get(ctx, &mrk, academic.EntityMark, id, "SELECT * FROM marks WHERE id = ?", id)
	return mrk, err
}

func (s *store) GetMarkByKey(ctx context.Context, studentID, subjectID int) (academic.Mark, error) {
	var mrk academic.Mark
	err := s.get(ctx, &mrk, academic.EntityMark, fmt.Sprintf("%d/%d", studentID, subjectID),
		"SELECT * FROM marks WHERE student_id = ? AND subject_id = ?", studentID, subjectID)
	return mrk, err
}

func markWhere(filter academic.MarkFilter) *where {
	return new(where).
		in("id", filter.IDs).
		in("student_id", filter.StudentIDs).
		in("subject_id", filter.SubjectIDs)
}

func (s *store) ListMarks(ctx context.Context, filter academic.MarkFilter) ([]academic.Mark, error) {
	marks := make([]academic.Mark, 0)
	err := s.list(ctx, &marks, "marks", markWhere(filter), "id")
	return marks, err
}

func (s *store) UpdateMark(ctx context.Context, mrk academic.Mark) (academic.Mark, error) {
	err := s.update(ctx, `
		UPDATE marks
		SET student_id = :student_id, subject_id = :subject_id, score = :score, grade = :grade, updated_at = :updated_at
		WHERE id = :id`, mrk, academic.EntityMark, mrk.ID)
	if err != nil {
		return academic.Mark{}, err
	}
	return mrk, nil
}

func (s *store) DeleteMarks(ctx context.Context, filter academic.MarkFilter) (int, error) {
	return s.delete(ctx, "marks", markWhere(filter))
}

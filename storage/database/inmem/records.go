package inmemdb

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/academic"
)

func (t *tables) checkAttendance(att academic.Attendance) error {
	if _, ok := t.students[att.StudentID]; !ok {
		return fkErr("attendance student %d", att.StudentID)
	}
	if _, ok := t.groups[att.ClassGroupID]; !ok {
		return fkErr("attendance class group %d", att.ClassGroupID)
	}
	for _, other := range t.attendance {
		if other.ID != att.ID && other.StudentID == att.StudentID &&
			other.ClassGroupID == att.ClassGroupID && sameDay(other.Day, att.Day) {
			return uniqueErr("attendance of student %d in class group %d on %s",
				att.StudentID, att.ClassGroupID, att.Day.Format("2006-01-02"))
		}
	}
	return nil
}

func (s *store) CreateAttendance(_ context.Context, att academic.Attendance) (academic.Attendance, error) {
	defer s.lock()()
	t := s.db.t

	att.ID = 0
	att.Day = academic.Day(att.Day)
	if err := t.checkAttendance(att); err != nil {
		return academic.Attendance{}, err
	}
	att.ID = t.nextID()
	t.attendance[att.ID] = att
	return att, nil
}

func (s *store) GetAttendance(_ context.Context, id int) (academic.Attendance, error) {
	defer s.lock()()
	return getRow(s.db.t.attendance, academic.EntityAttendance, id)
}

func (s *store) GetAttendanceByKey(_ context.Context, studentID, classGroupID int, day time.Time) (academic.Attendance, error) {
	defer s.lock()()
	for _, att := range s.db.t.attendance {
		if att.StudentID == studentID && att.ClassGroupID == classGroupID && sameDay(att.Day, day) {
			return att, nil
		}
	}
	key := fmt.Sprintf("%d/%d/%s", studentID, classGroupID, day.Format("2006-01-02"))
	return academic.Attendance{}, core.NewNotFoundError(academic.EntityAttendance, key)
}

func attendanceMatches(filter academic.AttendanceFilter) func(academic.Attendance) bool {
	return func(att academic.Attendance) bool {
		if !filter.From.IsZero() && att.Day.Before(academic.Day(filter.From)) {
			return false
		}
		if !filter.To.IsZero() && att.Day.After(academic.Day(filter.To)) {
			return false
		}
		return matches(filter.IDs, att.ID) &&
			matches(filter.StudentIDs, att.StudentID) &&
			matches(filter.ClassGroupIDs, att.ClassGroupID)
	}
}

func (s *store) ListAttendance(_ context.Context, filter academic.AttendanceFilter) ([]academic.Attendance, error) {
	defer s.lock()()
	return selectRows(s.db.t.attendance, attendanceMatches(filter)), nil
}

func (s *store) UpdateAttendance(_ context.Context, att academic.Attendance) (academic.Attendance, error) {
	defer s.lock()()
	t := s.db.t

	if _, ok := t.attendance[att.ID]; !ok {
		return academic.Attendance{}, core.NewNotFoundError(academic.EntityAttendance, att.ID)
	}
	att.Day = academic.Day(att.Day)
	if err := t.checkAttendance(att); err != nil {
		return academic.Attendance{}, err
	}
	t.attendance[att.ID] = att
	return att, nil
}

func (s *store) DeleteAttendance(_ context.Context, filter academic.AttendanceFilter) (int, error) {
	defer s.lock()()
	t := s.db.t

	rows := selectRows(t.attendance, attendanceMatches(filter))
	for _, att := range rows {
		delete(t.attendance, att.ID)
	}
	return len(rows), nil
}

func (t *tables) checkMark(mrk academic.Mark) error {
	if _, ok := t.students[mrk.StudentID]; !ok {
		return fkErr("mark student %d", mrk.StudentID)
	}
	if _, ok := t.subjects[mrk.SubjectID]; !ok {
		return fkErr("mark subject %d", mrk.SubjectID)
	}
	for _, other := range t.marks {
		if other.ID != mrk.ID && other.StudentID == mrk.StudentID && other.SubjectID == mrk.SubjectID {
			return uniqueErr("mark of student %d for subject %d", mrk.StudentID, mrk.SubjectID)
		}
	}
	return nil
}

func (s *store) CreateMark(_ context.Context, mrk academic.Mark) (academic.Mark, error) {
	defer s.lock()()
	t := s.db.t

	mrk.ID = 0
	if err := t.checkMark(mrk); err != nil {
		return academic.Mark{}, err
	}
	mrk.ID = t.nextID()
	t.marks[mrk.ID] = mrk
	return mrk, nil
}

func (s *store) GetMark(_ context.Context, id int) (academic.Mark, error) {
	defer s.lock()()
	return getRow(s.db.t.marks, academic.EntityMark, id)
}

func (s *store) GetMarkByKey(_ context.Context, studentID, subjectID int) (academic.Mark, error) {
	defer s.lock()()
	for _, mrk := range s.db.t.marks {
		if mrk.StudentID == studentID && mrk.SubjectID == subjectID {
			return mrk, nil
		}
	}
	return academic.Mark{}, core.NewNotFoundError(academic.EntityMark, fmt.Sprintf("%d/%d", studentID, subjectID))
}

func markMatches(filter academic.MarkFilter) func(academic.Mark) bool {
	return func(mrk academic.Mark) bool {
		return matches(filter.IDs, mrk.ID) &&
			matches(filter.StudentIDs, mrk.StudentID) &&
			matches(filter.SubjectIDs, mrk.SubjectID)
	}
}

func (s *store) ListMarks(_ context.Context, filter academic.MarkFilter) ([]academic.Mark, error) {
	defer s.lock()()
	return selectRows(s.db.t.marks, markMatches(filter)), nil
}

func (s *store) UpdateMark(_ context.Context, mrk academic.Mark) (academic.Mark, error) {
	defer s.lock()()
	t := s.db.t

	if _, ok := t.marks[mrk.ID]; !ok {
		return academic.Mark{}, core.NewNotFoundError(academic.EntityMark, mrk.ID)
	}
	if err := t.checkMark(mrk); err != nil {
		return academic.Mark{}, err
	}
	t.marks[mrk.ID] = mrk
	return mrk, nil
}

func (s *store) DeleteMarks(_ context.Context, filter academic.MarkFilter) (int, error) {
	defer s.lock()()
	t := s.db.t

	rows := selectRows(t.marks, markMatches(filter))
	for _, mrk := range rows {
		delete(t.marks, mrk.ID)
	}
	return len(rows), nil
}

package academic

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/academia/core"
)

type (
	AttendanceQuery struct {
		StudentID    int       `query:"student_id"`
		ClassGroupID int       `query:"class_group_id"`
		From         time.Time `query:"from"`
		To           time.Time `query:"to"`
	}

	MarkQuery struct {
		StudentID int `query:"student_id"`
		SubjectID int `query:"subject_id"`
	}
)

func optionalID(id int) []int {
	if id == 0 {
		return nil
	}
	return ids(id)
}

// enrollment loads the student of a record together with its current class group, if any.
func enrollment(ctx context.Context, repo Repository, studentID int) (Student, *ClassGroup, error) {
	std, err := repo.GetStudent(ctx, studentID)
	if err != nil {
		return Student{}, nil, err
	}
	if !std.ClassGroupID.Valid {
		return std, nil, nil
	}
	grp, err := repo.GetClassGroup(ctx, std.ClassGroupID.Int)
	if err != nil {
		if core.IsKind(err, core.KindNotFound) {
			return std, nil, nil
		}
		return Student{}, nil, err
	}
	return std, &grp, nil
}

func (svc *Service) validateAttendanceDate(date time.Time) error {
	if date.After(svc.clock.Now()) {
		return core.NewInvalidArgumentError("date", "attendance cannot be recorded for a future date")
	}
	return nil
}

// RecordAttendance creates the attendance record of a student for a class group and day.
// At most one record exists per (student, class group, day): a duplicate is a core.KindConflict error,
// whether caught up front or by the store's unique constraint.
func (svc *Service) RecordAttendance(ctx context.Context, actor Actor, na NewAttendance) (AttendanceView, error) {
	if err := core.ValidateStruct(na); err != nil {
		return AttendanceView{}, err
	}
	if err := svc.validateAttendanceDate(na.Date); err != nil {
		return AttendanceView{}, err
	}
	na.Remarks = cleanRemarks(na.Remarks)
	day := Day(na.Date)

	var view AttendanceView
	err := svc.scoped(ctx, actor, func(ctx context.Context, repo Repository, scope *Scope) error {
		std, err := repo.GetStudent(ctx, na.StudentID)
		if err != nil {
			return err
		}
		grp, err := repo.GetClassGroup(ctx, na.ClassGroupID)
		if err != nil {
			return err
		}
		if err = scope.AllowsAttendance(OpCreate, std, grp); err != nil {
			return err
		}

		conflictMsg := fmt.Sprintf(
			"attendance of student %d in class group %d on %s is already recorded", std.ID, grp.ID, day.Format("2006-01-02"),
		)
		if _, err = repo.GetAttendanceByKey(ctx, std.ID, grp.ID, day); err == nil {
			return core.NewConflictError(EntityAttendance, conflictMsg)
		} else if !core.IsKind(err, core.KindNotFound) {
			return errors.Wrap(err, "checking existing attendance")
		}

		now := svc.now()
		att, err := repo.CreateAttendance(ctx, Attendance{
			StudentID:    std.ID,
			ClassGroupID: grp.ID,
			Day:          day,
			Present:      na.Present,
			Remarks:      na.Remarks,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			err = uniqueConflict(err, EntityAttendance, conflictMsg)
			return missingReference(err, EntityStudent+" or "+EntityClassGroup, fmt.Sprintf("%d/%d", std.ID, grp.ID))
		}
		view, err = newProjector(repo).attendanceView(ctx, att)
		return err
	})
	return view, err
}

// UpdateAttendance changes the presence flag and remarks of an existing record.
func (svc *Service) UpdateAttendance(ctx context.Context, actor Actor, id int, ua UpdateAttendance) (AttendanceView, error) {
	var view AttendanceView
	err := svc.scoped(ctx, actor, func(ctx context.Context, repo Repository, scope *Scope) error {
		att, err := repo.GetAttendance(ctx, id)
		if err != nil {
			return err
		}
		std, err := repo.GetStudent(ctx, att.StudentID)
		if err != nil {
			return err
		}
		grp, err := repo.GetClassGroup(ctx, att.ClassGroupID)
		if err != nil {
			return err
		}
		if err = scope.AllowsAttendance(OpUpdate, std, grp); err != nil {
			return err
		}

		if ua.Present != nil {
			att.Present = *ua.Present
		}
		if ua.Remarks.Valid {
			att.Remarks = cleanRemarks(ua.Remarks)
		}
		att.UpdatedAt = svc.now()
		if att, err = repo.UpdateAttendance(ctx, att); err != nil {
			return errors.Wrap(err, "updating attendance")
		}
		view, err = newProjector(repo).attendanceView(ctx, att)
		return err
	})
	return view, err
}

// ListAttendance lists the attendance records visible to the actor.
func (svc *Service) ListAttendance(ctx context.Context, actor Actor, q AttendanceQuery) ([]AttendanceView, error) {
	var views []AttendanceView
	err := svc.scoped(ctx, actor, func(ctx context.Context, repo Repository, scope *Scope) error {
		if q.ClassGroupID != 0 && !scope.Unrestricted() && !scope.Actor.IsStudent() {
			if _, err := repo.GetClassGroup(ctx, q.ClassGroupID); err != nil {
				return err
			}
			if err := scope.Check(EntityClassGroup, OpRead, q.ClassGroupID); err != nil {
				return err
			}
		}
		if q.StudentID != 0 && !scope.Unrestricted() {
			if _, err := repo.GetStudent(ctx, q.StudentID); err != nil {
				return err
			}
			if err := scope.Check(EntityAttendance, OpRead, q.StudentID); err != nil {
				return err
			}
		}

		filter := AttendanceFilter{
			StudentIDs:    intersect(optionalID(q.StudentID), scope.StudentIDs()),
			ClassGroupIDs: optionalID(q.ClassGroupID),
			From:          q.From,
			To:            q.To,
		}
		if scope.Actor.IsInstructor() {
			filter.ClassGroupIDs = intersect(filter.ClassGroupIDs, scope.ClassGroupIDs())
		}
		rows, err := repo.ListAttendance(ctx, filter)
		if err != nil {
			return errors.Wrap(err, "listing attendance")
		}
		views, err = project(ctx, rows, newProjector(repo).attendanceView)
		return err
	})
	return views, err
}

// DeleteAttendance hard-deletes an attendance record. Administrators only.
func (svc *Service) DeleteAttendance(ctx context.Context, actor Actor, id int) error {
	return svc.adminOnly(ctx, actor, EntityAttendance, OpDelete, func(ctx context.Context, repo Repository) error {
		return deleteCascading(ctx, repo, EntityAttendance, id)
	})
}

// RecordMark creates the mark of a student for a subject, deriving its grade.
// At most one mark exists per (student, subject): a second one is a core.KindConflict error, resits go through UpdateMark.
func (svc *Service) RecordMark(ctx context.Context, actor Actor, nm NewMark) (MarkView, error) {
	if err := core.ValidateStruct(nm); err != nil {
		return MarkView{}, err
	}
	if err := validateScore(nm.Score); err != nil {
		return MarkView{}, err
	}

	var view MarkView
	err := svc.scoped(ctx, actor, func(ctx context.Context, repo Repository, scope *Scope) error {
		std, grp, err := enrollment(ctx, repo, nm.StudentID)
		if err != nil {
			return err
		}
		sbj, err := repo.GetSubject(ctx, nm.SubjectID)
		if err != nil {
			return err
		}
		if err = scope.AllowsMark(OpCreate, std, grp, sbj); err != nil {
			return err
		}

		conflictMsg := fmt.Sprintf("student %d already has a mark for subject %d; update it instead", std.ID, sbj.ID)
		if _, err = repo.GetMarkByKey(ctx, std.ID, sbj.ID); err == nil {
			return core.NewConflictError(EntityMark, conflictMsg)
		} else if !core.IsKind(err, core.KindNotFound) {
			return errors.Wrap(err, "checking existing mark")
		}

		now := svc.now()
		mrk, err := repo.CreateMark(ctx, Mark{
			StudentID: std.ID,
			SubjectID: sbj.ID,
			Score:     nm.Score,
			Grade:     GradeFor(nm.Score),
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			err = uniqueConflict(err, EntityMark, conflictMsg)
			return missingReference(err, EntityStudent+" or "+EntitySubject, fmt.Sprintf("%d/%d", std.ID, sbj.ID))
		}
		view, err = newProjector(repo).markView(ctx, mrk)
		return err
	})
	return view, err
}

// UpdateMark replaces the score of an existing mark and recomputes its grade.
func (svc *Service) UpdateMark(ctx context.Context, actor Actor, id int, um UpdateMark) (MarkView, error) {
	if err := validateScore(um.Score); err != nil {
		return MarkView{}, err
	}

	var view MarkView
	err := svc.scoped(ctx, actor, func(ctx context.Context, repo Repository, scope *Scope) error {
		mrk, err := repo.GetMark(ctx, id)
		if err != nil {
			return err
		}
		std, grp, err := enrollment(ctx, repo, mrk.StudentID)
		if err != nil {
			return err
		}
		sbj, err := repo.GetSubject(ctx, mrk.SubjectID)
		if err != nil {
			return err
		}
		if err = scope.AllowsMark(OpUpdate, std, grp, sbj); err != nil {
			return err
		}

		mrk.Score = um.Score
		mrk.Grade = GradeFor(um.Score)
		mrk.UpdatedAt = svc.now()
		if mrk, err = repo.UpdateMark(ctx, mrk); err != nil {
			return errors.Wrap(err, "updating mark")
		}
		view, err = newProjector(repo).markView(ctx, mrk)
		return err
	})
	return view, err
}

// ListMarks lists the marks visible to the actor.
func (svc *Service) ListMarks(ctx context.Context, actor Actor, q MarkQuery) ([]MarkView, error) {
	var views []MarkView
	err := svc.scoped(ctx, actor, func(ctx context.Context, repo Repository, scope *Scope) error {
		if q.SubjectID != 0 && !scope.Unrestricted() {
			if _, err := repo.GetSubject(ctx, q.SubjectID); err != nil {
				return err
			}
			if err := scope.Check(EntitySubject, OpRead, q.SubjectID); err != nil {
				return err
			}
		}
		if q.StudentID != 0 && !scope.Unrestricted() {
			if _, err := repo.GetStudent(ctx, q.StudentID); err != nil {
				return err
			}
			if err := scope.Check(EntityMark, OpRead, q.StudentID); err != nil {
				return err
			}
		}

		filter := MarkFilter{
			StudentIDs: intersect(optionalID(q.StudentID), scope.StudentIDs()),
			SubjectIDs: optionalID(q.SubjectID),
		}
		if scope.Actor.IsInstructor() {
			filter.SubjectIDs = intersect(filter.SubjectIDs, scope.SubjectIDs())
		}
		rows, err := repo.ListMarks(ctx, filter)
		if err != nil {
			return errors.Wrap(err, "listing marks")
		}
		views, err = project(ctx, rows, newProjector(repo).markView)
		return err
	})
	return views, err
}

// DeleteMark hard-deletes a mark. Administrators only.
func (svc *Service) DeleteMark(ctx context.Context, actor Actor, id int) error {
	return svc.adminOnly(ctx, actor, EntityMark, OpDelete, func(ctx context.Context, repo Repository) error {
		return deleteCascading(ctx, repo, EntityMark, id)
	})
}

func cleanRemarks(remarks null.String) null.String {
	if !remarks.Valid {
		return remarks
	}
	cleaned := core.CleanString(remarks.String)
	return null.NewString(cleaned, cleaned != "")
}

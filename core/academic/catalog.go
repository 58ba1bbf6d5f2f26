package academic

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
)

type (
	SubjectQuery struct {
		CourseID int `query:"course_id"`
	}

	ClassGroupQuery struct {
		CourseID     int `query:"course_id"`
		InstructorID int `query:"instructor_id"`
	}

	NewAssignment struct {
		InstructorID int `json:"instructor_id" validate:"required"`
		SubjectID    int `json:"subject_id" validate:"required"`
	}

	AssignmentQuery struct {
		InstructorID int `query:"instructor_id"`
		SubjectID    int `query:"subject_id"`
	}
)

func courseCodeConflict(code string) string {
	return fmt.Sprintf("course code %q is already used", code)
}

// checkCourseCode rejects a code used by a course other than `exclID`.
func checkCourseCode(ctx context.Context, repo Repository, code string, exclID int) error {
	crs, err := repo.GetCourseByCode(ctx, code)
	if err == nil && crs.ID != exclID {
		return core.NewConflictError(EntityCourse, courseCodeConflict(code))
	}
	if err != nil && !core.IsKind(err, core.KindNotFound) {
		return errors.Wrap(err, "checking course code")
	}
	return nil
}

// Courses

// CreateCourse creates a course under a responsible instructor. Administrators only.
func (svc *Service) CreateCourse(ctx context.Context, actor Actor, nc NewCourse) (CourseView, error) {
	if err := nc.Validate(); err != nil {
		return CourseView{}, err
	}
	var view CourseView
	err := svc.adminOnly(ctx, actor, EntityCourse, OpCreate, func(ctx context.Context, repo Repository) error {
		if _, err := repo.GetInstructor(ctx, nc.InstructorID); err != nil {
			return err
		}
		if err := checkCourseCode(ctx, repo, nc.Code, 0); err != nil {
			return err
		}
		now := svc.now()
		crs, err := repo.CreateCourse(ctx, Course{
			Code:         nc.Code,
			Name:         nc.Name,
			Description:  nc.Description,
			Credits:      nc.Credits,
			InstructorID: nc.InstructorID,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			err = uniqueConflict(err, EntityCourse, courseCodeConflict(nc.Code))
			return missingReference(err, EntityInstructor, nc.InstructorID)
		}
		view, err = newProjector(repo).courseView(ctx, crs)
		return err
	})
	return view, err
}

func (svc *Service) GetCourse(ctx context.Context, actor Actor, id int) (CourseView, error) {
	var view CourseView
	err := svc.scoped(ctx, actor, func(ctx context.Context, repo Repository, scope *Scope) error {
		crs, err := repo.GetCourse(ctx, id)
		if err != nil {
			return err
		}
		if err = scope.Check(EntityCourse, OpRead, crs.ID); err != nil {
			return err
		}
		view, err = newProjector(repo).courseView(ctx, crs)
		return err
	})
	return view, err
}

// ListCourses lists the courses visible to the actor.
func (svc *Service) ListCourses(ctx context.Context, actor Actor) ([]CourseView, error) {
	var views []CourseView
	err := svc.scoped(ctx, actor, func(ctx context.Context, repo Repository, scope *Scope) error {
		courses, err := repo.ListCourses(ctx, CourseFilter{IDs: scope.CourseIDs()})
		if err != nil {
			return errors.Wrap(err, "listing courses")
		}
		views, err = project(ctx, courses, newProjector(repo).courseView)
		return err
	})
	return views, err
}

// UpdateCourse changes a course. Its responsible instructor may too, except to hand it over.
func (svc *Service) UpdateCourse(ctx context.Context, actor Actor, id int, uc UpdateCourse) (CourseView, error) {
	if err := uc.Validate(); err != nil {
		return CourseView{}, err
	}
	var view CourseView
	err := svc.scoped(ctx, actor, func(ctx context.Context, repo Repository, scope *Scope) error {
		crs, err := repo.GetCourse(ctx, id)
		if err != nil {
			return err
		}
		if err = scope.Check(EntityCourse, OpUpdate, crs.ID); err != nil {
			return err
		}

		if uc.InstructorID != nil && *uc.InstructorID != crs.InstructorID {
			if !scope.Unrestricted() {
				return core.NewForbiddenError(EntityCourse, "only administrators may change the responsible instructor")
			}
			if _, err = repo.GetInstructor(ctx, *uc.InstructorID); err != nil {
				return err
			}
			crs.InstructorID = *uc.InstructorID
		}
		if uc.Name != "" {
			crs.Name = uc.Name
		}
		if uc.Description != nil {
			crs.Description = core.CleanString(*uc.Description)
		}
		if uc.Credits != nil {
			crs.Credits = *uc.Credits
		}
		crs.UpdatedAt = svc.now()

		instructorID := crs.InstructorID
		if crs, err = repo.UpdateCourse(ctx, crs); err != nil {
			return missingReference(err, EntityInstructor, instructorID)
		}
		view, err = newProjector(repo).courseView(ctx, crs)
		return err
	})
	return view, err
}

// DeleteCourse deletes a course with its subjects and class groups, and their records. Administrators only.
func (svc *Service) DeleteCourse(ctx context.Context, actor Actor, id int) error {
	return svc.adminOnly(ctx, actor, EntityCourse, OpDelete, func(ctx context.Context, repo Repository) error {
		return deleteCascading(ctx, repo, EntityCourse, id)
	})
}

// Subjects

// CreateSubject adds a subject to a course. Administrators only.
func (svc *Service) CreateSubject(ctx context.Context, actor Actor, ns NewSubject) (SubjectView, error) {
	if err := ns.Validate(); err != nil {
		return SubjectView{}, err
	}
	var view SubjectView
	err := svc.adminOnly(ctx, actor, EntitySubject, OpCreate, func(ctx context.Context, repo Repository) error {
		if _, err := repo.GetCourse(ctx, ns.CourseID); err != nil {
			return err
		}
		now := svc.now()
		sbj, err := repo.CreateSubject(ctx, Subject{
			CourseID:    ns.CourseID,
			Name:        ns.Name,
			Description: ns.Description,
			MaterialURL: ns.MaterialURL,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return missingReference(err, EntityCourse, ns.CourseID)
		}
		view, err = newProjector(repo).subjectView(ctx, sbj)
		return err
	})
	return view, err
}

func (svc *Service) GetSubject(ctx context.Context, actor Actor, id int) (SubjectView, error) {
	var view SubjectView
	err := svc.scoped(ctx, actor, func(ctx context.Context, repo Repository, scope *Scope) error {
		sbj, err := repo.GetSubject(ctx, id)
		if err != nil {
			return err
		}
		if err = scope.Check(EntitySubject, OpRead, sbj.ID); err != nil {
			return err
		}
		view, err = newProjector(repo).subjectView(ctx, sbj)
		return err
	})
	return view, err
}

// ListSubjects lists the subjects visible to the actor, optionally those of one course.
func (svc *Service) ListSubjects(ctx context.Context, actor Actor, q SubjectQuery) ([]SubjectView, error) {
	var views []SubjectView
	err := svc.scoped(ctx, actor, func(ctx context.Context, repo Repository, scope *Scope) error {
		if q.CourseID != 0 {
			if _, err := repo.GetCourse(ctx, q.CourseID); err != nil {
				return err
			}
			if err := scope.CheckCourseFilter(q.CourseID); err != nil {
				return err
			}
		}
		subjects, err := repo.ListSubjects(ctx, SubjectFilter{IDs: scope.SubjectIDs(), CourseIDs: optionalID(q.CourseID)})
		if err != nil {
			return errors.Wrap(err, "listing subjects")
		}
		views, err = project(ctx, subjects, newProjector(repo).subjectView)
		return err
	})
	return views, err
}

func (svc *Service) UpdateSubject(ctx context.Context, actor Actor, id int, us UpdateSubject) (SubjectView, error) {
	if err := us.Validate(); err != nil {
		return SubjectView{}, err
	}
	var view SubjectView
	err := svc.scoped(ctx, actor, func(ctx context.Context, repo Repository, scope *Scope) error {
		sbj, err := repo.GetSubject(ctx, id)
		if err != nil {
			return err
		}
		if err = scope.Check(EntitySubject, OpUpdate, sbj.ID); err != nil {
			return err
		}
		if us.Name != "" {
			sbj.Name = us.Name
		}
		if us.Description != nil {
			sbj.Description = core.CleanString(*us.Description)
		}
		if us.MaterialURL != nil {
			sbj.MaterialURL = core.CleanString(*us.MaterialURL)
		}
		sbj.UpdatedAt = svc.now()
		if sbj, err = repo.UpdateSubject(ctx, sbj); err != nil {
			return errors.Wrap(err, "updating subject")
		}
		view, err = newProjector(repo).subjectView(ctx, sbj)
		return err
	})
	return view, err
}

// DeleteSubject deletes a subject with its marks and assignments. Administrators only.
func (svc *Service) DeleteSubject(ctx context.Context, actor Actor, id int) error {
	return svc.adminOnly(ctx, actor, EntitySubject, OpDelete, func(ctx context.Context, repo Repository) error {
		return deleteCascading(ctx, repo, EntitySubject, id)
	})
}

// Class groups

// CreateClassGroup adds a class group to a course, optionally taught by an instructor. Administrators only.
func (svc *Service) CreateClassGroup(ctx context.Context, actor Actor, ng NewClassGroup) (ClassGroupView, error) {
	if err := ng.Validate(); err != nil {
		return ClassGroupView{}, err
	}
	var view ClassGroupView
	err := svc.adminOnly(ctx, actor, EntityClassGroup, OpCreate, func(ctx context.Context, repo Repository) error {
		if _, err := repo.GetCourse(ctx, ng.CourseID); err != nil {
			return err
		}
		if ng.InstructorID.Valid {
			if _, err := repo.GetInstructor(ctx, ng.InstructorID.Int); err != nil {
				return err
			}
		}
		now := svc.now()
		grp, err := repo.CreateClassGroup(ctx, ClassGroup{
			CourseID:     ng.CourseID,
			InstructorID: ng.InstructorID,
			Name:         ng.Name,
			Schedule:     ng.Schedule,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return missingReference(err, EntityCourse+" or "+EntityInstructor, ng.CourseID)
		}
		view, err = newProjector(repo).classGroupView(ctx, grp)
		return err
	})
	return view, err
}

func (svc *Service) GetClassGroup(ctx context.Context, actor Actor, id int) (ClassGroupView, error) {
	var view ClassGroupView
	err := svc.scoped(ctx, actor, func(ctx context.Context, repo Repository, scope *Scope) error {
		grp, err := repo.GetClassGroup(ctx, id)
		if err != nil {
			return err
		}
		if err = scope.Check(EntityClassGroup, OpRead, grp.ID); err != nil {
			return err
		}
		view, err = newProjector(repo).classGroupView(ctx, grp)
		return err
	})
	return view, err
}

// ListClassGroups lists the class groups visible to the actor, optionally filtered by course or instructor.
func (svc *Service) ListClassGroups(ctx context.Context, actor Actor, q ClassGroupQuery) ([]ClassGroupView, error) {
	var views []ClassGroupView
	err := svc.scoped(ctx, actor, func(ctx context.Context, repo Repository, scope *Scope) error {
		if q.CourseID != 0 {
			if _, err := repo.GetCourse(ctx, q.CourseID); err != nil {
				return err
			}
			if err := scope.CheckCourseFilter(q.CourseID); err != nil {
				return err
			}
		}
		if q.InstructorID != 0 {
			if _, err := repo.GetInstructor(ctx, q.InstructorID); err != nil {
				return err
			}
			if err := scope.Check(EntityInstructor, OpRead, q.InstructorID); err != nil {
				return err
			}
		}
		groups, err := repo.ListClassGroups(ctx, ClassGroupFilter{
			IDs:           scope.ClassGroupIDs(),
			CourseIDs:     optionalID(q.CourseID),
			InstructorIDs: optionalID(q.InstructorID),
		})
		if err != nil {
			return errors.Wrap(err, "listing class groups")
		}
		views, err = project(ctx, groups, newProjector(repo).classGroupView)
		return err
	})
	return views, err
}

func (svc *Service) UpdateClassGroup(ctx context.Context, actor Actor, id int, ug UpdateClassGroup) (ClassGroupView, error) {
	if err := ug.Validate(); err != nil {
		return ClassGroupView{}, err
	}
	var view ClassGroupView
	err := svc.scoped(ctx, actor, func(ctx context.Context, repo Repository, scope *Scope) error {
		grp, err := repo.GetClassGroup(ctx, id)
		if err != nil {
			return err
		}
		if err = scope.Check(EntityClassGroup, OpUpdate, grp.ID); err != nil {
			return err
		}

		changesInstructor := ug.ClearInstructor || (ug.InstructorID.Valid && ug.InstructorID != grp.InstructorID)
		if changesInstructor && !scope.Unrestricted() {
			return core.NewForbiddenError(EntityClassGroup, "only administrators may change the instructor of a class group")
		}
		switch {
		case ug.ClearInstructor:
			grp.InstructorID.Valid = false
			grp.InstructorID.Int = 0
		case ug.InstructorID.Valid:
			if _, err = repo.GetInstructor(ctx, ug.InstructorID.Int); err != nil {
				return err
			}
			grp.InstructorID = ug.InstructorID
		}
		if ug.Name != "" {
			grp.Name = ug.Name
		}
		if ug.Schedule != nil {
			grp.Schedule = core.CleanString(*ug.Schedule)
		}
		grp.UpdatedAt = svc.now()

		instructorID := grp.InstructorID.Int
		if grp, err = repo.UpdateClassGroup(ctx, grp); err != nil {
			return missingReference(err, EntityInstructor, instructorID)
		}
		view, err = newProjector(repo).classGroupView(ctx, grp)
		return err
	})
	return view, err
}

// DeleteClassGroup deletes a class group with its attendance. Its students stay, unenrolled. Administrators only.
func (svc *Service) DeleteClassGroup(ctx context.Context, actor Actor, id int) error {
	return svc.adminOnly(ctx, actor, EntityClassGroup, OpDelete, func(ctx context.Context, repo Repository) error {
		return deleteCascading(ctx, repo, EntityClassGroup, id)
	})
}

// Assignments

// AssignInstructor assigns an instructor to teach a subject. Administrators only.
func (svc *Service) AssignInstructor(ctx context.Context, actor Actor, na NewAssignment) (AssignmentView, error) {
	if err := core.ValidateStruct(na); err != nil {
		return AssignmentView{}, err
	}
	var view AssignmentView
	err := svc.adminOnly(ctx, actor, EntityAssignment, OpCreate, func(ctx context.Context, repo Repository) error {
		if _, err := repo.GetInstructor(ctx, na.InstructorID); err != nil {
			return err
		}
		if _, err := repo.GetSubject(ctx, na.SubjectID); err != nil {
			return err
		}

		filter := AssignmentFilter{InstructorIDs: ids(na.InstructorID), SubjectIDs: ids(na.SubjectID)}
		conflictMsg := fmt.Sprintf("instructor %d is already assigned to subject %d", na.InstructorID, na.SubjectID)
		existing, err := repo.ListAssignments(ctx, filter)
		if err != nil {
			return errors.Wrap(err, "checking existing assignment")
		}
		if len(existing) > 0 {
			return core.NewConflictError(EntityAssignment, conflictMsg)
		}

		asg, err := repo.CreateAssignment(ctx, Assignment{
			InstructorID: na.InstructorID,
			SubjectID:    na.SubjectID,
			CreatedAt:    svc.now(),
		})
		if err != nil {
			err = uniqueConflict(err, EntityAssignment, conflictMsg)
			return missingReference(err, EntityInstructor+" or "+EntitySubject, fmt.Sprintf("%d/%d", na.InstructorID, na.SubjectID))
		}
		view, err = newProjector(repo).assignmentView(ctx, asg)
		return err
	})
	return view, err
}

// UnassignInstructor removes the assignment of an instructor to a subject. Administrators only.
func (svc *Service) UnassignInstructor(ctx context.Context, actor Actor, instructorID, subjectID int) error {
	return svc.adminOnly(ctx, actor, EntityAssignment, OpDelete, func(ctx context.Context, repo Repository) error {
		n, err := repo.DeleteAssignments(ctx, AssignmentFilter{InstructorIDs: ids(instructorID), SubjectIDs: ids(subjectID)})
		if err != nil {
			return errors.Wrap(err, "deleting assignment")
		}
		if n == 0 {
			return core.NewNotFoundError(EntityAssignment, fmt.Sprintf("%d/%d", instructorID, subjectID))
		}
		return nil
	})
}

// ListAssignments lists the assignments of the subjects visible to the actor.
func (svc *Service) ListAssignments(ctx context.Context, actor Actor, q AssignmentQuery) ([]AssignmentView, error) {
	var views []AssignmentView
	err := svc.scoped(ctx, actor, func(ctx context.Context, repo Repository, scope *Scope) error {
		asgs, err := repo.ListAssignments(ctx, AssignmentFilter{
			InstructorIDs: optionalID(q.InstructorID),
			SubjectIDs:    intersect(optionalID(q.SubjectID), scope.SubjectIDs()),
		})
		if err != nil {
			return errors.Wrap(err, "listing assignments")
		}
		views, err = project(ctx, asgs, newProjector(repo).assignmentView)
		return err
	})
	return views, err
}

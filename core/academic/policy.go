package academic

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
)

// onDelete is what happens to a dependent when the entity it references is deleted.
type onDelete uint8

const (
	cascade onDelete = iota
	restrict
	nullify
)

func (a onDelete) String() string {
	switch a {
	case restrict:
		return "restrict"
	case nullify:
		return "nullify"
	default:
		return "cascade"
	}
}

type (
	// deleteRule binds a dependent entity to the action applied on it.
	// find lists the dependents by id: they are deleted one by one (cascade) or block the deletion (restrict).
	// apply handles the dependents in bulk: bulk delete (cascade of leaf rows) or clearing the reference (nullify).
	deleteRule struct {
		dependent string
		action    onDelete
		find      func(ctx context.Context, repo Repository, id int) ([]int, error)
		apply     func(ctx context.Context, repo Repository, id int) error
	}

	deletePolicy struct {
		exists func(ctx context.Context, repo Repository, id int) error
		remove func(ctx context.Context, repo Repository, id int) error
		rules  []deleteRule
	}
)

func ids(vals ...int) []int { return vals }

var deletePolicies = map[string]deletePolicy{
	EntityAccount: {
		exists: func(ctx context.Context, repo Repository, id int) error {
			_, err := repo.GetAccount(ctx, id)
			return err
		},
		remove: func(ctx context.Context, repo Repository, id int) error { return repo.DeleteAccount(ctx, id) },
		rules: []deleteRule{
			{dependent: EntityAdministrator, action: cascade, find: func(ctx context.Context, repo Repository, id int) ([]int, error) {
				adm, err := repo.GetAdministratorByAccount(ctx, id)
				return profileID(adm.ID, err)
			}},
			{dependent: EntityInstructor, action: cascade, find: func(ctx context.Context, repo Repository, id int) ([]int, error) {
				inst, err := repo.GetInstructorByAccount(ctx, id)
				return profileID(inst.ID, err)
			}},
			{dependent: EntityStudent, action: cascade, find: func(ctx context.Context, repo Repository, id int) ([]int, error) {
				std, err := repo.GetStudentByAccount(ctx, id)
				return profileID(std.ID, err)
			}},
		},
	},
	EntityAdministrator: {
		remove: func(ctx context.Context, repo Repository, id int) error { return repo.DeleteAdministrator(ctx, id) },
	},
	EntityInstructor: {
		exists: func(ctx context.Context, repo Repository, id int) error {
			_, err := repo.GetInstructor(ctx, id)
			return err
		},
		remove: func(ctx context.Context, repo Repository, id int) error { return repo.DeleteInstructor(ctx, id) },
		rules: []deleteRule{
			{dependent: EntityCourse, action: restrict, find: func(ctx context.Context, repo Repository, id int) ([]int, error) {
				courses, err := repo.ListCourses(ctx, CourseFilter{InstructorIDs: ids(id)})
				return courseIDs(courses), err
			}},
			{dependent: EntityClassGroup, action: nullify, apply: func(ctx context.Context, repo Repository, id int) error {
				_, err := repo.ClearClassGroupsInstructor(ctx, id)
				return err
			}},
			{dependent: EntityAssignment, action: cascade, apply: func(ctx context.Context, repo Repository, id int) error {
				_, err := repo.DeleteAssignments(ctx, AssignmentFilter{InstructorIDs: ids(id)})
				return err
			}},
		},
	},
	EntityStudent: {
		exists: func(ctx context.Context, repo Repository, id int) error {
			_, err := repo.GetStudent(ctx, id)
			return err
		},
		remove: func(ctx context.Context, repo Repository, id int) error { return repo.DeleteStudent(ctx, id) },
		rules: []deleteRule{
			{dependent: EntityAttendance, action: cascade, apply: func(ctx context.Context, repo Repository, id int) error {
				_, err := repo.DeleteAttendance(ctx, AttendanceFilter{StudentIDs: ids(id)})
				return err
			}},
			{dependent: EntityMark, action: cascade, apply: func(ctx context.Context, repo Repository, id int) error {
				_, err := repo.DeleteMarks(ctx, MarkFilter{StudentIDs: ids(id)})
				return err
			}},
		},
	},
	EntityCourse: {
		exists: func(ctx context.Context, repo Repository, id int) error {
			_, err := repo.GetCourse(ctx, id)
			return err
		},
		remove: func(ctx context.Context, repo Repository, id int) error { return repo.DeleteCourse(ctx, id) },
		rules: []deleteRule{
			{dependent: EntitySubject, action: cascade, find: func(ctx context.Context, repo Repository, id int) ([]int, error) {
				subjects, err := repo.ListSubjects(ctx, SubjectFilter{CourseIDs: ids(id)})
				return subjectIDs(subjects), err
			}},
			{dependent: EntityClassGroup, action: cascade, find: func(ctx context.Context, repo Repository, id int) ([]int, error) {
				groups, err := repo.ListClassGroups(ctx, ClassGroupFilter{CourseIDs: ids(id)})
				return classGroupIDs(groups), err
			}},
		},
	},
	EntitySubject: {
		exists: func(ctx context.Context, repo Repository, id int) error {
			_, err := repo.GetSubject(ctx, id)
			return err
		},
		remove: func(ctx context.Context, repo Repository, id int) error { return repo.DeleteSubject(ctx, id) },
		rules: []deleteRule{
			{dependent: EntityMark, action: cascade, apply: func(ctx context.Context, repo Repository, id int) error {
				_, err := repo.DeleteMarks(ctx, MarkFilter{SubjectIDs: ids(id)})
				return err
			}},
			{dependent: EntityAssignment, action: cascade, apply: func(ctx context.Context, repo Repository, id int) error {
				_, err := repo.DeleteAssignments(ctx, AssignmentFilter{SubjectIDs: ids(id)})
				return err
			}},
		},
	},
	EntityClassGroup: {
		exists: func(ctx context.Context, repo Repository, id int) error {
			_, err := repo.GetClassGroup(ctx, id)
			return err
		},
		remove: func(ctx context.Context, repo Repository, id int) error { return repo.DeleteClassGroup(ctx, id) },
		rules: []deleteRule{
			{dependent: EntityAttendance, action: cascade, apply: func(ctx context.Context, repo Repository, id int) error {
				_, err := repo.DeleteAttendance(ctx, AttendanceFilter{ClassGroupIDs: ids(id)})
				return err
			}},
			{dependent: EntityStudent, action: nullify, apply: func(ctx context.Context, repo Repository, id int) error {
				_, err := repo.ClearStudentsClassGroup(ctx, id)
				return err
			}},
		},
	},
	EntityAttendance: {
		exists: func(ctx context.Context, repo Repository, id int) error {
			_, err := repo.GetAttendance(ctx, id)
			return err
		},
		remove: func(ctx context.Context, repo Repository, id int) error {
			_, err := repo.DeleteAttendance(ctx, AttendanceFilter{IDs: ids(id)})
			return err
		},
	},
	EntityMark: {
		exists: func(ctx context.Context, repo Repository, id int) error {
			_, err := repo.GetMark(ctx, id)
			return err
		},
		remove: func(ctx context.Context, repo Repository, id int) error {
			_, err := repo.DeleteMarks(ctx, MarkFilter{IDs: ids(id)})
			return err
		},
	},
}

// deleteCascading deletes the entity and applies the deletion rules of its dependents, depth first.
// It must run within a transaction: a restricted dependent found after some cascades leaves them to be rolled back.
func deleteCascading(ctx context.Context, repo Repository, entity string, id int) error {
	policy, ok := deletePolicies[entity]
	if !ok {
		return errors.Errorf("no deletion policy for %s", entity)
	}
	if policy.exists != nil {
		if err := policy.exists(ctx, repo, id); err != nil {
			return err
		}
	}

	// check restrictions first so nothing is touched when the deletion is blocked
	for _, rule := range policy.rules {
		if rule.action != restrict {
			continue
		}
		blocking, err := rule.find(ctx, repo, id)
		if err != nil {
			return errors.Wrapf(err, "finding %s referencing %s %d", rule.dependent, entity, id)
		}
		if len(blocking) > 0 {
			return core.NewConflictError(entity, fmt.Sprintf(
				"%s %d is still referenced by %s %s; reassign them first", entity, id, rule.dependent, joinIDs(blocking),
			))
		}
	}

	for _, rule := range policy.rules {
		switch rule.action {
		case restrict:
			continue
		case cascade:
			if rule.find != nil {
				depIDs, err := rule.find(ctx, repo, id)
				if err != nil {
					return errors.Wrapf(err, "finding %s of %s %d", rule.dependent, entity, id)
				}
				for _, depID := range depIDs {
					if err = deleteCascading(ctx, repo, rule.dependent, depID); err != nil {
						return err
					}
				}
				continue
			}
			fallthrough
		case nullify:
			if err := rule.apply(ctx, repo, id); err != nil {
				return errors.Wrapf(err, "applying %s on %s of %s %d", rule.action, rule.dependent, entity, id)
			}
		}
	}

	if err := policy.remove(ctx, repo, id); err != nil {
		if errors.Is(err, core.ErrForeignKeyViolation) {
			return core.NewConflictError(entity, fmt.Sprintf("%s %d is still referenced", entity, id), err)
		}
		return errors.Wrapf(err, "deleting %s %d", entity, id)
	}
	return nil
}

func profileID(id int, err error) ([]int, error) {
	if err != nil {
		if core.IsKind(err, core.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ids(id), nil
}

func joinIDs(ids []int) string {
	strs := make([]string, 0, len(ids))
	for _, id := range ids {
		strs = append(strs, fmt.Sprint(id))
	}
	return "[" + strings.Join(strs, ", ") + "]"
}

func courseIDs(courses []Course) []int {
	res := make([]int, 0, len(courses))
	for _, c := range courses {
		res = append(res, c.ID)
	}
	return res
}

func subjectIDs(subjects []Subject) []int {
	res := make([]int, 0, len(subjects))
	for _, s := range subjects {
		res = append(res, s.ID)
	}
	return res
}

func classGroupIDs(groups []ClassGroup) []int {
	res := make([]int, 0, len(groups))
	for _, g := range groups {
		res = append(res, g.ID)
	}
	return res
}

package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/academic"
)

type catalogApi struct {
	svc *academic.Service
}

func registerCatalogAPI(g *echo.Group, svc *academic.Service) {
	api := catalogApi{svc: svc}

	cg := g.Group("/courses")
	cg.POST("", api.createCourse)
	cg.GET("", api.queryCourses)
	cg.GET("/:id", api.retrieveCourse)
	cg.PUT("/:id", api.updateCourse)
	cg.DELETE("/:id", api.destroyCourse)

	sg := g.Group("/subjects")
	sg.POST("", api.createSubject)
	sg.GET("", api.querySubjects)
	sg.GET("/:id", api.retrieveSubject)
	sg.PUT("/:id", api.updateSubject)
	sg.DELETE("/:id", api.destroySubject)

	gg := g.Group("/classgroups")
	gg.POST("", api.createClassGroup)
	gg.GET("", api.queryClassGroups)
	gg.GET("/:id", api.retrieveClassGroup)
	gg.PUT("/:id", api.updateClassGroup)
	gg.DELETE("/:id", api.destroyClassGroup)

	ag := g.Group("/assignments")
	ag.POST("", api.createAssignment)
	ag.GET("", api.queryAssignments)
	ag.DELETE("/:instructorId/:subjectId", api.destroyAssignment)
}

// Courses

func (api *catalogApi) createCourse(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var data academic.NewCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}

	crs, err := api.svc.CreateCourse(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *catalogApi) queryCourses(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	courses, err := api.svc.ListCourses(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []academic.CourseView{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *catalogApi) retrieveCourse(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	crs, err := api.svc.GetCourse(ctx.Request().Context(), actor, id)
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *catalogApi) updateCourse(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data academic.UpdateCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}

	crs, err := api.svc.UpdateCourse(ctx.Request().Context(), actor, id, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *catalogApi) destroyCourse(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	if err = api.svc.DeleteCourse(ctx.Request().Context(), actor, id); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return noContent(ctx)
}

// Subjects

func (api *catalogApi) createSubject(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var data academic.NewSubject
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}

	sbj, err := api.svc.CreateSubject(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, sbj)
}

func (api *catalogApi) querySubjects(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var q academic.SubjectQuery
	if q.CourseID, err = queryInt(ctx, "course_id"); err != nil {
		return err
	}

	subjects, err := api.svc.ListSubjects(ctx.Request().Context(), actor, q)
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if subjects == nil {
		subjects = []academic.SubjectView{}
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *catalogApi) retrieveSubject(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	sbj, err := api.svc.GetSubject(ctx.Request().Context(), actor, id)
	if err != nil {
		return errors.Wrap(err, "getting subject")
	}
	return ctx.JSON(http.StatusOK, sbj)
}

func (api *catalogApi) updateSubject(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data academic.UpdateSubject
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSubject")
	}

	sbj, err := api.svc.UpdateSubject(ctx.Request().Context(), actor, id, data)
	if err != nil {
		return errors.Wrap(err, "updating subject")
	}
	return ctx.JSON(http.StatusOK, sbj)
}

func (api *catalogApi) destroySubject(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	if err = api.svc.DeleteSubject(ctx.Request().Context(), actor, id); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	return noContent(ctx)
}

// Class groups

func (api *catalogApi) createClassGroup(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var data academic.NewClassGroup
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClassGroup")
	}

	grp, err := api.svc.CreateClassGroup(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating class group")
	}
	return ctx.JSON(http.StatusCreated, grp)
}

func (api *catalogApi) queryClassGroups(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var q academic.ClassGroupQuery
	if q.CourseID, err = queryInt(ctx, "course_id"); err != nil {
		return err
	}
	if q.InstructorID, err = queryInt(ctx, "instructor_id"); err != nil {
		return err
	}

	groups, err := api.svc.ListClassGroups(ctx.Request().Context(), actor, q)
	if err != nil {
		return errors.Wrap(err, "querying class groups")
	}
	if groups == nil {
		groups = []academic.ClassGroupView{}
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *catalogApi) retrieveClassGroup(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	grp, err := api.svc.GetClassGroup(ctx.Request().Context(), actor, id)
	if err != nil {
		return errors.Wrap(err, "getting class group")
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *catalogApi) updateClassGroup(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data academic.UpdateClassGroup
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClassGroup")
	}

	grp, err := api.svc.UpdateClassGroup(ctx.Request().Context(), actor, id, data)
	if err != nil {
		return errors.Wrap(err, "updating class group")
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *catalogApi) destroyClassGroup(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	if err = api.svc.DeleteClassGroup(ctx.Request().Context(), actor, id); err != nil {
		return errors.Wrap(err, "deleting class group")
	}
	return noContent(ctx)
}

// Instructor assignments

func (api *catalogApi) createAssignment(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var data academic.NewAssignment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}

	asg, err := api.svc.AssignInstructor(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "assigning instructor")
	}
	return ctx.JSON(http.StatusCreated, asg)
}

func (api *catalogApi) queryAssignments(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var q academic.AssignmentQuery
	if q.InstructorID, err = queryInt(ctx, "instructor_id"); err != nil {
		return err
	}
	if q.SubjectID, err = queryInt(ctx, "subject_id"); err != nil {
		return err
	}

	asgs, err := api.svc.ListAssignments(ctx.Request().Context(), actor, q)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if asgs == nil {
		asgs = []academic.AssignmentView{}
	}
	return ctx.JSON(http.StatusOK, asgs)
}

func (api *catalogApi) destroyAssignment(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	instructorID, err := paramID(ctx, "instructorId")
	if err != nil {
		return err
	}
	subjectID, err := paramID(ctx, "subjectId")
	if err != nil {
		return err
	}

	if err = api.svc.UnassignInstructor(ctx.Request().Context(), actor, instructorID, subjectID); err != nil {
		return errors.Wrap(err, "unassigning instructor")
	}
	return noContent(ctx)
}

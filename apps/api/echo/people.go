package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/academic"
)

type peopleApi struct {
	svc *academic.Service
}

func registerPeopleAPI(g *echo.Group, svc *academic.Service) {
	api := peopleApi{svc: svc}

	g.GET("/me", api.me)

	g.POST("/administrators", api.createAdministrator, adminMiddleware)

	ig := g.Group("/instructors")
	ig.POST("", api.createInstructor)
	ig.GET("", api.queryInstructors)
	ig.GET("/:id", api.retrieveInstructor)
	ig.PUT("/:id", api.updateInstructor)
	ig.DELETE("/:id", api.destroyInstructor)

	sg := g.Group("/students")
	sg.POST("", api.createStudent)
	sg.GET("", api.queryStudents)
	sg.GET("/:id", api.retrieveStudent)
	sg.PUT("/:id", api.updateStudent)
	sg.DELETE("/:id", api.destroyStudent)

	ag := g.Group("/accounts/:id", adminMiddleware)
	ag.POST("/activate", api.activateAccount)
	ag.POST("/deactivate", api.deactivateAccount)
	ag.DELETE("", api.destroyAccount)
}

// Handlers

// me returns the role profile of the authenticated account.
func (api *peopleApi) me(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	var profile interface{}
	switch {
	case actor.IsAdministrator():
		profile, err = api.svc.AdministratorProfile(ctx.Request().Context(), actor)
	case actor.IsInstructor():
		profile, err = api.svc.InstructorProfile(ctx.Request().Context(), actor)
	case actor.IsStudent():
		profile, err = api.svc.StudentProfile(ctx.Request().Context(), actor)
	default:
		return errHttpForbidden
	}
	if err != nil {
		return errors.Wrap(err, "getting profile")
	}
	return ctx.JSON(http.StatusOK, profile)
}

func (api *peopleApi) createAdministrator(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var data academic.NewAdministrator
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAdministrator")
	}

	adm, err := api.svc.CreateAdministrator(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating administrator")
	}
	return ctx.JSON(http.StatusCreated, adm)
}

func (api *peopleApi) createInstructor(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var data academic.NewInstructor
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInstructor")
	}

	inst, err := api.svc.CreateInstructor(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating instructor")
	}
	return ctx.JSON(http.StatusCreated, inst)
}

func (api *peopleApi) queryInstructors(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	instructors, err := api.svc.ListInstructors(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "querying instructors")
	}
	if instructors == nil {
		instructors = []academic.InstructorView{}
	}
	return ctx.JSON(http.StatusOK, instructors)
}

func (api *peopleApi) retrieveInstructor(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	inst, err := api.svc.GetInstructor(ctx.Request().Context(), actor, id)
	if err != nil {
		return errors.Wrap(err, "getting instructor")
	}
	return ctx.JSON(http.StatusOK, inst)
}

func (api *peopleApi) updateInstructor(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data academic.UpdateInstructor
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateInstructor")
	}

	inst, err := api.svc.UpdateInstructor(ctx.Request().Context(), actor, id, data)
	if err != nil {
		return errors.Wrap(err, "updating instructor")
	}
	return ctx.JSON(http.StatusOK, inst)
}

func (api *peopleApi) destroyInstructor(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	if err = api.svc.DeleteInstructor(ctx.Request().Context(), actor, id); err != nil {
		return errors.Wrap(err, "deleting instructor")
	}
	return noContent(ctx)
}

func (api *peopleApi) createStudent(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var data academic.NewStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}

	std, err := api.svc.CreateStudent(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *peopleApi) queryStudents(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var q academic.StudentQuery
	if q.ClassGroupID, err = queryInt(ctx, "class_group_id"); err != nil {
		return err
	}

	students, err := api.svc.ListStudents(ctx.Request().Context(), actor, q)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []academic.StudentView{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *peopleApi) retrieveStudent(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	std, err := api.svc.GetStudent(ctx.Request().Context(), actor, id)
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *peopleApi) updateStudent(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data academic.UpdateStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}

	std, err := api.svc.UpdateStudent(ctx.Request().Context(), actor, id, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *peopleApi) destroyStudent(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	if err = api.svc.DeleteStudent(ctx.Request().Context(), actor, id); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return noContent(ctx)
}

func (api *peopleApi) setAccountActive(ctx echo.Context, active bool) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	acc, err := api.svc.SetAccountActive(ctx.Request().Context(), actor, id, active)
	if err != nil {
		return errors.Wrap(err, "setting account active")
	}
	return ctx.JSON(http.StatusOK, acc)
}

func (api *peopleApi) activateAccount(ctx echo.Context) error {
	return api.setAccountActive(ctx, true)
}

func (api *peopleApi) deactivateAccount(ctx echo.Context) error {
	return api.setAccountActive(ctx, false)
}

func (api *peopleApi) destroyAccount(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	if err = api.svc.DeleteAccount(ctx.Request().Context(), actor, id); err != nil {
		return errors.Wrap(err, "deleting account")
	}
	return noContent(ctx)
}

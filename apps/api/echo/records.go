package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/academic"
)

type recordsApi struct {
	svc *academic.Service
}

func registerRecordsAPI(g *echo.Group, svc *academic.Service) {
	api := recordsApi{svc: svc}

	ag := g.Group("/attendance")
	ag.POST("", api.recordAttendance)
	ag.GET("", api.queryAttendance)
	ag.PUT("/:id", api.updateAttendance)
	ag.DELETE("/:id", api.destroyAttendance)

	mg := g.Group("/marks")
	mg.POST("", api.recordMark)
	mg.GET("", api.queryMarks)
	mg.PUT("/:id", api.updateMark)
	mg.DELETE("/:id", api.destroyMark)
}

// Attendance

func (api *recordsApi) recordAttendance(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var data academic.NewAttendance
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttendance")
	}

	att, err := api.svc.RecordAttendance(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "recording attendance")
	}
	return ctx.JSON(http.StatusCreated, att)
}

// queryAttendance filters on student_id, class_group_id and the inclusive from/to days.
func (api *recordsApi) queryAttendance(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var q academic.AttendanceQuery
	if q.StudentID, err = queryInt(ctx, "student_id"); err != nil {
		return err
	}
	if q.ClassGroupID, err = queryInt(ctx, "class_group_id"); err != nil {
		return err
	}
	if q.From, err = queryDate(ctx, "from"); err != nil {
		return err
	}
	if q.To, err = queryDate(ctx, "to"); err != nil {
		return err
	}

	records, err := api.svc.ListAttendance(ctx.Request().Context(), actor, q)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	if records == nil {
		records = []academic.AttendanceView{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *recordsApi) updateAttendance(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data academic.UpdateAttendance
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAttendance")
	}

	att, err := api.svc.UpdateAttendance(ctx.Request().Context(), actor, id, data)
	if err != nil {
		return errors.Wrap(err, "updating attendance")
	}
	return ctx.JSON(http.StatusOK, att)
}

func (api *recordsApi) destroyAttendance(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	if err = api.svc.DeleteAttendance(ctx.Request().Context(), actor, id); err != nil {
		return errors.Wrap(err, "deleting attendance")
	}
	return noContent(ctx)
}

// Marks

func (api *recordsApi) recordMark(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var data academic.NewMark
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMark")
	}

	mrk, err := api.svc.RecordMark(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "recording mark")
	}
	return ctx.JSON(http.StatusCreated, mrk)
}

func (api *recordsApi) queryMarks(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var q academic.MarkQuery
	if q.StudentID, err = queryInt(ctx, "student_id"); err != nil {
		return err
	}
	if q.SubjectID, err = queryInt(ctx, "subject_id"); err != nil {
		return err
	}

	marks, err := api.svc.ListMarks(ctx.Request().Context(), actor, q)
	if err != nil {
		return errors.Wrap(err, "querying marks")
	}
	if marks == nil {
		marks = []academic.MarkView{}
	}
	return ctx.JSON(http.StatusOK, marks)
}

func (api *recordsApi) updateMark(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data academic.UpdateMark
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMark")
	}

	mrk, err := api.svc.UpdateMark(ctx.Request().Context(), actor, id, data)
	if err != nil {
		return errors.Wrap(err, "updating mark")
	}
	return ctx.JSON(http.StatusOK, mrk)
}

func (api *recordsApi) destroyMark(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	if err = api.svc.DeleteMark(ctx.Request().Context(), actor, id); err != nil {
		return errors.Wrap(err, "deleting mark")
	}
	return noContent(ctx)
}

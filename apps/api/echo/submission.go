package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/submission"
	"github.com/trezcool/darasa/core/user"
)

type submissionApi struct {
	svc      submission.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerSubmissionAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc submission.Service,
	usrSvc user.Service,
	validate *validator.Validate,
) {
	api := submissionApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	// a student's submission lives under its assignment
	ag := g.Group("/assignments/:assignmentID", jwt)
	ag.PUT("/submission", api.upsert)
	ag.GET("/submission", api.retrieveOwn)
	ag.GET("/submissions", api.queryByAssignment)

	sg := g.Group("/submissions/:id", jwt)
	sg.POST("/grade", api.grade)
	sg.POST("/return", api.returnToStudent)
	sg.DELETE("", api.destroy)

	g.GET("/classrooms/:classroomID/students/:studentID/submissions", api.queryByClassroomStudent, jwt)
}

// Handlers

func (api *submissionApi) upsert(ctx echo.Context) error {
	var data submission.UpsertSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpsertSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sub, err := api.svc.Upsert(ctx.Request().Context(), actor, ctx.Param("assignmentID"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *submissionApi) retrieveOwn(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sub, err := api.svc.GetOwn(ctx.Request().Context(), actor, ctx.Param("assignmentID"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *submissionApi) queryByAssignment(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	subs, err := api.svc.QueryByAssignment(ctx.Request().Context(), actor, ctx.Param("assignmentID"))
	if err != nil {
		return err
	}
	if subs == nil {
		subs = []submission.Enriched{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *submissionApi) grade(ctx echo.Context) error {
	var data submission.GradeSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sub, err := api.svc.Grade(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *submissionApi) returnToStudent(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sub, err := api.svc.Return(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *submissionApi) destroy(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.Delete(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *submissionApi) queryByClassroomStudent(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	subs, err := api.svc.QueryByClassroomStudent(
		ctx.Request().Context(), actor, ctx.Param("classroomID"), ctx.Param("studentID"))
	if err != nil {
		return err
	}
	if subs == nil {
		subs = []submission.Graded{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

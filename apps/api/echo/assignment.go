package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/user"
)

type assignmentApi struct {
	svc      assignment.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerAssignmentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc assignment.Service,
	usrSvc user.Service,
	validate *validator.Validate,
) {
	api := assignmentApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	// nested under the owning classroom
	cg := g.Group("/classrooms/:classroomID/assignments", jwt)
	cg.POST("", api.create)
	cg.GET("", api.query)

	ag := g.Group("/assignments/:id", jwt)
	ag.GET("", api.retrieve)
	ag.PUT("", api.update)
	ag.DELETE("", api.destroy)
	ag.POST("/publish", api.publish)
	ag.POST("/close", api.close)
}

// AssignmentResponse decorates an assignment with its due-date derivations.
// They are computed at serialization time, never stored.
type AssignmentResponse struct {
	assignment.Assignment
	IsOverdue    bool `json:"is_overdue"`
	DaysUntilDue int  `json:"days_until_due"`
}

func newAssignmentResponse(asg assignment.Assignment) AssignmentResponse {
	now := time.Now().UTC()
	return AssignmentResponse{
		Assignment:   asg,
		IsOverdue:    asg.IsOverdue(now),
		DaysUntilDue: asg.DaysUntilDue(now),
	}
}

func newAssignmentResponses(asgs []assignment.Assignment) []AssignmentResponse {
	res := make([]AssignmentResponse, 0, len(asgs))
	for _, asg := range asgs {
		res = append(res, newAssignmentResponse(asg))
	}
	return res
}

// Handlers

func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	asg, err := api.svc.Create(ctx.Request().Context(), actor, ctx.Param("classroomID"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, newAssignmentResponse(asg))
}

func (api *assignmentApi) query(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	asgs, err := api.svc.QueryByClassroom(ctx.Request().Context(), actor, ctx.Param("classroomID"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newAssignmentResponses(asgs))
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	asg, err := api.svc.GetByID(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newAssignmentResponse(asg))
}

func (api *assignmentApi) update(ctx echo.Context) error {
	var data assignment.UpdateAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	asg, err := api.svc.Update(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newAssignmentResponse(asg))
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.Delete(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *assignmentApi) publish(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	asg, err := api.svc.Publish(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newAssignmentResponse(asg))
}

func (api *assignmentApi) close(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	asg, err := api.svc.Close(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newAssignmentResponse(asg))
}

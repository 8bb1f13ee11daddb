// Package http exposes the conversation engine over the lane API. One car,
// one session; one utterance, one turn.
package http

import (
	"errors"
	"net/http"

	"drivethru/internal/core/application/usecases/commands"
	"drivethru/internal/core/application/usecases/queries"
	"drivethru/internal/core/domain/model/kernel"
	"drivethru/internal/core/domain/model/order"
	"drivethru/internal/core/domain/model/session"
	"drivethru/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Server coordinates between HTTP handlers and application use cases.
type Server struct {
	// Command handlers
	startSessionHandler commands.StartSessionCommandHandler
	runTurnHandler      commands.RunTurnCommandHandler
	endSessionHandler   commands.EndSessionCommandHandler

	// Query handlers
	getOrderSnapshotHandler  queries.GetOrderSnapshotQueryHandler
	getActiveSessionsHandler queries.GetActiveSessionsQueryHandler
}

// NewServer creates a new HTTP server with the required command and query
// handlers.
func NewServer(
	startSessionHandler commands.StartSessionCommandHandler,
	runTurnHandler commands.RunTurnCommandHandler,
	endSessionHandler commands.EndSessionCommandHandler,
	getOrderSnapshotHandler queries.GetOrderSnapshotQueryHandler,
	getActiveSessionsHandler queries.GetActiveSessionsQueryHandler,
) *Server {
	return &Server{
		startSessionHandler:      startSessionHandler,
		runTurnHandler:           runTurnHandler,
		endSessionHandler:        endSessionHandler,
		getOrderSnapshotHandler:  getOrderSnapshotHandler,
		getActiveSessionsHandler: getActiveSessionsHandler,
	}
}

// RegisterRoutes binds the lane API onto the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")
	api.POST("/sessions", s.StartSession)
	api.GET("/sessions", s.GetActiveSessions)
	api.POST("/sessions/:sessionId/turn", s.RunTurn)
	api.GET("/sessions/:sessionId/order", s.GetOrderSnapshot)
	api.DELETE("/sessions/:sessionId", s.EndSession)

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})
}

// StartSession handles POST /api/v1/sessions - a car arrived at a lane.
func (s *Server) StartSession(ctx echo.Context) error {
	var req StartSessionRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	cmd, err := commands.NewStartSessionCommand(kernel.NewUUID(), req.RestaurantID, req.LaneID)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid session data: " + err.Error(),
		})
	}

	result, err := s.startSessionHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		if errors.Is(err, commands.ErrLaneIsBusy) {
			return ctx.JSON(http.StatusConflict, Error{
				Code:    http.StatusConflict,
				Message: "Lane is already occupied",
			})
		}
		return ctx.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: "Failed to start session",
		})
	}

	return ctx.JSON(http.StatusCreated, StartSessionResponse{
		SessionID: result.SessionID,
		OrderID:   result.OrderID,
		State:     result.State,
		Greeting:  result.Greeting,
	})
}

// RunTurn handles POST /api/v1/sessions/:sessionId/turn - one utterance (or
// silence) from the lane. Retried deliveries must reuse the same turn key.
func (s *Server) RunTurn(ctx echo.Context) error {
	sessionID, err := kernel.UUIDFromString(ctx.Param("sessionId"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid session id",
		})
	}

	var req RunTurnRequest
	if err = ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	cmd, err := commands.NewRunTurnCommand(sessionID, req.TurnKey, req.Utterance, req.Audio)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid turn data: " + err.Error(),
		})
	}

	result, err := s.runTurnHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrObjectNotFound):
			return ctx.JSON(http.StatusNotFound, Error{
				Code:    http.StatusNotFound,
				Message: "Session not found",
			})
		case errors.Is(err, session.ErrSessionIsOver):
			return ctx.JSON(http.StatusGone, Error{
				Code:    http.StatusGone,
				Message: "Session is already over",
			})
		default:
			return ctx.JSON(http.StatusInternalServerError, Error{
				Code:    http.StatusInternalServerError,
				Message: "Failed to run turn",
			})
		}
	}

	return ctx.JSON(http.StatusOK, RunTurnResponse{
		SessionID:   result.SessionID,
		State:       result.State,
		Action:      result.Action,
		Outcome:     result.Outcome,
		Reply:       result.Reply,
		ReplyAudio:  result.ReplyAudio,
		Diffs:       result.Diffs,
		Totals:      totalsFromDomain(result.Totals),
		Finalized:   result.Finalized,
		SessionOver: result.SessionOver,
	})
}

// GetOrderSnapshot handles GET /api/v1/sessions/:sessionId/order - the
// current order view of one session.
func (s *Server) GetOrderSnapshot(ctx echo.Context) error {
	sessionID, err := kernel.UUIDFromString(ctx.Param("sessionId"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid session id",
		})
	}

	query, err := queries.NewGetOrderSnapshotQuery(sessionID)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid query: " + err.Error(),
		})
	}

	snapshot, err := s.getOrderSnapshotHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return ctx.JSON(http.StatusNotFound, Error{
				Code:    http.StatusNotFound,
				Message: "Session not found",
			})
		}
		return ctx.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: "Failed to retrieve order",
		})
	}

	return ctx.JSON(http.StatusOK, OrderSnapshotResponse{
		SessionID: snapshot.SessionID.String(),
		OrderID:   snapshot.OrderID.String(),
		State:     snapshot.State,
		Version:   snapshot.Version,
		Frozen:    snapshot.Frozen,
		Lines:     snapshot.Lines,
		Totals:    totalsFromDomain(snapshot.Totals),
	})
}

// GetActiveSessions handles GET /api/v1/sessions?restaurantId=... - the
// occupied lanes of one restaurant.
func (s *Server) GetActiveSessions(ctx echo.Context) error {
	query, err := queries.NewGetActiveSessionsQuery(ctx.QueryParam("restaurantId"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid query: " + err.Error(),
		})
	}

	sessions, err := s.getActiveSessionsHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: "Failed to retrieve sessions",
		})
	}

	response := make([]ActiveSessionResponse, len(sessions))
	for i, sess := range sessions {
		response[i] = ActiveSessionResponse{
			SessionID:      sess.SessionID.String(),
			LaneID:         sess.LaneID,
			State:          sess.State,
			TurnCounter:    sess.TurnCounter,
			LastActivityAt: sess.LastActivityAt,
			IdleDeadline:   sess.IdleDeadline,
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

// EndSession handles DELETE /api/v1/sessions/:sessionId - the car left or the
// order was picked up.
func (s *Server) EndSession(ctx echo.Context) error {
	sessionID, err := kernel.UUIDFromString(ctx.Param("sessionId"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid session id",
		})
	}

	cmd, err := commands.NewEndSessionCommand(sessionID)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid session data: " + err.Error(),
		})
	}

	if err = s.endSessionHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return ctx.JSON(http.StatusNotFound, Error{
				Code:    http.StatusNotFound,
				Message: "Session not found",
			})
		}
		return ctx.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: "Failed to end session",
		})
	}

	return ctx.NoContent(http.StatusNoContent)
}

func totalsFromDomain(totals order.Totals) Totals {
	return Totals{
		SubtotalCents: totals.Subtotal,
		TaxCents:      totals.Tax,
		TotalCents:    totals.Total,
	}
}

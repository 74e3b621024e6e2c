package http

import (
	"net/http"
	"time"

	botuc "github.com/andreolf/clawloan/internal/usecase/bot"
	"github.com/andreolf/clawloan/pkg/fixed"

	"github.com/labstack/echo/v4"
)

type registerBotReq struct {
	Name            string     `json:"name"             validate:"required,max=128"`
	Description     string     `json:"description"      validate:"max=2048"`
	OperatorAddress string     `json:"operator_address" validate:"required,account"`
	MetadataHash    string     `json:"metadata_hash"    validate:"max=128"`
	MaxSpend        string     `json:"max_spend"        validate:"omitempty,amount"`
	Expiry          *time.Time `json:"expiry"`
}

type permissionReq struct {
	MaxSpend string     `json:"max_spend" validate:"required,amount"`
	Expiry   *time.Time `json:"expiry"    validate:"required"`
}

func (h *Handler) RegisterBot(c echo.Context) error {
	var req registerBotReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	in := botuc.RegisterInput{
		Name:            req.Name,
		Description:     req.Description,
		OperatorAddress: req.OperatorAddress,
		MetadataHash:    req.MetadataHash,
		Expiry:          req.Expiry,
	}
	if req.MaxSpend != "" {
		v := fixed.MustParse(req.MaxSpend)
		in.MaxSpend = &v
	}
	res, err := h.bots.Register(c.Request().Context(), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) GetBot(c echo.Context) error {
	botID, ok := pathID(c, "bot_id")
	if !ok {
		return nil
	}
	res, err := h.bots.Get(c.Request().Context(), botID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) ListBots(c echo.Context) error {
	operator := c.QueryParam("operator")
	if operator != "" && !reAccount.MatchString(operator) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid operator", Code: "invalid_operator"})
	}
	res, err := h.bots.List(c.Request().Context(), operator)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"bots": res})
}

func (h *Handler) UpdatePermission(c echo.Context) error {
	botID, ok := pathID(c, "bot_id")
	if !ok {
		return nil
	}
	var req permissionReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	res, err := h.bots.UpdatePermission(c.Request().Context(), botuc.PermissionInput{
		BotID:    botID,
		MaxSpend: fixed.MustParse(req.MaxSpend),
		Expiry:   *req.Expiry,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) RevokePermission(c echo.Context) error {
	botID, ok := pathID(c, "bot_id")
	if !ok {
		return nil
	}
	res, err := h.bots.Revoke(c.Request().Context(), botID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) DeactivateBot(c echo.Context) error {
	botID, ok := pathID(c, "bot_id")
	if !ok {
		return nil
	}
	res, err := h.bots.Deactivate(c.Request().Context(), botID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

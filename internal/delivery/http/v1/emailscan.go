package v1

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"agent-api/internal/services"
)

type scanEmailsRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type scanEmailsResponse struct {
	Success bool              `json:"success"`
	Bills   []getBillResponse `json:"bills"`
	Count   int               `json:"count"`
}

// HandleScanEmails runs the bill-detection pipeline for the
// authenticated user. The user id in the body must match the bearer
// session; a mismatch is an authentication error, not a permission one.
func (h *handlerImpl) HandleScanEmails(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var req scanEmailsRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	if req.UserID != userID {
		h.logger.Error().
			Str("requested", req.UserID).
			Msg("user id does not match bearer session")
		abort(c, newUnauthorizedError("user mismatch"))
		return
	}

	bills, err := h.scan.ScanEmails(c, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to scan emails")
		switch {
		case errors.Is(err, services.ErrScanNotPermitted):
			abort(c, newForbiddenError(services.ErrScanNotPermitted.Error()))
		case errors.Is(err, services.ErrMailNotConnected):
			abort(c, newForbiddenError("gmail account not connected"))
		case errors.Is(err, services.ErrGrantRevoked):
			abort(c, newForbiddenError("gmail access revoked, please reconnect your account"))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	response := scanEmailsResponse{
		Success: true,
		Bills:   make([]getBillResponse, len(bills)),
		Count:   len(bills),
	}
	for i, bill := range bills {
		response.Bills[i] = newGetBillResponse(&bill)
	}
	c.JSON(http.StatusOK, response)
}

// HandleEmailAuth redirects the browser to the Gmail consent screen.
// The state parameter is a signed, time-limited token so the callback
// can trust the user id and return path it carries.
func (h *handlerImpl) HandleEmailAuth(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	returnTo := c.Query("return_to")

	consentURL, err := h.tokens.ConsentURL(userID, returnTo)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to build consent url")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.Redirect(http.StatusFound, consentURL)
}

// HandleEmailAuthCallback receives the provider code, finishes the
// consent flow and sends the browser back to the dashboard with an
// auth_success or auth_error flag.
func (h *handlerImpl) HandleEmailAuthCallback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")

	if providerError := c.Query("error"); providerError != "" {
		h.logger.Warn().
			Str("error", providerError).
			Msg("consent denied by provider")
		h.redirectToAgent(c, "", "consent_denied")
		return
	}
	if state == "" || code == "" {
		h.logger.Error().Msg("missing state or code")
		h.redirectToAgent(c, "", "invalid_callback")
		return
	}

	_, returnTo, err := h.tokens.Connect(c, state, code)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to connect mail provider")
		reason := "exchange_failed"
		if errors.Is(err, services.ErrInvalidState) {
			reason = "invalid_state"
		}
		h.redirectToAgent(c, returnTo, reason)
		return
	}

	h.redirectToAgent(c, returnTo, "")
}

// HandleCheckGmailConnection reports whether the authenticated user has
// a working Gmail grant, refreshing an expired stored token in place
// when possible.
func (h *handlerImpl) HandleCheckGmailConnection(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	status := h.tokens.CheckConnection(c, userID)
	c.JSON(http.StatusOK, status)
}

func (h *handlerImpl) redirectToAgent(c *gin.Context, returnTo, authError string) {
	path := "/agent"
	if returnTo != "" && strings.HasPrefix(returnTo, "/") {
		path = returnTo
	}

	target := h.publicBaseURL + path
	if authError != "" {
		target += "?auth_error=" + url.QueryEscape(authError)
	} else {
		target += "?auth_success=true"
	}
	c.Redirect(http.StatusFound, target)
}

package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"agent-api/internal/services"
)

type Handler interface {
	HandleLogin(c *gin.Context)
	HandleRefresh(c *gin.Context)
	HandleRegister(c *gin.Context)
	HandleLogout(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)

	HandleCreateTask(c *gin.Context)
	HandleGetTasks(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleCompleteTask(c *gin.Context)
	HandleDeleteTask(c *gin.Context)

	HandleCreateNote(c *gin.Context)
	HandleGetNotes(c *gin.Context)
	HandleUpdateNote(c *gin.Context)
	HandlePinNote(c *gin.Context)
	HandleArchiveNote(c *gin.Context)
	HandleDeleteNote(c *gin.Context)

	HandleCreatePayment(c *gin.Context)
	HandleGetPayments(c *gin.Context)
	HandleUpdatePayment(c *gin.Context)
	HandleMarkPaymentPaid(c *gin.Context)
	HandleDeletePayment(c *gin.Context)

	HandleCreateGoal(c *gin.Context)
	HandleGetGoals(c *gin.Context)
	HandleUpdateGoal(c *gin.Context)
	HandleDeleteGoal(c *gin.Context)

	HandleGetBills(c *gin.Context)
	HandleApproveBill(c *gin.Context)
	HandleDismissBill(c *gin.Context)

	HandleScanEmails(c *gin.Context)
	HandleEmailAuth(c *gin.Context)
	HandleEmailAuthCallback(c *gin.Context)
	HandleCheckGmailConnection(c *gin.Context)
}

type handlerImpl struct {
	logger   zerolog.Logger
	auth     services.AuthService
	sessions services.SessionService
	scan     services.ScanService
	tokens   services.TokenService
	// pgPool backs the dashboard CRUD handlers, which query it
	// directly.
	pgPool        *pgxpool.Pool
	publicBaseURL string
}

func New(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
	authService services.AuthService,
	sessionService services.SessionService,
	scanService services.ScanService,
	tokenService services.TokenService,
	publicBaseURL string,
) Handler {
	return &handlerImpl{
		logger:        logger,
		auth:          authService,
		sessions:      sessionService,
		scan:          scanService,
		tokens:        tokenService,
		pgPool:        pgPool,
		publicBaseURL: publicBaseURL,
	}
}

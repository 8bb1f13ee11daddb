package queries_test

import (
	"context"
	"testing"
	"time"

	"drivethru/internal/adapters/out/postgres/orderrepo"
	"drivethru/internal/adapters/out/postgres/sessionrepo"
	"drivethru/internal/config"
	"drivethru/internal/core/application/usecases/queries"
	"drivethru/internal/core/domain/model/kernel"
	"drivethru/internal/core/domain/model/order"
	"drivethru/internal/core/domain/model/session"
	"drivethru/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gorm_postgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type GetOrderSnapshotQueryHandlerTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	handler   queries.GetOrderSnapshotQueryHandler
}

func (suite *GetOrderSnapshotQueryHandlerTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(gorm_postgres.Open(dsn), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	err = db.AutoMigrate(
		&sessionrepo.SessionDTO{},
		&orderrepo.OrderDTO{},
		&orderrepo.OrderLineDTO{},
	)
	suite.Require().NoError(err)

	suite.handler = queries.NewGetOrderSnapshotQueryHandler(db, config.NewDefaultPolicyFile())
}

func (suite *GetOrderSnapshotQueryHandlerTestSuite) TearDownSuite() {
	if suite.container != nil {
		err := suite.container.Terminate(context.Background())
		suite.Require().NoError(err)
	}
}

func (suite *GetOrderSnapshotQueryHandlerTestSuite) SetupTest() {
	err := suite.db.Exec("TRUNCATE TABLE sessions, orders, order_lines CASCADE").Error
	suite.Require().NoError(err)
}

func (suite *GetOrderSnapshotQueryHandlerTestSuite) TestHandle_LiveOrder_ReturnsLinesAndDerivedTotals() {
	sess, ord := suite.saveSessionWithOrder()

	suite.addLine(ord, "burger-01", "Cheeseburger", 2, 599)
	suite.addLine(ord, "fries-01", "Fries", 1, 299)
	suite.saveOrder(ord)

	query, err := queries.NewGetOrderSnapshotQuery(sess.ID())
	suite.Require().NoError(err)

	result, err := suite.handler.Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.Equal(sess.ID(), result.SessionID)
	suite.Equal(ord.ID(), result.OrderID)
	suite.Equal("Ordering", result.State)
	suite.Equal(2, result.Version)
	suite.False(result.Frozen)

	suite.Require().Len(result.Lines, 2)
	suite.Equal("Cheeseburger", result.Lines[0].Name)
	suite.Equal(2, result.Lines[0].Quantity)
	suite.Equal(int64(1198), result.Lines[0].LineTotal)
	suite.Equal("Fries", result.Lines[1].Name)

	// 1497 subtotal at 8% tax, rounded half-up.
	suite.Equal(int64(1497), result.Totals.Subtotal)
	suite.Equal(int64(120), result.Totals.Tax)
	suite.Equal(int64(1617), result.Totals.Total)
}

func (suite *GetOrderSnapshotQueryHandlerTestSuite) TestHandle_FrozenOrder_ReturnsStoredTotals() {
	sess, ord := suite.saveSessionWithOrder()

	suite.addLine(ord, "burger-01", "Cheeseburger", 1, 599)
	frozen := ord.Freeze(800)
	suite.saveOrder(ord)

	query, err := queries.NewGetOrderSnapshotQuery(sess.ID())
	suite.Require().NoError(err)

	result, err := suite.handler.Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.True(result.Frozen)
	suite.Equal(frozen, result.Totals)
}

func (suite *GetOrderSnapshotQueryHandlerTestSuite) TestHandle_EmptyOrder_ReturnsZeroTotals() {
	sess, _ := suite.saveSessionWithOrder()

	query, err := queries.NewGetOrderSnapshotQuery(sess.ID())
	suite.Require().NoError(err)

	result, err := suite.handler.Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.Empty(result.Lines)
	suite.Equal(order.Totals{}, result.Totals)
}

func (suite *GetOrderSnapshotQueryHandlerTestSuite) TestHandle_UnknownSession_ReturnsNotFound() {
	query, err := queries.NewGetOrderSnapshotQuery(kernel.NewUUID())
	suite.Require().NoError(err)

	_, err = suite.handler.Handle(context.Background(), query)

	suite.Require().Error(err)
	suite.ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *GetOrderSnapshotQueryHandlerTestSuite) TestHandle_InvalidQuery_ReturnsError() {
	invalidQuery := queries.GetOrderSnapshotQuery{}

	_, err := suite.handler.Handle(context.Background(), invalidQuery)

	suite.Require().Error(err)
	suite.Contains(err.Error(), "must be created via NewGetOrderSnapshotQuery constructor")
}

func (suite *GetOrderSnapshotQueryHandlerTestSuite) saveSessionWithOrder() (*session.Session, *order.Order) {
	ord, err := order.NewOrder(kernel.NewUUID(), order.DefaultLimits())
	suite.Require().NoError(err)

	sess, err := session.NewSession(
		kernel.NewUUID(),
		"rest-001",
		"lane-1",
		ord.ID(),
		time.Now(),
		90*time.Second,
	)
	suite.Require().NoError(err)

	_, err = sess.ApplyEvent(session.EventCarArrived, session.Guards{})
	suite.Require().NoError(err)

	sessionRepo := sessionrepo.NewGormSessionRepository(suite.db, &mockAggregateTracker{})
	suite.Require().NoError(sessionRepo.Add(context.Background(), sess))

	orderRepo := orderrepo.NewGormOrderRepository(suite.db, &mockAggregateTracker{})
	suite.Require().NoError(orderRepo.Add(context.Background(), ord))

	return sess, ord
}

func (suite *GetOrderSnapshotQueryHandlerTestSuite) addLine(
	ord *order.Order,
	menuItemID, name string,
	quantity int,
	priceCents int64,
) {
	price, err := kernel.NewMoneyFromCents(priceCents)
	suite.Require().NoError(err)

	_, err = ord.AddLine(order.LineSpec{
		MenuItemID: menuItemID,
		Name:       name,
		Quantity:   quantity,
		UnitPrice:  price,
	})
	suite.Require().NoError(err)
}

func (suite *GetOrderSnapshotQueryHandlerTestSuite) saveOrder(ord *order.Order) {
	orderRepo := orderrepo.NewGormOrderRepository(suite.db, &mockAggregateTracker{})
	suite.Require().NoError(orderRepo.Update(context.Background(), ord))
}

func TestGetOrderSnapshotQueryHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(GetOrderSnapshotQueryHandlerTestSuite))
}

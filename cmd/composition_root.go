package cmd

import (
	"log/slog"
	"os"

	"drivethru/internal/adapters/in/http"
	"drivethru/internal/adapters/out/menufile"
	"drivethru/internal/adapters/out/nlu"
	"drivethru/internal/adapters/out/postgres"
	"drivethru/internal/adapters/out/rabbitmq"
	"drivethru/internal/adapters/out/speech"
	"drivethru/internal/config"
	"drivethru/internal/core/application/usecases/commands"
	"drivethru/internal/core/application/usecases/queries"
	"drivethru/internal/core/ports"
	"drivethru/internal/jobs"
	"drivethru/internal/responder"
	"drivethru/internal/turn"

	"gorm.io/gorm"
)

type CompositionRoot struct {
	gormDB     *gorm.DB
	uowFactory postgres.GormUnitOfWorkFactory

	policies *config.PolicyFile
	menu     ports.MenuCatalog
	proposer *nlu.HTTPIntentProposer
	kitchen  *rabbitmq.KitchenPublisher

	turns   *turn.Registry
	phrases *responder.Responder
	logger  *slog.Logger
}

func NewCompositionRoot(configs Config, gormDB *gorm.DB) (*CompositionRoot, error) {
	policies, err := config.LoadPolicyFile(configs.PolicyFilePath)
	if err != nil {
		return nil, err
	}

	menu, err := menufile.LoadCatalog(configs.MenuFilePath)
	if err != nil {
		return nil, err
	}

	kitchen, err := rabbitmq.NewKitchenPublisher(configs.AmqpURL)
	if err != nil {
		return nil, err
	}

	return &CompositionRoot{
		gormDB:     gormDB,
		uowFactory: *postgres.NewGormUnitOfWorkFactory(gormDB),
		policies:   policies,
		menu:       menu,
		proposer:   nlu.NewHTTPIntentProposer(configs.ProposerURL),
		kitchen:    kitchen,
		turns:      turn.NewRegistry(),
		phrases:    responder.New(),
		logger:     slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}, nil
}

// Close releases the broker connection on shutdown.
func (c *CompositionRoot) Close() {
	c.kitchen.Close()
}

func (c *CompositionRoot) Logger() *slog.Logger {
	return c.logger
}

func (c *CompositionRoot) CreateStartSessionCommandHandler() commands.StartSessionCommandHandler {
	var f commands.TurnUoWFactory = FuncTurnUoWFactory(func() commands.TurnUoW {
		return c.uowFactory.Create()
	})
	return commands.NewStartSessionCommandHandler(f, c.policies, c.phrases)
}

func (c *CompositionRoot) CreateRunTurnCommandHandler() commands.RunTurnCommandHandler {
	var f commands.TurnUoWFactory = FuncTurnUoWFactory(func() commands.TurnUoW {
		return c.uowFactory.Create()
	})
	return commands.NewRunTurnCommandHandler(f, commands.RunTurnDependencies{
		Turns:       c.turns,
		Transcriber: speech.NewPassthroughTranscriber(),
		Proposer:    c.proposer,
		Menu:        c.menu,
		Synthesizer: speech.NewTextSynthesizer(),
		Kitchen:     c.kitchen,
		Policies:    c.policies,
		Phrases:     c.phrases,
		Logger:      c.logger,
	})
}

func (c *CompositionRoot) CreateEndSessionCommandHandler() commands.EndSessionCommandHandler {
	var f commands.SessionUoWFactory = FuncSessionUoWFactory(func() commands.SessionUoW {
		return c.uowFactory.Create()
	})
	return commands.NewEndSessionCommandHandler(f, c.turns)
}

func (c *CompositionRoot) CreateExpireIdleSessionsCommandHandler() commands.ExpireIdleSessionsCommandHandler {
	var f commands.SessionUoWFactory = FuncSessionUoWFactory(func() commands.SessionUoW {
		return c.uowFactory.Create()
	})
	return commands.NewExpireIdleSessionsCommandHandler(f, c.turns, c.logger)
}

func (c *CompositionRoot) CreateGetOrderSnapshotQueryHandler() queries.GetOrderSnapshotQueryHandler {
	return queries.NewGetOrderSnapshotQueryHandler(c.gormDB, c.policies)
}

func (c *CompositionRoot) CreateGetActiveSessionsQueryHandler() queries.GetActiveSessionsQueryHandler {
	return queries.NewGetActiveSessionsQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateServer() *http.Server {
	return http.NewServer(
		c.CreateStartSessionCommandHandler(),
		c.CreateRunTurnCommandHandler(),
		c.CreateEndSessionCommandHandler(),
		c.CreateGetOrderSnapshotQueryHandler(),
		c.CreateGetActiveSessionsQueryHandler(),
	)
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(c.CreateExpireIdleSessionsCommandHandler(), c.logger)
}

type FuncTurnUoWFactory func() commands.TurnUoW

func (f FuncTurnUoWFactory) Create() commands.TurnUoW {
	return f()
}

type FuncSessionUoWFactory func() commands.SessionUoW

func (f FuncSessionUoWFactory) Create() commands.SessionUoW {
	return f()
}

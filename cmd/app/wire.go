//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/appliance-assistant/internal/bootstrap"
	"github.com/yanqian/appliance-assistant/internal/domain/appliance"
	"github.com/yanqian/appliance-assistant/internal/domain/booking"
	"github.com/yanqian/appliance-assistant/internal/domain/flow"
	"github.com/yanqian/appliance-assistant/internal/infra/config"
	"github.com/yanqian/appliance-assistant/internal/infra/jsonrepo"
	"github.com/yanqian/appliance-assistant/internal/infra/partscatalog"
	httpiface "github.com/yanqian/appliance-assistant/internal/interface/http"
	"github.com/yanqian/appliance-assistant/pkg/logger"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		provideChatGPTClient,
		provideSchemaValidator,
		provideAgents,
		provideKnowledgeBase,
		provideTechnicians,
		provideCommonIssues,
		providePartsCatalog,
		provideBookingRepository,
		provideBookingConfig,
		provideFlowConfig,
		provideUploadLimit,
		provideImageStore,
		provideSessionStore,
		provideSessionTokens,
		provideCacheClearers,
		booking.NewService,
		flow.NewOrchestrator,
		flow.NewEngine,
		wire.Bind(new(appliance.KnowledgeBaseRepository), new(*jsonrepo.KnowledgeBaseRepository)),
		wire.Bind(new(appliance.TechnicianRepository), new(*jsonrepo.TechnicianRepository)),
		wire.Bind(new(appliance.CommonIssuesRepository), new(*jsonrepo.CommonIssuesRepository)),
		wire.Bind(new(appliance.PartsCatalog), new(*partscatalog.Catalog)),
		wire.Bind(new(httpiface.PartsCatalog), new(*partscatalog.Catalog)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}

//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/wanderpaws/wanderpaws/internal/bootstrap"
	"github.com/wanderpaws/wanderpaws/internal/domain/chatbuilder"
	"github.com/wanderpaws/wanderpaws/internal/domain/itinerary"
	"github.com/wanderpaws/wanderpaws/internal/infra/config"
	"github.com/wanderpaws/wanderpaws/internal/infra/llm/chatgpt"
	"github.com/wanderpaws/wanderpaws/internal/infra/places"
	httpiface "github.com/wanderpaws/wanderpaws/internal/interface/http"
	"github.com/wanderpaws/wanderpaws/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideChatClient,
		providePlacesClient,
		provideItineraryConfig,
		provideChatbuilderConfig,
		provideGenerationDeadline,
		providePostgresPool,
		providePolicyRepository,
		provideChatPolicyRepository,
		provideProfileRepository,
		provideResponseCache,
		itinerary.NewService,
		chatbuilder.NewService,
		wire.Bind(new(itinerary.ChatClient), new(*chatgpt.Client)),
		wire.Bind(new(itinerary.SearchClient), new(*places.Client)),
		wire.Bind(new(chatbuilder.AssistantClient), new(*chatgpt.Client)),
		wire.Bind(new(chatbuilder.SearchClient), new(*places.Client)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}

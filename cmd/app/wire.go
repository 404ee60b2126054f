//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/aduba/internal/bootstrap"
	"github.com/yanqian/aduba/internal/domain/auth"
	"github.com/yanqian/aduba/internal/domain/events"
	"github.com/yanqian/aduba/internal/domain/reading"
	"github.com/yanqian/aduba/internal/infra/config"
	httpiface "github.com/yanqian/aduba/internal/interface/http"
	"github.com/yanqian/aduba/pkg/logger"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		provideMetrics,
		provideGenerator,
		provideAuthConfig,
		provideReadingConfig,
		provideStorage,
		provideUserRepository,
		provideReadingRepository,
		provideSettingsRepository,
		provideEventRepository,
		provideRevocations,
		providePublisher,
		provideSettingsService,
		auth.NewService,
		reading.NewService,
		events.NewService,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}

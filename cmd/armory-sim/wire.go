//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/cory-johannsen/armory/internal/config"
)

func initializeSim(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Sim, func(), error) {
	wire.Build(simSet)
	return nil, nil, nil
}
